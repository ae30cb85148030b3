package repository

import (
	"context"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

// IntegrityFaultRepository historial append-only de divergencias del StockProjector.
type IntegrityFaultRepository interface {
	Create(ctx context.Context, fault *entity.IntegrityFault) error
	List(ctx context.Context, productID string, limit, offset int) ([]*entity.IntegrityFault, error)
}
