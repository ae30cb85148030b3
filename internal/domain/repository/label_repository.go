package repository

import (
	"context"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

// LabelRepository puerto append-only de etiquetas.
type LabelRepository interface {
	// LockBatch serializa la asignación de secuencias de un lote empacado dentro de la transacción.
	LockBatch(ctx context.Context, packagedBatchID string) error
	MaxSequence(ctx context.Context, packagedBatchID string) (int, error)
	Create(ctx context.Context, label *entity.Label) error
	ListByBatch(ctx context.Context, packagedBatchID string) ([]*entity.Label, error)
	GetByCode(ctx context.Context, code string) (*entity.Label, error)
}
