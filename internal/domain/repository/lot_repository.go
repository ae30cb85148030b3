package repository

import (
	"context"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// LotRepository puerto de persistencia de lotes (tabla con llave foránea al padre).
type LotRepository interface {
	Create(ctx context.Context, lot *entity.Lot) error
	GetByID(ctx context.Context, id string) (*entity.Lot, error)
	GetByCode(ctx context.Context, code string) (*entity.Lot, error)
	// GetForUpdate bloquea la fila del lote (SELECT FOR UPDATE) hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Lot, error)
	// UpdateQuantityAndStage escribe cantidad y etapa si la versión coincide; incrementa la versión.
	UpdateQuantityAndStage(ctx context.Context, id string, expectedVersion int, quantity decimal.Decimal, stage entity.LotStage) error
	ListByStage(ctx context.Context, stage entity.LotStage, limit, offset int) ([]*entity.Lot, error)
	ListChildren(ctx context.Context, parentID string) ([]*entity.Lot, error)
}
