package repository

import (
	"context"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

// InventoryMovementRepository puerto del ledger. Solo inserta: no hay Update ni Delete.
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	GetByID(ctx context.Context, id string) (*entity.InventoryMovement, error)
	// List ordena por fecha descendente.
	List(ctx context.Context, filter entity.MovementFilter, limit, offset int) ([]*entity.InventoryMovement, int, error)
	// ListForReplay devuelve todos los movimientos del producto en orden de inserción (seq ascendente).
	ListForReplay(ctx context.Context, productID string) ([]*entity.InventoryMovement, error)
}
