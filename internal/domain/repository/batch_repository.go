package repository

import (
	"context"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

// BatchRepository puerto de persistencia de los registros por etapa (una tabla por etapa).
// Los métodos ForUpdate bloquean la fila; AdvanceXStatus solo actualiza si el estado actual es from.
type BatchRepository interface {
	CreateRoasting(ctx context.Context, b *entity.RoastingBatch) error
	GetRoasting(ctx context.Context, id string) (*entity.RoastingBatch, error)
	GetRoastingForUpdate(ctx context.Context, id string) (*entity.RoastingBatch, error)
	AdvanceRoastingStatus(ctx context.Context, id string, from, to entity.BatchStatus) error
	ListRoasting(ctx context.Context, status entity.BatchStatus, limit, offset int) ([]*entity.RoastingBatch, error)

	CreateRoasted(ctx context.Context, b *entity.RoastedBatch) error
	GetRoasted(ctx context.Context, id string) (*entity.RoastedBatch, error)
	GetRoastedForUpdate(ctx context.Context, id string) (*entity.RoastedBatch, error)
	AdvanceRoastedStatus(ctx context.Context, id string, from, to entity.BatchStatus) error
	ListRoasted(ctx context.Context, status entity.BatchStatus, limit, offset int) ([]*entity.RoastedBatch, error)

	CreateStorage(ctx context.Context, b *entity.StorageBatch) error
	GetStorage(ctx context.Context, id string) (*entity.StorageBatch, error)
	GetStorageForUpdate(ctx context.Context, id string) (*entity.StorageBatch, error)
	AdvanceStorageStatus(ctx context.Context, id string, from, to entity.BatchStatus) error
	ListStorage(ctx context.Context, status entity.BatchStatus, limit, offset int) ([]*entity.StorageBatch, error)

	CreatePackaged(ctx context.Context, b *entity.PackagedBatch) error
	GetPackaged(ctx context.Context, id string) (*entity.PackagedBatch, error)
	ListPackaged(ctx context.Context, limit, offset int) ([]*entity.PackagedBatch, error)
}
