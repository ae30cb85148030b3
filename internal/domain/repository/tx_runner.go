package repository

import "context"

// Repositories repositorios atados a una misma transacción.
type Repositories struct {
	Lots      LotRepository
	Batches   BatchRepository
	Products  ProductRepository
	Movements InventoryMovementRepository
	Labels    LabelRepository
}

// TxRunner ejecuta fn dentro de una transacción de BD con repositorios atados a ella.
// Si fn devuelve error se hace Rollback; si no, Commit. Garantiza el todo-o-nada de cada operación.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
