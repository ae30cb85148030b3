package transitions

import (
	"context"

	"github.com/jhoicas/Trazabilidad-api/internal/application/inventory"
	"github.com/jhoicas/Trazabilidad-api/internal/application/lots"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

// StockAppender registra un movimiento dentro de la transacción del empaque.
// Lo implementa *inventory.Ledger.
type StockAppender interface {
	AppendInTx(ctx context.Context, repos repository.Repositories, in inventory.AppendInput) (*entity.InventoryMovement, error)
}

// LotDeriver deriva lotes hijos dentro de una transacción. Lo implementa *lots.LotRegistry.
type LotDeriver interface {
	DeriveChild(ctx context.Context, repo repository.LotRepository, in lots.DeriveInput) (*entity.Lot, *entity.Lot, error)
}

var (
	_ StockAppender = (*inventory.Ledger)(nil)
	_ LotDeriver    = (*lots.LotRegistry)(nil)
)
