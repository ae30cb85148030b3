package repository

import (
	"context"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ProductRepository puerto de persistencia para Product.
// StockQuantity solo se escribe con UpdateStock, desde el InventoryLedger.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	// CreateIfAbsent inserta el producto salvo que el SKU ya exista; no falla en ese caso.
	CreateIfAbsent(ctx context.Context, product *entity.Product) (bool, error)
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	// GetForUpdate bloquea la fila del producto (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	UpdateStock(ctx context.Context, id string, quantity decimal.Decimal) error
	UpdatePricing(ctx context.Context, id string, price, cost *decimal.Decimal, stockMin decimal.Decimal) error
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
	ListBelowMinimum(ctx context.Context, limit, offset int) ([]*entity.Product, error)
}
