package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductKind distingue el origen del SKU; ambos se leen con la misma forma.
type ProductKind string

const (
	ProductKindCatalog    ProductKind = "catalog"     // creado por fuera del pipeline
	ProductKindLotDerived ProductKind = "lot_derived" // creado al empacar un lote como vendible
)

// Product representa un SKU vendible.
// StockQuantity es la proyección del ledger y solo la escribe el InventoryLedger.
// Price y Cost son nil hasta que se fijan con la operación explícita de precios.
type Product struct {
	ID            string
	SKU           string // único
	Name          string
	Kind          ProductKind
	SourceLotID   *string
	Presentation  Presentation
	GrindSize     string
	PackageSize   string
	Price         *decimal.Decimal
	Cost          *decimal.Decimal
	StockQuantity decimal.Decimal
	StockMin      decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsPriced indica si el producto ya tiene precio de venta.
func (p *Product) IsPriced() bool {
	return p.Price != nil
}

// BelowMinimum indica si el stock está por debajo del punto de reorden.
func (p *Product) BelowMinimum() bool {
	return p.StockQuantity.LessThan(p.StockMin)
}
