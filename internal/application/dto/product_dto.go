package dto

import (
	"time"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CreateProductRequest body para POST /api/products (SKU de catálogo).
type CreateProductRequest struct {
	SKU          string           `json:"sku" validate:"required,max=80"`
	Name         string           `json:"name" validate:"required,max=200"`
	Presentation string           `json:"presentation,omitempty" validate:"omitempty,oneof=whole_bean ground"`
	GrindSize    string           `json:"grind_size,omitempty" validate:"max=40"`
	PackageSize  string           `json:"package_size,omitempty" validate:"max=20"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	Cost         *decimal.Decimal `json:"cost,omitempty"`
	StockMin     decimal.Decimal  `json:"stock_min"`
}

// SetPricingRequest body para PUT /api/products/:id/pricing. StockMin nil conserva el actual.
type SetPricingRequest struct {
	Price    *decimal.Decimal `json:"price" validate:"required"`
	Cost     *decimal.Decimal `json:"cost,omitempty"`
	StockMin *decimal.Decimal `json:"stock_min,omitempty"`
}

// ProductResponse respuesta de producto.
type ProductResponse struct {
	ID            string              `json:"id"`
	SKU           string              `json:"sku"`
	Name          string              `json:"name"`
	Kind          entity.ProductKind  `json:"kind"`
	SourceLotID   *string             `json:"source_lot_id,omitempty"`
	Presentation  entity.Presentation `json:"presentation,omitempty"`
	GrindSize     string              `json:"grind_size,omitempty"`
	PackageSize   string              `json:"package_size,omitempty"`
	Price         *decimal.Decimal    `json:"price"`
	Cost          *decimal.Decimal    `json:"cost"`
	StockQuantity decimal.Decimal     `json:"stock_quantity"`
	StockMin      decimal.Decimal     `json:"stock_min"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// ProductListResponse listado paginado de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// ReplenishmentSuggestionDTO SKU por debajo de su punto de reorden con la cantidad sugerida.
type ReplenishmentSuggestionDTO struct {
	ProductID         string          `json:"product_id"`
	SKU               string          `json:"sku"`
	ProductName       string          `json:"product_name"`
	CurrentStock      decimal.Decimal `json:"current_stock"`
	StockMin          decimal.Decimal `json:"stock_min"`
	IdealStock        decimal.Decimal `json:"ideal_stock"`         // StockMin * 1.5
	SuggestedOrderQty decimal.Decimal `json:"suggested_order_qty"` // IdealStock - CurrentStock
	Priority          int             `json:"priority"`            // 1 = más urgente
}

// ToProductResponse convierte la entidad a su respuesta.
func ToProductResponse(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID: p.ID, SKU: p.SKU, Name: p.Name, Kind: p.Kind, SourceLotID: p.SourceLotID,
		Presentation: p.Presentation, GrindSize: p.GrindSize, PackageSize: p.PackageSize,
		Price: p.Price, Cost: p.Cost, StockQuantity: p.StockQuantity, StockMin: p.StockMin,
		CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
}
