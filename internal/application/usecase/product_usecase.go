package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/process"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// ProductUseCase casos de uso del catálogo. El stock se maneja solo vía ledger.
type ProductUseCase struct {
	repo repository.ProductRepository
	log  *logger.Logger
	now  func() time.Time
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, log *logger.Logger) *ProductUseCase {
	return &ProductUseCase{repo: repo, log: log.Named("products"), now: time.Now}
}

// Create crea un SKU de catálogo con stock 0.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	sku := strings.ToUpper(strings.TrimSpace(in.SKU))
	name := strings.TrimSpace(in.Name)
	if sku == "" || name == "" {
		return nil, fmt.Errorf("%w: sku y name son requeridos", domain.ErrInvalidInput)
	}
	presentation := entity.Presentation(in.Presentation)
	if presentation != "" && !presentation.Valid() {
		return nil, fmt.Errorf("%w: presentación %q", domain.ErrInvalidInput, in.Presentation)
	}
	if err := validatePricing(in.Price, in.Cost, in.StockMin); err != nil {
		return nil, err
	}
	existing, err := uc.repo.GetBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: SKU %s", domain.ErrDuplicate, sku)
	}
	now := uc.now().UTC()
	product := &entity.Product{
		ID:            uuid.New().String(),
		SKU:           sku,
		Name:          name,
		Kind:          entity.ProductKindCatalog,
		Presentation:  presentation,
		GrindSize:     strings.TrimSpace(in.GrindSize),
		PackageSize:   strings.TrimSpace(in.PackageSize),
		Price:         in.Price,
		Cost:          in.Cost,
		StockQuantity: decimal.Zero,
		StockMin:      in.StockMin,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	uc.log.Info().Str("product_id", product.ID).Str("sku", sku).Msg("producto de catálogo creado")
	out := dto.ToProductResponse(product)
	return &out, nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
	}
	out := dto.ToProductResponse(product)
	return &out, nil
}

// List lista productos con paginación.
func (uc *ProductUseCase) List(ctx context.Context, limit, offset int) (*dto.ProductListResponse, error) {
	list, err := uc.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, dto.ToProductResponse(p))
	}
	return &dto.ProductListResponse{Items: items, Page: dto.PageResponse{Limit: limit, Offset: offset}}, nil
}

// SetPricing fija precio, costo y punto de reorden de un producto (también de los creados al empacar).
func (uc *ProductUseCase) SetPricing(ctx context.Context, id string, in dto.SetPricingRequest) (*dto.ProductResponse, error) {
	if in.Price == nil {
		return nil, fmt.Errorf("%w: price es requerido", domain.ErrInvalidInput)
	}
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
	}
	stockMin := product.StockMin
	if in.StockMin != nil {
		stockMin = *in.StockMin
	}
	if err := validatePricing(in.Price, in.Cost, stockMin); err != nil {
		return nil, err
	}
	if err := uc.repo.UpdatePricing(ctx, id, in.Price, in.Cost, stockMin); err != nil {
		return nil, err
	}
	product.Price, product.Cost, product.StockMin = in.Price, in.Cost, stockMin
	product.UpdatedAt = uc.now().UTC()
	uc.log.Info().Str("product_id", id).Str("price", in.Price.String()).Msg("precio fijado")
	out := dto.ToProductResponse(product)
	return &out, nil
}

func validatePricing(price, cost *decimal.Decimal, stockMin decimal.Decimal) error {
	if price != nil && price.IsNegative() {
		return fmt.Errorf("%w: precio negativo", domain.ErrInvalidInput)
	}
	if cost != nil && cost.IsNegative() {
		return fmt.Errorf("%w: costo negativo", domain.ErrInvalidInput)
	}
	if stockMin.IsNegative() {
		return fmt.Errorf("%w: stock mínimo negativo", domain.ErrInvalidInput)
	}
	for name, v := range map[string]*decimal.Decimal{"precio": price, "costo": cost} {
		if v != nil && !process.FitsNumeric(*v, 14, 2) {
			return fmt.Errorf("%w: %s %s admite hasta 2 decimales", domain.ErrInvalidInput, name, v.String())
		}
	}
	if !process.FitsNumeric(stockMin, process.QuantityPrecision, process.QuantityScale) {
		return fmt.Errorf("%w: stock mínimo %s admite hasta %d decimales", domain.ErrInvalidInput, stockMin.String(), process.QuantityScale)
	}
	return nil
}

// LowStock devuelve los productos bajo su punto de reorden con la cantidad sugerida de pedido,
// ordenados por mayor déficit relativo.
func (uc *ProductUseCase) LowStock(ctx context.Context, limit, offset int) ([]dto.ReplenishmentSuggestionDTO, error) {
	list, err := uc.repo.ListBelowMinimum(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	factor := decimal.NewFromFloat(1.5)
	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0, len(list))
	for _, p := range list {
		ideal := p.StockMin.Mul(factor)
		suggested := ideal.Sub(p.StockQuantity)
		if suggested.IsNegative() {
			suggested = decimal.Zero
		}
		suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
			ProductID:         p.ID,
			SKU:               p.SKU,
			ProductName:       p.Name,
			CurrentStock:      p.StockQuantity,
			StockMin:          p.StockMin,
			IdealStock:        ideal,
			SuggestedOrderQty: suggested,
		})
	}
	// Déficit relativo: (mínimo - actual) / mínimo. Empate: mayor déficit absoluto.
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		ra := a.StockMin.Sub(a.CurrentStock).Div(a.StockMin)
		rb := b.StockMin.Sub(b.CurrentStock).Div(b.StockMin)
		if !ra.Equal(rb) {
			return ra.GreaterThan(rb)
		}
		return a.StockMin.Sub(a.CurrentStock).GreaterThan(b.StockMin.Sub(b.CurrentStock))
	})
	for i := range suggestions {
		suggestions[i].Priority = offset + i + 1
	}
	return suggestions, nil
}
