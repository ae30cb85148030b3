package usecase_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/application/inventory"
	"github.com/jhoicas/Trazabilidad-api/internal/application/usecase"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/testutil"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func setup() (*usecase.ProductUseCase, *inventory.Ledger) {
	store := testutil.NewStore()
	repos := store.Repositories()
	return usecase.NewProductUseCase(repos.Products, logger.Nop()),
		inventory.NewLedger(store, repos.Movements, nil, logger.Nop())
}

func TestCreate_SKUEnMayusculasYDuplicado(t *testing.T) {
	uc, _ := setup()
	ctx := context.Background()

	p, err := uc.Create(ctx, dto.CreateProductRequest{SKU: " caf-cat-01 ", Name: "Café de la casa 500g", StockMin: dec(10)})
	require.NoError(t, err)
	assert.Equal(t, "CAF-CAT-01", p.SKU)
	assert.Equal(t, entity.ProductKindCatalog, p.Kind)
	assert.True(t, p.StockQuantity.IsZero())

	_, err = uc.Create(ctx, dto.CreateProductRequest{SKU: "CAF-CAT-01", Name: "Otro"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = uc.Create(ctx, dto.CreateProductRequest{SKU: "CAF-CAT-02", Name: "Negativo", Price: decPtr(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSetPricing(t *testing.T) {
	uc, _ := setup()
	ctx := context.Background()
	p, err := uc.Create(ctx, dto.CreateProductRequest{SKU: "CAF-P", Name: "Precio", StockMin: dec(8)})
	require.NoError(t, err)
	assert.Nil(t, p.Price)

	_, err = uc.SetPricing(ctx, p.ID, dto.SetPricingRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.SetPricing(ctx, uuid.NewString(), dto.SetPricingRequest{Price: decPtr(30000)})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	updated, err := uc.SetPricing(ctx, p.ID, dto.SetPricingRequest{Price: decPtr(32000), Cost: decPtr(18000)})
	require.NoError(t, err)
	require.NotNil(t, updated.Price)
	assert.True(t, updated.Price.Equal(dec(32000)))
	assert.True(t, updated.StockMin.Equal(dec(8)), "sin stock_min se conserva el actual")

	got, err := uc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Cost.Equal(dec(18000)))
}

func TestLowStock_OrdenPorDeficitRelativo(t *testing.T) {
	uc, ledger := setup()
	ctx := context.Background()
	create := func(sku string, min, stock int64) string {
		p, err := uc.Create(ctx, dto.CreateProductRequest{SKU: sku, Name: sku, StockMin: dec(min)})
		require.NoError(t, err)
		if stock > 0 {
			_, err = ledger.Append(ctx, inventory.AppendInput{ProductID: p.ID, Type: entity.MovementTypeAdjust, Quantity: dec(stock), Reason: "conteo inicial"})
			require.NoError(t, err)
		}
		return p.ID
	}
	a := create("CAF-A", 10, 2)
	b := create("CAF-B", 4, 3)
	create("CAF-C", 10, 10)
	d := create("CAF-D", 2, 0)

	list, err := uc.LowStock(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, d, list[0].ProductID)
	assert.Equal(t, a, list[1].ProductID)
	assert.Equal(t, b, list[2].ProductID)
	assert.True(t, list[1].SuggestedOrderQty.Equal(dec(13)))
	assert.True(t, list[1].IdealStock.Equal(dec(15)))
	for i, s := range list {
		assert.Equal(t, i+1, s.Priority)
	}
}
