package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/application/inventory"
	"github.com/jhoicas/Trazabilidad-api/internal/application/usecase"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/testutil"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
)

func q(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type env struct {
	store     *testutil.Store
	ledger    *inventory.Ledger
	projector *inventory.StockProjector
	products  *usecase.ProductUseCase
}

func newEnv() *env {
	store := testutil.NewStore()
	repos := store.Repositories()
	log := logger.Nop()
	return &env{
		store:     store,
		ledger:    inventory.NewLedger(store, repos.Movements, nil, log),
		projector: inventory.NewStockProjector(store, repos.Products, store.Faults(), nil, log),
		products:  usecase.NewProductUseCase(repos.Products, log),
	}
}

func (e *env) product(t *testing.T, sku string) string {
	t.Helper()
	p, err := e.products.Create(context.Background(), dto.CreateProductRequest{SKU: sku, Name: "Café " + sku, StockMin: q(5)})
	require.NoError(t, err)
	return p.ID
}

func (e *env) append(t *testing.T, productID string, typ entity.MovementType, qty int64) *entity.InventoryMovement {
	t.Helper()
	mov, err := e.ledger.Append(context.Background(), inventory.AppendInput{
		ProductID: productID, Type: typ, Quantity: q(qty), Reason: "conteo", ActorID: "u1",
	})
	require.NoError(t, err)
	return mov
}

func TestAppend_SaldosPorTipo(t *testing.T) {
	e := newEnv()
	id := e.product(t, "CAF-TEST-1")

	in := e.append(t, id, entity.MovementTypeIn, 10)
	assert.True(t, in.QuantityBefore.IsZero())
	assert.True(t, in.QuantityAfter.Equal(q(10)))

	out := e.append(t, id, entity.MovementTypeOut, 15)
	assert.True(t, out.QuantityAfter.IsZero(), "la salida no deja saldo negativo")
	assert.True(t, out.Quantity.Equal(q(10)), "se registra solo lo disponible")

	adj := e.append(t, id, entity.MovementTypeAdjust, 7)
	assert.True(t, adj.Quantity.Equal(q(7)))
	assert.True(t, adj.QuantityAfter.Equal(q(7)))

	adj = e.append(t, id, entity.MovementTypeAdjust, 2)
	assert.True(t, adj.Quantity.Equal(q(-5)))

	ret := e.append(t, id, entity.MovementTypeReturn, 1)
	assert.True(t, ret.QuantityAfter.Equal(q(3)))

	p, err := e.products.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, p.StockQuantity.Equal(q(3)))

	report, err := e.projector.Verify(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, 5, report.MovementCount)
}

func TestAppend_Errores(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	id := e.product(t, "CAF-TEST-2")

	cases := []struct {
		name string
		in   inventory.AppendInput
		want error
	}{
		{"producto inexistente", inventory.AppendInput{ProductID: uuid.NewString(), Type: entity.MovementTypeIn, Quantity: q(1), Reason: "x"}, domain.ErrNotFound},
		{"sin motivo", inventory.AppendInput{ProductID: id, Type: entity.MovementTypeIn, Quantity: q(1)}, domain.ErrInvalidInput},
		{"tipo desconocido", inventory.AppendInput{ProductID: id, Type: "transfer", Quantity: q(1), Reason: "x"}, domain.ErrInvalidInput},
		{"cantidad negativa", inventory.AppendInput{ProductID: id, Type: entity.MovementTypeOut, Quantity: q(-1), Reason: "x"}, domain.ErrInvalidQuantity},
		{"entrada en cero", inventory.AppendInput{ProductID: id, Type: entity.MovementTypeIn, Quantity: q(0), Reason: "x"}, domain.ErrInvalidQuantity},
		{"más de tres decimales", inventory.AppendInput{ProductID: id, Type: entity.MovementTypeIn, Quantity: decimal.RequireFromString("1.0005"), Reason: "x"}, domain.ErrInvalidQuantity},
		{"ajuste con más de tres decimales", inventory.AppendInput{ProductID: id, Type: entity.MovementTypeAdjust, Quantity: decimal.RequireFromString("2.0001"), Reason: "x"}, domain.ErrInvalidQuantity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.ledger.Append(ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, 0, e.store.MovementCount())
}

func TestAppend_FallaAlProyectarRevierteElMovimiento(t *testing.T) {
	e := newEnv()
	id := e.product(t, "CAF-TEST-3")
	e.store.Fail(testutil.OpProductUpdate, errors.New("conexión perdida"))

	_, err := e.ledger.Append(context.Background(), inventory.AppendInput{ProductID: id, Type: entity.MovementTypeIn, Quantity: q(4), Reason: "compra"})
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Equal(t, 0, e.store.MovementCount())
}

func TestList_FiltraYOrdenaDescendente(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	a := e.product(t, "CAF-A")
	b := e.product(t, "CAF-B")
	e.append(t, a, entity.MovementTypeIn, 5)
	e.append(t, b, entity.MovementTypeIn, 2)
	last := e.append(t, a, entity.MovementTypeLoss, 1)

	list, total, err := e.ledger.List(ctx, entity.MovementFilter{ProductID: a}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, list, 2)
	assert.Equal(t, last.ID, list[0].ID)

	list, total, err = e.ledger.List(ctx, entity.MovementFilter{Type: entity.MovementTypeIn}, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, list, 1)

	from := time.Now().Add(time.Hour)
	to := time.Now()
	_, _, err = e.ledger.List(ctx, entity.MovementFilter{From: &from, To: &to}, 10, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVerify_DetectaYRegistraDivergencia(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	id := e.product(t, "CAF-TEST-4")
	e.append(t, id, entity.MovementTypeIn, 10)
	e.store.CorruptStock(id, q(12))

	report, err := e.projector.Verify(ctx, id)
	require.ErrorIs(t, err, domain.ErrIntegrityFault)
	var ie *domain.IntegrityError
	require.True(t, errors.As(err, &ie))
	assert.True(t, ie.Stored.Equal(q(12)))
	assert.True(t, ie.Replayed.Equal(q(10)))
	require.NotNil(t, report)
	assert.False(t, report.Consistent)

	p, err := e.products.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, p.StockQuantity.Equal(q(12)), "la divergencia no se corrige")

	faults, err := e.projector.ListFaults(ctx, id, 10, 0)
	require.NoError(t, err)
	require.Len(t, faults, 1)
	assert.Equal(t, 1, faults[0].MovementCount)
}

func TestVerify_ReplayPorSeqAunqueCreatedAtRetroceda(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	id := e.product(t, "CAF-TEST-SEQ")
	movements := e.store.Repositories().Movements
	now := time.Now().UTC()

	// El segundo movimiento trae un reloj atrasado: por created_at quedaría antes de la entrada.
	chain := []*entity.InventoryMovement{
		{ID: uuid.NewString(), ProductID: id, Type: entity.MovementTypeIn, Quantity: q(10), QuantityBefore: q(0), QuantityAfter: q(10), Reason: "compra", CreatedAt: now},
		{ID: uuid.NewString(), ProductID: id, Type: entity.MovementTypeOut, Quantity: q(4), QuantityBefore: q(10), QuantityAfter: q(6), Reason: "venta", CreatedAt: now.Add(-time.Minute)},
	}
	for _, m := range chain {
		require.NoError(t, movements.Create(ctx, m))
	}
	require.NoError(t, e.store.Repositories().Products.UpdateStock(ctx, id, q(6)))

	report, err := e.projector.Verify(ctx, id)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.True(t, report.Replayed.Equal(q(6)))
	assert.Equal(t, 2, report.MovementCount)
}

func TestVerifyAll_AcumulaFallas(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	var ids []string
	for _, sku := range []string{"CAF-1", "CAF-2", "CAF-3"} {
		id := e.product(t, sku)
		e.append(t, id, entity.MovementTypeIn, 3)
		ids = append(ids, id)
	}
	e.store.CorruptStock(ids[1], q(0))

	summary, err := e.projector.VerifyAll(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Checked)
	require.Len(t, summary.Faults, 1)
	assert.Equal(t, ids[1], summary.Faults[0].ProductID)
}

func TestVerify_ProductoInexistente(t *testing.T) {
	e := newEnv()
	_, err := e.projector.Verify(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedger_PropiedadStockIgualReplay(t *testing.T) {
	types := []entity.MovementType{
		entity.MovementTypeIn, entity.MovementTypeOut, entity.MovementTypeAdjust,
		entity.MovementTypeLoss, entity.MovementTypeReturn,
	}
	rapid.Check(t, func(rt *rapid.T) {
		e := newEnv()
		ctx := context.Background()
		p, err := e.products.Create(ctx, dto.CreateProductRequest{SKU: "CAF-PROP", Name: "Propiedad"})
		if err != nil {
			rt.Fatalf("crear producto: %v", err)
		}
		steps := rapid.IntRange(1, 30).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			typ := rapid.SampledFrom(types).Draw(rt, "type")
			lo := int64(1)
			if typ == entity.MovementTypeAdjust {
				lo = 0
			}
			qty := rapid.Int64Range(lo, 100).Draw(rt, "qty")
			mov, err := e.ledger.Append(ctx, inventory.AppendInput{ProductID: p.ID, Type: typ, Quantity: q(qty), Reason: "prop"})
			if err != nil {
				rt.Fatalf("append: %v", err)
			}
			if mov.QuantityAfter.IsNegative() {
				rt.Fatalf("saldo negativo %s", mov.QuantityAfter)
			}
		}
		report, err := e.projector.Verify(ctx, p.ID)
		if err != nil {
			rt.Fatalf("verify: %v", err)
		}
		if !report.Consistent {
			rt.Fatalf("stock %s, replay %s", report.Stored, report.Replayed)
		}
	})
}
