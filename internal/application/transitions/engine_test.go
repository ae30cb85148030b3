package transitions_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/application/inventory"
	"github.com/jhoicas/Trazabilidad-api/internal/application/lots"
	"github.com/jhoicas/Trazabilidad-api/internal/application/transitions"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/process"
	"github.com/jhoicas/Trazabilidad-api/internal/testutil"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
)

const actor = "00000000-0000-0000-0000-0000000000aa"

func num(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

type fixture struct {
	store     *testutil.Store
	registry  *lots.LotRegistry
	ledger    *inventory.Ledger
	projector *inventory.StockProjector
	engine    *transitions.Engine
}

func newFixture() *fixture {
	store := testutil.NewStore()
	repos := store.Repositories()
	log := logger.Nop()
	registry := lots.NewLotRegistry(repos.Lots, log)
	ledger := inventory.NewLedger(store, repos.Movements, nil, log)
	return &fixture{
		store:     store,
		registry:  registry,
		ledger:    ledger,
		projector: inventory.NewStockProjector(store, repos.Products, store.Faults(), nil, log),
		engine:    transitions.NewEngine(store, repos.Batches, registry, ledger, nil, log),
	}
}

func (f *fixture) greenLot(t *testing.T, weight float64) *entity.Lot {
	t.Helper()
	lot, err := f.registry.RegisterHarvest(context.Background(), dto.RegisterHarvestRequest{
		Farm: "Finca La Esperanza", Variety: "Caturra", Process: "Lavado", WeightKg: num(weight),
	})
	require.NoError(t, err)
	return lot
}

func (f *fixture) lot(t *testing.T, id string) *entity.Lot {
	t.Helper()
	lot, err := f.registry.GetByCodeOrID(context.Background(), id)
	require.NoError(t, err)
	return lot
}

// storedBatch lleva un lote verde hasta almacenamiento listo para empacar.
func (f *fixture) storedBatch(t *testing.T, greenID string, sent, roasted float64) *entity.StorageBatch {
	t.Helper()
	ctx := context.Background()
	sendRes, err := f.engine.SendToRoast(ctx, transitions.SendToRoastInput{GreenLotID: greenID, Weight: num(sent), ActorID: actor})
	require.NoError(t, err)
	roastedBatch, err := f.engine.RetrieveRoast(ctx, transitions.RetrieveRoastInput{
		RoastingBatchID: sendRes.Batch.ID, RoastedWeight: num(roasted), RoastLevel: "medio", ActorID: actor,
	})
	require.NoError(t, err)
	storage, err := f.engine.StoreRoasted(ctx, transitions.StoreRoastedInput{
		RoastedBatchID: roastedBatch.ID, Location: "Bodega 1", ContainerType: "valvulada", ContainerCount: 2, ActorID: actor,
	})
	require.NoError(t, err)
	return storage
}

func sellable(storageID string, units int) transitions.PackageInput {
	return transitions.PackageInput{
		StorageBatchID:     storageID,
		Acidity:            num(8),
		Body:               num(7),
		Balance:            num(9),
		Presentation:       entity.PresentationWholeBean,
		PackageSize:        "250g",
		UnitCount:          units,
		AddToSellableStock: true,
		ActorID:            actor,
	}
}

func TestPipeline_CosechaHastaStockVendible(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	green := f.greenLot(t, 20)

	sendRes, err := f.engine.SendToRoast(ctx, transitions.SendToRoastInput{GreenLotID: green.ID, Weight: num(12), ActorID: actor})
	require.NoError(t, err)
	assert.True(t, sendRes.SourceRemaining.Equal(num(8)))
	assert.True(t, sendRes.Batch.QuantitySent.Equal(num(12)))
	assert.Equal(t, entity.StatusInRoasting, sendRes.Batch.Status)
	assert.Equal(t, entity.LotStageGreen, f.lot(t, green.ID).Stage, "el lote verde conserva su etapa")
	assert.True(t, f.lot(t, green.ID).Quantity.Equal(num(8)))

	roasted, err := f.engine.RetrieveRoast(ctx, transitions.RetrieveRoastInput{
		RoastingBatchID: sendRes.Batch.ID, RoastedWeight: num(10), RoastLevel: "medio", ActorID: actor,
	})
	require.NoError(t, err)
	assert.Equal(t, "16.67", roasted.WeightLossPercent.StringFixed(2))
	assert.Equal(t, entity.StatusReadyForStorage, roasted.Status)
	roastedLot := f.lot(t, roasted.LotID)
	assert.Equal(t, entity.LotStageRoasted, roastedLot.Stage)
	assert.True(t, roastedLot.Quantity.Equal(num(10)))

	storage, err := f.engine.StoreRoasted(ctx, transitions.StoreRoastedInput{
		RoastedBatchID: roasted.ID, Location: "Bodega 1", ContainerType: "valvulada", ContainerCount: 2, ActorID: actor,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusReadyForPackaging, storage.Status)

	res, err := f.engine.Package(ctx, sellable(storage.ID, 40))
	require.NoError(t, err)
	assert.Equal(t, "8.0", res.Batch.Score.StringFixed(1))
	assert.Equal(t, entity.StatusReadyForSale, res.Batch.Status)
	require.NotNil(t, res.Product)
	require.NotNil(t, res.Movement)
	assert.Equal(t, entity.ProductKindLotDerived, res.Product.Kind)
	assert.Nil(t, res.Product.Price, "el producto derivado queda sin precio")
	assert.True(t, res.Product.StockQuantity.Equal(num(40)))
	assert.Equal(t, entity.MovementTypeIn, res.Movement.Type)
	assert.True(t, res.Movement.Quantity.Equal(num(40)))
	assert.True(t, res.Movement.QuantityBefore.IsZero())
	assert.True(t, res.Movement.QuantityAfter.Equal(num(40)))
	assert.Equal(t, transitions.ReasonPackaging, res.Movement.Reason)
	assert.Equal(t, res.Batch.ID, res.Movement.Reference)
	assert.Equal(t, 1, f.store.MovementCount())
	assert.Equal(t, entity.LotStagePackaged, f.lot(t, res.Batch.LotID).Stage)

	report, err := f.projector.Verify(ctx, res.Product.ID)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
}

func TestSendToRoast_CantidadInsuficienteSinEfectos(t *testing.T) {
	f := newFixture()
	green := f.greenLot(t, 20)

	_, err := f.engine.SendToRoast(context.Background(), transitions.SendToRoastInput{GreenLotID: green.ID, Weight: num(25)})
	require.ErrorIs(t, err, domain.ErrInsufficientQuantity)
	var qe *domain.QuantityError
	require.True(t, errors.As(err, &qe))
	assert.True(t, qe.Available.Equal(num(20)))

	assert.True(t, f.lot(t, green.ID).Quantity.Equal(num(20)))
	list, err := f.engine.ListRoasting(context.Background(), "", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSendToRoast_Validaciones(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	green := f.greenLot(t, 5)

	_, err := f.engine.SendToRoast(ctx, transitions.SendToRoastInput{GreenLotID: green.ID, Weight: num(0)})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.engine.SendToRoast(ctx, transitions.SendToRoastInput{GreenLotID: uuid.NewString(), Weight: num(1)})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	res, err := f.engine.SendToRoast(ctx, transitions.SendToRoastInput{GreenLotID: green.ID, Weight: num(2)})
	require.NoError(t, err)
	_, err = f.engine.SendToRoast(ctx, transitions.SendToRoastInput{GreenLotID: res.Lot.ID, Weight: num(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidState, "solo se envía café verde")
}

func TestSendToRoast_ConcurrenteSinDobleGasto(t *testing.T) {
	f := newFixture()
	green := f.greenLot(t, 10)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.engine.SendToRoast(context.Background(), transitions.SendToRoastInput{GreenLotID: green.ID, Weight: num(6)})
		}(i)
	}
	wg.Wait()

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientQuantity):
			insufficient++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)
	assert.True(t, f.lot(t, green.ID).Quantity.Equal(num(4)))
}

func TestSendToRoast_VariosEnviosHastaAgotar(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	green := f.greenLot(t, 10)

	for _, w := range []float64{4, 4, 2} {
		_, err := f.engine.SendToRoast(ctx, transitions.SendToRoastInput{GreenLotID: green.ID, Weight: num(w)})
		require.NoError(t, err)
	}
	_, err := f.engine.SendToRoast(ctx, transitions.SendToRoastInput{GreenLotID: green.ID, Weight: num(0.5)})
	assert.ErrorIs(t, err, domain.ErrInsufficientQuantity)
	assert.True(t, f.lot(t, green.ID).Quantity.IsZero())

	descendants, err := f.registry.Descendants(ctx, green.ID)
	require.NoError(t, err)
	assert.Len(t, descendants, 3)
}

func TestSendToRoast_MasDeTresDecimalesNoCreaMasa(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	green := f.greenLot(t, 20)

	for _, w := range []string{"0.0005", "0.0004", "12.1234"} {
		_, err := f.engine.SendToRoast(ctx, transitions.SendToRoastInput{GreenLotID: green.ID, Weight: decimal.RequireFromString(w)})
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity, w)
		assert.NotErrorIs(t, err, domain.ErrStoreUnavailable, w)
	}
	assert.True(t, f.lot(t, green.ID).Quantity.Equal(num(20)))
	list, err := f.engine.ListRoasting(ctx, "", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	res, err := f.engine.SendToRoast(ctx, transitions.SendToRoastInput{GreenLotID: green.ID, Weight: decimal.RequireFromString("0.001")})
	require.NoError(t, err)
	assert.True(t, res.SourceRemaining.Add(res.Lot.Quantity).Equal(num(20)), "padre + hijo conserva la masa")
	assert.Equal(t, "19.999", res.SourceRemaining.String())

	_, err = f.engine.SendToRoast(ctx, transitions.SendToRoastInput{
		GreenLotID: green.ID, Weight: num(1), TargetTemp: ptrDec(decimal.RequireFromString("210.125")),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetrieveRoast_MasDeTresDecimales(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	green := f.greenLot(t, 12)
	sendRes, err := f.engine.SendToRoast(ctx, transitions.SendToRoastInput{GreenLotID: green.ID, Weight: num(12)})
	require.NoError(t, err)

	_, err = f.engine.RetrieveRoast(ctx, transitions.RetrieveRoastInput{
		RoastingBatchID: sendRes.Batch.ID, RoastedWeight: decimal.RequireFromString("10.0005"), RoastLevel: "medio",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Equal(t, 0, f.store.RoastedCount())
}

func ptrDec(v decimal.Decimal) *decimal.Decimal { return &v }

func TestRetrieveRoast_DosVecesEsEstadoInvalido(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	green := f.greenLot(t, 50)
	sendRes, err := f.engine.SendToRoast(ctx, transitions.SendToRoastInput{GreenLotID: green.ID, Weight: num(50)})
	require.NoError(t, err)

	in := transitions.RetrieveRoastInput{RoastingBatchID: sendRes.Batch.ID, RoastedWeight: num(42), RoastLevel: "oscuro"}
	first, err := f.engine.RetrieveRoast(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "16.00", first.WeightLossPercent.StringFixed(2))

	_, err = f.engine.RetrieveRoast(ctx, in)
	require.ErrorIs(t, err, domain.ErrInvalidState)
	var se *domain.StateError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, string(entity.StatusCompleted), se.Current)
	assert.Equal(t, 1, f.store.RoastedCount())
}

func TestRetrieveRoast_Cantidades(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	green := f.greenLot(t, 12)
	sendRes, err := f.engine.SendToRoast(ctx, transitions.SendToRoastInput{GreenLotID: green.ID, Weight: num(12)})
	require.NoError(t, err)

	cases := []struct {
		name   string
		id     string
		weight float64
		want   error
	}{
		{"peso cero", sendRes.Batch.ID, 0, domain.ErrInvalidQuantity},
		{"más de lo enviado", sendRes.Batch.ID, 12.5, domain.ErrInvalidQuantity},
		{"tostión inexistente", uuid.NewString(), 5, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.RetrieveRoast(ctx, transitions.RetrieveRoastInput{
				RoastingBatchID: tc.id, RoastedWeight: num(tc.weight), RoastLevel: "medio",
			})
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, 0, f.store.RoastedCount())
}

func TestStoreRoasted_RequiereListoParaAlmacenar(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	storage := f.storedBatch(t, f.greenLot(t, 10).ID, 10, 8)

	_, err := f.engine.StoreRoasted(ctx, transitions.StoreRoastedInput{
		RoastedBatchID: storage.RoastedBatchID, Location: "Bodega 2", ContainerType: "saco", ContainerCount: 1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = f.engine.StoreRoasted(ctx, transitions.StoreRoastedInput{
		RoastedBatchID: uuid.NewString(), Location: "Bodega 2", ContainerType: "saco", ContainerCount: 1,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPackage_MolidoSinMoliendaEsValidacion(t *testing.T) {
	f := newFixture()
	storage := f.storedBatch(t, f.greenLot(t, 10).ID, 10, 8)

	in := sellable(storage.ID, 10)
	in.Presentation = entity.PresentationGround
	_, err := f.engine.Package(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in.Acidity = num(11)
	in.GrindSize = "media"
	_, err = f.engine.Package(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPackage_SinStockVendibleNoCreaProducto(t *testing.T) {
	f := newFixture()
	storage := f.storedBatch(t, f.greenLot(t, 10).ID, 10, 8)

	in := sellable(storage.ID, 20)
	in.AddToSellableStock = false
	res, err := f.engine.Package(context.Background(), in)
	require.NoError(t, err)
	assert.Nil(t, res.Product)
	assert.Nil(t, res.Batch.ProductID)
	assert.Equal(t, 0, f.store.MovementCount())
}

func TestPackage_FallaDelLedgerRevierteTodo(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	storage := f.storedBatch(t, f.greenLot(t, 10).ID, 10, 8)

	f.store.Fail(testutil.OpMovementCreate, errors.New("disco lleno"))
	_, err := f.engine.Package(ctx, sellable(storage.ID, 40))
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)

	pending, err := f.engine.ListStorage(ctx, entity.StatusReadyForPackaging, 10, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1, "el almacenamiento sigue listo para empacar")
	assert.Equal(t, entity.LotStageStored, f.lot(t, storage.LotID).Stage)
	packaged, err := f.engine.ListPackaged(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, packaged)
	assert.Equal(t, 0, f.store.MovementCount())

	f.store.ClearFailures()
	res, err := f.engine.Package(ctx, sellable(storage.ID, 40))
	require.NoError(t, err)
	assert.True(t, res.Product.StockQuantity.Equal(num(40)))
}

func TestPackage_MismoOrigenReutilizaSKU(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	green := f.greenLot(t, 20)
	first := f.storedBatch(t, green.ID, 12, 10)
	second := f.storedBatch(t, green.ID, 8, 7)

	a, err := f.engine.Package(ctx, sellable(first.ID, 40))
	require.NoError(t, err)
	b, err := f.engine.Package(ctx, sellable(second.ID, 10))
	require.NoError(t, err)

	assert.Equal(t, a.Product.ID, b.Product.ID)
	assert.Equal(t, a.Product.SKU, b.Product.SKU)
	assert.True(t, b.Movement.QuantityBefore.Equal(num(40)))
	assert.True(t, b.Product.StockQuantity.Equal(num(50)))
}

func TestPackage_SKUDeCatalogoNoSeReutiliza(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	green := f.greenLot(t, 10)
	storage := f.storedBatch(t, green.ID, 10, 8)

	sku := process.DeriveSKU(green.Code, entity.PresentationWholeBean, "", "250g")
	catalog := &entity.Product{
		ID: uuid.NewString(), SKU: sku, Name: "Café de catálogo", Kind: entity.ProductKindCatalog,
		StockQuantity: decimal.Zero, StockMin: decimal.Zero,
	}
	require.NoError(t, f.store.Repositories().Products.Create(ctx, catalog))

	_, err := f.engine.Package(ctx, sellable(storage.ID, 40))
	require.ErrorIs(t, err, domain.ErrDuplicate)

	packaged, err := f.engine.ListPackaged(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, packaged, "el empaque se revierte")
	assert.Equal(t, 0, f.store.MovementCount())
	got, err := f.store.Repositories().Products.GetByID(ctx, catalog.ID)
	require.NoError(t, err)
	assert.True(t, got.StockQuantity.IsZero())
}

func TestListados_FiltranPorEstado(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	green := f.greenLot(t, 20)
	_, err := f.engine.SendToRoast(ctx, transitions.SendToRoastInput{GreenLotID: green.ID, Weight: num(5)})
	require.NoError(t, err)
	f.storedBatch(t, green.ID, 5, 4)

	inRoasting, err := f.engine.ListRoasting(ctx, entity.StatusInRoasting, 10, 0)
	require.NoError(t, err)
	assert.Len(t, inRoasting, 1)
	completed, err := f.engine.ListRoasting(ctx, entity.StatusCompleted, 10, 0)
	require.NoError(t, err)
	assert.Len(t, completed, 1)

	_, err = f.engine.ListRoasting(ctx, entity.StatusReadyForSale, 10, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
