package http_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Trazabilidad-api/internal/application/inventory"
	"github.com/jhoicas/Trazabilidad-api/internal/application/lots"
	"github.com/jhoicas/Trazabilidad-api/internal/application/traceability"
	"github.com/jhoicas/Trazabilidad-api/internal/application/transitions"
	"github.com/jhoicas/Trazabilidad-api/internal/application/usecase"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/cache"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Trazabilidad-api/internal/testutil"
	apphttp "github.com/jhoicas/Trazabilidad-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Trazabilidad-api/pkg/jwt"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
)

type apiFixture struct {
	app   *fiber.App
	store *testutil.Store
	t     *testing.T
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	store := testutil.NewStore()
	repos := store.Repositories()
	log := logger.Nop()
	registry := lots.NewLotRegistry(repos.Lots, log)
	ledger := inventory.NewLedger(store, repos.Movements, nil, log)
	engine := transitions.NewEngine(store, repos.Batches, registry, ledger, nil, log)
	reader := traceability.NewReader(store, repos.Lots, repos.Batches, repos.Products, repos.Labels, traceability.Config{
		Renderer:     pdf.NewMarotoLabelGenerator(),
		TraceBaseURL: "https://trazabilidad.example.com/api/trace/labels",
	}, log)

	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(log)})
	apphttp.Router(app, apphttp.RouterDeps{
		Lots:        registry,
		Engine:      engine,
		Ledger:      ledger,
		Projector:   inventory.NewStockProjector(store, repos.Products, store.Faults(), nil, log),
		ProductUC:   usecase.NewProductUseCase(repos.Products, log),
		Reader:      reader,
		Idempotency: cache.NewInMemoryIdempotencyStore(),
		JWTSecret:   testJWTSecret,
		Log:         log,
	})
	return &apiFixture{app: app, store: store, t: t}
}

// call lanza la petición con el rol indicado ("" = sin token) y decodifica el JSON si out no es nil.
func (f *apiFixture) call(method, path, role string, body any, headers map[string]string) *http.Response {
	f.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		tok, err := pkgjwt.Generate(testJWTSecret, testUserID, role, testIssuer, testExpMin)
		require.NoError(f.t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(f.t, err)
	f.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func decodeList(t *testing.T, resp *http.Response) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func dec(t *testing.T, v any) decimal.Decimal {
	t.Helper()
	s, ok := v.(string)
	require.True(t, ok, "se esperaba decimal serializado como string, llegó %T", v)
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func (f *apiFixture) harvest(weight string) map[string]any {
	f.t.Helper()
	resp := f.call(http.MethodPost, "/api/lots/harvest", pkgjwt.RoleBodeguero, map[string]any{
		"farm": "Finca La Palma", "variety": "Castillo", "process": "Honey", "weight_kg": weight,
	}, nil)
	require.Equal(f.t, http.StatusCreated, resp.StatusCode)
	return decode(f.t, resp)
}

func (f *apiFixture) send(lotID, weight string) *http.Response {
	f.t.Helper()
	return f.call(http.MethodPost, "/api/transitions/send-to-roast", pkgjwt.RoleTostador, map[string]any{
		"lot_id": lotID, "weight_kg": weight,
	}, nil)
}

func TestAPI_PipelineCompletoConEtiquetas(t *testing.T) {
	f := newAPI(t)
	green := f.harvest("20")

	resp := f.send(green["id"].(string), "12")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	roasting := decode(t, resp)
	assert.True(t, dec(t, roasting["source_remaining_kg"]).Equal(decimal.NewFromInt(8)))
	assert.Equal(t, "in_roasting", roasting["status"])

	resp = f.call(http.MethodPost, "/api/transitions/retrieve-roast", pkgjwt.RoleTostador, map[string]any{
		"roasting_batch_id": roasting["id"], "roasted_weight_kg": "10", "roast_level": "medio",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	roasted := decode(t, resp)
	assert.Equal(t, "16.67", dec(t, roasted["weight_loss_percent"]).StringFixed(2))

	resp = f.call(http.MethodPost, "/api/transitions/store-roasted", pkgjwt.RoleBodeguero, map[string]any{
		"roasted_batch_id": roasted["id"], "location": "Bodega 2", "container_type": "valvulada", "container_count": 2,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	storage := decode(t, resp)

	resp = f.call(http.MethodPost, "/api/transitions/package", pkgjwt.RoleBodeguero, map[string]any{
		"storage_batch_id": storage["id"], "acidity": "8", "body": "7", "balance": "9",
		"presentation": "whole_bean", "package_size": "250g", "unit_count": 40, "add_to_sellable_stock": true,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	packaged := decode(t, resp)
	assert.True(t, dec(t, packaged["score"]).Equal(decimal.NewFromInt(8)))
	require.NotNil(t, packaged["product_id"])
	movement := packaged["movement"].(map[string]any)
	assert.Equal(t, "in", movement["type"])
	assert.True(t, dec(t, movement["quantity_after"]).Equal(decimal.NewFromInt(40)))

	resp = f.call(http.MethodGet, "/api/products/"+packaged["product_id"].(string), pkgjwt.RoleTostador, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, dec(t, decode(t, resp)["stock_quantity"]).Equal(decimal.NewFromInt(40)))

	resp = f.call(http.MethodGet, "/api/trace/"+packaged["id"].(string), pkgjwt.RoleTostador, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode(t, resp)
	assert.Equal(t, green["id"], view["origin"].(map[string]any)["lot_id"])

	resp = f.call(http.MethodPost, "/api/labels", pkgjwt.RoleBodeguero, map[string]any{
		"packaged_batch_id": packaged["id"], "count": 3,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	labels := decodeList(t, resp)
	require.Len(t, labels, 3)
	code := labels[0]["code"].(string)
	assert.Equal(t, "https://trazabilidad.example.com/api/trace/labels/"+code, labels[0]["trace_url"])

	// Consulta pública del QR, sin token.
	resp = f.call(http.MethodGet, "/api/trace/labels/"+code, "", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snapshot := decode(t, resp)
	assert.Equal(t, code, snapshot["code"])
	assert.Equal(t, packaged["id"], snapshot["packaged_batch_id"])

	resp = f.call(http.MethodGet, "/api/labels/batch/"+packaged["id"].(string)+"/pdf", pkgjwt.RoleBodeguero, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))

	resp = f.call(http.MethodGet, "/api/inventory/products/"+packaged["product_id"].(string)+"/verify", pkgjwt.RoleAdmin, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decode(t, resp)["consistent"])
}

func TestAPI_CantidadInsuficienteDevuelveDisponible(t *testing.T) {
	f := newAPI(t)
	green := f.harvest("20")

	resp := f.send(green["id"].(string), "25")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "INSUFFICIENT_QUANTITY", body["code"])
	details := body["details"].(map[string]any)
	assert.Equal(t, "20", details["available"])
	assert.Equal(t, "25", details["requested"])
}

func TestAPI_PesoCeroEsCantidadInvalida(t *testing.T) {
	f := newAPI(t)
	green := f.harvest("20")

	resp := f.send(green["id"].(string), "0")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "INVALID_QUANTITY", decode(t, resp)["code"])
}

func TestAPI_PesoConMasDeTresDecimalesEsCantidadInvalida(t *testing.T) {
	f := newAPI(t)
	green := f.harvest("20")

	for _, w := range []string{"0.0005", "0.0004"} {
		resp := f.send(green["id"].(string), w)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, w)
		assert.Equal(t, "INVALID_QUANTITY", decode(t, resp)["code"], w)
	}

	resp := f.call(http.MethodGet, "/api/lots/"+green["id"].(string), pkgjwt.RoleAdmin, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, dec(t, decode(t, resp)["quantity_kg"]).Equal(decimal.NewFromInt(20)))
}

func TestAPI_CosechaSinPesoEsValidacion(t *testing.T) {
	f := newAPI(t)
	for _, w := range []string{"0", "20.0005"} {
		resp := f.call(http.MethodPost, "/api/lots/harvest", pkgjwt.RoleBodeguero, map[string]any{
			"farm": "Finca La Palma", "variety": "Castillo", "process": "Honey", "weight_kg": w,
		}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, w)
		assert.Equal(t, "VALIDATION", decode(t, resp)["code"], w)
	}
}

func TestAPI_RetirarDosVecesEsEstadoInvalido(t *testing.T) {
	f := newAPI(t)
	green := f.harvest("50")
	resp := f.send(green["id"].(string), "50")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	roastingID := decode(t, resp)["id"]

	body := map[string]any{"roasting_batch_id": roastingID, "roasted_weight_kg": "42", "roast_level": "oscuro"}
	resp = f.call(http.MethodPost, "/api/transitions/retrieve-roast", pkgjwt.RoleTostador, body, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "16.00", dec(t, decode(t, resp)["weight_loss_percent"]).StringFixed(2))

	resp = f.call(http.MethodPost, "/api/transitions/retrieve-roast", pkgjwt.RoleTostador, body, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	errBody := decode(t, resp)
	assert.Equal(t, "INVALID_STATE", errBody["code"])
	assert.Equal(t, "completed", errBody["details"].(map[string]any)["current"])
	assert.Equal(t, 1, f.store.RoastedCount())
}

func TestAPI_ValidacionDeCuerpo(t *testing.T) {
	f := newAPI(t)

	resp := f.call(http.MethodPost, "/api/transitions/package", pkgjwt.RoleBodeguero, map[string]any{
		"storage_batch_id": "x", "presentation": "ground", "package_size": "250g", "unit_count": 10,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "VALIDATION", body["code"])
	assert.Equal(t, "required_if", body["details"].(map[string]any)["GrindSize"])

	resp = f.call(http.MethodPost, "/api/labels", pkgjwt.RoleBodeguero, map[string]any{
		"packaged_batch_id": "x", "count": 501,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_AutenticacionYRoles(t *testing.T) {
	f := newAPI(t)

	resp := f.call(http.MethodGet, "/api/lots", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.call(http.MethodPost, "/api/inventory/movements", pkgjwt.RoleTostador, map[string]any{
		"product_id": "p", "type": "in", "quantity": "1", "reason": "conteo",
	}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.call(http.MethodPost, "/api/inventory/verify", pkgjwt.RoleBodeguero, nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPI_NoEncontrado(t *testing.T) {
	f := newAPI(t)

	resp := f.call(http.MethodGet, "/api/lots/NO-EXISTE", pkgjwt.RoleAdmin, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decode(t, resp)["code"])

	resp = f.call(http.MethodGet, "/api/trace/labels/LBL-NOEXISTE", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_AlmacenamientoNoDisponibleOcultaDetalle(t *testing.T) {
	f := newAPI(t)
	green := f.harvest("20")
	f.store.Fail(testutil.OpRoastingCreate, errors.New("connection reset by peer"))

	resp := f.send(green["id"].(string), "5")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "STORE_UNAVAILABLE", body["code"])
	assert.NotContains(t, body["message"], "connection reset")

	f.store.ClearFailures()
	resp = f.call(http.MethodGet, "/api/lots/"+green["id"].(string), pkgjwt.RoleAdmin, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, dec(t, decode(t, resp)["quantity_kg"]).Equal(decimal.NewFromInt(20)), "la falla no descontó el lote")
}

func TestAPI_IdempotencyKeyRepiteRespuesta(t *testing.T) {
	f := newAPI(t)
	body := map[string]any{"farm": "Finca Sol", "variety": "Típica", "process": "Lavado", "weight_kg": "15"}
	headers := map[string]string{apphttp.HeaderIdempotencyKey: "cosecha-001"}

	first := f.call(http.MethodPost, "/api/lots/harvest", pkgjwt.RoleBodeguero, body, headers)
	require.Equal(t, http.StatusCreated, first.StatusCode)
	firstLot := decode(t, first)

	second := f.call(http.MethodPost, "/api/lots/harvest", pkgjwt.RoleBodeguero, body, headers)
	require.Equal(t, http.StatusCreated, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get(apphttp.HeaderIdempotentReplay))
	assert.Equal(t, firstLot["id"], decode(t, second)["id"])

	resp := f.call(http.MethodGet, "/api/lots?stage=green", pkgjwt.RoleAdmin, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode(t, resp)["items"], 1)
}

func TestAPI_VerificacionDetectaDivergencia(t *testing.T) {
	f := newAPI(t)
	resp := f.call(http.MethodPost, "/api/products", pkgjwt.RoleAdmin, map[string]any{
		"sku": "cafe-250", "name": "Café 250g", "stock_min": "5",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	productID := decode(t, resp)["id"].(string)

	resp = f.call(http.MethodPost, "/api/inventory/movements", pkgjwt.RoleBodeguero, map[string]any{
		"product_id": productID, "type": "in", "quantity": "10", "reason": "compra",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, dec(t, decode(t, resp)["quantity_after"]).Equal(decimal.NewFromInt(10)))

	f.store.CorruptStock(productID, decimal.NewFromInt(7))

	resp = f.call(http.MethodGet, "/api/inventory/products/"+productID+"/verify", pkgjwt.RoleAdmin, nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "INTEGRITY_FAULT", body["code"])
	assert.Equal(t, "10", body["details"].(map[string]any)["replayed"])

	resp = f.call(http.MethodGet, "/api/inventory/integrity-faults", pkgjwt.RoleAdmin, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeList(t, resp), 1)

	resp = f.call(http.MethodPost, "/api/inventory/verify", pkgjwt.RoleAdmin, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	audit := decode(t, resp)
	assert.EqualValues(t, 1, audit["checked"])
	assert.Len(t, audit["faults"], 1)
}
