package http_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/Trazabilidad-api/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testIssuer    = "trazabilidad-test"
	testExpMin    = 60
)

const missingID = "00000000-0000-0000-0000-00000000ffff"

// withToken lanza la petición con un Authorization arbitrario (formato, firma o vigencia inválidos).
func (f *apiFixture) withToken(method, path, authorization string) *http.Response {
	f.t.Helper()
	return f.call(method, path, "", nil, map[string]string{"Authorization": authorization})
}

// labelCode lleva una cosecha hasta etiquetas y devuelve el código de la primera.
func (f *apiFixture) labelCode() string {
	f.t.Helper()
	green := f.harvest("10")
	resp := f.send(green["id"].(string), "10")
	require.Equal(f.t, http.StatusCreated, resp.StatusCode)
	roasting := decode(f.t, resp)

	resp = f.call(http.MethodPost, "/api/transitions/retrieve-roast", pkgjwt.RoleTostador, map[string]any{
		"roasting_batch_id": roasting["id"], "roasted_weight_kg": "8.5", "roast_level": "claro",
	}, nil)
	require.Equal(f.t, http.StatusCreated, resp.StatusCode)
	roasted := decode(f.t, resp)

	resp = f.call(http.MethodPost, "/api/transitions/store-roasted", pkgjwt.RoleBodeguero, map[string]any{
		"roasted_batch_id": roasted["id"], "location": "Bodega 1", "container_type": "saco", "container_count": 1,
	}, nil)
	require.Equal(f.t, http.StatusCreated, resp.StatusCode)
	storage := decode(f.t, resp)

	resp = f.call(http.MethodPost, "/api/transitions/package", pkgjwt.RoleTostador, map[string]any{
		"storage_batch_id": storage["id"], "acidity": "7", "body": "8", "balance": "7.5",
		"presentation": "whole_bean", "package_size": "500g", "unit_count": 12,
	}, nil)
	require.Equal(f.t, http.StatusCreated, resp.StatusCode)
	packaged := decode(f.t, resp)

	resp = f.call(http.MethodPost, "/api/labels", pkgjwt.RoleTostador, map[string]any{
		"packaged_batch_id": packaged["id"], "count": 1,
	}, nil)
	require.Equal(f.t, http.StatusCreated, resp.StatusCode)
	return decodeList(f.t, resp)[0]["code"].(string)
}

func TestRoles_RutasRestringidasDevuelven403(t *testing.T) {
	f := newAPI(t)
	movement := map[string]any{"product_id": missingID, "type": "in", "quantity": "1", "reason": "conteo"}
	harvest := map[string]any{"farm": "Finca Sol", "variety": "Típica", "process": "Lavado", "weight_kg": "5"}
	send := map[string]any{"lot_id": missingID, "weight_kg": "1"}

	cases := []struct {
		name   string
		method string
		path   string
		role   string
		body   any
	}{
		{"tostador no registra cosechas", http.MethodPost, "/api/lots/harvest", pkgjwt.RoleTostador, harvest},
		{"tostador no registra movimientos", http.MethodPost, "/api/inventory/movements", pkgjwt.RoleTostador, movement},
		{"tostador no verifica stock", http.MethodGet, "/api/inventory/products/" + missingID + "/verify", pkgjwt.RoleTostador, nil},
		{"tostador no consulta fallas", http.MethodGet, "/api/inventory/integrity-faults", pkgjwt.RoleTostador, nil},
		{"tostador no fija precios", http.MethodPut, "/api/products/" + missingID + "/pricing", pkgjwt.RoleTostador, map[string]any{"price": "10"}},
		{"bodeguero no envía a tostión", http.MethodPost, "/api/transitions/send-to-roast", pkgjwt.RoleBodeguero, send},
		{"bodeguero no retira tostión", http.MethodPost, "/api/transitions/retrieve-roast", pkgjwt.RoleBodeguero, map[string]any{"roasting_batch_id": missingID, "roasted_weight_kg": "1", "roast_level": "medio"}},
		{"bodeguero no crea productos", http.MethodPost, "/api/products", pkgjwt.RoleBodeguero, map[string]any{"sku": "X-1", "name": "X"}},
		{"bodeguero no audita todo el catálogo", http.MethodPost, "/api/inventory/verify", pkgjwt.RoleBodeguero, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := f.call(tc.method, tc.path, tc.role, tc.body, nil)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
			assert.Equal(t, "FORBIDDEN", decode(t, resp)["code"])
		})
	}
	assert.Equal(t, 0, f.store.MovementCount())
	assert.Equal(t, 0, f.store.Transactions(), "ningún rol rechazado llega a abrir una transacción")
}

func TestRoles_RolesPermitidosPasanElMiddleware(t *testing.T) {
	f := newAPI(t)

	resp := f.call(http.MethodPost, "/api/lots/harvest", pkgjwt.RoleBodeguero, map[string]any{
		"farm": "Finca Sol", "variety": "Típica", "process": "Lavado", "weight_kg": "5",
	}, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// Pasan la autorización y fallan después, en el caso de uso.
	resp = f.call(http.MethodPost, "/api/transitions/send-to-roast", pkgjwt.RoleTostador, map[string]any{
		"lot_id": missingID, "weight_kg": "1",
	}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.call(http.MethodPost, "/api/inventory/movements", pkgjwt.RoleAdmin, map[string]any{
		"product_id": missingID, "type": "in", "quantity": "1", "reason": "conteo",
	}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.call(http.MethodPost, "/api/inventory/verify", pkgjwt.RoleAdmin, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	for _, role := range []string{pkgjwt.RoleAdmin, pkgjwt.RoleTostador, pkgjwt.RoleBodeguero} {
		resp = f.call(http.MethodGet, "/api/lots?stage=green", role, nil, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, role)
	}
}

func TestAuth_ActorDelMovimientoSaleDelToken(t *testing.T) {
	f := newAPI(t)
	resp := f.call(http.MethodPost, "/api/products", pkgjwt.RoleAdmin, map[string]any{"sku": "cafe-500", "name": "Café 500g"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	productID := decode(t, resp)["id"].(string)

	resp = f.call(http.MethodPost, "/api/inventory/movements", pkgjwt.RoleBodeguero, map[string]any{
		"product_id": productID, "type": "in", "quantity": "3", "reason": "compra", "actor_id": "suplantado",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, testUserID, decode(t, resp)["actor_id"])
}

func TestAuth_TokenAusenteOInvalido(t *testing.T) {
	f := newAPI(t)

	expired, err := pkgjwt.Generate(testJWTSecret, testUserID, pkgjwt.RoleAdmin, testIssuer, -1)
	require.NoError(t, err)
	foreign, err := pkgjwt.Generate("otro-secret-completamente-distinto", testUserID, pkgjwt.RoleAdmin, testIssuer, testExpMin)
	require.NoError(t, err)

	resp := f.call(http.MethodGet, "/api/lots", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_TOKEN", decode(t, resp)["code"])

	cases := map[string]string{
		"esquema distinto de Bearer": "Basic dXN1YXJpbzpjbGF2ZQ==",
		"token malformado":           "Bearer token.invalido.aqui",
		"token expirado":             "Bearer " + expired,
		"firmado con otro secreto":   "Bearer " + foreign,
	}
	for name, authorization := range cases {
		t.Run(name, func(t *testing.T) {
			resp := f.withToken(http.MethodGet, "/api/lots", authorization)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "INVALID_TOKEN", decode(t, resp)["code"])
		})
	}
}

func TestAuth_TokenSinRolNoPasaRutasConRol(t *testing.T) {
	f := newAPI(t)
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, "", testIssuer, testExpMin)
	require.NoError(t, err)

	resp := f.withToken(http.MethodGet, "/api/lots", "Bearer "+tok)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "las consultas solo exigen token")

	resp = f.call(http.MethodPost, "/api/lots/harvest", "", map[string]any{
		"farm": "Finca Sol", "variety": "Típica", "process": "Lavado", "weight_kg": "5",
	}, map[string]string{"Authorization": "Bearer " + tok})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_ROLE", decode(t, resp)["code"])
}

func TestAuth_ConsultaPublicaDeEtiquetaSinToken(t *testing.T) {
	f := newAPI(t)
	code := f.labelCode()

	resp := f.call(http.MethodGet, "/api/trace/labels/"+code, "", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snapshot := decode(t, resp)
	assert.Equal(t, code, snapshot["code"])
	assert.NotNil(t, snapshot["provenance"])

	// La procedencia viva por empaque sí requiere token.
	resp = f.call(http.MethodGet, "/api/trace/"+snapshot["packaged_batch_id"].(string), "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.call(http.MethodGet, "/api/labels/batch/"+snapshot["packaged_batch_id"].(string), "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestJWT_GenerateAndParse_ConRole(t *testing.T) {
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, pkgjwt.RoleBodeguero, testIssuer, testExpMin)
	require.NoError(t, err)

	userID, role, err := pkgjwt.Parse(testJWTSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, testUserID, userID)
	assert.Equal(t, pkgjwt.RoleBodeguero, role)
}
