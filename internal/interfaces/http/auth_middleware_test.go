package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/almacen-api/internal/application/dto"
	apphttp "github.com/jhoicas/almacen-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/almacen-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testIssuer    = "almacen-api-test"
	testExpMin    = 60
)

// buildTestApp monta /protected con AuthMiddleware + RequireRole(allowedRoles...) y devuelve
// el usuario y rol que vio el handler.
func buildTestApp(allowedRoles ...string) *fiber.App {
	app := fiber.New()
	app.Get("/protected",
		apphttp.AuthMiddleware(testJWTSecret),
		apphttp.RequireRole(allowedRoles...),
		func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"user_id": apphttp.GetUserID(c), "role": apphttp.GetRole(c)})
		},
	)
	return app
}

// tokenForRole genera un JWT con el rol indicado.
func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

// signClaims firma claims arbitrarios, para tokens que Generate no produce.
func signClaims(t *testing.T, method gojwt.SigningMethod, key any, claims gojwt.Claims) string {
	t.Helper()
	tok, err := gojwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return "Bearer " + tok
}

// doRequest lanza GET /protected y devuelve status y cuerpo decodificado.
func doRequest(t *testing.T, app *fiber.App, authHeader string) (int, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body := map[string]string{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

// ──────────────────────────────────────────────────────────────────────────────
// RequireRole
// ──────────────────────────────────────────────────────────────────────────────

// Matriz de las rutas reales: consultas (todos), ingreso/transiciones (personal) y
// conciliación (solo admin).
func TestRequireRole_MatrizDeRutas(t *testing.T) {
	routes := map[string][]string{
		"consulta":     {"admin", "bodeguero", "vendedor"},
		"personal":     {"admin", "bodeguero"},
		"conciliacion": {"admin"},
	}
	cases := []struct {
		route string
		role  string
		want  int
	}{
		{"consulta", "vendedor", http.StatusOK},
		{"consulta", "bodeguero", http.StatusOK},
		{"personal", "bodeguero", http.StatusOK},
		{"personal", "admin", http.StatusOK},
		{"personal", "vendedor", http.StatusForbidden},
		{"conciliacion", "admin", http.StatusOK},
		{"conciliacion", "bodeguero", http.StatusForbidden},
		{"conciliacion", "vendedor", http.StatusForbidden},
		{"conciliacion", "ADMIN", http.StatusForbidden},
		{"personal", "auditor", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.route+"/"+tc.role, func(t *testing.T) {
			status, body := doRequest(t, buildTestApp(routes[tc.route]...), tokenForRole(t, tc.role))
			assert.Equal(t, tc.want, status)
			if tc.want == http.StatusOK {
				assert.Equal(t, tc.role, body["role"])
				assert.Equal(t, testUserID, body["user_id"])
				return
			}
			assert.Equal(t, "FORBIDDEN", body["code"])
		})
	}
}

func TestRequireRole_TokenSinRolEs401MissingRole(t *testing.T) {
	// Token válido sin claim role (emisor legado): la identidad existe pero no la capacidad.
	legacy := signClaims(t, gojwt.SigningMethodHS256, []byte(testJWTSecret), &pkgjwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   testUserID,
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	for _, header := range []string{tokenForRole(t, ""), legacy} {
		status, body := doRequest(t, buildTestApp("admin", "bodeguero", "vendedor"), header)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "MISSING_ROLE", body["code"])
	}
}

func TestRequireRole_SinRolesPermitidosRechazaTodo(t *testing.T) {
	status, body := doRequest(t, buildTestApp(), tokenForRole(t, "admin"))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body["code"])
}

// ──────────────────────────────────────────────────────────────────────────────
// AuthMiddleware
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_CodigosDeRechazo(t *testing.T) {
	expired, err := pkgjwt.Generate(testJWTSecret, testUserID, "admin", testIssuer, -1)
	require.NoError(t, err)
	otherSecret, err := pkgjwt.Generate("otro-secret", testUserID, "admin", testIssuer, testExpMin)
	require.NoError(t, err)
	unsigned := signClaims(t, gojwt.SigningMethodNone, gojwt.UnsafeAllowNoneSignatureType, &pkgjwt.Claims{
		UserID: testUserID, Role: "admin",
	})

	cases := []struct {
		name   string
		header string
		code   string
	}{
		{"sin header", "", "MISSING_TOKEN"},
		{"esquema distinto", "Token abc", "INVALID_TOKEN"},
		{"sin esquema", "abc.def.ghi", "INVALID_TOKEN"},
		{"malformado", "Bearer token.invalido.aqui", "INVALID_TOKEN"},
		{"expirado", "Bearer " + expired, "INVALID_TOKEN"},
		{"otro secreto", "Bearer " + otherSecret, "INVALID_TOKEN"},
		{"alg none", unsigned, "INVALID_TOKEN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := doRequest(t, buildTestApp("admin"), tc.header)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, tc.code, body["code"])
		})
	}
}

func TestAuthMiddleware_EsquemaBearerSinDistinguirMayusculas(t *testing.T) {
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, "vendedor", testIssuer, testExpMin)
	require.NoError(t, err)

	status, body := doRequest(t, buildTestApp("vendedor"), "bearer "+tok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "vendedor", body["role"])
}

func TestAuthMiddleware_SubjectComoUsuarioSiFaltaUserID(t *testing.T) {
	header := signClaims(t, gojwt.SigningMethodHS256, []byte(testJWTSecret), &pkgjwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   "sub-42",
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "bodeguero",
	})

	status, body := doRequest(t, buildTestApp("bodeguero"), header)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "sub-42", body["user_id"])
	assert.Equal(t, "bodeguero", body["role"])
}

func TestAuthMiddleware_RespuestaUsaErrorResponse(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	resp, err := buildTestApp("admin").Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "MISSING_TOKEN", body.Code)
	assert.NotEmpty(t, body.Message)
}
