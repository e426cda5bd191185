package measurement

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/atelier/internal/identity"
	"github.com/Additional-Code/atelier/internal/repository/measurement"
	"github.com/Additional-Code/atelier/internal/storage"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Kind    string         `json:"kind"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newServer() *echo.Echo {
	e := echo.New()
	e.Use(identity.Middleware())
	Register(e, NewHandler(measurement.NewRepository(storage.NewMemory())))
	return e
}

func call(t *testing.T, e *echo.Echo, method, path, principal, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(identity.Header, principal)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestMeasurementLifecycle(t *testing.T) {
	e := newServer()

	code, _ := call(t, e, http.MethodPut, "/measurements/kurta", "alice",
		`{"name":"Kurta","unit":"in","values":{"chest":38,"waist":32}}`)
	require.Equal(t, http.StatusOK, code)

	code, env := call(t, e, http.MethodGet, "/measurements/kurta", "alice", "")
	require.Equal(t, http.StatusOK, code)
	var profile measurement.Profile
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "Kurta", profile.Name)
	assert.InDelta(t, 38.0, profile.Values["chest"], 1e-9)

	code, _ = call(t, e, http.MethodGet, "/measurements/kurta", "bob", "")
	assert.Equal(t, http.StatusNotFound, code, "profiles are per principal")

	code, _ = call(t, e, http.MethodDelete, "/measurements/kurta", "alice", "")
	require.Equal(t, http.StatusOK, code)
	code, _ = call(t, e, http.MethodGet, "/measurements/kurta", "alice", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSaveValidation(t *testing.T) {
	e := newServer()

	code, env := call(t, e, http.MethodPut, "/measurements/x", "alice", `{"values":{"chest":38}}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "bad_request", env.Error.Kind)

	code, env = call(t, e, http.MethodPut, "/measurements/x", "alice", `{"name":"Suit","values":{"sleeve":-1}}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "sleeve", env.Error.Details["field"])
}
