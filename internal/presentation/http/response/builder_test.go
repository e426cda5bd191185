package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/atelier/pkg/errorbank"
)

type body struct {
	Success bool           `json:"success"`
	Data    any            `json:"data"`
	Meta    map[string]any `json:"meta"`
	Error   *struct {
		Kind    string         `json:"kind"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	rec := httptest.NewRecorder()
	return e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) body {
	t.Helper()
	var b body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	return b
}

func TestBuild_Success(t *testing.T) {
	c, rec := newContext()
	c.Response().Header().Set(echo.HeaderXRequestID, "req-1")

	require.NoError(t, New(c).WithStatus(http.StatusCreated).WithData(map[string]string{"id": "ORD-1"}).WithMeta("source", "remote").Build())

	assert.Equal(t, http.StatusCreated, rec.Code)
	b := decode(t, rec)
	assert.True(t, b.Success)
	assert.Nil(t, b.Error)
	assert.Equal(t, map[string]any{"source": "remote", "request_id": "req-1"}, b.Meta)
}

func TestBuild_ErrorKindDecidesStatus(t *testing.T) {
	c, rec := newContext()
	err := errorbank.Validation("checkout form is invalid", map[string]string{"phone": "Phone number is required"})

	require.NoError(t, New(c).WithError(err).Build())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	b := decode(t, rec)
	assert.False(t, b.Success)
	require.NotNil(t, b.Error)
	assert.Equal(t, "bad_request", b.Error.Kind)
	assert.Equal(t, map[string]any{"phone": "Phone number is required"}, b.Error.Details["fields"])
	assert.Nil(t, c.Get(CauseKey))
}

func TestBuild_InternalErrorKeepsCause(t *testing.T) {
	c, rec := newContext()
	cause := errors.New("dial tcp: connection refused")

	require.NoError(t, New(c).WithError(cause).Build())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decode(t, rec).Error.Message)
	assert.Equal(t, cause, c.Get(CauseKey))
}

func TestBuild_NoContent(t *testing.T) {
	c, rec := newContext()
	require.NoError(t, New(c).WithStatus(http.StatusNoContent).WithData("ignored").Build())
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}
