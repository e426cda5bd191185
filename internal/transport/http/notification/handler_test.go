package notification

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"

	"github.com/Additional-Code/atelier/internal/database"
	"github.com/Additional-Code/atelier/internal/entity"
	"github.com/Additional-Code/atelier/internal/identity"
	repo "github.com/Additional-Code/atelier/internal/repository/notification"
	service "github.com/Additional-Code/atelier/internal/service/notification"
	"github.com/Additional-Code/atelier/internal/storage"
)

type envelope struct {
	Data  []map[string]any `json:"data"`
	Meta  map[string]any   `json:"meta"`
	Error struct {
		Kind string `json:"kind"`
	} `json:"error"`
}

func newServer(t *testing.T, conns *database.Connections) (*echo.Echo, *service.Service) {
	t.Helper()
	svc := service.NewService(service.Params{
		Store:   repo.NewRepository(conns),
		Storage: storage.NewMemory(),
		Logger:  zap.NewNop(),
	})
	e := echo.New()
	e.Use(identity.Middleware())
	Register(e, NewHandler(svc))
	return e, svc
}

func sqliteConns(t *testing.T) *database.Connections {
	t.Helper()
	sqldb, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.NewCreateTable().Model((*entity.Notification)(nil)).Exec(context.Background())
	require.NoError(t, err)
	return &database.Connections{Writer: db, Reader: db}
}

func call(t *testing.T, e *echo.Echo, method, path string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set(identity.Header, "alice")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestPollAdvancesWatermark(t *testing.T) {
	e, svc := newServer(t, sqliteConns(t))
	ctx := context.Background()
	_, err := svc.Notify(ctx, "alice", "ORD-1", "order.placed", "Order ORD-1 placed.")
	require.NoError(t, err)
	_, err = svc.Notify(ctx, "bob", "ORD-2", "order.placed", "Order ORD-2 placed.")
	require.NoError(t, err)

	code, env := call(t, e, http.MethodPost, "/notifications/poll")
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, env.Data, 1)
	assert.Equal(t, "ORD-1", env.Data[0]["order_id"])
	assert.EqualValues(t, 1, env.Meta["watermark"])

	_, env = call(t, e, http.MethodPost, "/notifications/poll")
	assert.Empty(t, env.Data)

	_, env = call(t, e, http.MethodGet, "/notifications?after=0")
	assert.Len(t, env.Data, 1, "listing ignores the watermark")
}

func TestListRejectsBadCursor(t *testing.T) {
	e, _ := newServer(t, sqliteConns(t))
	code, env := call(t, e, http.MethodGet, "/notifications?after=-3")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "bad_request", env.Error.Kind)
}

func TestDatabaseDisabledIsUnavailable(t *testing.T) {
	e, _ := newServer(t, nil)
	code, env := call(t, e, http.MethodPost, "/notifications/poll")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unavailable", env.Error.Kind)
}
