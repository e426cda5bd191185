package notification

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/atelier/internal/dto"
	"github.com/Additional-Code/atelier/internal/identity"
	"github.com/Additional-Code/atelier/internal/presentation/http/response"
	repo "github.com/Additional-Code/atelier/internal/repository/notification"
	service "github.com/Additional-Code/atelier/internal/service/notification"
	"github.com/Additional-Code/atelier/pkg/errorbank"
)

// Handler exposes notification endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a notification Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/notifications")
	g.GET("", h.list)
	g.POST("/poll", h.poll)
}

// list returns notifications after ?after= without touching the watermark.
func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	var after int64
	if raw := c.QueryParam("after"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			return b.WithError(errorbank.BadRequest("invalid after", errorbank.WithDetail("after", raw))).Build()
		}
		after = v
	}

	out, err := h.svc.List(c.Request().Context(), identity.Principal(c.Request().Context()), after)
	if err != nil {
		return b.WithError(storeError("failed to read notifications", err)).Build()
	}
	return b.WithData(dto.NewNotificationResponses(out)).Build()
}

// poll delivers notifications newer than the principal's watermark and
// advances it.
func (h *Handler) poll(c echo.Context) error {
	b := response.New(c)
	ctx := c.Request().Context()
	principal := identity.Principal(ctx)

	out, err := h.svc.Poll(ctx, principal)
	if err != nil {
		return b.WithError(storeError("failed to poll notifications", err)).Build()
	}
	return b.WithData(dto.NewNotificationResponses(out)).
		WithMeta("watermark", h.svc.Watermark(ctx, principal)).
		Build()
}

func storeError(message string, err error) error {
	if errors.Is(err, repo.ErrUnavailable) {
		return errorbank.Unavailable("notifications are not enabled", errorbank.WithCause(err))
	}
	return errorbank.Internal(message, errorbank.WithCause(err))
}
