package order

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/atelier/internal/dto"
	"github.com/Additional-Code/atelier/internal/identity"
	"github.com/Additional-Code/atelier/internal/presentation/http/response"
	service "github.com/Additional-Code/atelier/internal/service/order"
	"github.com/Additional-Code/atelier/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/atelier/transport/http/order")

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo group.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders")
	g.GET("", h.listAll)
	g.POST("", h.place)
	g.GET("/mine", h.listMine)
	g.GET("/:id", h.getByID)
	g.GET("/:id/progress", h.progress)
	g.PATCH("/:id/status", h.updateStatus)
}

func queryFrom(c echo.Context) (service.Query, error) {
	q := service.Query{
		Status:   c.QueryParam("status"),
		Search:   c.QueryParam("q"),
		TailorID: c.QueryParam("tailor"),
		Sort:     service.SortNewest,
	}
	if c.QueryParam("sort") == string(service.SortOldest) {
		q.Sort = service.SortOldest
	}
	if raw := c.QueryParam("include_deleted"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return q, errorbank.BadRequest("include_deleted must be a boolean",
				errorbank.WithCause(err),
				errorbank.WithDetail("include_deleted", raw),
			)
		}
		q.IncludeDeleted = v
	}
	return q, nil
}

func (h *Handler) listAll(c echo.Context) error {
	ctx, span := httpTracer.Start(c.Request().Context(), "orders.listAll")
	defer span.End()

	q, err := queryFrom(c)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	listing := h.svc.ListAll(ctx, q)
	return response.New(c).
		WithData(dto.NewOrderResponses(listing.Orders)).
		WithMeta("source", listing.Source).
		WithMeta("count", len(listing.Orders)).
		Build()
}

func (h *Handler) listMine(c echo.Context) error {
	principal := identity.Principal(c.Request().Context())
	ctx, span := httpTracer.Start(c.Request().Context(), "orders.listMine", trace.WithAttributes(attribute.String("principal", principal)))
	defer span.End()

	q, err := queryFrom(c)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	listing := h.svc.ListMine(ctx, principal, q)
	return response.New(c).
		WithData(dto.NewOrderResponses(listing.Orders)).
		WithMeta("source", listing.Source).
		WithMeta("count", len(listing.Orders)).
		Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) progress(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.progress", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, _, err := h.svc.Progress(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewProgress(order.Status)).WithMeta("order_id", order.ID).Build()
}

func (h *Handler) place(c echo.Context) error {
	b := response.New(c)

	var payload dto.OrderRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.ListingID == "" && len(payload.Items) == 0 {
		return b.WithError(errorbank.BadRequest("listing_id or items are required")).Build()
	}

	principal := identity.Principal(c.Request().Context())
	ctx, span := httpTracer.Start(c.Request().Context(), "orders.place")
	span.SetAttributes(attribute.String("principal", principal))
	defer span.End()

	order, err := h.svc.Place(ctx, payload.ToOrder(principal))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) updateStatus(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	var payload dto.UpdateStatusRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.updateStatus", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.status", payload.Status),
	))
	defer span.End()

	err := h.svc.UpdateStatus(ctx, service.UpdateStatusInput{
		ID:        id,
		Status:    payload.Status,
		Note:      payload.Note,
		Source:    service.Source(payload.Source),
		Principal: identity.Principal(ctx),
	})
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewProgress(payload.Status)).WithMeta("order_id", id).Build()
}
