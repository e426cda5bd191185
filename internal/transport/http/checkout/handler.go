package checkout

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/atelier/internal/dto"
	"github.com/Additional-Code/atelier/internal/identity"
	"github.com/Additional-Code/atelier/internal/presentation/http/response"
	"github.com/Additional-Code/atelier/internal/repository/cart"
	service "github.com/Additional-Code/atelier/internal/service/checkout"
	"github.com/Additional-Code/atelier/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/atelier/transport/http/checkout")

// Handler exposes checkout, cart and buy-now endpoints over HTTP.
type Handler struct {
	svc  *service.Service
	cart *cart.Repository
}

// NewHandler constructs a checkout Handler.
func NewHandler(svc *service.Service, cart *cart.Repository) *Handler {
	return &Handler{svc: svc, cart: cart}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.POST("/checkout", h.checkout)

	g := e.Group("/cart")
	g.GET("", h.items)
	g.POST("", h.addItem)
	g.DELETE("", h.clear)
	g.DELETE("/:listing", h.removeItem)

	e.GET("/buy-now", h.buyNow)
	e.PUT("/buy-now", h.setBuyNow)
	e.DELETE("/buy-now", h.clearBuyNow)
}

func (h *Handler) checkout(c echo.Context) error {
	b := response.New(c)

	var form service.Form
	if err := c.Bind(&form); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	principal := identity.Principal(c.Request().Context())
	ctx, span := httpTracer.Start(c.Request().Context(), "checkout.submit", trace.WithAttributes(attribute.String("principal", principal)))
	defer span.End()

	res, err := h.svc.Checkout(ctx, principal, form)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).
		WithData(dto.NewOrderResponse(res.Order)).
		WithMeta("redirect", res.RedirectPath).
		WithMeta("source", res.Source).
		Build()
}

func (h *Handler) items(c echo.Context) error {
	b := response.New(c)
	items, err := h.cart.Items(c.Request().Context(), identity.Principal(c.Request().Context()))
	if err != nil {
		return b.WithError(errorbank.Internal("failed to read cart", errorbank.WithCause(err))).Build()
	}
	return b.WithData(items).Build()
}

func (h *Handler) addItem(c echo.Context) error {
	b := response.New(c)

	item, err := bindItem(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	items, err := h.cart.AddItem(c.Request().Context(), identity.Principal(c.Request().Context()), item.ToItem())
	if err != nil {
		return b.WithError(errorbank.Internal("failed to update cart", errorbank.WithCause(err))).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(items).Build()
}

func (h *Handler) removeItem(c echo.Context) error {
	b := response.New(c)
	items, err := h.cart.RemoveItem(c.Request().Context(), identity.Principal(c.Request().Context()), c.Param("listing"))
	if err != nil {
		return b.WithError(errorbank.Internal("failed to update cart", errorbank.WithCause(err))).Build()
	}
	return b.WithData(items).Build()
}

func (h *Handler) clear(c echo.Context) error {
	b := response.New(c)
	if err := h.cart.Clear(c.Request().Context(), identity.Principal(c.Request().Context())); err != nil {
		return b.WithError(errorbank.Internal("failed to clear cart", errorbank.WithCause(err))).Build()
	}
	return b.WithData(map[string]bool{"cleared": true}).Build()
}

func (h *Handler) buyNow(c echo.Context) error {
	b := response.New(c)
	item, err := h.cart.BuyNow(c.Request().Context(), identity.Principal(c.Request().Context()))
	if err != nil {
		return b.WithError(errorbank.Internal("failed to read buy-now item", errorbank.WithCause(err))).Build()
	}
	if item == nil {
		return b.WithError(errorbank.NotFound("no buy-now item")).Build()
	}
	return b.WithData(item).Build()
}

func (h *Handler) setBuyNow(c echo.Context) error {
	b := response.New(c)

	item, err := bindItem(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	if err := h.cart.SetBuyNow(c.Request().Context(), identity.Principal(c.Request().Context()), item.ToItem()); err != nil {
		return b.WithError(errorbank.Internal("failed to store buy-now item", errorbank.WithCause(err))).Build()
	}
	return b.WithData(item.ToItem()).Build()
}

func (h *Handler) clearBuyNow(c echo.Context) error {
	b := response.New(c)
	if err := h.cart.ClearBuyNow(c.Request().Context(), identity.Principal(c.Request().Context())); err != nil {
		return b.WithError(errorbank.Internal("failed to clear buy-now item", errorbank.WithCause(err))).Build()
	}
	return b.WithData(map[string]bool{"cleared": true}).Build()
}

func bindItem(c echo.Context) (dto.CartItemRequest, error) {
	var payload dto.CartItemRequest
	if err := c.Bind(&payload); err != nil {
		return payload, errorbank.BadRequest("invalid payload", errorbank.WithCause(err))
	}
	if payload.ListingID == "" {
		return payload, errorbank.BadRequest("listing_id is required")
	}
	if payload.Price.IsNegative() {
		return payload, errorbank.BadRequest("price must not be negative")
	}
	return payload, nil
}
