package measurement

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/atelier/internal/dto"
	"github.com/Additional-Code/atelier/internal/identity"
	"github.com/Additional-Code/atelier/internal/presentation/http/response"
	"github.com/Additional-Code/atelier/internal/repository/measurement"
	"github.com/Additional-Code/atelier/pkg/errorbank"
)

// Handler exposes measurement profile endpoints over HTTP.
type Handler struct {
	repo *measurement.Repository
}

// NewHandler constructs a measurement Handler.
func NewHandler(repo *measurement.Repository) *Handler {
	return &Handler{repo: repo}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/measurements")
	g.GET("", h.list)
	g.PUT("/:id", h.save)
	g.GET("/:id", h.get)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)
	profiles, err := h.repo.List(c.Request().Context(), identity.Principal(c.Request().Context()))
	if err != nil {
		return b.WithError(errorbank.Internal("failed to read measurements", errorbank.WithCause(err))).Build()
	}
	return b.WithData(profiles).Build()
}

func (h *Handler) get(c echo.Context) error {
	b := response.New(c)
	profile, err := h.repo.Get(c.Request().Context(), identity.Principal(c.Request().Context()), c.Param("id"))
	if errors.Is(err, measurement.ErrNotFound) {
		return b.WithError(errorbank.NotFound("measurement profile not found")).Build()
	}
	if err != nil {
		return b.WithError(errorbank.Internal("failed to read measurement", errorbank.WithCause(err))).Build()
	}
	return b.WithData(profile).Build()
}

func (h *Handler) save(c echo.Context) error {
	b := response.New(c)

	var payload dto.MeasurementRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.Name == "" {
		return b.WithError(errorbank.BadRequest("name is required")).Build()
	}
	for k, v := range payload.Values {
		if v < 0 {
			return b.WithError(errorbank.BadRequest("measurements must not be negative", errorbank.WithDetail("field", k))).Build()
		}
	}

	saved, err := h.repo.Save(c.Request().Context(), identity.Principal(c.Request().Context()), measurement.Profile{
		ID:     c.Param("id"),
		Name:   payload.Name,
		Unit:   payload.Unit,
		Values: payload.Values,
		Notes:  payload.Notes,
	})
	if err != nil {
		return b.WithError(errorbank.Internal("failed to save measurement", errorbank.WithCause(err))).Build()
	}
	return b.WithData(saved).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)
	if err := h.repo.Delete(c.Request().Context(), identity.Principal(c.Request().Context()), c.Param("id")); err != nil {
		return b.WithError(errorbank.Internal("failed to delete measurement", errorbank.WithCause(err))).Build()
	}
	return b.WithData(map[string]string{"id": c.Param("id")}).Build()
}
