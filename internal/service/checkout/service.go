package checkout

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/atelier/internal/config"
	"github.com/Additional-Code/atelier/internal/entity"
	"github.com/Additional-Code/atelier/internal/logger"
	"github.com/Additional-Code/atelier/internal/repository/cart"
	"github.com/Additional-Code/atelier/internal/repository/measurement"
	ordersvc "github.com/Additional-Code/atelier/internal/service/order"
	"github.com/Additional-Code/atelier/internal/status"
	"github.com/Additional-Code/atelier/pkg/errorbank"
)

var checkoutTracer = otel.Tracer("github.com/Additional-Code/atelier/service/checkout")

// Module provides the checkout service to Fx.
var Module = fx.Provide(NewService)

// ItemSource names the transient state a checkout consumed.
type ItemSource string

const (
	SourceBuyNow ItemSource = "buy_now"
	SourceCart   ItemSource = "cart"
)

// Placer places orders.
type Placer interface {
	Place(ctx context.Context, order *entity.Order) (*entity.Order, error)
}

// Basket exposes the principal's cart and buy-now selection.
type Basket interface {
	Items(ctx context.Context, principal string) ([]entity.OrderItem, error)
	Clear(ctx context.Context, principal string) error
	BuyNow(ctx context.Context, principal string) (*entity.OrderItem, error)
	ClearBuyNow(ctx context.Context, principal string) error
}

// Profiles looks up saved measurement profiles.
type Profiles interface {
	Get(ctx context.Context, principal, id string) (*measurement.Profile, error)
}

// Result is a completed checkout.
type Result struct {
	Order        *entity.Order `json:"order"`
	Source       ItemSource    `json:"source"`
	RedirectPath string        `json:"redirectPath"`
}

// Service turns a validated form plus cart or buy-now state into one order.
type Service struct {
	orders           Placer
	basket           Basket
	profiles         Profiles
	validate         *validator.Validate
	confirmationPath string
	logger           *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Orders       *ordersvc.Service
	Cart         *cart.Repository
	Measurements *measurement.Repository
	Config       config.Config
	Logger       *zap.Logger
}

// NewService wires the checkout service.
func NewService(p Params) *Service {
	return New(p.Orders, p.Cart, p.Measurements, p.Config.Checkout, p.Logger)
}

// New builds a Service from its collaborators.
func New(orders Placer, basket Basket, profiles Profiles, cfg config.Checkout, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	path := strings.TrimRight(cfg.ConfirmationPath, "/")
	if path == "" {
		path = "/order-confirmation"
	}
	return &Service{
		orders:           orders,
		basket:           basket,
		profiles:         profiles,
		validate:         newValidator(),
		confirmationPath: path,
		logger:           logger,
	}
}

// Checkout validates form, places exactly one order from the buy-now item
// when present or the cart otherwise, and clears the consumed state.
// Validation failures never reach the order service.
func (s *Service) Checkout(ctx context.Context, principal string, form Form) (*Result, error) {
	ctx, span := checkoutTracer.Start(ctx, "Checkout", trace.WithAttributes(attribute.String("principal", principal)))
	defer span.End()

	form = form.trimmed()
	fields := fieldErrors(s.validate, form)

	items, source, err := s.selectItems(ctx, principal)
	if err != nil {
		return nil, errorbank.Internal("failed to read checkout items", errorbank.WithCause(err))
	}
	if len(items) == 0 {
		fields["items"] = "Add at least one item before checking out"
	}

	var snapshot *entity.MeasurementSnapshot
	if form.MeasurementProfileID != "" && s.profiles != nil {
		profile, err := s.profiles.Get(ctx, principal, form.MeasurementProfileID)
		switch {
		case errors.Is(err, measurement.ErrNotFound):
			fields["measurementProfileId"] = "Measurement profile not found"
		case err != nil:
			return nil, errorbank.Internal("failed to read measurement profile", errorbank.WithCause(err))
		default:
			snapshot = profile.Snapshot()
		}
	}

	if len(fields) > 0 {
		return nil, errorbank.Validation("checkout form is invalid", fields)
	}

	draft := buildOrder(principal, form, items, snapshot)
	placed, err := s.orders.Place(ctx, draft)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("order.id", placed.ID), attribute.String("checkout.source", string(source)))

	s.clear(ctx, principal, source)
	logger.For(ctx, s.logger).Info("checkout completed",
		zap.String("order_id", placed.ID),
		zap.String("source", string(source)),
		zap.Int("items", len(items)),
	)

	return &Result{
		Order:        placed,
		Source:       source,
		RedirectPath: s.confirmationPath + "/" + placed.ID,
	}, nil
}

func (s *Service) selectItems(ctx context.Context, principal string) ([]entity.OrderItem, ItemSource, error) {
	buyNow, err := s.basket.BuyNow(ctx, principal)
	if err != nil {
		return nil, "", err
	}
	if buyNow != nil {
		return []entity.OrderItem{*buyNow}, SourceBuyNow, nil
	}
	items, err := s.basket.Items(ctx, principal)
	if err != nil {
		return nil, "", err
	}
	return items, SourceCart, nil
}

func (s *Service) clear(ctx context.Context, principal string, source ItemSource) {
	var err error
	if source == SourceBuyNow {
		err = s.basket.ClearBuyNow(ctx, principal)
	} else {
		err = s.basket.Clear(ctx, principal)
	}
	if err != nil {
		s.logger.Warn("checkout state not cleared", zap.String("principal", principal), zap.String("source", string(source)), zap.Error(err))
	}
}

// buildOrder snapshots everything the order needs; nothing in the result
// shares memory with the cart or the measurement profile.
func buildOrder(principal string, form Form, items []entity.OrderItem, snapshot *entity.MeasurementSnapshot) *entity.Order {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	first := items[0]

	order := &entity.Order{
		CustomerID:          principal,
		TailorID:            first.TailorID,
		ListingID:           first.ListingID,
		ListingTitle:        first.Title,
		Category:            first.Category,
		Items:               items,
		Customization:       first.Customization,
		MeasurementSnapshot: snapshot,
		DeliveryAddress: entity.Address{
			Name:     form.Name,
			HouseNo:  form.HouseNo,
			Area:     form.Area,
			Landmark: form.Landmark,
			City:     form.City,
			State:    form.State,
			PinCode:  form.PinCode,
			Phone:    form.Phone,
		},
		TotalPrice:  total,
		Status:      string(status.OrderPlaced),
		PaymentMode: entity.PaymentModeCOD,
	}
	return order.Clone()
}
