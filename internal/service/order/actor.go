package order

import (
	"context"

	"github.com/Additional-Code/atelier/internal/entity"
	repo "github.com/Additional-Code/atelier/internal/repository/order"
)

// Actor is the authoritative remote order store. Every call may fail.
type Actor interface {
	PlaceExtendedOrder(ctx context.Context, order *entity.ExtendedOrder) error
	GetMyExtendedOrders(ctx context.Context, principal string) ([]entity.ExtendedOrder, error)
	GetAllExtendedOrders(ctx context.Context) ([]entity.ExtendedOrder, error)
	GetOrderByID(ctx context.Context, id string) (*entity.ExtendedOrder, error)
	UpdateExtendedOrderStatus(ctx context.Context, id, status, note string) error
}

// NewActor exposes the extended order repository as the service's actor.
// A nil repository means no actor is available.
func NewActor(r *repo.Repository) Actor {
	if r == nil {
		return nil
	}
	return r
}
