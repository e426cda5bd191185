package order

import "github.com/Additional-Code/atelier/internal/entity"

// fromExtended maps the remote representation onto the canonical order.
func fromExtended(e entity.ExtendedOrder) entity.Order {
	o := entity.Order{
		ID:                  e.ID,
		CustomerID:          e.CustomerPrincipal,
		TailorID:            e.TailorID,
		ListingID:           e.ListingID,
		ListingTitle:        e.ListingTitle,
		Category:            e.Category,
		Items:               e.Items,
		Customization:       e.Customization,
		MeasurementSnapshot: e.MeasurementSnapshot,
		DeliveryAddress:     e.DeliveryAddress,
		TotalPrice:          e.TotalPrice,
		Status:              e.Status,
		PaymentMode:         e.PaymentMode,
		AdminNotes:          e.AdminNotes,
		IsDeleted:           e.IsDeleted,
		CreatedAt:           e.CreatedAt,
		UpdatedAt:           e.UpdatedAt,
	}
	return *o.Clone()
}

// toExtended maps a canonical order onto the remote representation.
func toExtended(o *entity.Order) *entity.ExtendedOrder {
	cp := o.Clone()
	return &entity.ExtendedOrder{
		ID:                  cp.ID,
		CustomerPrincipal:   cp.CustomerID,
		TailorID:            cp.TailorID,
		ListingID:           cp.ListingID,
		ListingTitle:        cp.ListingTitle,
		Category:            cp.Category,
		Items:               cp.Items,
		Customization:       cp.Customization,
		MeasurementSnapshot: cp.MeasurementSnapshot,
		DeliveryAddress:     cp.DeliveryAddress,
		TotalPrice:          cp.TotalPrice,
		Status:              cp.Status,
		PaymentMode:         cp.PaymentMode,
		AdminNotes:          cp.AdminNotes,
		IsDeleted:           cp.IsDeleted,
		CreatedAt:           cp.CreatedAt,
		UpdatedAt:           cp.UpdatedAt,
	}
}

func fromExtendedAll(in []entity.ExtendedOrder) []entity.Order {
	out := make([]entity.Order, 0, len(in))
	for _, e := range in {
		out = append(out, fromExtended(e))
	}
	return out
}
