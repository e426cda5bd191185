package order

import (
	"sort"
	"strings"

	"github.com/Additional-Code/atelier/internal/entity"
	"github.com/Additional-Code/atelier/internal/status"
)

// Source names the store that served a read.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// SortOrder orders listings by creation time.
type SortOrder string

const (
	SortNewest SortOrder = "desc"
	SortOldest SortOrder = "asc"
)

// Query filters and sorts a listing. Zero value lists everything newest first.
type Query struct {
	// Status is compared canonically; "" and "all" disable the filter.
	Status   string
	Search   string
	TailorID string
	Sort     SortOrder

	IncludeDeleted bool
}

// Listing is the result of ListMine and ListAll.
type Listing struct {
	Orders []entity.Order
	Source Source
}

// Apply filters and sorts orders, returning a new slice.
func (q Query) Apply(orders []entity.Order) []entity.Order {
	wantStatus, filterStatus, matchNone := q.statusFilter()
	if matchNone {
		return []entity.Order{}
	}
	needle := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]entity.Order, 0, len(orders))
	for _, o := range orders {
		if o.IsDeleted && !q.IncludeDeleted {
			continue
		}
		if q.TailorID != "" && o.TailorID != q.TailorID {
			continue
		}
		if filterStatus && status.Canonicalize(o.Status).Status() != wantStatus {
			continue
		}
		if needle != "" && !matches(o, needle) {
			continue
		}
		out = append(out, o)
	}

	oldestFirst := q.Sort == SortOldest
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			if oldestFirst {
				return a.ID < b.ID
			}
			return a.ID > b.ID
		}
		if oldestFirst {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return out
}

func (q Query) statusFilter() (want status.Status, filter bool, matchNone bool) {
	raw := strings.TrimSpace(q.Status)
	if raw == "" || strings.EqualFold(raw, "all") {
		return "", false, false
	}
	s, ok := status.Parse(raw)
	if !ok {
		return "", false, true
	}
	return s, true, false
}

func matches(o entity.Order, needle string) bool {
	fields := []string{
		o.ID,
		o.ListingTitle,
		o.Category,
		o.CustomerID,
		o.TailorID,
		o.DeliveryAddress.Name,
		o.DeliveryAddress.City,
	}
	for _, item := range o.Items {
		fields = append(fields, item.Title)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
