package client

import (
	"cmp"
	"slices"
	"strings"

	"github.com/noob2628/Inventory-App/types"
)

const defaultViewPageSize = 100

// ViewParams selects what DeriveView shows.
type ViewParams struct {
	// Search matches item_code or delivery_no, case-insensitively.
	Search string
	// RefillStatuses keeps only records in one of these statuses. Empty keeps all.
	RefillStatuses []types.RefillStatus
	// SortKey is one of delivery_date, item_description, qty, date_counted,
	// created_at. Anything else sorts by created_at.
	SortKey    string
	Descending bool
	Page       int
	PageSize   int
}

// View is one derived page.
type View struct {
	Items      []types.InventoryRecord
	Total      int
	Page       int
	TotalPages int
}

// DeriveView filters, sorts and paginates records without modifying them.
// It is recomputed from the fetched set whenever the parameters change.
func DeriveView(records []types.InventoryRecord, params ViewParams) View {
	search := strings.ToLower(strings.TrimSpace(params.Search))

	filtered := make([]types.InventoryRecord, 0, len(records))
	for _, record := range records {
		if search != "" && !containsFold(record.ItemCode, search) && !containsFold(record.DeliveryNo, search) {
			continue
		}
		if len(params.RefillStatuses) > 0 && !slices.Contains(params.RefillStatuses, record.RefillStatus) {
			continue
		}
		filtered = append(filtered, record)
	}

	compare := comparator(params.SortKey)
	slices.SortStableFunc(filtered, func(a, b types.InventoryRecord) int {
		if params.Descending {
			return compare(b, a)
		}
		return compare(a, b)
	})

	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = defaultViewPageSize
	}
	page := max(params.Page, 1)

	view := View{
		Total:      len(filtered),
		Page:       page,
		TotalPages: (len(filtered) + pageSize - 1) / pageSize,
		Items:      []types.InventoryRecord{},
	}
	start := (page - 1) * pageSize
	if start < len(filtered) {
		view.Items = filtered[start:min(start+pageSize, len(filtered))]
	}
	return view
}

func containsFold(value *string, lowered string) bool {
	return value != nil && strings.Contains(strings.ToLower(*value), lowered)
}

func comparator(key string) func(a, b types.InventoryRecord) int {
	switch key {
	case "delivery_date":
		return func(a, b types.InventoryRecord) int { return compareDates(a.DeliveryDate, b.DeliveryDate) }
	case "date_counted":
		return func(a, b types.InventoryRecord) int { return compareDates(a.DateCounted, b.DateCounted) }
	case "item_description":
		return func(a, b types.InventoryRecord) int {
			return cmp.Compare(strings.ToLower(a.ItemDescription), strings.ToLower(b.ItemDescription))
		}
	case "qty":
		return func(a, b types.InventoryRecord) int {
			switch {
			case !a.Qty.Valid && !b.Qty.Valid:
				return 0
			case !a.Qty.Valid:
				return -1
			case !b.Qty.Valid:
				return 1
			}
			return a.Qty.Decimal.Cmp(b.Qty.Decimal)
		}
	default:
		return func(a, b types.InventoryRecord) int {
			if c := a.CreatedAt.Compare(b.CreatedAt.Time); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		}
	}
}

// compareDates orders missing dates first.
func compareDates(a, b types.Date) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		return -1
	case !b.Valid:
		return 1
	}
	return a.Time.Compare(b.Time)
}
