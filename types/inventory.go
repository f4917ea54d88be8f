package types

import "strings"

// RefillStatus is the restocking disposition of an inventory record.
// The empty value means "not set".
type RefillStatus string

const (
	RefillNone      RefillStatus = ""
	RefillX         RefillStatus = "X"
	RefillYes       RefillStatus = "YES"
	RefillHolySheep RefillStatus = "HOLYSHEEP"
	RefillReturn    RefillStatus = "RETURN"
	RefillChoice    RefillStatus = "CHOICE"
)

// RefillStatuses lists every settable refill status.
var RefillStatuses = []RefillStatus{RefillX, RefillYes, RefillHolySheep, RefillReturn, RefillChoice}

// ParseRefillStatus normalizes raw and reports whether it names a settable status.
// Any status may follow any other; there is no ordering between them.
func ParseRefillStatus(raw string) (RefillStatus, bool) {
	candidate := RefillStatus(strings.ToUpper(strings.TrimSpace(raw)))
	for _, status := range RefillStatuses {
		if candidate == status {
			return status, true
		}
	}
	return RefillNone, false
}

// InventoryRecord is one delivered or counted batch of a physical item.
type InventoryRecord struct {
	// ID is assigned by the store and never changes.
	ID int `json:"id"`

	// Delivery metadata.
	DeliveryDate    Date    `json:"delivery_date"`
	DeliveryNo      *string `json:"delivery_no"`
	SupplierName    *string `json:"supplier_name"`
	DeliveryDetails *string `json:"delivery_details"`
	Stockman        *string `json:"stockman"`

	// Item identity and placement.
	ItemDescription string   `json:"item_description"`
	ItemCode        *string  `json:"item_code"`
	Color           *string  `json:"color"`
	Storage         *string  `json:"storage"`
	Qty             Quantity `json:"qty"`

	// Counting.
	CountedBy   string `json:"counted_by"`
	DateCounted Date   `json:"date_counted"`

	// RecordedBy is the creating user's id. It is written once.
	RecordedBy int `json:"recorded_by"`

	// EditedBy is the id of the last user to modify the record.
	EditedBy *int `json:"edited_by"`

	// Refill workflow.
	RefillStatus RefillStatus `json:"refill_status"`
	DateOfRefill Date         `json:"date_of_refill"`
	RefillBy     string       `json:"refill_by"`

	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// InventoryPatch is a create or sparse-update payload. Keys omitted from the
// JSON body stay unset and never touch the stored row.
type InventoryPatch struct {
	DeliveryDate    Optional[string]   `json:"delivery_date,omitzero"`
	DeliveryNo      Optional[string]   `json:"delivery_no,omitzero"`
	SupplierName    Optional[string]   `json:"supplier_name,omitzero"`
	DeliveryDetails Optional[string]   `json:"delivery_details,omitzero"`
	Stockman        Optional[string]   `json:"stockman,omitzero"`
	ItemDescription Optional[string]   `json:"item_description,omitzero"`
	ItemCode        Optional[string]   `json:"item_code,omitzero"`
	Color           Optional[string]   `json:"color,omitzero"`
	Storage         Optional[string]   `json:"storage,omitzero"`
	Qty             Optional[Quantity] `json:"qty,omitzero"`
	CountedBy       Optional[string]   `json:"counted_by,omitzero"`
	DateCounted     Optional[string]   `json:"date_counted,omitzero"`
	RefillStatus    Optional[string]   `json:"refill_status,omitzero"`
	DateOfRefill    Optional[string]   `json:"date_of_refill,omitzero"`
	RefillBy        Optional[string]   `json:"refill_by,omitzero"`
}

// FieldUpdate is a single column assignment produced from a patch.
// Value is nil to write NULL.
type FieldUpdate struct {
	Column string
	Value  any
}

// InventoryQuery selects a page of records. Sort must already be a known column.
type InventoryQuery struct {
	Search    string
	Sort      string
	Ascending bool
	Offset    int
	Limit     int
}

// InventorySummary aggregates the whole record set for the dashboard.
type InventorySummary struct {
	Total          int            `json:"total"`
	TotalQty       Quantity       `json:"total_qty"`
	ByRefillStatus map[string]int `json:"by_refill_status"`
}
