package types

import "time"

const (
	EventInventoryCreated    = "inventory.created"
	EventInventoryUpdated    = "inventory.updated"
	EventInventoryDuplicated = "inventory.duplicated"
	EventInventoryRefilled   = "inventory.refilled"
	EventInventoryDeleted    = "inventory.deleted"
)

// InventoryEvent is published to the message broker after a record changes.
type InventoryEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	RecordID   int       `json:"record_id"`
	ActorID    int       `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
