// Package queue defines message payloads exchanged over the message broker
// and the publisher that delivers them.
package queue

// CheckoutCompletedEvent is published after a checkout commits. It carries
// enough information for downstream consumers (receipts, analytics) to act
// without querying the primary database.
type CheckoutCompletedEvent struct {
	OccupancyID string  `json:"occupancy_id"`
	SpaceID     string  `json:"space_id"`
	LotID       string  `json:"lot_id"`
	UserID      string  `json:"user_id"`
	VehicleID   string  `json:"vehicle_id,omitempty"`
	BillID      string  `json:"bill_id"`
	Amount      float64 `json:"amount"`
	NeedsReview bool    `json:"needs_review"`
	EntryTime   string  `json:"entry_time"`
	ExitTime    string  `json:"exit_time"`
}

// CheckoutQueue is the durable queue checkout events are published to.
const CheckoutQueue = "occupancy.checkout"
