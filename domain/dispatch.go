package domain

import "time"

// DispatchStatus tracks a dispatch from creation to confirmed receipt.
type DispatchStatus string

const (
	DispatchPending   DispatchStatus = "pending"
	DispatchInTransit DispatchStatus = "in_transit"
	DispatchReceived  DispatchStatus = "received"
)

// Open reports whether the dispatch is still awaiting receipt.
func (s DispatchStatus) Open() bool {
	return s == DispatchPending || s == DispatchInTransit
}

// Dispatch is a movement of a quantity of one batch from a warehouse
// toward a hospital. Dispatches are never deleted.
type Dispatch struct {
	ID              string         `db:"id" json:"id"`
	BatchID         string         `db:"batch_id" json:"batch_id"`
	FromWarehouseID int64          `db:"from_warehouse_id" json:"from_warehouse_id"`
	ToHospitalID    int64          `db:"to_hospital_id" json:"to_hospital_id"`
	Quantity        int64          `db:"quantity" json:"quantity"`
	Status          DispatchStatus `db:"status" json:"status"`
	DispatchedBy    int64          `db:"dispatched_by" json:"dispatched_by"`
	ReceivedBy      *int64         `db:"received_by" json:"received_by,omitempty"`
	DispatchedAt    time.Time      `db:"dispatched_at" json:"dispatched_at"`
	ReceivedAt      *time.Time     `db:"received_at" json:"received_at,omitempty"`
}
