package domain

import "time"

// BatchStatus is the coarse lifecycle marker of a batch. It only ever
// advances; the fine-grained ledger is RemainingQuantity.
type BatchStatus string

const (
	BatchCreated      BatchStatus = "created"
	BatchDispatched   BatchStatus = "dispatched"
	BatchReceived     BatchStatus = "received"
	BatchAdministered BatchStatus = "administered"
)

var batchStatusRank = map[BatchStatus]int{
	BatchCreated:      0,
	BatchDispatched:   1,
	BatchReceived:     2,
	BatchAdministered: 3,
}

// Valid reports whether s is a known batch status.
func (s BatchStatus) Valid() bool {
	_, ok := batchStatusRank[s]
	return ok
}

// Rank returns the position of s in the lifecycle order.
func (s BatchStatus) Rank() int {
	return batchStatusRank[s]
}

// Follows reports whether s is the immediate successor of prev in the
// lifecycle order created -> dispatched -> received -> administered.
func (s BatchStatus) Follows(prev BatchStatus) bool {
	return s.Valid() && prev.Valid() && s.Rank() == prev.Rank()+1
}

// Batch is a registered lot of one medication. Batches are never deleted;
// they are the permanent audit root of the custody chain.
type Batch struct {
	ID                string      `db:"id" json:"id"`
	MedicationName    string      `db:"medication_name" json:"medication_name"`
	Quantity          int64       `db:"quantity" json:"quantity"`
	RemainingQuantity int64       `db:"remaining_quantity" json:"remaining_quantity"`
	ManufacturingDate time.Time   `db:"manufacturing_date" json:"manufacturing_date"`
	ExpiryDate        time.Time   `db:"expiry_date" json:"expiry_date"`
	ScanCode          string      `db:"scan_code" json:"scan_code"`
	Status            BatchStatus `db:"status" json:"status"`
	WarehouseID       int64       `db:"warehouse_id" json:"warehouse_id"`
	CreatedBy         int64       `db:"created_by" json:"created_by"`
	CreatedAt         time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time   `db:"updated_at" json:"updated_at"`
}
