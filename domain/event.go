package domain

// ChangeEvent describes a committed ledger mutation for realtime
// subscribers. Delivery is best-effort and not required for correctness.
type ChangeEvent struct {
	Entity    string `json:"entity"`    // batch, dispatch, usage_record
	Operation string `json:"operation"` // insert, update
	ID        string `json:"id"`
}

// Stats is the dashboard summary projection.
type Stats struct {
	TotalBatches     int64 `db:"total_batches" json:"total_batches"`
	TotalDispatches  int64 `db:"total_dispatches" json:"total_dispatches"`
	TotalPatients    int64 `db:"total_patients" json:"total_patients"`
	PendingApprovals int64 `db:"pending_approvals" json:"pending_approvals"`
}
