package domain

import "time"

// UsageRecord is the administration of a quantity of a received batch to a
// patient. Records are immutable once created.
type UsageRecord struct {
	ID             string    `db:"id" json:"id"`
	BatchID        string    `db:"batch_id" json:"batch_id"`
	PatientID      int64     `db:"patient_id" json:"patient_id"`
	ClinicianID    int64     `db:"clinician_id" json:"clinician_id"`
	HospitalID     int64     `db:"hospital_id" json:"hospital_id"`
	Quantity       int64     `db:"quantity" json:"quantity"`
	Notes          string    `db:"notes" json:"notes,omitempty"`
	AdministeredAt time.Time `db:"administered_at" json:"administered_at"`
}
