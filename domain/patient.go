package domain

import "time"

type Patient struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Age           int64     `db:"age" json:"age"`
	HospitalID    int64     `db:"hospital_id" json:"hospital_id"`
	MedicalRecord string    `db:"medical_record" json:"medical_record,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
