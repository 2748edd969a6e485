package migrations

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Run creates the database schema required for the custody ledger.
func Run(db *sqlx.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'unassigned'
                CHECK (role IN ('admin', 'warehouse', 'hospital', 'clinician', 'unassigned')),
            is_approved INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS warehouses (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            location TEXT NOT NULL DEFAULT '',
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS hospitals (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            location TEXT NOT NULL DEFAULT '',
            capacity INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS patients (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            age INTEGER NOT NULL,
            hospital_id INTEGER NOT NULL REFERENCES hospitals(id),
            medical_record TEXT NOT NULL DEFAULT '',
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS batches (
            id TEXT PRIMARY KEY,
            medication_name TEXT NOT NULL,
            quantity INTEGER NOT NULL CHECK (quantity > 0),
            remaining_quantity INTEGER NOT NULL CHECK (remaining_quantity >= 0),
            manufacturing_date DATETIME NOT NULL,
            expiry_date DATETIME NOT NULL,
            scan_code TEXT NOT NULL UNIQUE,
            status TEXT NOT NULL DEFAULT 'created'
                CHECK (status IN ('created', 'dispatched', 'received', 'administered')),
            warehouse_id INTEGER NOT NULL REFERENCES warehouses(id),
            created_by INTEGER NOT NULL REFERENCES users(id),
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS dispatches (
            id TEXT PRIMARY KEY,
            batch_id TEXT NOT NULL REFERENCES batches(id),
            from_warehouse_id INTEGER NOT NULL REFERENCES warehouses(id),
            to_hospital_id INTEGER NOT NULL REFERENCES hospitals(id),
            quantity INTEGER NOT NULL CHECK (quantity > 0),
            status TEXT NOT NULL DEFAULT 'pending'
                CHECK (status IN ('pending', 'in_transit', 'received')),
            dispatched_by INTEGER NOT NULL REFERENCES users(id),
            received_by INTEGER REFERENCES users(id),
            dispatched_at DATETIME NOT NULL,
            received_at DATETIME
        );`,
		`CREATE TABLE IF NOT EXISTS usage_records (
            id TEXT PRIMARY KEY,
            batch_id TEXT NOT NULL REFERENCES batches(id),
            patient_id INTEGER NOT NULL REFERENCES patients(id),
            clinician_id INTEGER NOT NULL REFERENCES users(id),
            hospital_id INTEGER NOT NULL REFERENCES hospitals(id),
            quantity INTEGER NOT NULL CHECK (quantity > 0),
            notes TEXT NOT NULL DEFAULT '',
            administered_at DATETIME NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_batches_warehouse ON batches(warehouse_id);`,
		`CREATE INDEX IF NOT EXISTS idx_batches_status ON batches(status);`,
		`CREATE INDEX IF NOT EXISTS idx_dispatches_batch ON dispatches(batch_id);`,
		`CREATE INDEX IF NOT EXISTS idx_dispatches_status ON dispatches(status);`,
		`CREATE INDEX IF NOT EXISTS idx_usage_records_batch ON usage_records(batch_id);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("running migration: %w", err)
		}
	}
	return nil
}
