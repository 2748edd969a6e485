package seed

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

// LoadFacilities ingests a facility CSV into the warehouses and hospitals
// tables, ignoring rows already present. Expected columns:
// kind(warehouse|hospital), name, location, capacity.
func LoadFacilities(db *sqlx.DB, csvPath string) {
	file, err := os.Open(csvPath)
	if err != nil {
		slog.Warn("unable to load facility seed", "path", csvPath, "error", err)
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Skip header
	if _, err := reader.Read(); err != nil {
		slog.Warn("unable to read facility header", "error", err)
		return
	}

	tx, err := db.Beginx()
	if err != nil {
		slog.Warn("unable to start facility transaction", "error", err)
		return
	}
	defer tx.Rollback()

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Warn("unable to read facility row", "error", err)
			continue
		}
		if len(record) < 3 {
			continue
		}

		kind := strings.ToLower(strings.TrimSpace(record[0]))
		name := strings.TrimSpace(record[1])
		location := strings.TrimSpace(record[2])
		if name == "" {
			continue
		}

		switch kind {
		case "warehouse":
			_, err = tx.Exec(
				`INSERT INTO warehouses (name, location)
				 SELECT ?, ? WHERE NOT EXISTS (SELECT 1 FROM warehouses WHERE name = ?)`,
				name, location, name)
		case "hospital":
			capacity := 0
			if len(record) > 3 {
				capacity, _ = strconv.Atoi(strings.TrimSpace(record[3]))
			}
			_, err = tx.Exec(
				`INSERT INTO hospitals (name, location, capacity)
				 SELECT ?, ?, ? WHERE NOT EXISTS (SELECT 1 FROM hospitals WHERE name = ?)`,
				name, location, capacity, name)
		default:
			continue
		}
		if err != nil {
			slog.Warn("unable to insert facility", "name", name, "error", err)
			continue
		}
		rows++
	}

	if err := tx.Commit(); err != nil {
		slog.Warn("unable to commit facility seed", "error", err)
		return
	}
	slog.Info("facility seed loaded", "rows", rows)
}
