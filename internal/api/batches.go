package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"sihacare/m/domain"
	"sihacare/m/internal/ledger"
	"sihacare/m/internal/metrics"
)

type createBatchRequest struct {
	MedicationName    string `json:"medication_name"`
	Quantity          int64  `json:"quantity"`
	ManufacturingDate string `json:"manufacturing_date"` // YYYY-MM-DD
	ExpiryDate        string `json:"expiry_date"`        // YYYY-MM-DD
	WarehouseID       int64  `json:"warehouse_id"`
	ScanCode          string `json:"scan_code"`
}

func (h *Handler) createBatch(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleWarehouse) {
		return
	}
	var req createBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	mfgDate, err := time.Parse(time.DateOnly, req.ManufacturingDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "manufacturing_date must be in YYYY-MM-DD format")
		return
	}
	expiryDate, err := time.Parse(time.DateOnly, req.ExpiryDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "expiry_date must be in YYYY-MM-DD format")
		return
	}

	batch, err := h.ledger.CreateBatch(r.Context(), ledger.CreateBatchParams{
		Medication:        req.MedicationName,
		Quantity:          req.Quantity,
		ManufacturingDate: mfgDate,
		ExpiryDate:        expiryDate,
		WarehouseID:       req.WarehouseID,
		ScanCode:          req.ScanCode,
		ActorID:           currentUser(r).ID,
	})
	metrics.RecordOperation("create_batch", outcome(err))
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, batch)
}

func (h *Handler) listBatches(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	warehouseID, err := optionalID(q.Get("warehouse_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid warehouse_id")
		return
	}
	hospitalID, err := optionalID(q.Get("hospital_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid hospital_id")
		return
	}

	// available=true narrows to usable stock (the available-stock projection).
	if q.Get("available") == "true" || hospitalID > 0 {
		batches, err := h.ledger.AvailableBatches(r.Context(), ledger.LocationFilter{
			WarehouseID: warehouseID,
			HospitalID:  hospitalID,
		})
		if err != nil {
			respondLedgerError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, batches)
		return
	}

	batches, err := h.ledger.ListBatches(r.Context(), warehouseID)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, batches)
}

func (h *Handler) getBatch(w http.ResponseWriter, r *http.Request) {
	batch, err := h.ledger.GetBatch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, batch)
}

func (h *Handler) auditTrail(w http.ResponseWriter, r *http.Request) {
	trail, err := h.ledger.AuditTrail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, trail)
}

func (h *Handler) expiringBatches(w http.ResponseWriter, r *http.Request) {
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "days must be a positive number")
			return
		}
		days = parsed
	}

	batches, err := h.ledger.ExpiringBatches(r.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, batches)
}

func optionalID(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.ParseInt(value, 10, 64)
}

// outcome labels a ledger result for metrics.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := ledger.Kind(err); kind != "" {
		return kind
	}
	return "error"
}
