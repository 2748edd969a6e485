package api

import (
	"net/http"

	"sihacare/m/domain"
	"sihacare/m/internal/ledger"
	"sihacare/m/internal/metrics"
)

type recordUsageRequest struct {
	BatchID   string `json:"batch_id"`
	PatientID int64  `json:"patient_id"`
	Quantity  int64  `json:"quantity"`
	Notes     string `json:"notes"`
}

func (h *Handler) recordUsage(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleClinician) {
		return
	}
	var req recordUsageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.ledger.RecordUsage(r.Context(), ledger.RecordUsageParams{
		BatchID:     req.BatchID,
		PatientID:   req.PatientID,
		ClinicianID: currentUser(r).ID,
		Quantity:    req.Quantity,
		Notes:       req.Notes,
	})
	metrics.RecordOperation("record_usage", outcome(err))
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, record)
}

func (h *Handler) listUsage(w http.ResponseWriter, r *http.Request) {
	records, err := h.ledger.ListUsage(r.Context(), r.URL.Query().Get("batch_id"))
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, records)
}
