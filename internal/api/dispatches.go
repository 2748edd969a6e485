package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"sihacare/m/domain"
	"sihacare/m/internal/ledger"
	"sihacare/m/internal/metrics"
)

type createDispatchRequest struct {
	BatchID     string `json:"batch_id"`
	WarehouseID int64  `json:"warehouse_id"`
	HospitalID  int64  `json:"hospital_id"`
	Quantity    int64  `json:"quantity"`
}

func (h *Handler) createDispatch(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleWarehouse) {
		return
	}
	var req createDispatchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	dispatch, err := h.ledger.CreateDispatch(r.Context(), ledger.CreateDispatchParams{
		BatchID:     req.BatchID,
		WarehouseID: req.WarehouseID,
		HospitalID:  req.HospitalID,
		Quantity:    req.Quantity,
		ActorID:     currentUser(r).ID,
	})
	metrics.RecordOperation("create_dispatch", outcome(err))
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, dispatch)
}

func (h *Handler) listDispatches(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("pending") == "true" {
		dispatches, err := h.ledger.PendingDeliveries(r.Context())
		if err != nil {
			respondLedgerError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, dispatches)
		return
	}

	dispatches, err := h.ledger.ListDispatches(r.Context(), r.URL.Query().Get("batch_id"))
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dispatches)
}

func (h *Handler) markInTransit(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleWarehouse) {
		return
	}
	dispatch, err := h.ledger.MarkInTransit(r.Context(), chi.URLParam(r, "id"))
	metrics.RecordOperation("mark_in_transit", outcome(err))
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dispatch)
}

func (h *Handler) confirmReceipt(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleHospital) {
		return
	}
	dispatch, err := h.ledger.ConfirmReceipt(r.Context(), chi.URLParam(r, "id"), currentUser(r).ID)
	metrics.RecordOperation("confirm_receipt", outcome(err))
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dispatch)
}

type scanReceiveRequest struct {
	Code string `json:"code"`
}

// receiveByScan confirms receipt from a decoded scanner payload. Decoding
// itself (QR, barcode, OCR) happens on the client; the ledger only resolves
// the resulting string.
func (h *Handler) receiveByScan(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleHospital) {
		return
	}
	var req scanReceiveRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	dispatch, err := h.ledger.ReceiveByScanCode(r.Context(), req.Code, currentUser(r).ID)
	metrics.RecordOperation("receive_by_scan", outcome(err))
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dispatch)
}
