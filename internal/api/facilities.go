package api

import (
	"net/http"
	"strings"

	"sihacare/m/domain"
)

type warehouseRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

func (h *Handler) createWarehouse(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	var req warehouseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	res, err := h.db.Exec(`INSERT INTO warehouses (name, location) VALUES (?, ?)`,
		strings.TrimSpace(req.Name), strings.TrimSpace(req.Location))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create warehouse")
		return
	}
	id, _ := res.LastInsertId()
	respondJSON(w, http.StatusCreated, map[string]any{"id": id, "name": req.Name})
}

func (h *Handler) listWarehouses(w http.ResponseWriter, r *http.Request) {
	warehouses := []domain.Warehouse{}
	if err := h.db.Select(&warehouses, `SELECT * FROM warehouses ORDER BY name`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list warehouses")
		return
	}
	respondJSON(w, http.StatusOK, warehouses)
}

type hospitalRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Capacity int64  `json:"capacity"`
}

func (h *Handler) createHospital(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	var req hospitalRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Capacity < 0 {
		respondError(w, http.StatusBadRequest, "capacity must not be negative")
		return
	}

	res, err := h.db.Exec(`INSERT INTO hospitals (name, location, capacity) VALUES (?, ?, ?)`,
		strings.TrimSpace(req.Name), strings.TrimSpace(req.Location), req.Capacity)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create hospital")
		return
	}
	id, _ := res.LastInsertId()
	respondJSON(w, http.StatusCreated, map[string]any{"id": id, "name": req.Name})
}

func (h *Handler) listHospitals(w http.ResponseWriter, r *http.Request) {
	hospitals := []domain.Hospital{}
	if err := h.db.Select(&hospitals, `SELECT * FROM hospitals ORDER BY name`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list hospitals")
		return
	}
	respondJSON(w, http.StatusOK, hospitals)
}
