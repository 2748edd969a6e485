package api

import (
	"net/http"
	"strconv"
	"strings"

	"sihacare/m/domain"
)

type patientRequest struct {
	Name          string `json:"name"`
	Age           int64  `json:"age"`
	HospitalID    int64  `json:"hospital_id"`
	MedicalRecord string `json:"medical_record"`
}

func (h *Handler) createPatient(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleHospital, domain.RoleClinician) {
		return
	}
	var req patientRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" || req.HospitalID == 0 {
		respondError(w, http.StatusBadRequest, "name and hospital_id are required")
		return
	}
	if req.Age < 0 {
		respondError(w, http.StatusBadRequest, "age must not be negative")
		return
	}

	var exists int
	if err := h.db.Get(&exists, `SELECT COUNT(*) FROM hospitals WHERE id = ?`, req.HospitalID); err != nil || exists == 0 {
		respondError(w, http.StatusNotFound, "hospital not found")
		return
	}

	res, err := h.db.Exec(
		`INSERT INTO patients (name, age, hospital_id, medical_record) VALUES (?, ?, ?, ?)`,
		strings.TrimSpace(req.Name), req.Age, req.HospitalID, strings.TrimSpace(req.MedicalRecord))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create patient")
		return
	}
	id, _ := res.LastInsertId()
	respondJSON(w, http.StatusCreated, map[string]any{"id": id, "name": req.Name})
}

func (h *Handler) listPatients(w http.ResponseWriter, r *http.Request) {
	query := `SELECT * FROM patients`
	var args []any
	if v := r.URL.Query().Get("hospital_id"); v != "" {
		hospitalID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid hospital_id")
			return
		}
		query += ` WHERE hospital_id = ?`
		args = append(args, hospitalID)
	}
	query += ` ORDER BY name, id`

	patients := []domain.Patient{}
	if err := h.db.Select(&patients, query, args...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list patients")
		return
	}
	respondJSON(w, http.StatusOK, patients)
}
