package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"sihacare/m/domain"
)

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	users := []domain.User{}
	err := h.db.Select(&users,
		`SELECT id, name, email, role, is_approved, created_at FROM users ORDER BY created_at DESC, id`)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list users")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

type updateRoleRequest struct {
	Role       string `json:"role"`
	IsApproved bool   `json:"is_approved"`
}

// updateUserRole assigns a role and approval to an account; this is the
// admin approval step that replaces self-service role selection.
func (h *Handler) updateUserRole(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !domain.ValidRole(req.Role) {
		respondError(w, http.StatusBadRequest, "unknown role")
		return
	}

	approved := 0
	if req.IsApproved {
		approved = 1
	}
	res, err := h.db.Exec(`UPDATE users SET role = ?, is_approved = ? WHERE id = ?`, req.Role, approved, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update user")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
