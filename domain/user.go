package domain

import "time"

// User roles. The ledger itself only records actor ids; role gates are
// enforced at the API boundary before ledger operations are invoked.
const (
	RoleAdmin      = "admin"
	RoleWarehouse  = "warehouse"
	RoleHospital   = "hospital"
	RoleClinician  = "clinician"
	RoleUnassigned = "unassigned"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleWarehouse, RoleHospital, RoleClinician, RoleUnassigned:
		return true
	}
	return false
}

type User struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Email      string    `db:"email" json:"email"`
	Password   string    `db:"password" json:"password,omitempty"`
	Role       string    `db:"role" json:"role"`
	IsApproved bool      `db:"is_approved" json:"is_approved"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
