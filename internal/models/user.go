package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleMasterAdmin UserRole = "MASTER_ADMIN"
	RoleKetua       UserRole = "KETUA"
	RoleSekretaris  UserRole = "SEKRETARIS"
	RoleBendahara   UserRole = "BENDAHARA"
	RoleAnggota     UserRole = "ANGGOTA"
)

// User represents an organization member stored in the users table.
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	Role      UserRole  `db:"role" json:"role"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
