package core

import (
	"time"
)

// Role of a company user.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleCashier Role = "cashier"
)

// User represents an authenticated system user scoped to a company.
type User struct {
	ID           string    `json:"id"`
	CompanyID    string    `json:"company_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}
