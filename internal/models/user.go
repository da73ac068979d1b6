package models

import "time"

// User is a row of the users table.
type User struct {
	UserID       string  `db:"user_id"`
	Username     string  `db:"username"`
	Email        string  `db:"email"`
	PasswordHash string  `db:"password_hash"`
	Name         string  `db:"name"`
	Role         string  `db:"role"`
	ManagedBy    *string `db:"managed_by"`
	IsActive     bool    `db:"is_active"`
	ApprovalColumns
	AuditFields
	DeletedAt *time.Time `db:"deleted_at"`
}
