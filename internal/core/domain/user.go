package domain

import "time"

// User represents a user of the application in the domain.
type User struct {
	UserID       string        `json:"userID"` // Primary Key (e.g., UUID)
	Username     string        `json:"username"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"-"`
	Name         string        `json:"name"`
	Role         UserRole      `json:"role"`
	ManagedBy    *string       `json:"managedBy,omitempty"`
	Approval     ApprovalState `json:"approval"`
	IsActive     bool          `json:"isActive"`
	AuditFields
	DeletedAt *time.Time `json:"deletedAt,omitempty"` // Used for soft delete
}

// Actor returns the identity the user acts with.
func (u User) Actor() Actor {
	return Actor{UserID: u.UserID, Role: u.Role, Name: u.Name}
}

// CanSignIn reports whether the account is approved and active.
func (u User) CanSignIn() bool {
	return u.DeletedAt == nil && u.IsActive && u.Approval.IsApproved()
}

// DisplayName falls back to the username when no name is set.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// UserFilter narrows user list queries.
type UserFilter struct {
	OwnerIDs []string
	Global   bool
	Role     *UserRole
	Page
}
