package dto

import (
	"time"

	"github.com/impresahub/impresa_backend/internal/core/domain"
)

// CreateUserRequest is used by privileged and managing users to create accounts.
type CreateUserRequest struct {
	Username  string  `json:"username" binding:"required,min=3,max=50"`
	Email     string  `json:"email" binding:"required,email"`
	Password  string  `json:"password" binding:"required,min=8,max=72"`
	Name      string  `json:"name" binding:"required,max=255"`
	Role      string  `json:"role" binding:"required"`
	ManagedBy *string `json:"managedBy" binding:"omitempty,uuid"`
}

// RegisterRequest is the public self-registration payload. Registered users are segnalatori.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"required,max=255"`
}

// UpdateUserRequest defines the data allowed for updating a user.
// Using pointers to differentiate between omitted fields and zero-value fields.
type UpdateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=255"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=8,max=72"`
}

// LoginRequest accepts a username or an email in Login.
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ListUsersParams defines query parameters for listing users.
type ListUsersParams struct {
	Role   string `form:"role"`
	Limit  int    `form:"limit,default=50"`
	Offset int    `form:"offset,default=0"`
}

type UserResponse struct {
	UserID          string     `json:"userID"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	Role            string     `json:"role"`
	ManagedBy       *string    `json:"managedBy,omitempty"`
	Status          string     `json:"status"`
	IsApproved      bool       `json:"isApproved"`
	PendingApproval bool       `json:"pendingApproval"`
	IsActive        bool       `json:"isActive"`
	ApprovedBy      *string    `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	RejectionReason *string    `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// ListUsersResponse wraps the list of users.
type ListUsersResponse struct {
	Users  []UserResponse `json:"users"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// LoginResponse represents the response for a successful login.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

func ToUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		UserID:          user.UserID,
		Username:        user.Username,
		Email:           user.Email,
		Name:            user.Name,
		Role:            string(user.Role),
		ManagedBy:       user.ManagedBy,
		Status:          string(user.Approval.Current()),
		IsApproved:      user.Approval.IsApproved(),
		PendingApproval: user.Approval.IsPendingApproval(),
		IsActive:        user.IsActive && user.Approval.IsApproved(),
		ApprovedBy:      user.Approval.ApprovedBy,
		ApprovedAt:      user.Approval.ApprovedAt,
		RejectionReason: user.Approval.RejectionReason,
		CreatedAt:       user.CreatedAt,
	}
}

// ToListUserResponse converts a slice of domain.User to ListUsersResponse DTO
func ToListUserResponse(users []domain.User, total int, page domain.Page) ListUsersResponse {
	userResponses := make([]UserResponse, len(users))
	for i := range users {
		userResponses[i] = ToUserResponse(&users[i])
	}
	return ListUsersResponse{
		Users:  userResponses,
		Total:  total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}
}
