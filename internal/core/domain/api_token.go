package domain

import "time"

// APIToken is a long-lived credential sent in the x-api-key header.
// Only the hash of the secret is stored; Prefix lets a user recognise a token in listings.
type APIToken struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userID"`
	Name       string     `json:"name"`
	Prefix     string     `json:"prefix"`
	TokenHash  string     `json:"-"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	RevokedAt  *time.Time `json:"-"`
}

// IsUsable reports whether the token is neither revoked nor expired at now.
func (t APIToken) IsUsable(now time.Time) bool {
	if t.RevokedAt != nil {
		return false
	}
	return t.ExpiresAt == nil || t.ExpiresAt.After(now)
}
