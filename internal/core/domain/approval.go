package domain

import (
	"errors"
	"fmt"
	"time"
)

// ApprovalStatus is the single lifecycle tag of an approval-bearing record.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// ErrApprovalTransition is returned when a terminal record is asked to move to the other terminal state.
var ErrApprovalTransition = errors.New("invalid approval transition")

// ApprovalState tracks who moved a record through its lifecycle.
// A nil Status marks a legacy record created before approval tracking existed;
// it is treated as awaiting review.
type ApprovalState struct {
	Status          *ApprovalStatus `json:"status"`
	ApprovedBy      *string         `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time      `json:"approvedAt,omitempty"`
	RejectedBy      *string         `json:"rejectedBy,omitempty"`
	RejectedAt      *time.Time      `json:"rejectedAt,omitempty"`
	RejectionReason *string         `json:"rejectionReason,omitempty"`
}

// NewApprovalState computes the initial state of a record created by creator.
// Privileged creators get an approved record, roles in requiredRoles get a pending one.
// ok is false when the creator's role may not create the record at all.
func NewApprovalState(creator Actor, requiredRoles []UserRole, now time.Time) (state ApprovalState, ok bool) {
	if creator.IsPrivileged() {
		st := ApprovalApproved
		by := creator.UserID
		at := now
		return ApprovalState{Status: &st, ApprovedBy: &by, ApprovedAt: &at}, true
	}
	for _, r := range requiredRoles {
		if r == creator.Role {
			st := ApprovalPending
			return ApprovalState{Status: &st}, true
		}
	}
	return ApprovalState{}, false
}

// Current returns the status, mapping legacy records to pending.
func (s ApprovalState) Current() ApprovalStatus {
	if s.Status == nil {
		return ApprovalPending
	}
	return *s.Status
}

func (s ApprovalState) IsLegacy() bool { return s.Status == nil }

func (s ApprovalState) IsApproved() bool { return s.Current() == ApprovalApproved }

func (s ApprovalState) IsPendingApproval() bool { return s.Current() == ApprovalPending }

func (s ApprovalState) IsRejected() bool { return s.Current() == ApprovalRejected }

// IsActive mirrors approval: only approved records are active.
func (s ApprovalState) IsActive() bool { return s.IsApproved() }

// Approve moves a pending or legacy record to approved.
// It reports changed=false when the record was already approved.
func (s *ApprovalState) Approve(actorID string, now time.Time) (changed bool, err error) {
	switch s.Current() {
	case ApprovalApproved:
		return false, nil
	case ApprovalRejected:
		return false, fmt.Errorf("%w: record was already rejected", ErrApprovalTransition)
	}
	st := ApprovalApproved
	by := actorID
	at := now
	s.Status = &st
	s.ApprovedBy = &by
	s.ApprovedAt = &at
	return true, nil
}

// Reject moves a pending or legacy record to rejected, keeping reason verbatim.
// It reports changed=false when the record was already rejected.
func (s *ApprovalState) Reject(actorID string, reason *string, now time.Time) (changed bool, err error) {
	switch s.Current() {
	case ApprovalRejected:
		return false, nil
	case ApprovalApproved:
		return false, fmt.Errorf("%w: record was already approved", ErrApprovalTransition)
	}
	st := ApprovalRejected
	by := actorID
	at := now
	s.Status = &st
	s.RejectedBy = &by
	s.RejectedAt = &at
	s.RejectionReason = reason
	return true, nil
}

// ApprovalType is the discriminator used by the approvals API.
type ApprovalType string

const (
	ApprovalTypeCompany     ApprovalType = "company"
	ApprovalTypeSportello   ApprovalType = "sportello"
	ApprovalTypeAgente      ApprovalType = "agente"
	ApprovalTypeSegnalatore ApprovalType = "segnalatore"
	ApprovalTypeUser        ApprovalType = "user"
)

// ApprovalTypes lists every discriminator in the order pending items are reported.
func ApprovalTypes() []ApprovalType {
	return []ApprovalType{ApprovalTypeCompany, ApprovalTypeSportello, ApprovalTypeAgente, ApprovalTypeSegnalatore, ApprovalTypeUser}
}

// ParseApprovalType validates a discriminator taken from a request path.
func ParseApprovalType(s string) (ApprovalType, error) {
	for _, t := range ApprovalTypes() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown approval type %q", s)
}

// EntityKind maps the discriminator to an entity kind. Users have no entity kind.
func (t ApprovalType) EntityKind() (EntityKind, bool) {
	switch t {
	case ApprovalTypeCompany:
		return KindCompany, true
	case ApprovalTypeSportello:
		return KindSportello, true
	case ApprovalTypeAgente:
		return KindAgente, true
	case ApprovalTypeSegnalatore:
		return KindSegnalatore, true
	}
	return "", false
}

// PendingItem is one record awaiting review in the aggregate pending list.
type PendingItem struct {
	Type      ApprovalType   `json:"type"`
	Label     string         `json:"label"`
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	OwnerID   string         `json:"ownerId"`
	Status    ApprovalStatus `json:"status"`
	IsLegacy  bool           `json:"isLegacy"`
	CreatedAt time.Time      `json:"createdAt"`
}

// ApprovalOutcome is returned by approve and reject.
type ApprovalOutcome struct {
	Type    ApprovalType
	ID      string
	Name    string
	OwnerID string
	State   ApprovalState
	Changed bool
}
