package domain

import "sort"

// Scope is the set of owner ids whose records a caller may see.
// A global scope applies no owner filter at all.
type Scope struct {
	global bool
	owners map[string]struct{}
}

// GlobalScope returns the unrestricted scope given to privileged roles.
func GlobalScope() Scope {
	return Scope{global: true}
}

// NewOwnerScope returns a finite scope over the given owner ids.
func NewOwnerScope(ownerIDs ...string) Scope {
	s := Scope{owners: make(map[string]struct{}, len(ownerIDs))}
	for _, id := range ownerIDs {
		s.owners[id] = struct{}{}
	}
	return s
}

func (s Scope) IsGlobal() bool { return s.global }

// Add extends a finite scope. It is a no-op on a global scope.
func (s *Scope) Add(ownerIDs ...string) {
	if s.global {
		return
	}
	if s.owners == nil {
		s.owners = make(map[string]struct{}, len(ownerIDs))
	}
	for _, id := range ownerIDs {
		s.owners[id] = struct{}{}
	}
}

// Contains reports whether records owned by ownerID are visible.
func (s Scope) Contains(ownerID string) bool {
	if s.global {
		return true
	}
	_, ok := s.owners[ownerID]
	return ok
}

// OwnerIDs returns the sorted owner ids of a finite scope, nil for a global one.
func (s Scope) OwnerIDs() []string {
	if s.global {
		return nil
	}
	ids := make([]string, 0, len(s.owners))
	for id := range s.owners {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s Scope) Len() int {
	return len(s.owners)
}
