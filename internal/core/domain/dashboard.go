package domain

// CounterDelta is an increment applied to the per-owner dashboard counters.
type CounterDelta struct {
	OwnerID  string
	Kind     string
	Total    int
	Pending  int
	Approved int
	Rejected int
}

// StatusDelta returns +1 for the bucket of status, used when a record is created or removed.
func StatusDelta(ownerID string, kind string, status *ApprovalStatus, sign int) CounterDelta {
	d := CounterDelta{OwnerID: ownerID, Kind: kind, Total: sign}
	if status == nil {
		return d
	}
	switch *status {
	case ApprovalPending:
		d.Pending = sign
	case ApprovalApproved:
		d.Approved = sign
	case ApprovalRejected:
		d.Rejected = sign
	}
	return d
}

// TransitionDelta moves one record from one status bucket to another.
func TransitionDelta(ownerID string, kind string, from *ApprovalStatus, to ApprovalStatus) CounterDelta {
	out := StatusDelta(ownerID, kind, from, -1)
	in := StatusDelta(ownerID, kind, &to, 1)
	return CounterDelta{
		OwnerID:  ownerID,
		Kind:     kind,
		Pending:  out.Pending + in.Pending,
		Approved: out.Approved + in.Approved,
		Rejected: out.Rejected + in.Rejected,
	}
}

// KindStats are the aggregated counters for one kind.
type KindStats struct {
	Kind     string `json:"kind"`
	Total    int    `json:"total"`
	Pending  int    `json:"pending"`
	Approved int    `json:"approved"`
	Rejected int    `json:"rejected"`
}

// DashboardStats is the caller-scoped summary shown on the dashboard.
type DashboardStats struct {
	Kinds               []KindStats `json:"kinds"`
	UnreadNotifications int         `json:"unreadNotifications"`
	UnreadMessages      int         `json:"unreadMessages"`
}
