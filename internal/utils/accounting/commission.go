package accounting

import (
	"fmt"
	"time"

	"github.com/impresahub/impresa_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CentPlaces is the precision of every booked amount.
const CentPlaces = 2

// ChainMember is one user on the path from a company owner up its managers.
type ChainMember struct {
	UserID string
	Role   domain.UserRole
}

// CommissionRatios maps a role to the share of the gross its chain member receives.
type CommissionRatios map[domain.UserRole]decimal.Decimal

// Validate checks every ratio is in [0, 1] and that a full chain never exceeds the gross.
func (r CommissionRatios) Validate() error {
	total := decimal.Zero
	for role, ratio := range r {
		if role.IsPrivileged() {
			return fmt.Errorf("privileged role %s cannot take a commission share", role)
		}
		if ratio.IsNegative() || ratio.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("commission ratio for %s must be between 0 and 1, got %s", role, ratio)
		}
		total = total.Add(ratio)
	}
	if total.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("commission ratios sum to %s, more than the gross", total)
	}
	return nil
}

// SplitCommission assigns each chain member gross*ratio rounded down to the cent,
// skipping members whose role has no ratio, and gives the remainder to the platform.
// The platform share is always last and the shares always sum to gross exactly.
func SplitCommission(gross decimal.Decimal, chain []ChainMember, ratios CommissionRatios) ([]domain.CommissionShare, error) {
	if !gross.IsPositive() {
		return nil, fmt.Errorf("gross amount must be positive, got %s", gross)
	}
	if !gross.Equal(gross.Round(CentPlaces)) {
		return nil, fmt.Errorf("gross amount %s has more than %d decimal places", gross, CentPlaces)
	}
	if err := ratios.Validate(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(chain))
	shares := make([]domain.CommissionShare, 0, len(chain)+1)
	distributed := decimal.Zero
	for _, m := range chain {
		ratio, ok := ratios[m.Role]
		if !ok || ratio.IsZero() || seen[m.UserID] {
			continue
		}
		seen[m.UserID] = true
		amount := gross.Mul(ratio).RoundFloor(CentPlaces)
		userID := m.UserID
		role := m.Role
		shares = append(shares, domain.CommissionShare{UserID: &userID, Role: &role, Ratio: ratio, Amount: amount})
		distributed = distributed.Add(amount)
	}

	remainder := gross.Sub(distributed)
	shares = append(shares, domain.CommissionShare{
		Ratio:  remainder.DivRound(gross, 4),
		Amount: remainder,
	})
	return shares, nil
}

// EntryMeta carries the fields shared by every entry booked for one split.
type EntryMeta struct {
	CompanyID   string
	ReferenceID string
	Description string
	EntryDate   time.Time
	Source      domain.EntrySource
	CreatedBy   string
	Now         time.Time
	NewID       func() string
}

// CommissionEntries turns shares into credit entries, dropping zero amounts.
func CommissionEntries(shares []domain.CommissionShare, meta EntryMeta) []domain.ContoEntry {
	entries := make([]domain.ContoEntry, 0, len(shares))
	companyID := meta.CompanyID
	ref := meta.ReferenceID
	for _, s := range shares {
		if s.Amount.IsZero() {
			continue
		}
		category := "commission"
		if s.UserID == nil {
			category = "platform"
		}
		entries = append(entries, domain.ContoEntry{
			EntryID:     meta.NewID(),
			UserID:      s.UserID,
			CompanyID:   &companyID,
			Direction:   domain.Credit,
			Amount:      s.Amount,
			Description: meta.Description,
			Category:    category,
			Source:      meta.Source,
			ReferenceID: &ref,
			EntryDate:   meta.EntryDate,
			AuditFields: domain.AuditFields{
				CreatedAt:     meta.Now,
				CreatedBy:     meta.CreatedBy,
				LastUpdatedAt: meta.Now,
				LastUpdatedBy: meta.CreatedBy,
			},
		})
	}
	return entries
}

// SumShares adds share amounts.
func SumShares(shares []domain.CommissionShare) decimal.Decimal {
	total := decimal.Zero
	for _, s := range shares {
		total = total.Add(s.Amount)
	}
	return total
}
