package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContoEntry is a row of conto_entries.
type ContoEntry struct {
	EntryID     string          `db:"entry_id"`
	UserID      *string         `db:"user_id"`
	CompanyID   *string         `db:"company_id"`
	Direction   string          `db:"direction"`
	Amount      decimal.Decimal `db:"amount"`
	Description string          `db:"description"`
	Category    string          `db:"category"`
	Source      string          `db:"source"`
	ReferenceID *string         `db:"reference_id"`
	EntryDate   time.Time       `db:"entry_date"`
	AuditFields
}
