package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryDirection is the sign of a conto entry.
type EntryDirection string

const (
	Credit EntryDirection = "credit"
	Debit  EntryDirection = "debit"
)

// EntrySource records how a conto entry was produced.
type EntrySource string

const (
	SourceManual     EntrySource = "manual"
	SourceCommission EntrySource = "commission"
	SourceImport     EntrySource = "import"
)

// ContoEntry is one line of the internal ledger. A nil UserID is the platform share.
type ContoEntry struct {
	EntryID     string          `json:"entryID"`
	UserID      *string         `json:"userID,omitempty"`
	CompanyID   *string         `json:"companyID,omitempty"`
	Direction   EntryDirection  `json:"direction"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Source      EntrySource     `json:"source"`
	ReferenceID *string         `json:"referenceID,omitempty"`
	EntryDate   time.Time       `json:"entryDate"`
	AuditFields
}

// Signed returns the amount with credits positive and debits negative.
func (e ContoEntry) Signed() decimal.Decimal {
	if e.Direction == Debit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// CommissionShare is one beneficiary of a split. A nil UserID is the platform.
type CommissionShare struct {
	UserID *string         `json:"userID,omitempty"`
	Role   *UserRole       `json:"role,omitempty"`
	Ratio  decimal.Decimal `json:"ratio"`
	Amount decimal.Decimal `json:"amount"`
}

// CommissionSplit is the result of splitting one gross amount along an owner chain.
type CommissionSplit struct {
	ReferenceID string            `json:"referenceID"`
	CompanyID   string            `json:"companyID"`
	Gross       decimal.Decimal   `json:"gross"`
	Shares      []CommissionShare `json:"shares"`
	Entries     []ContoEntry      `json:"entries"`
}

// ContoFilter narrows conto list queries.
type ContoFilter struct {
	UserIDs   []string
	Global    bool
	CompanyID *string
	From      *time.Time
	To        *time.Time
	Page
}

// ImportRow is one parsed row of a conto reconciliation spreadsheet.
type ImportRow struct {
	Row         int
	VATNumber   string
	Amount      decimal.Decimal
	Date        time.Time
	Description string
}

// UnmatchedRow reports why an import row was not booked.
type UnmatchedRow struct {
	Row       int    `json:"row"`
	VATNumber string `json:"vatNumber"`
	Reason    string `json:"reason"`
}

// ImportResult summarizes a conto import.
type ImportResult struct {
	Processed int               `json:"processed"`
	Splits    []CommissionSplit `json:"splits"`
	Unmatched []UnmatchedRow    `json:"unmatched"`
}
