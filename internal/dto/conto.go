package dto

import (
	"time"

	"github.com/impresahub/impresa_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CommissionRequest books a gross commission for an approved company.
type CommissionRequest struct {
	CompanyID   string          `json:"companyId" binding:"required,uuid"`
	Gross       decimal.Decimal `json:"gross"`
	Description string          `json:"description" binding:"max=500"`
	ReferenceID *string         `json:"referenceId" binding:"omitempty,max=100"`
	EntryDate   *time.Time      `json:"entryDate"`
}

// ManualEntryRequest books a single hand-written ledger line.
type ManualEntryRequest struct {
	UserID      *string         `json:"userId" binding:"omitempty,uuid"`
	CompanyID   *string         `json:"companyId" binding:"omitempty,uuid"`
	Direction   string          `json:"direction" binding:"required,oneof=credit debit"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" binding:"required,max=500"`
	Category    string          `json:"category" binding:"max=100"`
	EntryDate   *time.Time      `json:"entryDate"`
}

// ListContoParams filters ledger listings and exports.
type ListContoParams struct {
	CompanyID string     `form:"companyId" binding:"omitempty,uuid"`
	From      *time.Time `form:"from" time_format:"2006-01-02"`
	To        *time.Time `form:"to" time_format:"2006-01-02"`
	Limit     int        `form:"limit,default=100"`
	Offset    int        `form:"offset,default=0"`
}

type ListContoResponse struct {
	Entries []domain.ContoEntry `json:"entries"`
	Total   int                 `json:"total"`
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset"`
}

type BalanceResponse struct {
	UserID  *string         `json:"userId,omitempty"`
	Balance decimal.Decimal `json:"balance"`
}
