package services

import (
	"context"
	"io"

	"github.com/impresahub/impresa_backend/internal/core/domain"
	"github.com/impresahub/impresa_backend/internal/dto"
	"github.com/shopspring/decimal"
)

// ContoWriterSvc books ledger entries. All operations require a privileged actor.
type ContoWriterSvc interface {
	// RecordCommission splits a gross amount along the company's owner chain.
	RecordCommission(ctx context.Context, actor domain.Actor, req dto.CommissionRequest) (*domain.CommissionSplit, error)
	CreateManualEntry(ctx context.Context, actor domain.Actor, req dto.ManualEntryRequest) (*domain.ContoEntry, error)
	// ImportWorkbook books every matched spreadsheet row in one transaction.
	ImportWorkbook(ctx context.Context, actor domain.Actor, r io.Reader) (*domain.ImportResult, error)
}

// ContoReaderSvc exposes scoped ledger reads.
type ContoReaderSvc interface {
	ListEntries(ctx context.Context, actor domain.Actor, params dto.ListContoParams) ([]domain.ContoEntry, int, error)
	// GetBalance defaults to the actor's own balance when userID is nil.
	GetBalance(ctx context.Context, actor domain.Actor, userID *string) (decimal.Decimal, error)
	ExportWorkbook(ctx context.Context, actor domain.Actor, params dto.ListContoParams, w io.Writer) error
}

type ContoSvcFacade interface {
	ContoWriterSvc
	ContoReaderSvc
}
