package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	portsrepo "github.com/impresahub/impresa_backend/internal/core/ports/repositories"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
	"github.com/impresahub/impresa_backend/internal/dto"
	"github.com/impresahub/impresa_backend/internal/platform/authz"
	"github.com/impresahub/impresa_backend/internal/platform/spreadsheet"
	"github.com/impresahub/impresa_backend/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// ownerChainDepth is how many users up from the company owner share a commission.
const ownerChainDepth = 3

const exportPageSize = 500

type ContoServiceDeps struct {
	TxRunner   portsrepo.TxRunner
	ContoRepo  portsrepo.ContoRepository
	EntityRepo portsrepo.EntityReader
	UserRepo   portsrepo.UserReader
	Scope      portssvc.ScopeResolverSvc
	Ratios     accounting.CommissionRatios
	Notifier   portssvc.NotificationSink
	Authorizer portssvc.PermissionChecker
}

type contoService struct {
	BaseService
	scopeGuard
	txRunner   portsrepo.TxRunner
	contoRepo  portsrepo.ContoRepository
	entityRepo portsrepo.EntityReader
	userRepo   portsrepo.UserReader
	ratios     accounting.CommissionRatios
	notifier   portssvc.NotificationSink
}

// NewContoService creates the ledger service.
func NewContoService(deps ContoServiceDeps) portssvc.ContoSvcFacade {
	return &contoService{
		BaseService: BaseService{Authorizer: deps.Authorizer},
		scopeGuard:  scopeGuard{scope: deps.Scope},
		txRunner:    deps.TxRunner,
		contoRepo:   deps.ContoRepo,
		entityRepo:  deps.EntityRepo,
		userRepo:    deps.UserRepo,
		ratios:      deps.Ratios,
		notifier:    deps.Notifier,
	}
}

func (s *contoService) RecordCommission(ctx context.Context, actor domain.Actor, req dto.CommissionRequest) (*domain.CommissionSplit, error) {
	if err := s.AuthorizeActor(ctx, actor, authz.ObjectConto, authz.ActionWrite); err != nil {
		return nil, err
	}
	company, err := s.approvedCompany(ctx, req.CompanyID)
	if err != nil {
		return nil, err
	}

	ref := newID()
	if req.ReferenceID != nil && strings.TrimSpace(*req.ReferenceID) != "" {
		ref = strings.TrimSpace(*req.ReferenceID)
		exists, err := s.contoRepo.ReferenceExists(ctx, ref)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, apperrors.NewConflictError(fmt.Sprintf("reference %s has already been booked", ref))
		}
	}
	entryDate := now()
	if req.EntryDate != nil {
		entryDate = req.EntryDate.UTC()
	}

	split, err := s.split(ctx, actor, company, req.Gross, ref, req.Description, entryDate, domain.SourceCommission)
	if err != nil {
		return nil, err
	}
	err = s.txRunner.WithinTx(ctx, func(txCtx context.Context) error {
		if err := s.contoRepo.SaveEntries(txCtx, split.Entries); err != nil {
			return err
		}
		s.notifyBeneficiaries(txCtx, actor, company, split)
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to book commission", slog.String("company_id", company.EntityID))
		return nil, err
	}
	s.LogInfo(ctx, "Commission booked",
		slog.String("company_id", company.EntityID),
		slog.String("reference_id", ref),
		slog.String("gross", split.Gross.StringFixed(accounting.CentPlaces)))
	return split, nil
}

func (s *contoService) CreateManualEntry(ctx context.Context, actor domain.Actor, req dto.ManualEntryRequest) (*domain.ContoEntry, error) {
	if err := s.AuthorizeActor(ctx, actor, authz.ObjectConto, authz.ActionWrite); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, apperrors.NewValidationFailedError("amount must be positive")
	}
	if !req.Amount.Equal(req.Amount.Round(accounting.CentPlaces)) {
		return nil, apperrors.NewValidationFailedError("amount must have at most two decimal places")
	}
	direction := domain.EntryDirection(req.Direction)
	if direction != domain.Credit && direction != domain.Debit {
		return nil, apperrors.NewValidationFailedError("direction must be credit or debit")
	}
	if req.UserID != nil {
		if _, err := s.userRepo.FindUserByID(ctx, *req.UserID); err != nil {
			return nil, wrapNotFound(err, "user")
		}
	}
	if req.CompanyID != nil {
		if _, err := s.entityRepo.FindEntityByID(ctx, domain.KindCompany, *req.CompanyID); err != nil {
			return nil, err
		}
	}

	t := now()
	entryDate := t
	if req.EntryDate != nil {
		entryDate = req.EntryDate.UTC()
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = "manual"
	}
	entry := domain.ContoEntry{
		EntryID:     newID(),
		UserID:      req.UserID,
		CompanyID:   req.CompanyID,
		Direction:   direction,
		Amount:      req.Amount,
		Description: strings.TrimSpace(req.Description),
		Category:    category,
		Source:      domain.SourceManual,
		EntryDate:   entryDate,
		AuditFields: domain.AuditFields{
			CreatedAt:     t,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: t,
			LastUpdatedBy: actor.UserID,
		},
	}
	if err := s.contoRepo.SaveEntries(ctx, []domain.ContoEntry{entry}); err != nil {
		s.LogError(ctx, err, "Failed to save manual conto entry")
		return nil, err
	}
	s.LogInfo(ctx, "Manual conto entry booked", slog.String("entry_id", entry.EntryID))
	return &entry, nil
}

// ImportWorkbook books one commission per matched row. Rows already imported are
// reported as unmatched, so a workbook can be uploaded twice safely.
func (s *contoService) ImportWorkbook(ctx context.Context, actor domain.Actor, r io.Reader) (*domain.ImportResult, error) {
	if err := s.AuthorizeActor(ctx, actor, authz.ObjectConto, authz.ActionWrite); err != nil {
		return nil, err
	}
	rows, bad, err := spreadsheet.ParseContoImport(r)
	if err != nil {
		return nil, apperrors.NewValidationFailedError(err.Error())
	}

	result := &domain.ImportResult{Splits: []domain.CommissionSplit{}, Unmatched: append([]domain.UnmatchedRow{}, bad...)}
	type booked struct {
		company *domain.Entity
		split   *domain.CommissionSplit
	}
	var matched []booked
	seen := map[string]int{}
	for _, row := range rows {
		result.Processed++
		company, err := s.entityRepo.FindEntityByVATNumber(ctx, domain.KindCompany, row.VATNumber)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				result.Unmatched = append(result.Unmatched, domain.UnmatchedRow{Row: row.Row, VATNumber: row.VATNumber, Reason: "no company with this partita IVA"})
				continue
			}
			return nil, err
		}
		if company.Approval != nil && !company.Approval.IsApproved() {
			result.Unmatched = append(result.Unmatched, domain.UnmatchedRow{Row: row.Row, VATNumber: row.VATNumber, Reason: "company is not approved"})
			continue
		}

		key := importKey(row)
		seen[key]++
		ref := fmt.Sprintf("import-%s-%d", key, seen[key])
		exists, err := s.contoRepo.ReferenceExists(ctx, ref)
		if err != nil {
			return nil, err
		}
		if exists {
			result.Unmatched = append(result.Unmatched, domain.UnmatchedRow{Row: row.Row, VATNumber: row.VATNumber, Reason: "row already imported"})
			continue
		}

		description := row.Description
		if description == "" {
			description = "Provvigione " + company.Name
		}
		split, err := s.split(ctx, actor, company, row.Amount, ref, description, row.Date, domain.SourceImport)
		if err != nil {
			result.Unmatched = append(result.Unmatched, domain.UnmatchedRow{Row: row.Row, VATNumber: row.VATNumber, Reason: err.Error()})
			continue
		}
		matched = append(matched, booked{company: company, split: split})
	}

	if len(matched) > 0 {
		err = s.txRunner.WithinTx(ctx, func(txCtx context.Context) error {
			for _, m := range matched {
				if err := s.contoRepo.SaveEntries(txCtx, m.split.Entries); err != nil {
					return err
				}
			}
			for _, m := range matched {
				s.notifyBeneficiaries(txCtx, actor, m.company, m.split)
			}
			return nil
		})
		if err != nil {
			s.LogError(ctx, err, "Conto import failed")
			return nil, err
		}
	}
	for _, m := range matched {
		result.Splits = append(result.Splits, *m.split)
	}

	s.LogInfo(ctx, "Conto workbook imported",
		slog.Int("processed", result.Processed),
		slog.Int("booked", len(result.Splits)),
		slog.Int("unmatched", len(result.Unmatched)))
	return result, nil
}

func (s *contoService) ListEntries(ctx context.Context, actor domain.Actor, params dto.ListContoParams) ([]domain.ContoEntry, int, error) {
	filter, err := s.filter(ctx, actor, params)
	if err != nil {
		return nil, 0, err
	}
	return s.contoRepo.FindEntries(ctx, filter)
}

func (s *contoService) GetBalance(ctx context.Context, actor domain.Actor, userID *string) (decimal.Decimal, error) {
	if err := s.AuthorizeActor(ctx, actor, authz.ObjectConto, authz.ActionRead); err != nil {
		return decimal.Zero, err
	}
	target := actor.UserID
	if userID != nil && *userID != "" {
		target = *userID
	}
	if err := s.ensureVisible(ctx, actor, target); err != nil {
		return decimal.Zero, err
	}
	return s.contoRepo.Balance(ctx, &target)
}

// ExportWorkbook writes every visible entry matching params, ignoring its page window.
func (s *contoService) ExportWorkbook(ctx context.Context, actor domain.Actor, params dto.ListContoParams, w io.Writer) error {
	filter, err := s.filter(ctx, actor, params)
	if err != nil {
		return err
	}

	users := map[string]string{}
	companies := map[string]string{}
	var rows []spreadsheet.StatementRow
	filter.Page = domain.Page{Limit: exportPageSize}
	for {
		entries, total, err := s.contoRepo.FindEntries(ctx, filter)
		if err != nil {
			return err
		}
		for _, e := range entries {
			rows = append(rows, spreadsheet.StatementRow{
				Entry:       e,
				Beneficiary: s.beneficiaryName(ctx, users, e.UserID),
				CompanyName: s.companyName(ctx, companies, e.CompanyID),
			})
		}
		filter.Offset += len(entries)
		if len(entries) == 0 || filter.Offset >= total {
			break
		}
	}

	if err := spreadsheet.WriteContoStatement(w, rows); err != nil {
		s.LogError(ctx, err, "Failed to write conto statement")
		return err
	}
	s.LogInfo(ctx, "Conto statement exported", slog.Int("rows", len(rows)))
	return nil
}

func (s *contoService) filter(ctx context.Context, actor domain.Actor, params dto.ListContoParams) (domain.ContoFilter, error) {
	if err := s.AuthorizeActor(ctx, actor, authz.ObjectConto, authz.ActionRead); err != nil {
		return domain.ContoFilter{}, err
	}
	scope, err := s.resolve(ctx, actor)
	if err != nil {
		return domain.ContoFilter{}, err
	}
	filter := domain.ContoFilter{
		UserIDs: scope.OwnerIDs(),
		Global:  scope.IsGlobal(),
		From:    params.From,
		To:      params.To,
		Page:    domain.Page{Limit: params.Limit, Offset: params.Offset}.Normalize(),
	}
	if params.CompanyID != "" {
		filter.CompanyID = strPtr(params.CompanyID)
	}
	return filter, nil
}

func (s *contoService) approvedCompany(ctx context.Context, companyID string) (*domain.Entity, error) {
	company, err := s.entityRepo.FindEntityByID(ctx, domain.KindCompany, companyID)
	if err != nil {
		return nil, err
	}
	if company.Approval != nil && !company.Approval.IsApproved() {
		return nil, apperrors.NewValidationFailedError("commissions can only be booked for approved companies")
	}
	return company, nil
}

func (s *contoService) split(ctx context.Context, actor domain.Actor, company *domain.Entity, gross decimal.Decimal, ref, description string, entryDate time.Time, source domain.EntrySource) (*domain.CommissionSplit, error) {
	chain, err := s.ownerChain(ctx, company.OwnerID)
	if err != nil {
		return nil, err
	}
	shares, err := accounting.SplitCommission(gross, chain, s.ratios)
	if err != nil {
		return nil, apperrors.NewValidationFailedError(err.Error())
	}
	if strings.TrimSpace(description) == "" {
		description = "Provvigione " + company.Name
	}
	entries := accounting.CommissionEntries(shares, accounting.EntryMeta{
		CompanyID:   company.EntityID,
		ReferenceID: ref,
		Description: strings.TrimSpace(description),
		EntryDate:   entryDate,
		Source:      source,
		CreatedBy:   actor.UserID,
		Now:         now(),
		NewID:       newID,
	})
	return &domain.CommissionSplit{
		ReferenceID: ref,
		CompanyID:   company.EntityID,
		Gross:       gross,
		Shares:      shares,
		Entries:     entries,
	}, nil
}

// ownerChain walks ManagedBy from the company owner. A missing user ends the chain.
func (s *contoService) ownerChain(ctx context.Context, ownerID string) ([]accounting.ChainMember, error) {
	chain := make([]accounting.ChainMember, 0, ownerChainDepth)
	next := &ownerID
	for len(chain) < ownerChainDepth && next != nil {
		u, err := s.userRepo.FindUserByID(ctx, *next)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				break
			}
			return nil, err
		}
		chain = append(chain, accounting.ChainMember{UserID: u.UserID, Role: u.Role})
		next = u.ManagedBy
	}
	return chain, nil
}

func (s *contoService) notifyBeneficiaries(ctx context.Context, actor domain.Actor, company *domain.Entity, split *domain.CommissionSplit) {
	for _, share := range split.Shares {
		if share.UserID == nil || share.Amount.IsZero() {
			continue
		}
		s.notifier.Notify(ctx, domain.NotificationRequest{
			Title:         "Provvigione accreditata",
			Message:       fmt.Sprintf("Ti è stata accreditata una provvigione di € %s per %s", share.Amount.StringFixed(accounting.CentPlaces), company.Name),
			Type:          domain.NotificationCommission,
			EntityID:      company.EntityID,
			EntityName:    company.Name,
			CreatedBy:     actor.UserID,
			CreatedByName: actor.Name,
			Recipients:    []string{*share.UserID},
		})
	}
}

func (s *contoService) beneficiaryName(ctx context.Context, cache map[string]string, userID *string) string {
	if userID == nil {
		return "Piattaforma"
	}
	if name, ok := cache[*userID]; ok {
		return name
	}
	name := *userID
	if u, err := s.userRepo.FindUserByID(ctx, *userID); err == nil {
		name = u.DisplayName()
	}
	cache[*userID] = name
	return name
}

func (s *contoService) companyName(ctx context.Context, cache map[string]string, companyID *string) string {
	if companyID == nil {
		return ""
	}
	if name, ok := cache[*companyID]; ok {
		return name
	}
	name := *companyID
	if c, err := s.entityRepo.FindEntityByID(ctx, domain.KindCompany, *companyID); err == nil {
		name = c.Name
	}
	cache[*companyID] = name
	return name
}

// importKey identifies a spreadsheet row by content so re-uploads are recognised.
func importKey(row domain.ImportRow) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		row.VATNumber,
		row.Amount.StringFixed(accounting.CentPlaces),
		row.Date.Format("2006-01-02"),
		row.Description,
	}, "|")))
	return hex.EncodeToString(sum[:12])
}
