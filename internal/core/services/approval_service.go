package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	portsrepo "github.com/impresahub/impresa_backend/internal/core/ports/repositories"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
	"github.com/impresahub/impresa_backend/internal/platform/authz"
	"github.com/impresahub/impresa_backend/internal/platform/metrics"
)

const userLabel = "Utente"

type approvalService struct {
	BaseService
	txRunner   portsrepo.TxRunner
	entityRepo portsrepo.EntityRepositoryFacade
	userRepo   portsrepo.UserRepositoryFacade
	counters   portsrepo.CounterUpdater
	notifier   portssvc.NotificationSink
}

// ApprovalServiceDeps groups the collaborators of the approval service.
type ApprovalServiceDeps struct {
	TxRunner   portsrepo.TxRunner
	EntityRepo portsrepo.EntityRepositoryFacade
	UserRepo   portsrepo.UserRepositoryFacade
	Counters   portsrepo.CounterUpdater
	Notifier   portssvc.NotificationSink
	Authorizer portssvc.PermissionChecker
}

// NewApprovalService creates the approval workflow over entities and users.
func NewApprovalService(deps ApprovalServiceDeps) portssvc.ApprovalSvc {
	return &approvalService{
		BaseService: BaseService{Authorizer: deps.Authorizer},
		txRunner:    deps.TxRunner,
		entityRepo:  deps.EntityRepo,
		userRepo:    deps.UserRepo,
		counters:    deps.Counters,
		notifier:    deps.Notifier,
	}
}

var _ portssvc.ApprovalSvc = (*approvalService)(nil)

// ListPending merges every record that is not approved: pending, rejected and legacy rows
// without a status. Each item carries its current status.
func (s *approvalService) ListPending(ctx context.Context, actor domain.Actor) ([]domain.PendingItem, error) {
	if err := s.AuthorizeActor(ctx, actor, authz.ObjectApproval, authz.ActionRead); err != nil {
		return nil, err
	}

	entities, err := s.entityRepo.FindPendingEntities(ctx, domain.ApprovableKinds())
	if err != nil {
		s.LogError(ctx, err, "Failed to load pending entities")
		return nil, err
	}
	users, err := s.userRepo.FindPendingUsers(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to load pending users")
		return nil, err
	}

	items := make([]domain.PendingItem, 0, len(entities)+len(users))
	for _, e := range entities {
		schema, ok := domain.SchemaFor(e.Kind)
		if !ok || !schema.Approvable {
			continue
		}
		state := domain.ApprovalState{}
		if e.Approval != nil {
			state = *e.Approval
		}
		if state.IsApproved() {
			continue
		}
		items = append(items, domain.PendingItem{
			Type:      schema.ApprovalType,
			Label:     schema.Label,
			ID:        e.EntityID,
			Name:      e.Name,
			OwnerID:   e.OwnerID,
			Status:    state.Current(),
			IsLegacy:  state.IsLegacy(),
			CreatedAt: e.CreatedAt,
		})
	}
	for _, u := range users {
		if u.Approval.IsApproved() {
			continue
		}
		items = append(items, domain.PendingItem{
			Type:      domain.ApprovalTypeUser,
			Label:     userLabel,
			ID:        u.UserID,
			Name:      u.DisplayName(),
			OwnerID:   userOwner(u),
			Status:    u.Approval.Current(),
			IsLegacy:  u.Approval.IsLegacy(),
			CreatedAt: u.CreatedAt,
		})
	}

	order := make(map[domain.ApprovalType]int, len(domain.ApprovalTypes()))
	for i, t := range domain.ApprovalTypes() {
		order[t] = i
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Type != items[j].Type {
			return order[items[i].Type] < order[items[j].Type]
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *approvalService) Approve(ctx context.Context, actor domain.Actor, approvalType, id string) (*domain.ApprovalOutcome, error) {
	return s.decide(ctx, actor, approvalType, id, func(state *domain.ApprovalState) (bool, error) {
		return state.Approve(actor.UserID, now())
	})
}

func (s *approvalService) Reject(ctx context.Context, actor domain.Actor, approvalType, id string, reason *string) (*domain.ApprovalOutcome, error) {
	return s.decide(ctx, actor, approvalType, id, func(state *domain.ApprovalState) (bool, error) {
		return state.Reject(actor.UserID, reason, now())
	})
}

type transition func(state *domain.ApprovalState) (changed bool, err error)

// decide locks the record, applies the transition and persists it conditionally on
// the status read under the lock, together with the counter delta and the notification.
func (s *approvalService) decide(ctx context.Context, actor domain.Actor, rawType, id string, apply transition) (*domain.ApprovalOutcome, error) {
	if err := s.AuthorizeActor(ctx, actor, authz.ObjectApproval, authz.ActionDecide); err != nil {
		return nil, err
	}
	approvalType, err := domain.ParseApprovalType(rawType)
	if err != nil {
		return nil, apperrors.NewValidationFailedError(err.Error())
	}

	var outcome *domain.ApprovalOutcome
	err = s.txRunner.WithinTx(ctx, func(txCtx context.Context) error {
		if kind, ok := approvalType.EntityKind(); ok {
			outcome, err = s.decideEntity(txCtx, actor, kind, id, apply)
			return err
		}
		outcome, err = s.decideUser(txCtx, actor, id, apply)
		if errors.Is(err, apperrors.ErrNotFound) {
			// Signalers registered before user approval existed live as segnalatore records.
			outcome, err = s.decideEntity(txCtx, actor, domain.KindSegnalatore, id, apply)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrApprovalTransition) {
			return nil, apperrors.NewConflictError(err.Error())
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Approval transition failed",
				slog.String("type", rawType),
				slog.String("id", id))
		}
		return nil, err
	}

	status := string(outcome.State.Current())
	if outcome.Changed {
		metrics.Business().ApprovalTransitions.WithLabelValues(string(outcome.Type), status).Inc()
	}
	s.LogInfo(ctx, "Approval decision recorded",
		slog.String("type", string(outcome.Type)),
		slog.String("id", outcome.ID),
		slog.String("status", status),
		slog.Bool("changed", outcome.Changed))
	return outcome, nil
}

func (s *approvalService) decideEntity(ctx context.Context, actor domain.Actor, kind domain.EntityKind, id string, apply transition) (*domain.ApprovalOutcome, error) {
	schema, _ := domain.SchemaFor(kind)
	entity, err := s.entityRepo.LockEntity(ctx, kind, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError(schema.Label)
		}
		return nil, err
	}

	state := domain.ApprovalState{}
	if entity.Approval != nil {
		state = *entity.Approval
	}
	from := state.Status
	changed, err := apply(&state)
	if err != nil {
		return nil, err
	}
	outcome := &domain.ApprovalOutcome{
		Type:    schema.ApprovalType,
		ID:      entity.EntityID,
		Name:    entity.Name,
		OwnerID: entity.OwnerID,
		State:   state,
		Changed: changed,
	}
	if !changed {
		return outcome, nil
	}

	t := now()
	if err := s.entityRepo.UpdateEntityApproval(ctx, kind, id, from, state, actor.UserID, t); err != nil {
		return nil, err
	}
	if err := s.counters.ApplyCounterDelta(ctx, domain.TransitionDelta(entity.OwnerID, string(kind), from, state.Current())); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, s.decisionRequest(ctx, actor, schema.Label, outcome, dedupe([]string{entity.OwnerID, entity.CreatedBy})))
	return outcome, nil
}

func (s *approvalService) decideUser(ctx context.Context, actor domain.Actor, id string, apply transition) (*domain.ApprovalOutcome, error) {
	user, err := s.userRepo.LockUser(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("user")
		}
		return nil, err
	}

	state := user.Approval
	from := state.Status
	changed, err := apply(&state)
	if err != nil {
		return nil, err
	}
	outcome := &domain.ApprovalOutcome{
		Type:    domain.ApprovalTypeUser,
		ID:      user.UserID,
		Name:    user.DisplayName(),
		OwnerID: userOwner(*user),
		State:   state,
		Changed: changed,
	}
	if !changed {
		return outcome, nil
	}

	t := now()
	if err := s.userRepo.UpdateUserApproval(ctx, id, from, state, state.IsActive(), actor.UserID, t); err != nil {
		return nil, err
	}
	if err := s.counters.ApplyCounterDelta(ctx, domain.TransitionDelta(userOwner(*user), userCounterKind, from, state.Current())); err != nil {
		return nil, err
	}
	recipients := []string{user.UserID}
	if user.ManagedBy != nil {
		recipients = append(recipients, *user.ManagedBy)
	}
	s.notifier.Notify(ctx, s.decisionRequest(ctx, actor, userLabel, outcome, dedupe(recipients)))
	return outcome, nil
}

func (s *approvalService) decisionRequest(ctx context.Context, actor domain.Actor, label string, o *domain.ApprovalOutcome, recipients []string) domain.NotificationRequest {
	by := displayName(ctx, s.userRepo, actor)
	req := domain.NotificationRequest{
		EntityID:      o.ID,
		EntityName:    o.Name,
		CreatedBy:     actor.UserID,
		CreatedByName: by,
		Recipients:    recipients,
	}
	if o.State.IsApproved() {
		req.Type = domain.NotificationApproved
		req.Title = fmt.Sprintf("%s approvato", label)
		req.Message = fmt.Sprintf("%s \"%s\" è stato approvato da %s", label, o.Name, by)
		return req
	}
	req.Type = domain.NotificationRejected
	req.Title = fmt.Sprintf("%s rifiutato", label)
	req.Message = fmt.Sprintf("%s \"%s\" è stato rifiutato da %s", label, o.Name, by)
	if o.State.RejectionReason != nil && *o.State.RejectionReason != "" {
		req.Message += ": " + *o.State.RejectionReason
	}
	return req
}

// userCounterKind is the dashboard counter bucket for user accounts.
const userCounterKind = "user"

// userOwner is the owner a user account is counted under: its manager, or itself.
func userOwner(u domain.User) string {
	if u.ManagedBy != nil {
		return *u.ManagedBy
	}
	return u.UserID
}
