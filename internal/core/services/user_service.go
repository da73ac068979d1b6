package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	portsrepo "github.com/impresahub/impresa_backend/internal/core/ports/repositories"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
	"github.com/impresahub/impresa_backend/internal/dto"
	"github.com/impresahub/impresa_backend/internal/platform/authz"
	"github.com/impresahub/impresa_backend/internal/utils"
)

type userService struct {
	BaseService
	scopeGuard
	txRunner portsrepo.TxRunner
	userRepo portsrepo.UserRepositoryFacade
	counters portsrepo.CounterUpdater
	notifier portssvc.NotificationSink
}

// UserServiceDeps groups the collaborators of the user service.
type UserServiceDeps struct {
	TxRunner   portsrepo.TxRunner
	UserRepo   portsrepo.UserRepositoryFacade
	Counters   portsrepo.CounterUpdater
	Notifier   portssvc.NotificationSink
	Scope      portssvc.ScopeResolverSvc
	Authorizer portssvc.PermissionChecker
}

// NewUserService creates a new UserService with the given repository
func NewUserService(deps UserServiceDeps) portssvc.UserSvcFacade {
	return &userService{
		BaseService: BaseService{Authorizer: deps.Authorizer},
		scopeGuard:  scopeGuard{scope: deps.Scope},
		txRunner:    deps.TxRunner,
		userRepo:    deps.UserRepo,
		counters:    deps.Counters,
		notifier:    deps.Notifier,
	}
}

var _ portssvc.UserSvcFacade = (*userService)(nil)

// GetUserByID returns a user in the actor's scope.
func (s *userService) GetUserByID(ctx context.Context, actor domain.Actor, userID string) (*domain.User, error) {
	if err := s.AuthorizeActor(ctx, actor, authz.ObjectUser, authz.ActionRead); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, wrapNotFound(err, "user")
	}
	if err := s.ensureVisible(ctx, actor, user.UserID); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, actor domain.Actor, params dto.ListUsersParams) ([]domain.User, int, error) {
	if err := s.AuthorizeActor(ctx, actor, authz.ObjectUser, authz.ActionRead); err != nil {
		return nil, 0, err
	}
	scope, err := s.resolve(ctx, actor)
	if err != nil {
		return nil, 0, err
	}
	filter := domain.UserFilter{
		OwnerIDs: scope.OwnerIDs(),
		Global:   scope.IsGlobal(),
		Page:     domain.Page{Limit: params.Limit, Offset: params.Offset}.Normalize(),
	}
	if params.Role != "" {
		role, err := domain.ParseUserRole(params.Role)
		if err != nil {
			return nil, 0, apperrors.NewValidationFailedError(err.Error())
		}
		filter.Role = &role
	}
	users, total, err := s.userRepo.FindUsers(ctx, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list users")
		return nil, 0, err
	}
	return users, total, nil
}

// CreateUser applies the creation rules: nobody creates a super admin, only a super
// admin creates admins, and managers create lower roles they then manage, pending review.
func (s *userService) CreateUser(ctx context.Context, actor domain.Actor, req dto.CreateUserRequest) (*domain.User, error) {
	if err := s.AuthorizeActor(ctx, actor, authz.ObjectUser, authz.ActionCreate); err != nil {
		return nil, err
	}
	role, err := domain.ParseUserRole(req.Role)
	if err != nil {
		return nil, apperrors.NewValidationFailedError(err.Error())
	}
	if err := checkRoleGrant(actor, role); err != nil {
		return nil, err
	}

	var managedBy *string
	if actor.IsPrivileged() {
		if req.ManagedBy != nil && *req.ManagedBy != "" {
			manager, err := s.userRepo.FindUserByID(ctx, *req.ManagedBy)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					return nil, apperrors.NewValidationFailedError("managedBy does not reference an existing user")
				}
				return nil, err
			}
			if !manager.Role.Outranks(role) {
				return nil, apperrors.NewValidationFailedError("managedBy must reference a user with a higher role")
			}
			managedBy = strPtr(manager.UserID)
		}
	} else {
		managedBy = strPtr(actor.UserID)
		if req.ManagedBy != nil && *req.ManagedBy != "" && *req.ManagedBy != actor.UserID {
			if err := s.ensureVisible(ctx, actor, *req.ManagedBy); err != nil {
				return nil, err
			}
			managedBy = strPtr(*req.ManagedBy)
		}
	}

	t := now()
	approval, ok := domain.NewApprovalState(actor, domain.UserApprovalRequiredRoles, t)
	if !ok {
		return nil, apperrors.NewForbiddenError(fmt.Sprintf("role %s may not create users", actor.Role))
	}
	user, err := s.newUser(ctx, req.Username, req.Email, req.Password, req.Name, role, managedBy, approval, actor.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.persistNewUser(ctx, user, actor.UserID, displayName(ctx, s.userRepo, actor)); err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "User created",
		slog.String("new_user_id", user.UserID),
		slog.String("new_role", string(role)),
		slog.String("status", string(user.Approval.Current())))
	return user, nil
}

// RegisterUser is public self-registration; the account starts pending as a segnalatore.
func (s *userService) RegisterUser(ctx context.Context, req dto.RegisterRequest) (*domain.User, error) {
	st := domain.ApprovalPending
	user, err := s.newUser(ctx, req.Username, req.Email, req.Password, req.Name, domain.RoleSegnalatori, nil, domain.ApprovalState{Status: &st}, "")
	if err != nil {
		return nil, err
	}
	user.CreatedBy = user.UserID
	user.LastUpdatedBy = user.UserID

	if err := s.persistNewUser(ctx, user, user.UserID, user.DisplayName()); err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "User registered", slog.String("new_user_id", user.UserID))
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, actor domain.Actor, userID string, req dto.UpdateUserRequest) (*domain.User, error) {
	if err := s.AuthorizeActor(ctx, actor, authz.ObjectUser, authz.ActionUpdate); err != nil {
		return nil, err
	}
	if actor.UserID != userID && !actor.IsPrivileged() {
		return nil, apperrors.NewForbiddenError("only the account owner or an administrator may update a user")
	}
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, wrapNotFound(err, "user")
	}
	if user.Role.Outranks(actor.Role) {
		return nil, apperrors.NewForbiddenError("cannot update a user with a higher role")
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != user.Email {
			if err := s.ensureFree(ctx, s.userRepo.FindUserByEmail, email, "email"); err != nil {
				return nil, err
			}
			user.Email = email
		}
	}
	if req.Password != nil {
		hash, err := utils.HashPassword(*req.Password)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to hash password", err)
		}
		user.PasswordHash = hash
	}
	user.LastUpdatedAt = now()
	user.LastUpdatedBy = actor.UserID

	if err := s.userRepo.UpdateUser(ctx, *user); err != nil {
		s.LogError(ctx, err, "Failed to update user", slog.String("target_user_id", userID))
		return nil, err
	}
	s.LogInfo(ctx, "User updated", slog.String("target_user_id", userID))
	return user, nil
}

// DeleteUser soft deletes a user. Administrators cannot delete themselves or higher roles.
func (s *userService) DeleteUser(ctx context.Context, actor domain.Actor, userID string) error {
	if err := s.AuthorizeActor(ctx, actor, authz.ObjectUser, authz.ActionDelete); err != nil {
		return err
	}
	if actor.UserID == userID {
		return apperrors.NewValidationFailedError("you cannot delete your own account")
	}
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return wrapNotFound(err, "user")
	}
	if user.Role.Outranks(actor.Role) {
		return apperrors.NewForbiddenError("cannot delete a user with a higher role")
	}

	t := now()
	err = s.txRunner.WithinTx(ctx, func(txCtx context.Context) error {
		if err := s.userRepo.MarkUserDeleted(txCtx, userID, t, actor.UserID); err != nil {
			return err
		}
		return s.counters.ApplyCounterDelta(txCtx, domain.StatusDelta(userOwner(*user), userCounterKind, user.Approval.Status, -1))
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to delete user", slog.String("target_user_id", userID))
		return err
	}
	s.LogInfo(ctx, "User deleted", slog.String("target_user_id", userID))
	return nil
}

// AuthenticateUser accepts a username or an email as login.
func (s *userService) AuthenticateUser(ctx context.Context, login, password string) (*domain.User, error) {
	login = strings.TrimSpace(login)
	user, err := s.userRepo.FindUserByUsername(ctx, login)
	if errors.Is(err, apperrors.ErrNotFound) && strings.Contains(login, "@") {
		user, err = s.userRepo.FindUserByEmail(ctx, strings.ToLower(login))
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", apperrors.ErrUnauthorized)
		}
		return nil, err
	}
	if user.PasswordHash == "" || !utils.CheckPasswordHash(password, user.PasswordHash) {
		s.LogInfo(ctx, "Password mismatch", slog.String("target_user_id", user.UserID))
		return nil, fmt.Errorf("invalid credentials: %w", apperrors.ErrUnauthorized)
	}
	if !user.CanSignIn() {
		return nil, apperrors.NewForbiddenError("account is not approved or not active")
	}
	return user, nil
}

func (s *userService) FindSignInUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, wrapNotFound(err, "user")
	}
	if !user.CanSignIn() {
		return nil, apperrors.NewForbiddenError("account is not approved or not active")
	}
	return user, nil
}

func (s *userService) LoadActiveUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("user no longer exists: %w", apperrors.ErrUnauthorized)
		}
		return nil, err
	}
	if !user.CanSignIn() {
		return nil, fmt.Errorf("user may not sign in: %w", apperrors.ErrUnauthorized)
	}
	return user, nil
}

func (s *userService) newUser(ctx context.Context, username, email, password, name string, role domain.UserRole, managedBy *string, approval domain.ApprovalState, createdBy string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.ensureFree(ctx, s.userRepo.FindUserByUsername, username, "username"); err != nil {
		return nil, err
	}
	if err := s.ensureFree(ctx, s.userRepo.FindUserByEmail, email, "email"); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to hash password", err)
	}
	t := now()
	return &domain.User{
		UserID:       newID(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(name),
		Role:         role,
		ManagedBy:    managedBy,
		Approval:     approval,
		IsActive:     approval.IsActive(),
		AuditFields: domain.AuditFields{
			CreatedAt:     t,
			CreatedBy:     createdBy,
			LastUpdatedAt: t,
			LastUpdatedBy: createdBy,
		},
	}, nil
}

// persistNewUser saves the user, its counter delta and, when pending, the admin notification in one transaction.
func (s *userService) persistNewUser(ctx context.Context, user *domain.User, creatorID, creatorName string) error {
	err := s.txRunner.WithinTx(ctx, func(txCtx context.Context) error {
		if err := s.userRepo.SaveUser(txCtx, *user); err != nil {
			return err
		}
		if err := s.counters.ApplyCounterDelta(txCtx, domain.StatusDelta(userOwner(*user), userCounterKind, user.Approval.Status, 1)); err != nil {
			return err
		}
		if user.Approval.IsPendingApproval() {
			s.notifier.Notify(txCtx, domain.NotificationRequest{
				Title:         "Utente in attesa di approvazione",
				Message:       fmt.Sprintf("%s ha registrato l'utente \"%s\" che richiede approvazione", creatorName, user.DisplayName()),
				Type:          domain.PendingNotificationType(domain.ApprovalTypeUser),
				EntityID:      user.UserID,
				EntityName:    user.DisplayName(),
				CreatedBy:     creatorID,
				CreatedByName: creatorName,
			})
		}
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to save user", slog.String("username", user.Username))
	}
	return err
}

// ensureFree returns a field conflict when lookup finds a live user.
func (s *userService) ensureFree(ctx context.Context, lookup func(context.Context, string) (*domain.User, error), value, field string) error {
	_, err := lookup(ctx, value)
	switch {
	case err == nil:
		return apperrors.NewFieldConflictError(field)
	case errors.Is(err, apperrors.ErrNotFound):
		return nil
	default:
		return err
	}
}

// checkRoleGrant decides whether actor may create a user with role.
func checkRoleGrant(actor domain.Actor, role domain.UserRole) error {
	switch {
	case role == domain.RoleSuperAdmin:
		return apperrors.NewForbiddenError("super admin accounts cannot be created")
	case role == domain.RoleAdmin && actor.Role != domain.RoleSuperAdmin:
		return apperrors.NewForbiddenError("only a super admin may create admins")
	case actor.IsPrivileged():
		return nil
	case !actor.Role.Outranks(role):
		return apperrors.NewForbiddenError(fmt.Sprintf("role %s may not create %s users", actor.Role, role))
	}
	return nil
}
