package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/photoportfolio/portfolio-api/internal/core/domain"
	"github.com/photoportfolio/portfolio-api/internal/core/ports"
	"github.com/photoportfolio/portfolio-api/internal/pkg/metrics"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// UserService implements the directory use cases. Authorization is checked
// before any store call.
type UserService struct {
	repo        ports.UserRepository
	idp         ports.IdentityProvider
	cache       ports.PrincipalCache
	provisioner *accountProvisioner
	log         zerolog.Logger
}

// NewUserService wires the directory use cases. cache may be nil; a zero
// bcryptCost means bcrypt.DefaultCost.
func NewUserService(
	repo ports.UserRepository,
	idp ports.IdentityProvider,
	cache ports.PrincipalCache,
	bcryptCost int,
	log zerolog.Logger,
) *UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if cache == nil {
		cache = nopPrincipalCache{}
	}
	return &UserService{
		repo:  repo,
		idp:   idp,
		cache: cache,
		provisioner: &accountProvisioner{
			repo:       repo,
			idp:        idp,
			bcryptCost: bcryptCost,
			log:        log,
		},
		log: log,
	}
}

func observe(operation string, err error) {
	metrics.UserOperationsTotal.WithLabelValues(operation, resultLabel(err)).Inc()
}

// CreateUser provisions a user on behalf of an admin.
func (s *UserService) CreateUser(ctx context.Context, caller domain.Principal, in ports.CreateUserInput) (user *domain.User, err error) {
	defer func() { observe("create", err) }()

	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	user, err = s.provisioner.provision(ctx, in)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Str("created_by", caller.ID).Msg("user created")
	return user, nil
}

// ListUsers returns one page of users, newest first.
func (s *UserService) ListUsers(ctx context.Context, in ports.ListUsersInput) (result *ports.ListUsersResult, err error) {
	defer func() { observe("list", err) }()

	page := in.Page
	if page < 1 {
		page = defaultPage
	}
	limit := in.Limit
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	users, total, err := s.repo.List(ctx, ports.ListUsersFilter{
		Role:   in.Role,
		Search: in.Search,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}

	return &ports.ListUsersResult{Users: users, Total: total, Page: page, Limit: limit}, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (user *domain.User, err error) {
	defer func() { observe("get", err) }()
	return s.repo.FindByID(ctx, id)
}

// UpdateUser changes profile fields. Admins may update anyone including the
// role; other users may only change their own names.
func (s *UserService) UpdateUser(ctx context.Context, caller domain.Principal, id string, in ports.UpdateUserInput) (user *domain.User, err error) {
	defer func() { observe("update", err) }()

	if !caller.IsAdmin() && !caller.Owns(id) {
		return nil, domain.ErrForbidden
	}
	if in.Role != nil && !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Empty() {
		return existing, nil
	}

	user, err = s.repo.Update(ctx, id, ports.UserUpdate{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      in.Role,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	s.log.Info().Str("user_id", id).Str("updated_by", caller.ID).Msg("user updated")
	return user, nil
}

// UpdatePassword changes the caller's own password. The local hash is the
// reference for the current password; the provider copy is updated on a
// best-effort basis.
func (s *UserService) UpdatePassword(ctx context.Context, caller domain.Principal, id string, in ports.UpdatePasswordInput) (err error) {
	defer func() { observe("update_password", err) }()

	if !caller.Owns(id) {
		return domain.ErrForbidden
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)) != nil {
		return domain.ErrWrongPassword
	}

	hash, err := hashPassword(in.NewPassword, s.provisioner.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePasswordHash(ctx, id, string(hash), time.Now().UTC()); err != nil {
		return err
	}

	if err := s.idp.UpdatePassword(ctx, id, in.NewPassword); err != nil {
		metrics.SideEffectFailuresTotal.WithLabelValues("mirror_password").Inc()
		s.log.Warn().Err(err).Str("user_id", id).Msg("failed to mirror password to identity provider")
	}

	s.invalidate(ctx, id)
	s.log.Info().Str("user_id", id).Msg("password updated")
	return nil
}

// DeleteUser removes a user. Admins cannot delete themselves.
func (s *UserService) DeleteUser(ctx context.Context, caller domain.Principal, id string) (err error) {
	defer func() { observe("delete", err) }()

	if !caller.IsAdmin() {
		return domain.ErrForbidden
	}
	if caller.Owns(id) {
		return domain.ErrCannotDeleteSelf
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.idp.DeleteAccount(ctx, id); err != nil {
		metrics.SideEffectFailuresTotal.WithLabelValues("delete_account").Inc()
		s.log.Warn().Err(err).Str("user_id", id).Msg("failed to delete identity provider account")
	}

	s.invalidate(ctx, id)
	s.log.Info().Str("user_id", id).Str("deleted_by", caller.ID).Msg("user deleted")
	return nil
}

// Stats counts users by role by scanning every record.
func (s *UserService) Stats(ctx context.Context, caller domain.Principal) (stats *domain.Stats, err error) {
	defer func() { observe("stats", err) }()

	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	roles, err := s.repo.Roles(ctx)
	if err != nil {
		return nil, err
	}

	stats = &domain.Stats{Total: int64(len(roles))}
	for _, r := range roles {
		switch r {
		case domain.RolePhotographer:
			stats.Photographers++
		case domain.RoleAdmin:
			stats.Admins++
		}
	}
	return stats, nil
}

func (s *UserService) invalidate(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, id); err != nil {
		metrics.SideEffectFailuresTotal.WithLabelValues("cache").Inc()
		s.log.Warn().Err(err).Str("user_id", id).Msg("principal cache invalidation failed")
	}
}
