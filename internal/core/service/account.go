package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/photoportfolio/portfolio-api/internal/core/domain"
	"github.com/photoportfolio/portfolio-api/internal/core/ports"
	"github.com/photoportfolio/portfolio-api/internal/pkg/metrics"
)

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

// accountProvisioner creates a provider account and mirrors it into the
// directory. Registration and admin creation share it.
type accountProvisioner struct {
	repo       ports.UserRepository
	idp        ports.IdentityProvider
	bcryptCost int
	log        zerolog.Logger
}

func (p *accountProvisioner) provision(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	role := in.Role
	if role == "" {
		role = domain.RolePhotographer
	}
	email := normalizeEmail(in.Email)

	hash, err := hashPassword(in.Password, p.bcryptCost)
	if err != nil {
		return nil, err
	}

	id, err := p.idp.CreateAccount(ctx, ports.AccountInput{
		Email:     email,
		Password:  in.Password,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      role,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           id,
		Email:        email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := p.repo.Create(ctx, user); err != nil {
		p.log.Error().Err(err).Str("user_id", id).Msg("failed to mirror provider account")
		p.rollback(ctx, id)
		return nil, err
	}

	return user, nil
}

// rollback removes a provider account whose directory record could not be
// written. Failures are logged only.
func (p *accountProvisioner) rollback(ctx context.Context, id string) {
	if err := p.idp.DeleteAccount(context.WithoutCancel(ctx), id); err != nil {
		metrics.SideEffectFailuresTotal.WithLabelValues("rollback_account").Inc()
		p.log.Warn().Err(err).Str("user_id", id).Msg("failed to roll back provider account")
	}
}

// hashPassword rejects passwords bcrypt would refuse before any remote call.
func hashPassword(password string, cost int) ([]byte, error) {
	if len(password) > maxPasswordBytes {
		return nil, domain.ErrPasswordTooLong
	}
	return bcrypt.GenerateFromPassword([]byte(password), cost)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// resultLabel maps an operation error to its metrics label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrUserNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrEmailExists):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrWrongPassword), errors.Is(err, domain.ErrCannotDeleteSelf),
		errors.Is(err, domain.ErrPasswordTooLong):
		return "bad_request"
	default:
		return "error"
	}
}

type nopPrincipalCache struct{}

func (nopPrincipalCache) Get(context.Context, string) (*domain.Principal, error) { return nil, nil }
func (nopPrincipalCache) Set(context.Context, domain.Principal) error          { return nil }
func (nopPrincipalCache) Delete(context.Context, string) error                 { return nil }
