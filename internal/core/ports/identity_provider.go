package ports

import (
	"context"

	"github.com/photoportfolio/portfolio-api/internal/core/domain"
)

// AccountInput is what the identity provider stores for a new account.
type AccountInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      domain.Role
}

// IdentityProvider is the hosted auth backend that owns password login.
//
// Errors are structured: domain.ErrEmailExists on duplicate accounts,
// domain.ErrInvalidCredentials on rejected logins, domain.ErrUserNotFound for
// unknown ids and domain.ErrProviderUnavailable for everything else.
type IdentityProvider interface {
	// CreateAccount returns the provider-issued user id.
	CreateAccount(ctx context.Context, input AccountInput) (string, error)
	// Authenticate verifies the credentials and returns the user id.
	Authenticate(ctx context.Context, email, password string) (string, error)
	UpdatePassword(ctx context.Context, id, password string) error
	DeleteAccount(ctx context.Context, id string) error
}
