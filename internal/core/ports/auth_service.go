package ports

import (
	"context"

	"github.com/photoportfolio/portfolio-api/internal/core/domain"
)

// RegisterInput carries self-service registration data. An empty Role means
// photographer.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      domain.Role
}

// AuthResult is returned by register and login.
type AuthResult struct {
	AccessToken string
	User        *domain.User
}

// TokenClaims are the claims of a bearer token whose signature and expiry
// have already been verified.
type TokenClaims struct {
	Subject string
	Email   string
	Role    domain.Role
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// ValidateUser resolves verified claims to the current principal. It
	// reports false when the user can no longer be resolved for any reason.
	ValidateUser(ctx context.Context, claims TokenClaims) (*domain.Principal, bool)
}
