package ports

import (
	"context"

	"github.com/photoportfolio/portfolio-api/internal/core/domain"
)

// CreateUserInput carries the data needed to provision a directory user.
type CreateUserInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      domain.Role // empty = photographer
}

// UpdateUserInput holds the profile fields to change; nil fields are left as is.
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Role      *domain.Role
}

// Empty reports whether no field is set.
func (in UpdateUserInput) Empty() bool {
	return in.FirstName == nil && in.LastName == nil && in.Role == nil
}

type UpdatePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

// ListUsersInput carries the list endpoint parameters.
type ListUsersInput struct {
	Page   int // 1-based, defaults to 1
	Limit  int // defaults to 10, capped at 100
	Role   domain.Role
	Search string
}

type ListUsersResult struct {
	Users []*domain.User
	Total int64
	Page  int
	Limit int
}

// UserService defines the directory use cases. Every method that mutates or
// is role-gated receives the caller explicitly.
type UserService interface {
	CreateUser(ctx context.Context, caller domain.Principal, input CreateUserInput) (*domain.User, error)
	ListUsers(ctx context.Context, input ListUsersInput) (*ListUsersResult, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	UpdateUser(ctx context.Context, caller domain.Principal, id string, input UpdateUserInput) (*domain.User, error)
	UpdatePassword(ctx context.Context, caller domain.Principal, id string, input UpdatePasswordInput) error
	DeleteUser(ctx context.Context, caller domain.Principal, id string) error
	Stats(ctx context.Context, caller domain.Principal) (*domain.Stats, error)
}
