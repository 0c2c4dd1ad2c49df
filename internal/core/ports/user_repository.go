package ports

import (
	"context"
	"time"

	"github.com/photoportfolio/portfolio-api/internal/core/domain"
)

// ListUsersFilter carries the query parameters for listing directory records.
type ListUsersFilter struct {
	Role   domain.Role // optional exact match
	Search string      // optional case-insensitive substring on first_name, last_name or email
	Page   int         // 1-based
	Limit  int
}

// UserUpdate lists the fields to set on a record. UpdatedAt is always written.
type UserUpdate struct {
	FirstName *string
	LastName  *string
	Role      *domain.Role
	UpdatedAt time.Time
}

// UserRepository persists directory records. Implementations return
// domain.ErrUserNotFound for missing ids and domain.ErrEmailExists when the
// unique email constraint is violated.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, id string, update UserUpdate) (*domain.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	// List returns one page of records, newest first, and the total match count.
	List(ctx context.Context, filter ListUsersFilter) ([]*domain.User, int64, error)
	// Roles returns the role of every record.
	Roles(ctx context.Context) ([]domain.Role, error)
}
