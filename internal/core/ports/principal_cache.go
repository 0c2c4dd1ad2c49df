package ports

import (
	"context"

	"github.com/photoportfolio/portfolio-api/internal/core/domain"
)

// PrincipalCache holds recently resolved principals by user id.
// Get returns (nil, nil) on a miss.
type PrincipalCache interface {
	Get(ctx context.Context, id string) (*domain.Principal, error)
	Set(ctx context.Context, p domain.Principal) error
	Delete(ctx context.Context, id string) error
}
