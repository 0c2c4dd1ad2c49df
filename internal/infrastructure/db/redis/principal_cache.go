package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/photoportfolio/portfolio-api/internal/core/domain"
)

const principalKeyPrefix = "principal:"

// PrincipalCache stores resolved principals as JSON under principal:<id>.
type PrincipalCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewPrincipalCache wraps client. Entries expire after ttl.
func NewPrincipalCache(client redis.UniversalClient, ttl time.Duration) *PrincipalCache {
	return &PrincipalCache{client: client, ttl: ttl}
}

// Get returns (nil, nil) when no entry exists.
func (c *PrincipalCache) Get(ctx context.Context, id string) (*domain.Principal, error) {
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("principal cache get: %w", err)
	}

	var p domain.Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("principal cache decode: %w", err)
	}
	return &p, nil
}

func (c *PrincipalCache) Set(ctx context.Context, p domain.Principal) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("principal cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.key(p.ID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("principal cache set: %w", err)
	}
	return nil
}

func (c *PrincipalCache) Delete(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		return fmt.Errorf("principal cache delete: %w", err)
	}
	return nil
}

func (c *PrincipalCache) key(id string) string {
	return principalKeyPrefix + id
}
