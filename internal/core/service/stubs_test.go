package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/photoportfolio/portfolio-api/internal/core/domain"
	"github.com/photoportfolio/portfolio-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users      map[string]*domain.User
	createErr  error
	lastFilter ports.ListUsersFilter
	hashWrites int
	calls      int // every repository call, used to assert fail-closed checks
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	r.calls++
	if r.createErr != nil {
		return r.createErr
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return domain.ErrEmailExists
		}
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.calls++
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) Update(_ context.Context, id string, upd ports.UserUpdate) (*domain.User, error) {
	r.calls++
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	u.UpdatedAt = upd.UpdatedAt
	return cloneUser(u), nil
}

func (r *stubUserRepo) UpdatePasswordHash(_ context.Context, id, hash string, updatedAt time.Time) error {
	r.calls++
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = updatedAt
	r.hashWrites++
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.calls++
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

// List applies the same filters the Mongo query does.
func (r *stubUserRepo) List(_ context.Context, f ports.ListUsersFilter) ([]*domain.User, int64, error) {
	r.calls++
	r.lastFilter = f

	var matched []*domain.User
	for _, u := range r.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Search != "" {
			q := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(u.FirstName), q) &&
				!strings.Contains(strings.ToLower(u.LastName), q) &&
				!strings.Contains(strings.ToLower(u.Email), q) {
				continue
			}
		}
		matched = append(matched, cloneUser(u))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	skip := (f.Page - 1) * f.Limit
	if skip > len(matched) {
		return []*domain.User{}, total, nil
	}
	end := skip + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end], total, nil
}

func (r *stubUserRepo) Roles(_ context.Context) ([]domain.Role, error) {
	r.calls++
	roles := make([]domain.Role, 0, len(r.users))
	for _, u := range r.users {
		roles = append(roles, u.Role)
	}
	return roles, nil
}

// ---------------------------------------------------------------------------
// Identity provider stub
// ---------------------------------------------------------------------------

type stubAccount struct {
	email    string
	password string
}

type stubIdentityProvider struct {
	accounts          map[string]stubAccount
	nextID            int
	updatePasswordErr error
	deleteErr         error
	deleted           []string
	passwordUpdates   []string
}

func newStubIdentityProvider() *stubIdentityProvider {
	return &stubIdentityProvider{accounts: make(map[string]stubAccount)}
}

func (p *stubIdentityProvider) CreateAccount(_ context.Context, in ports.AccountInput) (string, error) {
	for _, a := range p.accounts {
		if a.email == in.Email {
			return "", domain.ErrEmailExists
		}
	}
	p.nextID++
	id := fmt.Sprintf("00000000-0000-4000-8000-%012d", p.nextID)
	p.accounts[id] = stubAccount{email: in.Email, password: in.Password}
	return id, nil
}

func (p *stubIdentityProvider) Authenticate(_ context.Context, email, password string) (string, error) {
	for id, a := range p.accounts {
		if a.email == email && a.password == password {
			return id, nil
		}
	}
	return "", domain.ErrInvalidCredentials
}

func (p *stubIdentityProvider) UpdatePassword(_ context.Context, id, password string) error {
	if p.updatePasswordErr != nil {
		return p.updatePasswordErr
	}
	a, ok := p.accounts[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	a.password = password
	p.accounts[id] = a
	p.passwordUpdates = append(p.passwordUpdates, id)
	return nil
}

func (p *stubIdentityProvider) DeleteAccount(_ context.Context, id string) error {
	p.deleted = append(p.deleted, id)
	if p.deleteErr != nil {
		return p.deleteErr
	}
	delete(p.accounts, id)
	return nil
}

// ---------------------------------------------------------------------------
// Principal cache stub
// ---------------------------------------------------------------------------

type stubCache struct {
	entries     map[string]domain.Principal
	getErr      error
	invalidated []string
	afterSet    func() // runs once the entry is stored
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string]domain.Principal)}
}

func (c *stubCache) Get(_ context.Context, id string) (*domain.Principal, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	p, ok := c.entries[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (c *stubCache) Set(_ context.Context, p domain.Principal) error {
	c.entries[p.ID] = p
	if c.afterSet != nil {
		c.afterSet()
	}
	return nil
}

func (c *stubCache) Delete(_ context.Context, id string) error {
	delete(c.entries, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var (
	discardLogger = zerolog.Nop()
	errBackend    = errors.New("backend unavailable")
)

const testSecret = "test-secret-test-secret-test-secret"

// seedUser stores a user in both the repository and the provider.
func seedUser(repo *stubUserRepo, idp *stubIdentityProvider, id, email, password string, role domain.Role, createdAt time.Time) *domain.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	u := &domain.User{
		ID:           id,
		Email:        email,
		FirstName:    "First",
		LastName:     "Last",
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	repo.users[id] = cloneUser(u)
	if idp != nil {
		idp.accounts[id] = stubAccount{email: email, password: password}
	}
	return u
}
