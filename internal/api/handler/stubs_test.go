package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/photoportfolio/portfolio-api/internal/api/middleware"
	"github.com/photoportfolio/portfolio-api/internal/core/domain"
	"github.com/photoportfolio/portfolio-api/internal/core/ports"
)

const (
	userID  = "6f1c2d3e-4a5b-4c6d-8e7f-0a1b2c3d4e5f"
	adminID = "0d9e8f7a-6b5c-4d3e-9f2a-1b0c9d8e7f6a"
)

var (
	fixedTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	photographer = domain.Principal{ID: userID, Email: "pat@example.com", Role: domain.RolePhotographer}
	admin        = domain.Principal{ID: adminID, Email: "root@example.com", Role: domain.RoleAdmin}
)

func sampleUser(id string, role domain.Role) *domain.User {
	return &domain.User{
		ID:           id,
		Email:        "pat@example.com",
		FirstName:    "Pat",
		LastName:     "Lee",
		Role:         role,
		PasswordHash: "$2a$10$secret-hash-that-must-not-leak",
		CreatedAt:    fixedTime,
		UpdatedAt:    fixedTime,
	}
}

// newContext builds an echo context with the handler validator installed and,
// when p is non-nil, an authenticated principal.
func newContext(method, target, body string, p *domain.Principal) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if p != nil {
		middleware.SetPrincipal(c, *p)
	}
	return c, rec
}

// ---------------------------------------------------------------------------
// Service stubs
// ---------------------------------------------------------------------------

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error)
	loginFn    func(ctx context.Context, email, password string) (*ports.AuthResult, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) ValidateUser(context.Context, ports.TokenClaims) (*domain.Principal, bool) {
	return nil, false
}

// stubUserService records the last call and returns the configured results.
type stubUserService struct {
	user      *domain.User
	list      *ports.ListUsersResult
	stats     *domain.Stats
	err       error
	calls     int
	lastID    string
	lastList  ports.ListUsersInput
	lastUpd   ports.UpdateUserInput
	lastPwd   ports.UpdatePasswordInput
	lastCall  domain.Principal
	lastInput ports.CreateUserInput
}

func (s *stubUserService) CreateUser(_ context.Context, caller domain.Principal, in ports.CreateUserInput) (*domain.User, error) {
	s.calls++
	s.lastCall, s.lastInput = caller, in
	return s.user, s.err
}

func (s *stubUserService) ListUsers(_ context.Context, in ports.ListUsersInput) (*ports.ListUsersResult, error) {
	s.calls++
	s.lastList = in
	return s.list, s.err
}

func (s *stubUserService) GetUser(_ context.Context, id string) (*domain.User, error) {
	s.calls++
	s.lastID = id
	return s.user, s.err
}

func (s *stubUserService) UpdateUser(_ context.Context, caller domain.Principal, id string, in ports.UpdateUserInput) (*domain.User, error) {
	s.calls++
	s.lastCall, s.lastID, s.lastUpd = caller, id, in
	return s.user, s.err
}

func (s *stubUserService) UpdatePassword(_ context.Context, caller domain.Principal, id string, in ports.UpdatePasswordInput) error {
	s.calls++
	s.lastCall, s.lastID, s.lastPwd = caller, id, in
	return s.err
}

func (s *stubUserService) DeleteUser(_ context.Context, caller domain.Principal, id string) error {
	s.calls++
	s.lastCall, s.lastID = caller, id
	return s.err
}

func (s *stubUserService) Stats(_ context.Context, caller domain.Principal) (*domain.Stats, error) {
	s.calls++
	s.lastCall = caller
	return s.stats, s.err
}
