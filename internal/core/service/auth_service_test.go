package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/photoportfolio/portfolio-api/internal/core/domain"
	"github.com/photoportfolio/portfolio-api/internal/core/ports"
)

func newAuthSvc(repo *stubUserRepo, idp *stubIdentityProvider, cache ports.PrincipalCache) *AuthService {
	return NewAuthService(repo, idp, cache, AuthOptions{
		JWTSecret:  testSecret,
		TokenTTL:   24 * time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, discardLogger)
}

func parseClaims(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	return claims
}

func registerInput(email string) ports.RegisterInput {
	return ports.RegisterInput{
		Email:     email,
		Password:  "pass123",
		FirstName: "Alice",
		LastName:  "Smith",
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	idp := newStubIdentityProvider()
	svc := newAuthSvc(repo, idp, nil)

	res, err := svc.Register(context.Background(), registerInput("Alice@Example.com "))
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if res.AccessToken == "" {
		t.Fatal("expected access token")
	}

	user := res.User
	if user.Role != domain.RolePhotographer {
		t.Errorf("expected default role photographer, got %s", user.Role)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}
	if _, ok := idp.accounts[user.ID]; !ok {
		t.Errorf("record id %q must be the provider-issued id", user.ID)
	}

	stored := repo.users[user.ID]
	if stored == nil {
		t.Fatal("expected mirrored directory record")
	}
	if stored.PasswordHash == "pass123" {
		t.Fatal("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if stored.CreatedAt.IsZero() || !stored.CreatedAt.Equal(stored.UpdatedAt) {
		t.Errorf("expected created_at == updated_at on creation, got %v / %v", stored.CreatedAt, stored.UpdatedAt)
	}

	claims := parseClaims(t, res.AccessToken)
	if claims["sub"] != user.ID || claims["email"] != "alice@example.com" || claims["role"] != "photographer" {
		t.Errorf("unexpected claims: %v", claims)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		t.Fatalf("expected exp claim: %v", err)
	}
	if d := time.Until(exp.Time); d < 23*time.Hour || d > 24*time.Hour+time.Minute {
		t.Errorf("expected ~24h expiry, got %v", d)
	}
}

func TestAuthService_Register_KeepsRequestedRole(t *testing.T) {
	svc := newAuthSvc(newStubUserRepo(), newStubIdentityProvider(), nil)

	in := registerInput("admin@example.com")
	in.Role = domain.RoleAdmin
	res, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if res.User.Role != domain.RoleAdmin {
		t.Fatalf("expected admin, got %s", res.User.Role)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthSvc(repo, newStubIdentityProvider(), nil)

	if _, err := svc.Register(context.Background(), registerInput("bob@example.com")); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	_, err := svc.Register(context.Background(), registerInput("BOB@example.com"))
	if !errors.Is(err, domain.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
	if len(repo.users) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(repo.users))
	}
}

func TestAuthService_Register_MirrorFailureRollsBackProviderAccount(t *testing.T) {
	repo := newStubUserRepo()
	repo.createErr = errBackend
	idp := newStubIdentityProvider()
	svc := newAuthSvc(repo, idp, nil)

	_, err := svc.Register(context.Background(), registerInput("carol@example.com"))
	if !errors.Is(err, errBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if len(idp.deleted) != 1 {
		t.Fatalf("expected provider account rollback, got %v", idp.deleted)
	}
	if len(idp.accounts) != 0 {
		t.Errorf("expected no provider accounts left, got %d", len(idp.accounts))
	}
}

func TestAuthService_Register_RollbackFailureKeepsOriginalError(t *testing.T) {
	repo := newStubUserRepo()
	repo.createErr = errBackend
	idp := newStubIdentityProvider()
	idp.deleteErr = errors.New("provider down")
	svc := newAuthSvc(repo, idp, nil)

	_, err := svc.Register(context.Background(), registerInput("dan@example.com"))
	if !errors.Is(err, errBackend) {
		t.Fatalf("expected the mirror error, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	repo := newStubUserRepo()
	idp := newStubIdentityProvider()
	svc := newAuthSvc(repo, idp, nil)

	reg, err := svc.Register(context.Background(), registerInput("carol@example.com"))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	res, err := svc.Login(context.Background(), "carol@example.com", "pass123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.User.ID != reg.User.ID {
		t.Fatalf("unexpected user: %+v", res.User)
	}

	claims := parseClaims(t, res.AccessToken)
	if claims["sub"] != reg.User.ID || claims["role"] != string(domain.RolePhotographer) {
		t.Fatalf("unexpected claims: %v", claims)
	}
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	repo := newStubUserRepo()
	idp := newStubIdentityProvider()
	svc := newAuthSvc(repo, idp, nil)
	seedUser(repo, idp, "u-1", "dave@example.com", "goodpass", domain.RolePhotographer, time.Now())

	_, wrongPassword := svc.Login(context.Background(), "dave@example.com", "badpass")
	_, unknownEmail := svc.Login(context.Background(), "ghost@example.com", "goodpass")

	if wrongPassword != domain.ErrInvalidCredentials {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", wrongPassword)
	}
	if unknownEmail != domain.ErrInvalidCredentials {
		t.Errorf("unknown email: expected ErrInvalidCredentials, got %v", unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Errorf("errors must not differ: %q vs %q", wrongPassword, unknownEmail)
	}
}

func TestAuthService_Login_MissingDirectoryRecord(t *testing.T) {
	repo := newStubUserRepo()
	idp := newStubIdentityProvider()
	idp.accounts["orphan"] = stubAccount{email: "orphan@example.com", password: "pass123"}
	svc := newAuthSvc(repo, idp, nil)

	if _, err := svc.Login(context.Background(), "orphan@example.com", "pass123"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_ReconcilesDriftedLocalHash(t *testing.T) {
	repo := newStubUserRepo()
	idp := newStubIdentityProvider()
	svc := newAuthSvc(repo, idp, nil)
	seedUser(repo, idp, "u-1", "erin@example.com", "oldpass", domain.RolePhotographer, time.Now())

	// The provider holds a newer password than the local hash.
	idp.accounts["u-1"] = stubAccount{email: "erin@example.com", password: "newpass"}

	if _, err := svc.Login(context.Background(), "erin@example.com", "newpass"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if repo.hashWrites != 1 {
		t.Fatalf("expected one reconciling hash write, got %d", repo.hashWrites)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(repo.users["u-1"].PasswordHash), []byte("newpass")); err != nil {
		t.Fatalf("local hash not reconciled: %v", err)
	}

	// A matching hash is left alone.
	if _, err := svc.Login(context.Background(), "erin@example.com", "newpass"); err != nil {
		t.Fatalf("second login failed: %v", err)
	}
	if repo.hashWrites != 1 {
		t.Fatalf("expected no further hash writes, got %d", repo.hashWrites)
	}
}

func TestAuthService_TokenRoleIsStaleAfterRoleChange(t *testing.T) {
	repo := newStubUserRepo()
	idp := newStubIdentityProvider()
	svc := newAuthSvc(repo, idp, nil)

	res, err := svc.Register(context.Background(), registerInput("fay@example.com"))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	repo.users[res.User.ID].Role = domain.RoleAdmin

	claims := parseClaims(t, res.AccessToken)
	if claims["role"] != string(domain.RolePhotographer) {
		t.Fatalf("token role must reflect issuance time, got %v", claims["role"])
	}
}

func TestAuthService_ValidateUser(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthSvc(repo, newStubIdentityProvider(), nil)
	seedUser(repo, nil, "u-1", "gus@example.com", "pass123", domain.RoleAdmin, time.Now())

	p, ok := svc.ValidateUser(context.Background(), ports.TokenClaims{Subject: "u-1", Role: domain.RolePhotographer})
	if !ok {
		t.Fatal("expected principal")
	}
	if p.ID != "u-1" || p.Email != "gus@example.com" || p.Role != domain.RoleAdmin {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestAuthService_ValidateUser_DeletedUser(t *testing.T) {
	svc := newAuthSvc(newStubUserRepo(), newStubIdentityProvider(), nil)

	if p, ok := svc.ValidateUser(context.Background(), ports.TokenClaims{Subject: "gone"}); ok || p != nil {
		t.Fatalf("expected no principal, got %+v", p)
	}
	if _, ok := svc.ValidateUser(context.Background(), ports.TokenClaims{}); ok {
		t.Fatal("expected no principal for empty subject")
	}
}

func TestAuthService_ValidateUser_UsesCache(t *testing.T) {
	repo := newStubUserRepo()
	cache := newStubCache()
	svc := newAuthSvc(repo, newStubIdentityProvider(), cache)
	seedUser(repo, nil, "u-1", "hal@example.com", "pass123", domain.RolePhotographer, time.Now())

	if _, ok := svc.ValidateUser(context.Background(), ports.TokenClaims{Subject: "u-1"}); !ok {
		t.Fatal("expected principal on first lookup")
	}
	if _, cached := cache.entries["u-1"]; !cached {
		t.Fatal("expected principal to be cached")
	}

	calls := repo.calls
	if _, ok := svc.ValidateUser(context.Background(), ports.TokenClaims{Subject: "u-1"}); !ok {
		t.Fatal("expected principal on cached lookup")
	}
	if repo.calls != calls {
		t.Errorf("cached lookup must not hit the repository")
	}
}

func TestAuthService_ValidateUser_CacheErrorFallsBackToStore(t *testing.T) {
	repo := newStubUserRepo()
	cache := newStubCache()
	cache.getErr = errors.New("redis timeout")
	svc := newAuthSvc(repo, newStubIdentityProvider(), cache)
	seedUser(repo, nil, "u-1", "ivy@example.com", "pass123", domain.RolePhotographer, time.Now())

	if _, ok := svc.ValidateUser(context.Background(), ports.TokenClaims{Subject: "u-1"}); !ok {
		t.Fatal("cache failure must not block principal resolution")
	}
}

func TestAuthService_Register_PasswordOverBcryptLimit(t *testing.T) {
	repo := newStubUserRepo()
	idp := newStubIdentityProvider()
	svc := newAuthSvc(repo, idp, nil)

	in := registerInput("erin@example.com")
	in.Password = strings.Repeat("p", 80)

	if _, err := svc.Register(context.Background(), in); !errors.Is(err, domain.ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if len(idp.accounts) != 0 || len(repo.users) != 0 {
		t.Fatal("nothing must be provisioned")
	}
}

func TestAuthService_ValidateUser_DropsFillRacingARoleChange(t *testing.T) {
	repo := newStubUserRepo()
	cache := newStubCache()
	svc := newAuthSvc(repo, newStubIdentityProvider(), cache)
	seedUser(repo, nil, "u-1", "jo@example.com", "pass123", domain.RoleAdmin, time.Now())

	// The demotion and its invalidation land between the store read and the
	// cache fill, so only the stored record reflects it.
	cache.afterSet = func() {
		cache.afterSet = nil
		repo.users["u-1"].Role = domain.RolePhotographer
	}

	if _, ok := svc.ValidateUser(context.Background(), ports.TokenClaims{Subject: "u-1"}); !ok {
		t.Fatal("expected principal")
	}
	if p, cached := cache.entries["u-1"]; cached {
		t.Fatalf("stale principal left in cache: %+v", p)
	}

	p, ok := svc.ValidateUser(context.Background(), ports.TokenClaims{Subject: "u-1"})
	if !ok || p.Role != domain.RolePhotographer {
		t.Fatalf("expected demoted principal, got %+v", p)
	}
	if cache.entries["u-1"].Role != domain.RolePhotographer {
		t.Fatalf("expected fresh principal cached, got %+v", cache.entries["u-1"])
	}
}
