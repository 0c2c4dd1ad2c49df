package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/photoportfolio/portfolio-api/internal/core/domain"
	"github.com/photoportfolio/portfolio-api/internal/core/ports"
	"github.com/photoportfolio/portfolio-api/internal/pkg/metrics"
)

const defaultTokenTTL = 24 * time.Hour

// AuthOptions configures token issuance and password hashing.
type AuthOptions struct {
	JWTSecret  string
	TokenTTL   time.Duration // defaults to 24h
	BcryptCost int           // defaults to bcrypt.DefaultCost
}

// AuthService implements registration, login and principal resolution.
type AuthService struct {
	repo        ports.UserRepository
	cache       ports.PrincipalCache
	provisioner *accountProvisioner
	jwtSecret   []byte
	tokenTTL    time.Duration
	log         zerolog.Logger
}

// NewAuthService wires the auth use cases. cache may be nil.
func NewAuthService(
	repo ports.UserRepository,
	idp ports.IdentityProvider,
	cache ports.PrincipalCache,
	opts AuthOptions,
	log zerolog.Logger,
) *AuthService {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = defaultTokenTTL
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if cache == nil {
		cache = nopPrincipalCache{}
	}
	return &AuthService{
		repo:  repo,
		cache: cache,
		provisioner: &accountProvisioner{
			repo:       repo,
			idp:        idp,
			bcryptCost: opts.BcryptCost,
			log:        log,
		},
		jwtSecret: []byte(opts.JWTSecret),
		tokenTTL:  opts.TokenTTL,
		log:       log,
	}
}

// Register creates the provider account and directory record, then issues a
// token for the new user.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	user, err := s.provisioner.provision(ctx, ports.CreateUserInput{
		Email:     in.Email,
		Password:  in.Password,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      in.Role,
	})
	metrics.AuthRequestsTotal.WithLabelValues("register", resultLabel(err)).Inc()
	if err != nil {
		return nil, err
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return &ports.AuthResult{AccessToken: token, User: user}, nil
}

// Login verifies the credentials with the identity provider. Every failure is
// reported as domain.ErrInvalidCredentials so callers cannot tell an unknown
// email from a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	result, err := s.login(ctx, normalizeEmail(email), password)
	metrics.AuthRequestsTotal.WithLabelValues("login", resultLabel(err)).Inc()
	return result, err
}

func (s *AuthService) login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	id, err := s.provisioner.idp.Authenticate(ctx, email, password)
	if err != nil || id == "" {
		s.log.Debug().Err(err).Msg("provider rejected login")
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", id).Msg("authenticated account has no directory record")
		return nil, domain.ErrInvalidCredentials
	}

	s.reconcilePasswordHash(ctx, user, password)

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{AccessToken: token, User: user}, nil
}

// reconcilePasswordHash rewrites the local hash when the provider accepted a
// password the local hash does not match. The provider is authoritative for
// the password; the local copy only backs change-password verification.
func (s *AuthService) reconcilePasswordHash(ctx context.Context, user *domain.User, password string) {
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil {
		return
	}

	hash, err := hashPassword(password, s.provisioner.bcryptCost)
	if err == nil {
		err = s.repo.UpdatePasswordHash(ctx, user.ID, string(hash), time.Now().UTC())
	}
	if err != nil {
		metrics.SideEffectFailuresTotal.WithLabelValues("reconcile_hash").Inc()
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to reconcile local password hash")
		return
	}

	user.PasswordHash = string(hash)
	s.log.Info().Str("user_id", user.ID).Msg("local password hash reconciled with provider")
}

// ValidateUser resolves verified token claims to the current principal.
// Lookup errors are swallowed: the caller must treat false as unauthenticated.
func (s *AuthService) ValidateUser(ctx context.Context, claims ports.TokenClaims) (*domain.Principal, bool) {
	if claims.Subject == "" {
		return nil, false
	}

	cached, err := s.cache.Get(ctx, claims.Subject)
	if err != nil {
		metrics.SideEffectFailuresTotal.WithLabelValues("cache").Inc()
		s.log.Warn().Err(err).Str("user_id", claims.Subject).Msg("principal cache read failed")
	} else if cached != nil {
		metrics.PrincipalLookupsTotal.WithLabelValues("cache").Inc()
		return cached, true
	}

	user, err := s.repo.FindByID(ctx, claims.Subject)
	if err != nil {
		metrics.PrincipalLookupsTotal.WithLabelValues("none").Inc()
		s.log.Debug().Err(err).Str("user_id", claims.Subject).Msg("token subject not resolvable")
		return nil, false
	}

	p := user.Principal()
	if err := s.cache.Set(ctx, p); err != nil {
		metrics.SideEffectFailuresTotal.WithLabelValues("cache").Inc()
		s.log.Warn().Err(err).Str("user_id", p.ID).Msg("principal cache write failed")
	} else {
		s.evictIfChanged(ctx, p)
	}
	metrics.PrincipalLookupsTotal.WithLabelValues("store").Inc()
	return &p, true
}

// evictIfChanged re-reads the record after a cache fill. A write that landed
// between the first read and the fill has already invalidated the key, so the
// entry just written would otherwise outlive it until the TTL.
func (s *AuthService) evictIfChanged(ctx context.Context, cached domain.Principal) {
	if _, disabled := s.cache.(nopPrincipalCache); disabled {
		return
	}

	current, err := s.repo.FindByID(ctx, cached.ID)
	if err == nil && current.Principal() == cached {
		return
	}
	if err := s.cache.Delete(ctx, cached.ID); err != nil {
		metrics.SideEffectFailuresTotal.WithLabelValues("cache").Inc()
		s.log.Warn().Err(err).Str("user_id", cached.ID).Msg("principal cache eviction failed")
	}
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  string(user.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.jwtSecret)
}
