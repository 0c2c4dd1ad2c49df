package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/photoportfolio/portfolio-api/internal/core/domain"
	"github.com/photoportfolio/portfolio-api/internal/core/ports"
)

const principalKey = "principal"

// PrincipalResolver turns verified token claims into the current principal.
type PrincipalResolver interface {
	ValidateUser(ctx context.Context, claims ports.TokenClaims) (*domain.Principal, bool)
}

// Auth verifies the bearer token, resolves it to a live user and stores the
// principal on the context. Any failure ends the request with 401.
func Auth(jwtSecret string, resolver PrincipalResolver) echo.MiddlewareFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			scheme, raw, ok := strings.Cut(authHeader, " ")
			raw = strings.TrimSpace(raw)
			if !ok || !strings.EqualFold(scheme, "bearer") || raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sub, _ := claims.GetSubject()
			email, _ := claims["email"].(string)
			role, _ := claims["role"].(string)

			principal, ok := resolver.ValidateUser(c.Request().Context(), ports.TokenClaims{
				Subject: sub,
				Email:   email,
				Role:    domain.Role(role),
			})
			if !ok || principal == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "user no longer exists")
			}

			SetPrincipal(c, *principal)
			return next(c)
		}
	}
}

func SetPrincipal(c echo.Context, p domain.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the principal stored by Auth.
func PrincipalFrom(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(principalKey).(domain.Principal)
	return p, ok && p.ID != ""
}
