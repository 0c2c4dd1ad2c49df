// Package identity talks to the hosted auth backend that owns password login.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/photoportfolio/portfolio-api/internal/core/domain"
	"github.com/photoportfolio/portfolio-api/internal/core/ports"
	"github.com/photoportfolio/portfolio-api/internal/pkg/metrics"
)

const defaultTimeout = 10 * time.Second

// Config holds the provider endpoint and service credentials.
type Config struct {
	BaseURL    string
	ServiceKey string
	Timeout    time.Duration
}

// Client implements ports.IdentityProvider against a GoTrue-compatible API.
type Client struct {
	http *resty.Client
}

var _ ports.IdentityProvider = (*Client)(nil)

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("apikey", cfg.ServiceKey).
		SetAuthToken(cfg.ServiceKey).
		SetHeader("Content-Type", "application/json")

	return &Client{http: cli}
}

type createAccountRequest struct {
	Email        string            `json:"email"`
	Password     string            `json:"password"`
	EmailConfirm bool              `json:"email_confirm"`
	UserMetadata map[string]string `json:"user_metadata"`
}

type accountResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type tokenResponse struct {
	AccessToken string          `json:"access_token"`
	User        accountResponse `json:"user"`
}

type errorResponse struct {
	ErrorCode        string          `json:"error_code"`
	Code             json.RawMessage `json:"code"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
	Msg              string          `json:"msg"`
	Message          string          `json:"message"`
}

func (c *Client) CreateAccount(ctx context.Context, in ports.AccountInput) (string, error) {
	var out accountResponse
	resp, err := c.do(ctx, "create_account", c.http.R().
		SetBody(createAccountRequest{
			Email:        in.Email,
			Password:     in.Password,
			EmailConfirm: true,
			UserMetadata: map[string]string{
				"first_name": in.FirstName,
				"last_name":  in.LastName,
				"role":       string(in.Role),
			},
		}).
		SetResult(&out), http.MethodPost, "/auth/v1/admin/users")
	if err != nil {
		return "", err
	}
	if err := mapError(resp, false); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("%w: create account returned no id", domain.ErrProviderUnavailable)
	}
	return out.ID, nil
}

// Authenticate runs the password grant and returns the provider user id.
func (c *Client) Authenticate(ctx context.Context, email, password string) (string, error) {
	var out tokenResponse
	resp, err := c.do(ctx, "authenticate", c.http.R().
		SetQueryParam("grant_type", "password").
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&out), http.MethodPost, "/auth/v1/token")
	if err != nil {
		return "", err
	}
	if err := mapError(resp, true); err != nil {
		return "", err
	}
	if out.User.ID == "" {
		return "", domain.ErrInvalidCredentials
	}
	return out.User.ID, nil
}

func (c *Client) UpdatePassword(ctx context.Context, id, password string) error {
	resp, err := c.do(ctx, "update_password", c.http.R().
		SetPathParam("id", id).
		SetBody(map[string]string{"password": password}), http.MethodPut, "/auth/v1/admin/users/{id}")
	if err != nil {
		return err
	}
	return mapError(resp, false)
}

func (c *Client) DeleteAccount(ctx context.Context, id string) error {
	resp, err := c.do(ctx, "delete_account", c.http.R().
		SetPathParam("id", id), http.MethodDelete, "/auth/v1/admin/users/{id}")
	if err != nil {
		return err
	}
	return mapError(resp, false)
}

// do executes req and records its latency. Transport failures are reported as
// ErrProviderUnavailable.
func (c *Client) do(ctx context.Context, operation string, req *resty.Request, method, url string) (*resty.Response, error) {
	start := time.Now()
	resp, err := req.SetContext(ctx).Execute(method, url)

	status := "transport_error"
	if err == nil {
		status = strconv.Itoa(resp.StatusCode())
	}
	metrics.IdentityProviderDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrProviderUnavailable, operation, err)
	}
	return resp, nil
}

// mapError translates a non-2xx provider response into a domain error.
// tokenGrant marks the password grant endpoint, where any 400 or 401 means the
// credentials were rejected.
func mapError(resp *resty.Response, tokenGrant bool) error {
	if resp.IsSuccess() {
		return nil
	}

	var body errorResponse
	_ = json.Unmarshal(resp.Body(), &body)

	switch errorCode(body) {
	case "email_exists", "user_already_exists":
		return domain.ErrEmailExists
	case "invalid_credentials", "invalid_grant":
		return domain.ErrInvalidCredentials
	case "user_not_found":
		return domain.ErrUserNotFound
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return domain.ErrUserNotFound
	case tokenGrant && (resp.StatusCode() == http.StatusBadRequest || resp.StatusCode() == http.StatusUnauthorized):
		return domain.ErrInvalidCredentials
	}

	return fmt.Errorf("%w: http %d: %s", domain.ErrProviderUnavailable, resp.StatusCode(), errorMessage(body, resp))
}

// errorCode picks the machine-readable code. Newer servers send error_code,
// older ones a string code or an OAuth error field.
func errorCode(body errorResponse) string {
	if body.ErrorCode != "" {
		return body.ErrorCode
	}
	var code string
	if len(body.Code) > 0 && json.Unmarshal(body.Code, &code) == nil && code != "" {
		return code
	}
	return body.Error
}

func errorMessage(body errorResponse, resp *resty.Response) string {
	for _, m := range []string{body.Msg, body.Message, body.ErrorDescription, body.Error} {
		if m != "" {
			return m
		}
	}
	if text := strings.TrimSpace(string(resp.Body())); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode())
}
