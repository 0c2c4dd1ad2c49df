package handler

import (
	"time"

	"github.com/photoportfolio/portfolio-api/internal/core/domain"
)

// errorResponse is the error envelope rendered by the API error handler.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type registerRequest struct {
	Email     string `json:"email"      validate:"required,email"`
	Password  string `json:"password"   validate:"required,min=6,max=72"`
	FirstName string `json:"first_name" validate:"required,min=2"`
	LastName  string `json:"last_name"  validate:"required,min=2"`
	Role      string `json:"role"       validate:"omitempty,oneof=photographer admin"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	AccessToken string       `json:"access_token"`
	User        userResponse `json:"user"`
}

type principalResponse struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

type verifyResponse struct {
	Valid bool              `json:"valid"`
	User  principalResponse `json:"user"`
}

// --- Users ---

type createUserRequest struct {
	Email     string `json:"email"      validate:"required,email"`
	Password  string `json:"password"   validate:"required,min=6,max=72"`
	FirstName string `json:"first_name" validate:"required,min=2"`
	LastName  string `json:"last_name"  validate:"required,min=2"`
	Role      string `json:"role"       validate:"omitempty,oneof=photographer admin"`
}

type updateUserRequest struct {
	FirstName *string `json:"first_name" validate:"omitnil,min=2"`
	LastName  *string `json:"last_name"  validate:"omitnil,min=2"`
	Role      *string `json:"role"       validate:"omitnil,oneof=photographer admin"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=6,max=72"`
}

type listUsersQuery struct {
	Page   int    `json:"page"  validate:"min=1"`
	Limit  int    `json:"limit" validate:"min=1,max=100"`
	Role   string `json:"role"  validate:"omitempty,oneof=photographer admin"`
	Search string `json:"search"`
}

type userResponse struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type listUsersResponse struct {
	Users []userResponse `json:"users"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

type statsResponse struct {
	Total         int64 `json:"total"`
	Photographers int64 `json:"photographers"`
	Admins        int64 `json:"admins"`
}
