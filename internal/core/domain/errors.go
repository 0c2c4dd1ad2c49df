package domain

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailExists         = errors.New("email already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrForbidden           = errors.New("access forbidden")
	ErrWrongPassword       = errors.New("current password is incorrect")
	ErrCannotDeleteSelf    = errors.New("you cannot delete your own account")
	ErrPasswordTooLong     = errors.New("password must be at most 72 bytes")
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)
