package user

import "errors"

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate is returned when the username or email is already taken.
	ErrDuplicate = errors.New("username or email already registered")
	// ErrInvalidCredentials is returned on a failed email+password login.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrWrongOTP is returned when the submitted OTP does not match or has
	// expired.
	ErrWrongOTP = errors.New("wrong otp")
	// ErrInvalidToken is returned for malformed, expired or revoked tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInactive is returned when the account has been deactivated.
	ErrInactive = errors.New("account is inactive")
)
