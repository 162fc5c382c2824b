// Package requests contains HTTP request DTOs for the auth-api.
package requests

// CreateUserRequest is the registration payload.
type CreateUserRequest struct {
	FirstName string `json:"first_name" binding:"omitempty,max=150"`
	LastName  string `json:"last_name" binding:"omitempty,max=150"`
	Username  string `json:"username" binding:"required,min=3,max=150"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
}

// TokenRequest is the login payload.
type TokenRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token for access token rotation.
type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// VerifyOTPRequest carries the submitted verification code.
type VerifyOTPRequest struct {
	OTP int `json:"otp" binding:"required"`
}

// LogoutRequest carries the refresh token to revoke.
type LogoutRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// VerifyTokenRequest is the service-to-service token check payload.
type VerifyTokenRequest struct {
	Token string `json:"token"`
}

// SearchByUsernameRequest resolves usernames to profiles.
type SearchByUsernameRequest struct {
	Usernames []string `json:"usernames"`
}
