package responses

import "chatter-server/services/auth-api/internal/domain/user"

// RegisterResponse confirms registration and echoes the created profile.
type RegisterResponse struct {
	Message string       `json:"message"`
	Data    user.Profile `json:"data"`
}

// TokenPairResponse carries a fresh access+refresh pair.
type TokenPairResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AccessTokenResponse carries a rotated access token.
type AccessTokenResponse struct {
	Access string `json:"access"`
}

// ProfileResponse wraps the profile projection.
type ProfileResponse struct {
	User user.Profile `json:"user"`
}

// VerifyTokenResponse is the service-to-service oracle answer.
type VerifyTokenResponse struct {
	Valid bool          `json:"valid"`
	User  *user.Profile `json:"user,omitempty"`
	Error string        `json:"error,omitempty"`
}

// SearchByUsernameResponse lists the matched profiles.
type SearchByUsernameResponse struct {
	Valid bool           `json:"valid"`
	Users []user.Profile `json:"users"`
}

// NewSearchByUsernameResponse converts matched accounts.
func NewSearchByUsernameResponse(users []*user.User) SearchByUsernameResponse {
	out := SearchByUsernameResponse{Valid: true, Users: make([]user.Profile, 0, len(users))}
	for _, u := range users {
		out.Users = append(out.Users, u.Profile())
	}
	return out
}
