package chat

import "github.com/google/uuid"

// Identity is a verified user reference obtained from the auth service, or the
// anonymous identity when no valid token was presented. The zero value is
// anonymous.
type Identity struct {
	ID       uuid.UUID
	Username string
	Email    string

	authenticated bool
}

// NewIdentity builds an authenticated identity.
func NewIdentity(id uuid.UUID, username, email string) Identity {
	return Identity{ID: id, Username: username, Email: email, authenticated: true}
}

// Anonymous returns the anonymous identity.
func Anonymous() Identity {
	return Identity{Username: "Anonymous"}
}

// Authenticated reports whether the identity was verified by the auth service.
func (i Identity) Authenticated() bool {
	return i.authenticated
}

// UserInfo is the wire projection of an identity. ID is null for anonymous
// connections.
type UserInfo struct {
	ID       *uuid.UUID `json:"id"`
	Username string     `json:"username"`
}

// Info returns the wire projection of the identity.
func (i Identity) Info() UserInfo {
	if !i.authenticated {
		return UserInfo{Username: i.Username}
	}
	id := i.ID
	return UserInfo{ID: &id, Username: i.Username}
}
