// Package requests contains HTTP request DTOs for the chat-api.
package requests

// CreateRoomRequest is the payload for creating a room. Members are addressed
// by username and resolved through the auth service.
type CreateRoomRequest struct {
	Name        string   `json:"name" binding:"omitempty,max=30"`
	Description string   `json:"description" binding:"omitempty,max=350"`
	IsGroup     bool     `json:"is_group"`
	Usernames   []string `json:"usernames" binding:"required,min=1,dive,required"`
}
