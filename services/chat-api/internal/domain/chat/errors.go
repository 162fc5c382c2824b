package chat

import "errors"

var (
	// ErrRoomNotFound is returned when a room does not exist.
	ErrRoomNotFound = errors.New("room not found")
	// ErrMessageNotFound is returned when a message does not exist.
	ErrMessageNotFound = errors.New("message not found")
	// ErrAuthRequired is returned when an anonymous identity attempts a
	// privileged action.
	ErrAuthRequired = errors.New("authentication required")
	// ErrEmptyContent is returned when a message has no content after trimming.
	ErrEmptyContent = errors.New("message content is required")
	// ErrMissingStatusFields is returned when a status update omits message_id
	// or status.
	ErrMissingStatusFields = errors.New("message_id and status are required")
	// ErrInvalidStatus is returned when a status update carries an unknown
	// status value.
	ErrInvalidStatus = errors.New("invalid status, must be: sent, delivered, seen")
	// ErrStatusUpdateFailed is returned when the referenced message is missing
	// or its id is malformed.
	ErrStatusUpdateFailed = errors.New("message not found or status update failed")
	// ErrMissingUsernames is returned when room creation references usernames
	// the auth service does not know.
	ErrMissingUsernames = errors.New("unknown usernames")
	// ErrInvalidMembers is returned when room creation has the wrong member
	// count for its kind.
	ErrInvalidMembers = errors.New("invalid member list for room kind")
)
