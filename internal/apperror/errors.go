package apperror

import "errors"

// Sentinel errors for the chat core. Services wrap them with %w so the
// transport layer can map them to status codes with errors.Is while the
// wrapped message keeps operation context.
var (
	ErrChatNotFound    = errors.New("chat not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrUserNotFound    = errors.New("user not found")

	// ErrUnauthorized is a client-visible denial; never retried.
	ErrUnauthorized = errors.New("operation not permitted for this user")

	// ErrInvalidRole means the target user exists but does not satisfy a
	// role precondition, e.g. a transfer target that is not an advisor.
	ErrInvalidRole = errors.New("user does not have the required role")

	// ErrChatAlreadyClaimed is the conflict outcome of a lost claim race on
	// a pending chat. The caller may re-read and decide again.
	ErrChatAlreadyClaimed = errors.New("chat already claimed by another advisor")

	// ErrChatClosed rejects mutations on a terminal chat.
	ErrChatClosed = errors.New("chat is closed")
)
