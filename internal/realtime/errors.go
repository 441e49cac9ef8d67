package realtime

import "errors"

// Handshake (authentication) errors. Any of these rejects the connection
// before the websocket upgrade completes.
var (
	// ErrMissingCredential indicates no token was supplied with the request.
	ErrMissingCredential = errors.New("authentication credential is missing")

	// ErrInvalidCredential indicates the token is malformed or its signature
	// doesn't match.
	ErrInvalidCredential = errors.New("authentication credential is invalid")

	// ErrExpiredCredential indicates the token has expired.
	ErrExpiredCredential = errors.New("authentication credential has expired")

	// ErrUnknownIdentity indicates the token is valid but the user it names
	// no longer exists.
	ErrUnknownIdentity = errors.New("unknown identity")
)

// Authorization errors raised by event handlers. These are reported to the
// offending connection only and never terminate it.
var (
	// ErrForbiddenAssignment indicates a user without assignment rights
	// attempted to set assignees on a task.
	ErrForbiddenAssignment = errors.New("only managers and admins can assign tasks")

	// ErrForbiddenTaskDelete indicates a user who is neither an admin nor the
	// task's creator attempted to delete it.
	ErrForbiddenTaskDelete = errors.New("only admins or the task creator can delete a task")

	// ErrForbiddenDirectMessage indicates a direct message whose sender and
	// receiver do not share the named task.
	ErrForbiddenDirectMessage = errors.New("sender and receiver must share the task")
)

// Resource and infrastructure errors.
var (
	// ErrTaskNotFound indicates the referenced task does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrBadPayload indicates an event payload that failed to decode or
	// validate.
	ErrBadPayload = errors.New("invalid event payload")

	// ErrConnectionClosed indicates a send on a connection that has already
	// shut down.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrSendBufferFull indicates the connection's outbound buffer is full;
	// the connection is closed as a slow consumer.
	ErrSendBufferFull = errors.New("send buffer full")
)

// IsAuthError reports whether err is one of the handshake authentication
// errors, which map to a 401 response at the websocket endpoint.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrMissingCredential) ||
		errors.Is(err, ErrInvalidCredential) ||
		errors.Is(err, ErrExpiredCredential) ||
		errors.Is(err, ErrUnknownIdentity)
}
