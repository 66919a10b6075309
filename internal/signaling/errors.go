package signaling

import (
	"errors"

	"github.com/rozovalentina/musicnet-signaling-server/internal/protocol"
)

// The error taxonomy. Every failure a handler can produce maps onto one of
// these; all of them are reported back to the originating connection only
// and none is fatal to the process.
var (
	ErrInvalidCode    = errors.New("room code must be 6 uppercase letters or digits")
	ErrAlreadyExists  = errors.New("room already exists")
	ErrNotFound       = errors.New("room not found")
	ErrFull           = errors.New("room is full")
	ErrNotAuthorized  = errors.New("not authorized for this room")
	ErrRoomUnresolved = errors.New("room could not be resolved from the message or membership")
	ErrInvalidPayload = errors.New("invalid payload")
)

// errInternal stands in for a fault inside a handler. It is reported to the
// originating connection with the "internal" code so a server bug is never
// blamed on the client's message.
var errInternal = errors.New("internal server error")

// errorCode maps a taxonomy error to its wire code string.
func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCode):
		return "invalidCode"
	case errors.Is(err, ErrAlreadyExists):
		return "alreadyExists"
	case errors.Is(err, ErrNotFound):
		return "notFound"
	case errors.Is(err, ErrFull):
		return "full"
	case errors.Is(err, ErrNotAuthorized):
		return "notAuthorized"
	case errors.Is(err, ErrRoomUnresolved):
		return "roomUnresolved"
	case errors.Is(err, ErrInvalidPayload):
		return "invalidPayload"
	default:
		return "internal"
	}
}

// errorEnvelope builds the error reply for the originating connection.
func errorEnvelope(event string, err error) *protocol.Envelope {
	return protocol.MustEnvelope(event, "", protocol.ErrorPayload{
		Code:    errorCode(err),
		Message: err.Error(),
	})
}
