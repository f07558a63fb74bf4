package booking

import (
	"errors"

	"github.com/example/room-booker/internal/domain/reservation"
)

// User-input errors carry the message shown to the person booking.
var (
	ErrUnknownRoom      = errors.New("Invalid Room")
	ErrUnknownSection   = errors.New("Invalid Section")
	ErrInvalidSelection = errors.New("that option is no longer available, please choose again")
	ErrNotOwner         = errors.New("This select menu isn't for you!")
)

var (
	ErrSessionExpired = errors.New("booking session expired")
	ErrSessionClosed  = errors.New("booking session already finished")

	// ErrStoreUnavailable is retryable: nothing was written, or the write could not be confirmed
	// and no reservation exists for the slot.
	ErrStoreUnavailable = errors.New("reservation store unavailable, please try again")

	// ErrSessionNotFound is returned by SessionStore.Load for unknown keys.
	ErrSessionNotFound = errors.New("booking session not found")
)

// ErrorKind returns a stable label for logs and metrics.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrUnknownRoom):
		return "unknown_room"
	case errors.Is(err, ErrUnknownSection):
		return "unknown_section"
	case errors.Is(err, ErrInvalidSelection):
		return "invalid_selection"
	case errors.Is(err, ErrNotOwner):
		return "not_owner"
	case errors.Is(err, ErrSessionExpired), errors.Is(err, ErrSessionNotFound):
		return "session_expired"
	case errors.Is(err, ErrSessionClosed):
		return "session_closed"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, reservation.ErrConflict):
		return "conflict"
	}
	return "unexpected"
}

// IsUserError reports whether err should be shown to the user as-is.
func IsUserError(err error) bool {
	switch ErrorKind(err) {
	case "unknown_room", "unknown_section", "invalid_selection", "not_owner", "session_expired", "session_closed", "store_unavailable":
		return true
	}
	return false
}
