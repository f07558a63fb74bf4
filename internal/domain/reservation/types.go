package reservation

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("reservation: not found")
	// ErrConflict means another reservation already holds the (section, start) pair.
	ErrConflict = errors.New("reservation: slot already reserved")
)

// Reservation records that one section-hour is taken. The hour ends at StartsAt + 1h.
type Reservation struct {
	ID        string    `json:"id"`
	SectionID string    `json:"section_id"`
	StartsAt  time.Time `json:"starts_at"`
	Booker    string    `json:"booker"`
	Users     []string  `json:"users"`
	CreatedAt time.Time `json:"created_at"`
}

func (r Reservation) EndsAt() time.Time {
	return r.StartsAt.Add(time.Hour)
}

// HasUser reports whether userID is attached to the reservation.
func (r Reservation) HasUser(userID string) bool {
	for _, u := range r.Users {
		if u == userID {
			return true
		}
	}
	return false
}
