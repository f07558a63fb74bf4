package booking

import (
	"time"

	"github.com/example/room-booker/internal/availability"
	"github.com/example/room-booker/internal/domain/reservation"
	"github.com/example/room-booker/internal/domain/room"
)

type State string

const (
	AwaitingDate State = "awaiting_date"
	AwaitingSlot State = "awaiting_slot"
	Committing   State = "committing"
	Confirmed    State = "confirmed"
	Conflict     State = "conflict"
	Expired      State = "expired"
)

// Terminal states accept no further events.
func (s State) Terminal() bool {
	return s == Confirmed || s == Expired
}

// SlotID identifies an offered slot by its start hour on the selected date.
type SlotID int

// Session is one user's in-progress booking of a single section.
type Session struct {
	Key          string                   `json:"key"`
	UserID       string                   `json:"user_id"`
	Room         room.Room                `json:"room"`
	Section      room.Section             `json:"section"`
	SelectedDate availability.Date        `json:"selected_date"`
	State        State                    `json:"state"`
	Slots        []availability.Slot      `json:"slots,omitempty"`
	Reservation  *reservation.Reservation `json:"reservation,omitempty"`
	LastActivity time.Time                `json:"last_activity"`
}

func NewSession(key, userID string, rm room.Room, sec room.Section, now time.Time) *Session {
	return &Session{
		Key:          key,
		UserID:       userID,
		Room:         rm,
		Section:      sec,
		State:        AwaitingDate,
		LastActivity: now,
	}
}

func (s *Session) slot(id SlotID) (availability.Slot, bool) {
	for _, sl := range s.Slots {
		if sl.Hour() == int(id) {
			return sl, true
		}
	}
	return availability.Slot{}, false
}

// Clone returns a deep copy, so stored sessions never alias caller state.
func (s *Session) Clone() *Session {
	c := *s
	c.Room.Schedule = append([]room.DaySchedule(nil), s.Room.Schedule...)
	c.Slots = append([]availability.Slot(nil), s.Slots...)
	if s.Reservation != nil {
		r := *s.Reservation
		r.Users = append([]string(nil), s.Reservation.Users...)
		c.Reservation = &r
	}
	return &c
}
