package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/example/room-booker/internal/domain/reservation"
	"github.com/example/room-booker/internal/domain/room"
)

// Slot is one bookable hour. Slots are computed per query and never stored.
type Slot struct {
	StartsAt          time.Time
	EndsAt            time.Time
	AvailableCapacity int
}

func (s Slot) Hour() int { return s.StartsAt.Hour() }

// Reader is the slice of the reservation store the engine needs.
type Reader interface {
	FindReservations(ctx context.Context, sectionID string, from, to time.Time) ([]reservation.Reservation, error)
}

// Engine computes bookable hours from a room's weekly schedule minus reserved hours
// minus hours already past today. Location is the fixed operating time zone.
type Engine struct {
	Reservations Reader
	Location     *time.Location
}

func NewEngine(r Reader, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{Reservations: r, Location: loc}
}

// AvailableSlots returns the offerable slots of sec on date, in ascending order.
// Existing reservations for the rest of the day are fetched in a single read.
// An empty result is a normal outcome; only a failed store read returns an error.
func (e *Engine) AvailableSlots(ctx context.Context, rm room.Room, sec room.Section, date Date, now time.Time) ([]Slot, error) {
	loc := e.Location
	if loc == nil {
		loc = time.UTC
	}
	if rm.Closed || rm.ID == "" || sec.ID == "" || sec.Capacity < 0 || date.IsZero() {
		return nil, nil
	}
	if sec.RoomID != "" && sec.RoomID != rm.ID {
		return nil, nil
	}
	if _, ok := rm.ScheduleFor(date.Weekday()); !ok {
		return nil, nil
	}

	startHour := 0
	localNow := now.In(loc)
	if DateOf(localNow) == date {
		startHour = localNow.Hour()
	}

	from := date.At(startHour, loc)
	to := date.AddDays(1).At(0, loc)
	existing, err := e.Reservations.FindReservations(ctx, sec.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("availability: find reservations for section %s: %w", sec.ID, err)
	}
	taken := reservation.NewIndex(existing)

	var out []Slot
	for h := startHour; h <= 23; h++ {
		startsAt := date.At(h, loc)
		// time.Date normalises a civil hour skipped by a DST jump onto the next one.
		if startsAt.Hour() != h || DateOf(startsAt) != date {
			continue
		}
		endsAt := startsAt.Add(time.Hour)
		if !room.IsOpenAt(rm, startsAt.Weekday(), h) {
			continue
		}
		if endsAt.Weekday() != startsAt.Weekday() {
			continue
		}
		if taken.Has(startsAt) {
			continue
		}
		out = append(out, Slot{StartsAt: startsAt, EndsAt: endsAt, AvailableCapacity: sec.Capacity})
	}
	return out, nil
}
