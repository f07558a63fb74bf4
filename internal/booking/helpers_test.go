package booking

import (
	"context"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/room-booker/internal/availability"
	"github.com/example/room-booker/internal/domain/reservation"
	"github.com/example/room-booker/internal/domain/room"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func toronto(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Toronto")
	require.NoError(t, err)
	return loc
}

// Wednesday 2026-10-21 10:30 in Toronto.
func wednesdayMorning(loc *time.Location) *clock {
	return &clock{t: time.Date(2026, 10, 21, 10, 30, 0, 0, loc)}
}

var wednesday = availability.Date{Year: 2026, Month: time.October, Day: 21}

func studyHall() (room.Room, room.Section) {
	rm := room.Room{
		ID:   "r1",
		Name: "Study Hall",
		Schedule: []room.DaySchedule{
			{DayOfWeek: 2, OpenHour: 9, CloseHour: 17},
			{DayOfWeek: 3, OpenHour: 9, CloseHour: 17},
		},
	}
	return rm, room.Section{ID: "s1", RoomID: "r1", Name: "A", Capacity: 5}
}

func newMachine(store reservation.Store, loc *time.Location, c *clock) *Machine {
	m := NewMachine(availability.NewEngine(store, loc), store, loc, zap.NewNop())
	m.Now = c.Now
	return m
}

// sessionOffering returns a session waiting on a slot choice with the given hours offered.
func sessionOffering(loc *time.Location, hours ...int) *Session {
	rm, sec := studyHall()
	s := NewSession("k1", "alice", rm, sec, time.Date(2026, 10, 21, 10, 30, 0, 0, loc))
	s.State = AwaitingSlot
	s.SelectedDate = wednesday
	for _, h := range hours {
		start := wednesday.At(h, loc)
		s.Slots = append(s.Slots, availability.Slot{StartsAt: start, EndsAt: start.Add(time.Hour), AvailableCapacity: sec.Capacity})
	}
	return s
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) FindReservations(ctx context.Context, sectionID string, from, to time.Time) ([]reservation.Reservation, error) {
	args := m.Called(ctx, sectionID, from, to)
	rs, _ := args.Get(0).([]reservation.Reservation)
	return rs, args.Error(1)
}

func (m *mockStore) FindReservation(ctx context.Context, sectionID string, startsAt time.Time) (reservation.Reservation, error) {
	args := m.Called(ctx, sectionID, startsAt)
	return args.Get(0).(reservation.Reservation), args.Error(1)
}

func (m *mockStore) CreateReservation(ctx context.Context, sectionID string, startsAt time.Time, booker string) (reservation.Reservation, error) {
	args := m.Called(ctx, sectionID, startsAt, booker)
	return args.Get(0).(reservation.Reservation), args.Error(1)
}

func (m *mockStore) ListReservationsByUser(ctx context.Context, userID string) ([]reservation.Reservation, error) {
	args := m.Called(ctx, userID)
	rs, _ := args.Get(0).([]reservation.Reservation)
	return rs, args.Error(1)
}
