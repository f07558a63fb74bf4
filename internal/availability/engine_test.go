package availability

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-booker/internal/domain/reservation"
	"github.com/example/room-booker/internal/domain/room"
)

type fakeReader struct {
	reservations []reservation.Reservation
	err          error
	calls        int
	from, to     time.Time
}

func (f *fakeReader) FindReservations(_ context.Context, sectionID string, from, to time.Time) ([]reservation.Reservation, error) {
	f.calls++
	f.from, f.to = from, to
	if f.err != nil {
		return nil, f.err
	}
	var out []reservation.Reservation
	for _, r := range f.reservations {
		if r.SectionID == sectionID && !r.StartsAt.Before(from) && r.StartsAt.Before(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func toronto(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Toronto")
	require.NoError(t, err)
	return loc
}

func studyRoom() (room.Room, room.Section) {
	rm := room.Room{
		ID:   "r1",
		Name: "Study Hall",
		Schedule: []room.DaySchedule{
			{DayOfWeek: 2, OpenHour: 9, CloseHour: 17}, // Wednesday
		},
	}
	return rm, room.Section{ID: "s1", RoomID: "r1", Name: "A", Capacity: 5}
}

func hours(slots []Slot) []int {
	out := make([]int, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Hour())
	}
	return out
}

func TestAvailableSlotsToday(t *testing.T) {
	loc := toronto(t)
	rm, sec := studyRoom()
	date := Date{Year: 2026, Month: time.October, Day: 21}
	now := time.Date(2026, 10, 21, 10, 30, 0, 0, loc)

	reader := &fakeReader{}
	e := NewEngine(reader, loc)

	slots, err := e.AvailableSlots(context.Background(), rm, sec, date, now)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 11, 12, 13, 14, 15, 16}, hours(slots))
	for _, s := range slots {
		assert.Equal(t, 5, s.AvailableCapacity)
		assert.Equal(t, time.Hour, s.EndsAt.Sub(s.StartsAt))
	}
	assert.Equal(t, 1, reader.calls)
	assert.True(t, reader.from.Equal(time.Date(2026, 10, 21, 10, 0, 0, 0, loc)))
	assert.True(t, reader.to.Equal(time.Date(2026, 10, 22, 0, 0, 0, 0, loc)))
}

func TestAvailableSlotsExcludesReserved(t *testing.T) {
	loc := toronto(t)
	rm, sec := studyRoom()
	date := Date{Year: 2026, Month: time.October, Day: 21}
	now := time.Date(2026, 10, 21, 10, 30, 0, 0, loc)

	reader := &fakeReader{reservations: []reservation.Reservation{
		{ID: "x", SectionID: "s1", StartsAt: time.Date(2026, 10, 21, 12, 0, 0, 0, loc).UTC()},
		{ID: "y", SectionID: "s2", StartsAt: time.Date(2026, 10, 21, 13, 0, 0, 0, loc)},
	}}
	slots, err := NewEngine(reader, loc).AvailableSlots(context.Background(), rm, sec, date, now)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 11, 13, 14, 15, 16}, hours(slots))
}

func TestAvailableSlotsFutureDateStartsAtMidnight(t *testing.T) {
	loc := toronto(t)
	rm, sec := studyRoom()
	date := Date{Year: 2026, Month: time.October, Day: 28}
	now := time.Date(2026, 10, 21, 15, 0, 0, 0, loc)

	reader := &fakeReader{}
	slots, err := NewEngine(reader, loc).AvailableSlots(context.Background(), rm, sec, date, now)
	require.NoError(t, err)
	assert.Equal(t, []int{9, 10, 11, 12, 13, 14, 15, 16}, hours(slots))
	assert.True(t, reader.from.Equal(time.Date(2026, 10, 28, 0, 0, 0, 0, loc)))
}

func TestAvailableSlotsEmptyCases(t *testing.T) {
	loc := toronto(t)
	wed := Date{Year: 2026, Month: time.October, Day: 21}
	morning := time.Date(2026, 10, 20, 8, 0, 0, 0, loc)

	closed, sec := studyRoom()
	closed.Closed = true
	noSchedule, _ := studyRoom()
	noSchedule.Schedule = nil
	late, _ := studyRoom()

	tests := []struct {
		name string
		room room.Room
		sec  room.Section
		date Date
		now  time.Time
	}{
		{name: "closed room", room: closed, sec: sec, date: wed, now: morning},
		{name: "no schedule for weekday", room: noSchedule, sec: sec, date: wed, now: morning},
		{name: "after close today", room: late, sec: sec, date: wed, now: time.Date(2026, 10, 21, 17, 5, 0, 0, loc)},
		{name: "negative capacity", room: late, sec: room.Section{ID: "s1", RoomID: "r1", Capacity: -1}, date: wed, now: morning},
		{name: "section of another room", room: late, sec: room.Section{ID: "s9", RoomID: "r9", Capacity: 2}, date: wed, now: morning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots, err := NewEngine(&fakeReader{}, loc).AvailableSlots(context.Background(), tt.room, tt.sec, tt.date, tt.now)
			require.NoError(t, err)
			assert.Empty(t, slots)
		})
	}
}

func TestAvailableSlotsNeverOffersLastHour(t *testing.T) {
	loc := toronto(t)
	rm := room.Room{ID: "r1", Name: "Late", Schedule: []room.DaySchedule{{DayOfWeek: 2, OpenHour: 20, CloseHour: 23}}}
	sec := room.Section{ID: "s1", RoomID: "r1", Capacity: 1}
	date := Date{Year: 2026, Month: time.October, Day: 21}

	slots, err := NewEngine(&fakeReader{}, loc).AvailableSlots(context.Background(), rm, sec, date, time.Date(2026, 10, 20, 0, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.Equal(t, []int{20, 21, 22}, hours(slots))
}

func TestAvailableSlotsStoreFailure(t *testing.T) {
	loc := toronto(t)
	rm, sec := studyRoom()
	boom := errors.New("connection refused")

	_, err := NewEngine(&fakeReader{err: boom}, loc).AvailableSlots(context.Background(), rm, sec,
		Date{Year: 2026, Month: time.October, Day: 21}, time.Date(2026, 10, 21, 9, 0, 0, 0, loc))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestAvailableSlotsSkipsMissingDSTHour(t *testing.T) {
	loc := toronto(t)
	// Clocks jump from 02:00 to 03:00 on Sunday 2026-03-08 in Toronto.
	rm := room.Room{ID: "r1", Name: "All Day", Schedule: []room.DaySchedule{{DayOfWeek: 6, OpenHour: 0, CloseHour: 5}}}
	sec := room.Section{ID: "s1", RoomID: "r1", Capacity: 3}
	date := Date{Year: 2026, Month: time.March, Day: 8}

	slots, err := NewEngine(&fakeReader{}, loc).AvailableSlots(context.Background(), rm, sec, date, time.Date(2026, 3, 1, 0, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 3, 4}, hours(slots))
}

func TestDate(t *testing.T) {
	d, err := ParseDate("2026-12-31")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2026, Month: time.December, Day: 31}, d)
	assert.Equal(t, "2027-01-01", d.AddDays(1).String())
	assert.Equal(t, time.Thursday, d.Weekday())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.False(t, d.Before(d))

	_, err = ParseDate("31/12/2026")
	assert.Error(t, err)

	var round Date
	b, err := d.MarshalText()
	require.NoError(t, err)
	require.NoError(t, round.UnmarshalText(b))
	assert.Equal(t, d, round)
}
