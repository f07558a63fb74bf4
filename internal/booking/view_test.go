package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-booker/internal/availability"
	"github.com/example/room-booker/internal/domain/reservation"
	"github.com/example/room-booker/internal/infrastructure/memory"
)

func TestDaySuffix(t *testing.T) {
	tests := map[int]string{
		1: "st", 2: "nd", 3: "rd", 4: "th", 11: "th", 12: "th", 13: "th",
		21: "st", 22: "nd", 23: "rd", 24: "th", 30: "th", 31: "st",
	}
	for day, want := range tests {
		assert.Equal(t, want, DaySuffix(day), "day %d", day)
	}
}

func TestDateLabel(t *testing.T) {
	assert.Equal(t, "Monday - October 19th", DateLabel(availability.Date{Year: 2026, Month: time.October, Day: 19}))
	assert.Equal(t, "Sunday - November 1st", DateLabel(availability.Date{Year: 2026, Month: time.November, Day: 1}))
}

func TestViewByState(t *testing.T) {
	loc := toronto(t)
	m := newMachine(memory.NewStore(), loc, wednesdayMorning(loc))

	s := sessionOffering(loc, 13, 14)
	v := m.View(s)
	require.Len(t, v.Slots, 2)
	assert.Equal(t, "1:00 PM – 2:00 PM", v.Slots[0].Label)
	assert.Equal(t, "2026-10-21", v.SelectedDate)
	assert.False(t, v.NoSlots)

	defaults := 0
	for _, d := range v.Dates {
		if d.Default {
			defaults++
			assert.Equal(t, "2026-10-21", d.Value)
		}
	}
	assert.Equal(t, 1, defaults)

	s.Slots = nil
	assert.True(t, m.View(s).NoSlots)

	s.State = Conflict
	v = m.View(s)
	assert.Equal(t, ConflictMessage, v.Message)
	assert.Len(t, v.Dates, 14)
	assert.Empty(t, v.Slots)

	s.State = Confirmed
	s.Reservation = &reservation.Reservation{ID: "res-9", StartsAt: wednesday.At(14, loc)}
	v = m.View(s)
	assert.Equal(t, "res-9", v.Reservation.ID)
	assert.Contains(t, v.Message, "Wednesday October 21 at 2:00 PM")

	s.State = Expired
	assert.Equal(t, ExpiredMessage, m.View(s).Message)
}
