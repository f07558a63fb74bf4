package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weekdays(open, close int) []DaySchedule {
	out := make([]DaySchedule, 0, 5)
	for d := 0; d < 5; d++ {
		out = append(out, DaySchedule{DayOfWeek: d, OpenHour: open, CloseHour: close})
	}
	return out
}

func TestDayIndex(t *testing.T) {
	assert.Equal(t, 0, DayIndex(time.Monday))
	assert.Equal(t, 2, DayIndex(time.Wednesday))
	assert.Equal(t, 6, DayIndex(time.Sunday))
}

func TestIsOpenAt(t *testing.T) {
	r := Room{ID: "r1", Name: "Study Hall", Schedule: weekdays(9, 17)}

	tests := []struct {
		name string
		room Room
		wd   time.Weekday
		hour int
		want bool
	}{
		{"first open hour", r, time.Wednesday, 9, true},
		{"last open hour", r, time.Wednesday, 16, true},
		{"close hour excluded", r, time.Wednesday, 17, false},
		{"before open", r, time.Wednesday, 8, false},
		{"no schedule on saturday", r, time.Saturday, 10, false},
		{"closed room", Room{ID: "r2", Name: "x", Closed: true, Schedule: weekdays(0, 23)}, time.Monday, 10, false},
		{"hour out of range", r, time.Monday, 24, false},
		{"negative hour", r, time.Monday, -1, false},
		{"inverted schedule reads closed", Room{ID: "r3", Name: "y", Schedule: []DaySchedule{{DayOfWeek: 0, OpenHour: 18, CloseHour: 9}}}, time.Monday, 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsOpenAt(tt.room, tt.wd, tt.hour))
		})
	}
}

func TestRoomValidate(t *testing.T) {
	require.NoError(t, Room{ID: "r1", Name: "Hall", Schedule: weekdays(9, 17)}.Validate())

	dup := Room{ID: "r1", Name: "Hall", Schedule: []DaySchedule{{DayOfWeek: 1, OpenHour: 9, CloseHour: 10}, {DayOfWeek: 1, OpenHour: 11, CloseHour: 12}}}
	assert.Error(t, dup.Validate())

	bad := Room{ID: "r1", Name: "Hall", Schedule: []DaySchedule{{DayOfWeek: 7, OpenHour: 9, CloseHour: 10}}}
	assert.Error(t, bad.Validate())
}

func TestSectionValidate(t *testing.T) {
	require.NoError(t, Section{ID: "s1", RoomID: "r1", Name: "A", Capacity: 0}.Validate())
	assert.Error(t, Section{ID: "s1", RoomID: "r1", Name: "A", Capacity: -1}.Validate())
	assert.Error(t, Section{ID: "s1", Name: "A"}.Validate())
}
