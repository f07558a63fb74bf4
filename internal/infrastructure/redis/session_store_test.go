package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-booker/internal/availability"
	"github.com/example/room-booker/internal/booking"
	"github.com/example/room-booker/internal/domain/room"
)

func testStore(t *testing.T) *SessionStore {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	cfg := DefaultConfig()
	cfg.Addr = addr
	cfg.MaxRetries = 0
	client, err := Connect(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionStore(client)
}

func TestSessionStoreRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	rm := room.Room{ID: "r1", Name: "Study Hall", Schedule: []room.DaySchedule{{DayOfWeek: 2, OpenHour: 9, CloseHour: 17}}}
	sec := room.Section{ID: "s1", RoomID: "r1", Name: "A", Capacity: 5}
	now := time.Date(2026, 10, 21, 10, 30, 0, 0, time.UTC)
	sess := booking.NewSession(uuid.NewString(), "alice", rm, sec, now)
	sess.State = booking.AwaitingSlot
	sess.SelectedDate = availability.Date{Year: 2026, Month: time.October, Day: 21}
	sess.Slots = []availability.Slot{{StartsAt: now.Add(30 * time.Minute), EndsAt: now.Add(90 * time.Minute), AvailableCapacity: 5}}

	require.NoError(t, store.Save(ctx, sess, time.Minute))
	got, err := store.Load(ctx, sess.Key)
	require.NoError(t, err)
	assert.Equal(t, sess.SelectedDate, got.SelectedDate)
	assert.Equal(t, booking.AwaitingSlot, got.State)
	require.Len(t, got.Slots, 1)
	assert.True(t, got.Slots[0].StartsAt.Equal(sess.Slots[0].StartsAt))
	assert.Equal(t, rm.Schedule, got.Room.Schedule)

	require.NoError(t, store.Delete(ctx, sess.Key))
	_, err = store.Load(ctx, sess.Key)
	assert.ErrorIs(t, err, booking.ErrSessionNotFound)
}

func TestSessionStoreTTL(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	sess := booking.NewSession(uuid.NewString(), "alice", room.Room{ID: "r1", Name: "x"}, room.Section{ID: "s1"}, time.Now())

	require.NoError(t, store.Save(ctx, sess, 100*time.Millisecond))
	time.Sleep(300 * time.Millisecond)
	_, err := store.Load(ctx, sess.Key)
	assert.ErrorIs(t, err, booking.ErrSessionNotFound)
}
