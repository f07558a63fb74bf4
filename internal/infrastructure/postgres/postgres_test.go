package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-booker/internal/db"
	"github.com/example/room-booker/internal/domain/reservation"
	"github.com/example/room-booker/internal/domain/room"
	"github.com/example/room-booker/internal/domain/user"
	"github.com/example/room-booker/internal/migrate"
)

// openTestDB connects to TEST_DATABASE_URL and applies migrations; tests skip without it.
func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	d, err := db.Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(d.Close)
	require.NoError(t, d.Ping(ctx))
	require.NoError(t, migrate.Up(ctx, d, nil))
	return d
}

func seedSection(t *testing.T, d *db.DB) (room.Room, room.Section) {
	t.Helper()
	ctx := context.Background()
	cat := NewCatalogRepo(d)
	rm := room.Room{
		ID:       uuid.NewString(),
		Name:     "Room " + uuid.NewString()[:8],
		Schedule: []room.DaySchedule{{DayOfWeek: 2, OpenHour: 9, CloseHour: 17}},
	}
	require.NoError(t, cat.UpsertRoom(ctx, rm))
	sec := room.Section{ID: uuid.NewString(), RoomID: rm.ID, Name: "A", Capacity: 5}
	require.NoError(t, cat.UpsertSection(ctx, sec))
	return rm, sec
}

func TestCatalogRepo(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	rm, sec := seedSection(t, d)
	cat := NewCatalogRepo(d)

	got, err := cat.FindRoomByName(ctx, rm.Name)
	require.NoError(t, err)
	assert.Equal(t, rm.ID, got.ID)
	assert.Equal(t, rm.Schedule, got.Schedule)

	s, err := cat.FindSectionByName(ctx, rm.ID, "a")
	require.NoError(t, err)
	assert.Equal(t, sec, s)

	_, err = cat.GetRoom(ctx, uuid.NewString())
	assert.ErrorIs(t, err, reservation.ErrNotFound)
	_, err = cat.FindSectionByName(ctx, rm.ID, "nope")
	assert.ErrorIs(t, err, reservation.ErrNotFound)
}

func TestReservationRepoUniqueness(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	_, sec := seedSection(t, d)
	repo := NewReservationRepo(d)
	at := time.Date(2031, 10, 22, 18, 0, 0, 0, time.UTC)

	res, err := repo.CreateReservation(ctx, sec.ID, at, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, res.Users)

	_, err = repo.CreateReservation(ctx, sec.ID, at, "bob")
	assert.ErrorIs(t, err, reservation.ErrConflict)

	got, err := repo.FindReservation(ctx, sec.ID, at)
	require.NoError(t, err)
	assert.Equal(t, res.ID, got.ID)
	assert.Equal(t, []string{"alice"}, got.Users)

	_, err = repo.FindReservation(ctx, sec.ID, at.Add(time.Hour))
	assert.ErrorIs(t, err, reservation.ErrNotFound)

	rs, err := repo.FindReservations(ctx, sec.ID, at.Add(-time.Hour), at.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, rs, 1)

	mine, err := repo.ListReservationsByUser(ctx, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, mine)
}

func TestReservationRepoConcurrentCreate(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	_, sec := seedSection(t, d)
	repo := NewReservationRepo(d)
	at := time.Date(2031, 10, 22, 11, 0, 0, 0, time.UTC)

	var mu sync.Mutex
	wins, conflicts := 0, 0
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.CreateReservation(ctx, sec.ID, at, uuid.NewString())
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
			} else if assert.ErrorIs(t, err, reservation.ErrConflict) {
				conflicts++
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
	assert.Equal(t, 7, conflicts)
}

func TestUserRepo(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	repo := NewUserRepo(d)
	u := user.User{ID: uuid.NewString(), Username: "u" + uuid.NewString()[:8], PasswordHash: "$2a$10$hash", CreatedAt: time.Now().UTC()}

	require.NoError(t, repo.Create(ctx, u))
	assert.ErrorIs(t, repo.Create(ctx, user.User{ID: uuid.NewString(), Username: u.Username, PasswordHash: "x"}), user.ErrUsernameTaken)

	got, err := repo.GetByUsername(ctx, u.Username)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, user.ErrNotFound)
}
