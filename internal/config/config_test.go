package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(env map[string]string) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range env {
		v.Set(k, val)
	}
	return v
}

func TestDefaults(t *testing.T) {
	cfg, err := fromViper(newViper(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, "memory", cfg.SessionBackend)
	assert.Equal(t, 10*time.Minute, cfg.IdleTimeout)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	assert.Equal(t, 10*time.Second, cfg.CommitTimeout)
	assert.Equal(t, 14, cfg.WindowDays)
	assert.Equal(t, "America/Toronto", cfg.Location.String())
	assert.Error(t, cfg.RequireCookieKeys())
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "driver", env: map[string]string{"STORE_DRIVER": "sqlite"}},
		{name: "session backend", env: map[string]string{"SESSION_BACKEND": "etcd"}},
		{name: "idle timeout", env: map[string]string{"SESSION_IDLE_TIMEOUT": "soon"}},
		{name: "sweep", env: map[string]string{"SESSION_SWEEP_SECONDS": "0"}},
		{name: "window", env: map[string]string{"BOOKING_WINDOW_DAYS": "0"}},
		{name: "timezone", env: map[string]string{"OPERATING_TIMEZONE": "Mars/Olympus"}},
		{name: "cookie key", env: map[string]string{"COOKIE_HASH_KEY": "***"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fromViper(newViper(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestCookieKeysFromFile(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	path := filepath.Join(t.TempDir(), "hash.key")
	require.NoError(t, os.WriteFile(path, []byte(base64.StdEncoding.EncodeToString(key)+"\n"), 0o600))

	cfg, err := fromViper(newViper(map[string]string{
		"COOKIE_HASH_KEY":  path,
		"COOKIE_BLOCK_KEY": base64.RawStdEncoding.EncodeToString(key),
	}))
	require.NoError(t, err)
	assert.Equal(t, key, cfg.CookieHashKey)
	assert.Equal(t, key, cfg.CookieBlockKey)
	assert.NoError(t, cfg.RequireCookieKeys())
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rooms:
  - id: r1
    name: Study Hall
    schedule:
      - {day_of_week: 0, open_hour: 9, close_hour: 17}
      - {day_of_week: 2, open_hour: 9, close_hour: 21}
    sections:
      - {id: s1, name: A, capacity: 5}
      - {id: s2, name: B, capacity: 2}
  - id: r2
    name: Gym
    closed: true
`), 0o600))

	rooms, sections, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "Study Hall", rooms[0].Name)
	assert.Len(t, rooms[0].Schedule, 2)
	assert.Equal(t, 21, rooms[0].Schedule[1].CloseHour)
	assert.True(t, rooms[1].Closed)
	require.Len(t, sections, 2)
	assert.Equal(t, "r1", sections[1].RoomID)
	assert.Equal(t, 2, sections[1].Capacity)
}

func TestLoadCatalogRejectsBadSchedule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rooms:
  - id: r1
    name: Backwards
    schedule:
      - {day_of_week: 1, open_hour: 18, close_hour: 9}
`), 0o600))

	_, _, err := LoadCatalog(path)
	assert.Error(t, err)
}
