package booking

import (
	"context"
	"sync"
	"time"

	"github.com/example/room-booker/internal/metrics"
)

type memEntry struct {
	session   *Session
	expiresAt time.Time
}

// MemorySessionStore keeps sessions in process memory. Suitable for a single instance.
type MemorySessionStore struct {
	Now func() time.Time

	mu      sync.Mutex
	entries map[string]memEntry
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{Now: time.Now, entries: map[string]memEntry{}}
}

func (m *MemorySessionStore) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

func (m *MemorySessionStore) Load(_ context.Context, key string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok || (!e.expiresAt.IsZero() && !m.now().Before(e.expiresAt)) {
		return nil, ErrSessionNotFound
	}
	return e.session.Clone(), nil
}

func (m *MemorySessionStore) Save(_ context.Context, s *Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = map[string]memEntry{}
	}
	e := memEntry{session: s.Clone()}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.entries[s.Key] = e
	metrics.ActiveSessions.Set(float64(len(m.entries)))
	return nil
}

func (m *MemorySessionStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	metrics.ActiveSessions.Set(float64(len(m.entries)))
	return nil
}

// IdleKeys lists sessions whose last activity is not after cutoff.
func (m *MemorySessionStore) IdleKeys(_ context.Context, cutoff time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k, e := range m.entries {
		if !e.session.LastActivity.After(cutoff) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
