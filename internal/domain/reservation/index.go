package reservation

import "time"

// Index keys reservations by their start instant, truncated to the minute.
type Index map[int64]Reservation

func NewIndex(rs []Reservation) Index {
	idx := make(Index, len(rs))
	for _, r := range rs {
		k := indexKey(r.StartsAt)
		// Keep the earliest created if a store ever hands back duplicates.
		if existing, ok := idx[k]; ok && !r.CreatedAt.Before(existing.CreatedAt) {
			continue
		}
		idx[k] = r
	}
	return idx
}

func (idx Index) Has(startsAt time.Time) bool {
	_, ok := idx[indexKey(startsAt)]
	return ok
}

func indexKey(t time.Time) int64 {
	return t.Truncate(time.Minute).Unix()
}
