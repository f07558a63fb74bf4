package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/example/room-booker/internal/db"
	"github.com/example/room-booker/internal/domain/reservation"
)

// ReservationRepo stores reservations in PostgreSQL. The UNIQUE (section_id, starts_at)
// constraint is what settles concurrent bookings of the same hour.
type ReservationRepo struct{ db *db.DB }

func NewReservationRepo(d *db.DB) *ReservationRepo { return &ReservationRepo{db: d} }

const selectReservations = `
SELECT r.id, r.section_id, r.starts_at, r.booker, r.created_at,
       COALESCE(array_agg(ru.user_id ORDER BY ru.user_id) FILTER (WHERE ru.user_id IS NOT NULL), '{}')
FROM reservations r
LEFT JOIN reservation_users ru ON ru.reservation_id = r.id
`

func (r *ReservationRepo) FindReservations(ctx context.Context, sectionID string, from, to time.Time) ([]reservation.Reservation, error) {
	rows, err := r.db.Query(ctx, selectReservations+`
WHERE r.section_id=$1 AND r.starts_at >= $2 AND r.starts_at < $3
GROUP BY r.id
ORDER BY r.starts_at ASC`, sectionID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	return scanReservations(rows)
}

func (r *ReservationRepo) FindReservation(ctx context.Context, sectionID string, startsAt time.Time) (reservation.Reservation, error) {
	var res reservation.Reservation
	err := r.db.QueryRow(ctx, selectReservations+`
WHERE r.section_id=$1 AND r.starts_at=$2
GROUP BY r.id`, sectionID, startsAt.UTC()).
		Scan(&res.ID, &res.SectionID, &res.StartsAt, &res.Booker, &res.CreatedAt, &res.Users)
	if err != nil {
		if db.IsNotFound(err) {
			return reservation.Reservation{}, reservation.ErrNotFound
		}
		return reservation.Reservation{}, db.WrapNotFound(err)
	}
	return res, nil
}

func (r *ReservationRepo) CreateReservation(ctx context.Context, sectionID string, startsAt time.Time, booker string) (reservation.Reservation, error) {
	res := reservation.Reservation{
		ID:        uuid.NewString(),
		SectionID: sectionID,
		StartsAt:  startsAt.UTC(),
		Booker:    booker,
		Users:     []string{booker},
	}
	err := r.db.InTx(ctx, func(tx db.Tx) error {
		if err := tx.QueryRow(ctx, `
INSERT INTO reservations(id, section_id, starts_at, booker)
VALUES ($1,$2,$3,$4)
RETURNING created_at`, res.ID, res.SectionID, res.StartsAt, res.Booker).Scan(&res.CreatedAt); err != nil {
			return err
		}
		return tx.Exec(ctx, `INSERT INTO reservation_users(reservation_id, user_id) VALUES ($1,$2)`, res.ID, booker)
	})
	if db.IsUniqueViolation(err) {
		return reservation.Reservation{}, reservation.ErrConflict
	}
	if err != nil {
		return reservation.Reservation{}, db.WrapNotFound(err)
	}
	return res, nil
}

func (r *ReservationRepo) ListReservationsByUser(ctx context.Context, userID string) ([]reservation.Reservation, error) {
	rows, err := r.db.Query(ctx, selectReservations+`
WHERE r.booker=$1
   OR EXISTS (SELECT 1 FROM reservation_users x WHERE x.reservation_id = r.id AND x.user_id = $1)
GROUP BY r.id
ORDER BY r.starts_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	return scanReservations(rows)
}

func scanReservations(rows db.Rows) ([]reservation.Reservation, error) {
	defer rows.Close()

	var out []reservation.Reservation
	for rows.Next() {
		var res reservation.Reservation
		if err := rows.Scan(&res.ID, &res.SectionID, &res.StartsAt, &res.Booker, &res.CreatedAt, &res.Users); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
