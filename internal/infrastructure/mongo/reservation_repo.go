package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/example/room-booker/internal/domain/reservation"
)

type reservationDoc struct {
	ID        string    `bson:"_id"`
	SectionID string    `bson:"sectionId"`
	StartsAt  time.Time `bson:"startsAt"`
	Booker    string    `bson:"booker"`
	Users     []string  `bson:"users"`
	CreatedAt time.Time `bson:"createdAt"`
}

func (d reservationDoc) toDomain() reservation.Reservation {
	return reservation.Reservation{
		ID:        d.ID,
		SectionID: d.SectionID,
		StartsAt:  d.StartsAt,
		Booker:    d.Booker,
		Users:     d.Users,
		CreatedAt: d.CreatedAt,
	}
}

type ReservationRepo struct {
	coll *mongo.Collection
}

func NewReservationRepo(d *DB) *ReservationRepo {
	return &ReservationRepo{coll: d.collection(reservationsCollection)}
}

func (r *ReservationRepo) FindReservations(ctx context.Context, sectionID string, from, to time.Time) ([]reservation.Reservation, error) {
	filter := bson.M{
		"sectionId": sectionID,
		"startsAt":  bson.M{"$gte": from.UTC(), "$lt": to.UTC()},
	}
	return r.find(ctx, filter)
}

func (r *ReservationRepo) FindReservation(ctx context.Context, sectionID string, startsAt time.Time) (reservation.Reservation, error) {
	var doc reservationDoc
	err := r.coll.FindOne(ctx, bson.M{"sectionId": sectionID, "startsAt": startsAt.UTC()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return reservation.Reservation{}, reservation.ErrNotFound
	}
	if err != nil {
		return reservation.Reservation{}, err
	}
	return doc.toDomain(), nil
}

func (r *ReservationRepo) CreateReservation(ctx context.Context, sectionID string, startsAt time.Time, booker string) (reservation.Reservation, error) {
	doc := reservationDoc{
		ID:        uuid.NewString(),
		SectionID: sectionID,
		StartsAt:  startsAt.UTC().Truncate(time.Millisecond),
		Booker:    booker,
		Users:     []string{booker},
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return reservation.Reservation{}, reservation.ErrConflict
		}
		return reservation.Reservation{}, err
	}
	return doc.toDomain(), nil
}

func (r *ReservationRepo) ListReservationsByUser(ctx context.Context, userID string) ([]reservation.Reservation, error) {
	return r.find(ctx, bson.M{"$or": bson.A{bson.M{"booker": userID}, bson.M{"users": userID}}})
}

func (r *ReservationRepo) find(ctx context.Context, filter bson.M) ([]reservation.Reservation, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "startsAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []reservationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]reservation.Reservation, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}
