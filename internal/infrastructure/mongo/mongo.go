package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	roomsCollection        = "rooms"
	sectionsCollection     = "sections"
	reservationsCollection = "reservations"
	usersCollection        = "users"
)

// DB bundles the collections the repositories use.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

func Connect(ctx context.Context, uri, database string) (*DB, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}
	return &DB{client: client, db: client.Database(database)}, nil
}

func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

func (d *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return d.client.Ping(ctx, nil)
}

func (d *DB) collection(name string) *mongo.Collection {
	return d.db.Collection(name)
}

// EnsureIndexes creates the indexes every repository relies on. The unique
// reservations index is what settles concurrent bookings of the same hour.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	byCollection := map[string][]mongo.IndexModel{
		reservationsCollection: {
			{
				Keys:    bson.D{{Key: "sectionId", Value: 1}, {Key: "startsAt", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_section_start"),
			},
			{
				Keys:    bson.D{{Key: "users", Value: 1}, {Key: "startsAt", Value: 1}},
				Options: options.Index().SetName("users_start_idx"),
			},
		},
		roomsCollection: {
			{
				Keys:    bson.D{{Key: "nameLower", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_name"),
			},
		},
		sectionsCollection: {
			{
				Keys:    bson.D{{Key: "roomId", Value: 1}, {Key: "nameLower", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_room_name"),
			},
		},
		usersCollection: {
			{
				Keys:    bson.D{{Key: "username", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_username"),
			},
		},
	}

	for name, models := range byCollection {
		if _, err := d.collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", name, err)
		}
	}
	return nil
}
