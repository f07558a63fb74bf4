package mongo

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/example/room-booker/internal/domain/reservation"
	"github.com/example/room-booker/internal/domain/room"
)

type scheduleDoc struct {
	DayOfWeek int `bson:"dayOfWeek"`
	OpenHour  int `bson:"openHour"`
	CloseHour int `bson:"closeHour"`
}

type roomDoc struct {
	ID        string        `bson:"_id"`
	Name      string        `bson:"name"`
	NameLower string        `bson:"nameLower"`
	Closed    bool          `bson:"closed"`
	Schedule  []scheduleDoc `bson:"schedule"`
}

func (d roomDoc) toDomain() room.Room {
	rm := room.Room{ID: d.ID, Name: d.Name, Closed: d.Closed}
	for _, s := range d.Schedule {
		rm.Schedule = append(rm.Schedule, room.DaySchedule{DayOfWeek: s.DayOfWeek, OpenHour: s.OpenHour, CloseHour: s.CloseHour})
	}
	return rm
}

type sectionDoc struct {
	ID        string `bson:"_id"`
	RoomID    string `bson:"roomId"`
	Name      string `bson:"name"`
	NameLower string `bson:"nameLower"`
	Capacity  int    `bson:"capacity"`
}

func (d sectionDoc) toDomain() room.Section {
	return room.Section{ID: d.ID, RoomID: d.RoomID, Name: d.Name, Capacity: d.Capacity}
}

type CatalogRepo struct {
	rooms    *mongo.Collection
	sections *mongo.Collection
}

func NewCatalogRepo(d *DB) *CatalogRepo {
	return &CatalogRepo{rooms: d.collection(roomsCollection), sections: d.collection(sectionsCollection)}
}

func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (c *CatalogRepo) findRoom(ctx context.Context, filter bson.M) (room.Room, error) {
	var doc roomDoc
	err := c.rooms.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return room.Room{}, reservation.ErrNotFound
	}
	if err != nil {
		return room.Room{}, err
	}
	return doc.toDomain(), nil
}

func (c *CatalogRepo) findSection(ctx context.Context, filter bson.M) (room.Section, error) {
	var doc sectionDoc
	err := c.sections.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return room.Section{}, reservation.ErrNotFound
	}
	if err != nil {
		return room.Section{}, err
	}
	return doc.toDomain(), nil
}

func (c *CatalogRepo) GetRoom(ctx context.Context, id string) (room.Room, error) {
	return c.findRoom(ctx, bson.M{"_id": id})
}

func (c *CatalogRepo) FindRoomByName(ctx context.Context, name string) (room.Room, error) {
	return c.findRoom(ctx, bson.M{"nameLower": lower(name)})
}

func (c *CatalogRepo) GetSection(ctx context.Context, id string) (room.Section, error) {
	return c.findSection(ctx, bson.M{"_id": id})
}

func (c *CatalogRepo) FindSectionByName(ctx context.Context, roomID, name string) (room.Section, error) {
	return c.findSection(ctx, bson.M{"roomId": roomID, "nameLower": lower(name)})
}

func (c *CatalogRepo) ListRooms(ctx context.Context) ([]room.Room, error) {
	cur, err := c.rooms.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []roomDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]room.Room, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (c *CatalogRepo) ListSections(ctx context.Context, roomID string) ([]room.Section, error) {
	cur, err := c.sections.Find(ctx, bson.M{"roomId": roomID}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []sectionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]room.Section, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (c *CatalogRepo) UpsertRoom(ctx context.Context, rm room.Room) error {
	if err := rm.Validate(); err != nil {
		return err
	}
	doc := roomDoc{ID: rm.ID, Name: rm.Name, NameLower: lower(rm.Name), Closed: rm.Closed}
	for _, s := range rm.Schedule {
		doc.Schedule = append(doc.Schedule, scheduleDoc{DayOfWeek: s.DayOfWeek, OpenHour: s.OpenHour, CloseHour: s.CloseHour})
	}
	_, err := c.rooms.ReplaceOne(ctx, bson.M{"_id": rm.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (c *CatalogRepo) UpsertSection(ctx context.Context, s room.Section) error {
	if err := s.Validate(); err != nil {
		return err
	}
	doc := sectionDoc{ID: s.ID, RoomID: s.RoomID, Name: s.Name, NameLower: lower(s.Name), Capacity: s.Capacity}
	_, err := c.sections.ReplaceOne(ctx, bson.M{"_id": s.ID}, doc, options.Replace().SetUpsert(true))
	return err
}
