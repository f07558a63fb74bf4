package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/example/room-booker/internal/domain/user"
)

type userDoc struct {
	ID             string    `bson:"_id"`
	Username       string    `bson:"username"`
	PasswordBcrypt string    `bson:"passwordBcrypt"`
	CreatedAt      time.Time `bson:"createdAt"`
}

type UserRepo struct {
	coll *mongo.Collection
}

func NewUserRepo(d *DB) *UserRepo {
	return &UserRepo{coll: d.collection(usersCollection)}
}

func (r *UserRepo) Create(ctx context.Context, u user.User) error {
	_, err := r.coll.InsertOne(ctx, userDoc{ID: u.ID, Username: u.Username, PasswordBcrypt: u.PasswordHash, CreatedAt: u.CreatedAt})
	if mongo.IsDuplicateKeyError(err) {
		return user.ErrUsernameTaken
	}
	return err
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.M) (user.User, error) {
	var doc userDoc
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, err
	}
	return user.User{ID: doc.ID, Username: doc.Username, PasswordHash: doc.PasswordBcrypt, CreatedAt: doc.CreatedAt}, nil
}
