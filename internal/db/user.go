package db

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/fueltrack/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoUserCollection implements UserCollection for MongoDB
type MongoUserCollection struct {
	Collection *mongo.Collection
}

var _ UserCollection = (*MongoUserCollection)(nil)

// InsertUser inserts a new user into the database
func (c *MongoUserCollection) InsertUser(ctx context.Context, user models.User) error {
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	user.IsActive = true

	_, err := c.Collection.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrConflict
	}
	return models.WrapStorage("insert user", err)
}

// FindUserByID finds a user by their ID
func (c *MongoUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}
	return c.findOne(ctx, bson.M{"_id": objectID})
}

// FindUserByUsername finds a user by their username
func (c *MongoUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return c.findOne(ctx, bson.M{"username": username})
}

// FindUserByEmail finds a user by their email
func (c *MongoUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return c.findOne(ctx, bson.M{"email": email})
}

func (c *MongoUserCollection) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := c.Collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, models.WrapStorage("find user", err)
	}
	return &user, nil
}

// ListActiveUsers returns every active user, used for announcements
func (c *MongoUserCollection) ListActiveUsers(ctx context.Context) ([]models.User, error) {
	cursor, err := c.Collection.Find(ctx, bson.M{"is_active": true})
	if err != nil {
		return nil, models.WrapStorage("list users", err)
	}
	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, models.WrapStorage("decode users", err)
	}
	return users, nil
}

// UpdateUser updates a user in the database
func (c *MongoUserCollection) UpdateUser(ctx context.Context, id string, user models.User) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrNotFound
	}

	user.UpdatedAt = time.Now()
	user.ID = objectID

	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": objectID}, user)
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrConflict
	}
	if err != nil {
		return models.WrapStorage("update user", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdateLastLogin updates the last login time for a user
func (c *MongoUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrNotFound
	}

	now := time.Now()
	_, err = c.Collection.UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"last_login": now, "updated_at": now}},
	)
	return models.WrapStorage("update last login", err)
}
