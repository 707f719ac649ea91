package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/fueltrack/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names in the Mongo database.
const (
	VehiclesCollection = "vehicles"
	EntriesCollection  = "fuel_entries"
	TicketsCollection  = "support_tickets"
	UsersCollection    = "users"
)

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// NewMongoStore wires the collections of database into a Store and makes sure
// the indexes used by the ownership filters exist.
func NewMongoStore(ctx context.Context, client *mongo.Client, database string) (*Store, error) {
	mdb := client.Database(database)
	if err := EnsureIndexes(ctx, mdb); err != nil {
		return nil, err
	}
	return &Store{
		Vehicles: &MongoCollection{Collection: mdb.Collection(VehiclesCollection)},
		Entries:  &MongoCollection{Collection: mdb.Collection(EntriesCollection)},
		Tickets:  &MongoCollection{Collection: mdb.Collection(TicketsCollection)},
		Users:    &MongoUserCollection{Collection: mdb.Collection(UsersCollection)},
		Close:    client.Disconnect,
	}, nil
}

// EnsureIndexes creates the owner and uniqueness indexes.
func EnsureIndexes(ctx context.Context, mdb *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		VehiclesCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		EntriesCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "vehicle_id", Value: 1}, {Key: "date", Value: -1}}},
		},
		TicketsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		UsersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for name, idx := range indexes {
		if _, err := mdb.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// MongoCollection wraps a MongoDB collection. One instance is created per
// collection; it implements VehicleCollection, EntryCollection and TicketCollection.
type MongoCollection struct {
	Collection *mongo.Collection
}

var (
	_ VehicleCollection = (*MongoCollection)(nil)
	_ EntryCollection   = (*MongoCollection)(nil)
	_ TicketCollection  = (*MongoCollection)(nil)
)

var errNilCollection = errors.New("mongo collection is nil")

// ownedFilter matches the document with the given hex id owned by userID.
// A malformed id can never match, so it is reported as not found.
func ownedFilter(id, userID string) (bson.M, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}
	return bson.M{"_id": objectID, "user_id": userID}, nil
}

func (c *MongoCollection) check() error {
	if c.Collection == nil {
		return errNilCollection
	}
	return nil
}

// ListVehicles returns the user's vehicles in creation order.
func (c *MongoCollection) ListVehicles(ctx context.Context, userID string) ([]models.Vehicle, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := c.Collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, models.WrapStorage("list vehicles", err)
	}
	vehicles := []models.Vehicle{}
	if err := cursor.All(ctx, &vehicles); err != nil {
		return nil, models.WrapStorage("decode vehicles", err)
	}
	return vehicles, nil
}

// InsertVehicle inserts a vehicle record into the collection.
func (c *MongoCollection) InsertVehicle(ctx context.Context, vehicle models.Vehicle) error {
	if err := c.check(); err != nil {
		return err
	}
	_, err := c.Collection.InsertOne(ctx, vehicle)
	return models.WrapStorage("insert vehicle", err)
}

// FindVehicle finds a vehicle by its ID.
func (c *MongoCollection) FindVehicle(ctx context.Context, id, userID string) (*models.Vehicle, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	filter, err := ownedFilter(id, userID)
	if err != nil {
		return nil, err
	}

	var vehicle models.Vehicle
	err = c.Collection.FindOne(ctx, filter).Decode(&vehicle)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, models.WrapStorage("find vehicle", err)
	}
	return &vehicle, nil
}

// ResetMaintenance records an oil change at odometer.
func (c *MongoCollection) ResetMaintenance(ctx context.Context, id, userID string, odometer float64) error {
	return c.updateVehicle(ctx, id, userID, bson.M{
		"$set": bson.M{"oil_last_odo": odometer, "updated_at": time.Now()},
	})
}

// SetOdometerOverride stores or clears the manual odometer reading.
func (c *MongoCollection) SetOdometerOverride(ctx context.Context, id, userID string, odometer *float64) error {
	now := time.Now()
	update := bson.M{"$unset": bson.M{"odometer_override": ""}, "$set": bson.M{"updated_at": now}}
	if odometer != nil {
		update = bson.M{"$set": bson.M{"odometer_override": *odometer, "updated_at": now}}
	}
	return c.updateVehicle(ctx, id, userID, update)
}

func (c *MongoCollection) updateVehicle(ctx context.Context, id, userID string, update bson.M) error {
	if err := c.check(); err != nil {
		return err
	}
	filter, err := ownedFilter(id, userID)
	if err != nil {
		return err
	}
	result, err := c.Collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return models.WrapStorage("update vehicle", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteVehicle deletes a vehicle by its ID.
func (c *MongoCollection) DeleteVehicle(ctx context.Context, id, userID string) error {
	return c.deleteOne(ctx, id, userID, "delete vehicle")
}

// ListEntries queries the user's fuel entries, newest first.
func (c *MongoCollection) ListEntries(ctx context.Context, userID, vehicleID string) ([]models.FuelEntry, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	filter := bson.M{"user_id": userID}
	if vehicleID != "" {
		filter["vehicle_id"] = vehicleID
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "date", Value: -1},
		{Key: "time", Value: -1},
		{Key: "created_at", Value: -1},
	})
	cursor, err := c.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, models.WrapStorage("list entries", err)
	}
	entries := []models.FuelEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, models.WrapStorage("decode entries", err)
	}
	return entries, nil
}

// InsertEntry inserts a fuel entry into the collection.
func (c *MongoCollection) InsertEntry(ctx context.Context, entry models.FuelEntry) error {
	if err := c.check(); err != nil {
		return err
	}
	_, err := c.Collection.InsertOne(ctx, entry)
	return models.WrapStorage("insert entry", err)
}

// FindEntry finds a fuel entry by its ID.
func (c *MongoCollection) FindEntry(ctx context.Context, id, userID string) (*models.FuelEntry, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	filter, err := ownedFilter(id, userID)
	if err != nil {
		return nil, err
	}

	var entry models.FuelEntry
	err = c.Collection.FindOne(ctx, filter).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, models.WrapStorage("find entry", err)
	}
	return &entry, nil
}

// UpdateEntry writes the editable fields of entry.
func (c *MongoCollection) UpdateEntry(ctx context.Context, entry models.FuelEntry) error {
	if err := c.check(); err != nil {
		return err
	}
	filter := bson.M{"_id": entry.ID, "user_id": entry.UserID}
	set := bson.M{
		"liters":          entry.Liters,
		"price_per_liter": entry.PricePerLiter,
		"cost":            entry.Cost,
		"updated_at":      entry.UpdatedAt,
	}
	if entry.Odometer != nil {
		set["odometer"] = *entry.Odometer
	}
	result, err := c.Collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return models.WrapStorage("update entry", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteEntry deletes a fuel entry by its ID.
func (c *MongoCollection) DeleteEntry(ctx context.Context, id, userID string) error {
	return c.deleteOne(ctx, id, userID, "delete entry")
}

// DeleteEntriesByVehicle removes every entry of a vehicle.
func (c *MongoCollection) DeleteEntriesByVehicle(ctx context.Context, vehicleID, userID string) (int64, error) {
	if err := c.check(); err != nil {
		return 0, err
	}
	result, err := c.Collection.DeleteMany(ctx, bson.M{"vehicle_id": vehicleID, "user_id": userID})
	if err != nil {
		return 0, models.WrapStorage("delete vehicle entries", err)
	}
	return result.DeletedCount, nil
}

func (c *MongoCollection) deleteOne(ctx context.Context, id, userID, op string) error {
	if err := c.check(); err != nil {
		return err
	}
	filter, err := ownedFilter(id, userID)
	if err != nil {
		return err
	}
	result, err := c.Collection.DeleteOne(ctx, filter)
	if err != nil {
		return models.WrapStorage(op, err)
	}
	if result.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// InsertTicket inserts a support ticket.
func (c *MongoCollection) InsertTicket(ctx context.Context, ticket models.SupportTicket) error {
	if err := c.check(); err != nil {
		return err
	}
	_, err := c.Collection.InsertOne(ctx, ticket)
	return models.WrapStorage("insert ticket", err)
}

// ListTickets returns tickets newest first.
func (c *MongoCollection) ListTickets(ctx context.Context, userID string) ([]models.SupportTicket, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	filter := bson.M{}
	if userID != "" {
		filter["user_id"] = userID
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := c.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, models.WrapStorage("list tickets", err)
	}
	tickets := []models.SupportTicket{}
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, models.WrapStorage("decode tickets", err)
	}
	return tickets, nil
}
