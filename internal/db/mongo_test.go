package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fueltrack/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestConnectMongo_BadURI(t *testing.T) {
	client, err := ConnectMongo(context.Background(), "mongodb://bad:uri")
	if err == nil {
		t.Error("expected error for bad URI, got nil")
	}
	if client != nil {
		t.Error("expected nil client on error")
	}
}

func TestMongoCollection_NilCollection(t *testing.T) {
	coll := &MongoCollection{Collection: nil}
	ctx := context.Background()

	assert.Error(t, coll.InsertVehicle(ctx, models.Vehicle{}))
	assert.Error(t, coll.InsertEntry(ctx, models.FuelEntry{}))
	assert.Error(t, coll.InsertTicket(ctx, models.SupportTicket{}))
	_, err := coll.ListEntries(ctx, "u1", "")
	assert.Error(t, err)
}

func TestOwnedFilter(t *testing.T) {
	id := primitive.NewObjectID()
	filter, err := ownedFilter(id.Hex(), "u1")
	require.NoError(t, err)
	assert.Equal(t, id, filter["_id"])
	assert.Equal(t, "u1", filter["user_id"])

	_, err = ownedFilter("not-an-object-id", "u1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

// mongoTestStore connects to MONGO_URI and returns a store on a scratch database.
func mongoTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := ConnectMongo(ctx, uri)
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	mdb := client.Database("test_fueltrack")
	require.NoError(t, mdb.Drop(ctx))

	store, err := NewMongoStore(ctx, client, "test_fueltrack")
	require.NoError(t, err)
	t.Cleanup(func() {
		mdb.Drop(context.Background())
		client.Disconnect(context.Background())
	})
	return store
}

func TestMongoStore_VehicleLifecycle_Integration(t *testing.T) {
	store := mongoTestStore(t)
	ctx := context.Background()

	vehicle, err := models.NewVehicle("owner", models.CreateVehicleRequest{Name: "Commuter", Type: models.VehicleBike})
	require.NoError(t, err)
	require.NoError(t, store.Vehicles.InsertVehicle(ctx, vehicle))

	_, err = store.Vehicles.FindVehicle(ctx, vehicle.ID.Hex(), "intruder")
	assert.ErrorIs(t, err, models.ErrNotFound)

	for i := 0; i < 2; i++ {
		require.NoError(t, store.Vehicles.ResetMaintenance(ctx, vehicle.ID.Hex(), "owner", 4200))
	}
	found, err := store.Vehicles.FindVehicle(ctx, vehicle.ID.Hex(), "owner")
	require.NoError(t, err)
	assert.Equal(t, 4200.0, found.OilLastOdo)

	override := 4300.0
	require.NoError(t, store.Vehicles.SetOdometerOverride(ctx, vehicle.ID.Hex(), "owner", &override))
	found, err = store.Vehicles.FindVehicle(ctx, vehicle.ID.Hex(), "owner")
	require.NoError(t, err)
	require.NotNil(t, found.OdometerOverride)
	assert.Equal(t, override, *found.OdometerOverride)

	require.NoError(t, store.Vehicles.SetOdometerOverride(ctx, vehicle.ID.Hex(), "owner", nil))
	found, err = store.Vehicles.FindVehicle(ctx, vehicle.ID.Hex(), "owner")
	require.NoError(t, err)
	assert.Nil(t, found.OdometerOverride)

	assert.ErrorIs(t, store.Vehicles.ResetMaintenance(ctx, vehicle.ID.Hex(), "intruder", 1), models.ErrNotFound)
	assert.ErrorIs(t, store.Vehicles.DeleteVehicle(ctx, vehicle.ID.Hex(), "intruder"), models.ErrNotFound)
	require.NoError(t, store.Vehicles.DeleteVehicle(ctx, vehicle.ID.Hex(), "owner"))
}

func TestMongoStore_Entries_Integration(t *testing.T) {
	store := mongoTestStore(t)
	ctx := context.Background()

	odo := 1000.0
	first := models.FuelEntry{ID: primitive.NewObjectID(), UserID: "owner", VehicleID: "v1", Date: "2024-01-01", Liters: 5, PricePerLiter: 100, Cost: 500, Odometer: &odo}
	second := models.FuelEntry{ID: primitive.NewObjectID(), UserID: "owner", VehicleID: "v2", Date: "2024-02-01", Liters: 6, PricePerLiter: 100, Cost: 600}
	require.NoError(t, store.Entries.InsertEntry(ctx, first))
	require.NoError(t, store.Entries.InsertEntry(ctx, second))

	all, err := store.Entries.ListEntries(ctx, "owner", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")

	onlyV1, err := store.Entries.ListEntries(ctx, "owner", "v1")
	require.NoError(t, err)
	assert.Len(t, onlyV1, 1)

	first.Liters = 7
	first.Cost = 700
	require.NoError(t, store.Entries.UpdateEntry(ctx, first))
	got, err := store.Entries.FindEntry(ctx, first.ID.Hex(), "owner")
	require.NoError(t, err)
	assert.Equal(t, 700.0, got.Cost)
	assert.Equal(t, 1000.0, got.OdometerValue())

	deleted, err := store.Entries.DeleteEntriesByVehicle(ctx, "v2", "owner")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.ErrorIs(t, store.Entries.DeleteEntry(ctx, first.ID.Hex(), "intruder"), models.ErrNotFound)
}
