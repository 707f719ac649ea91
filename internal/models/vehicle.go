package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VehicleType is one of the preset vehicle kinds or Custom.
type VehicleType string

const (
	VehicleBike   VehicleType = "Bike"
	VehicleCar    VehicleType = "Car"
	VehicleCustom VehicleType = "Custom"
)

// Default oil-change intervals in kilometers for the preset types.
const (
	DefaultBikeInterval float64 = 1000
	DefaultCarInterval  float64 = 5000
)

// Vehicle represents a vehicle owned by a single user.
type Vehicle struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID           string             `bson:"user_id" json:"user_id"`
	Name             string             `bson:"name" json:"name"`
	Type             VehicleType        `bson:"type" json:"type"`
	Interval         float64            `bson:"interval" json:"interval"`         // km between oil changes
	OilLastOdo       float64            `bson:"oil_last_odo" json:"oil_last_odo"` // odometer at last reset
	OdometerOverride *float64           `bson:"odometer_override,omitempty" json:"odometer_override,omitempty"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

// CreateVehicleRequest is the body of POST /api/vehicles.
type CreateVehicleRequest struct {
	Name     string      `json:"name"`
	Type     VehicleType `json:"type"`
	Interval float64     `json:"interval"`
}

// ResetMaintenanceRequest is the body of the maintenance reset endpoint.
// A nil Odometer resets to the vehicle's current odometer reading.
type ResetMaintenanceRequest struct {
	Odometer *float64 `json:"odometer"`
}

// OdometerOverrideRequest sets a manually entered odometer reading.
type OdometerOverrideRequest struct {
	Odometer float64 `json:"odometer"`
}

// IsValidVehicleType checks if a vehicle type is valid
func IsValidVehicleType(t VehicleType) bool {
	switch t {
	case VehicleBike, VehicleCar, VehicleCustom:
		return true
	default:
		return false
	}
}

// NewVehicle validates req and builds a vehicle for userID, applying the
// preset interval for Bike and Car.
func NewVehicle(userID string, req CreateVehicleRequest) (Vehicle, error) {
	if req.Name == "" {
		return Vehicle{}, NewValidationError("name", "name is required")
	}
	if !IsValidVehicleType(req.Type) {
		return Vehicle{}, NewValidationError("type", "type must be one of Bike, Car, Custom")
	}
	if req.Interval < 0 {
		return Vehicle{}, NewValidationError("interval", "interval must be positive")
	}

	interval := req.Interval
	switch req.Type {
	case VehicleBike:
		if interval == 0 {
			interval = DefaultBikeInterval
		}
	case VehicleCar:
		if interval == 0 {
			interval = DefaultCarInterval
		}
	case VehicleCustom:
		if interval <= 0 {
			return Vehicle{}, NewValidationError("interval", "custom vehicles require a positive interval")
		}
	}

	now := time.Now()
	return Vehicle{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Name:      req.Name,
		Type:      req.Type,
		Interval:  interval,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
