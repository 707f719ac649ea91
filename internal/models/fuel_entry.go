package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// FuelEntry represents one refueling event.
type FuelEntry struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        string             `bson:"user_id" json:"user_id"`
	VehicleID     string             `bson:"vehicle_id,omitempty" json:"vehicle_id,omitempty"`
	Date          string             `bson:"date" json:"date"`
	Time          string             `bson:"time" json:"time"`
	Liters        float64            `bson:"liters" json:"liters"`
	PricePerLiter float64            `bson:"price_per_liter" json:"price_per_liter"`
	Cost          float64            `bson:"cost" json:"cost"`
	Odometer      *float64           `bson:"odometer,omitempty" json:"odometer,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

// OdometerValue returns the odometer reading or 0 when none was recorded.
func (e FuelEntry) OdometerValue() float64 {
	if e.Odometer == nil {
		return 0
	}
	return *e.Odometer
}

// CreateEntryRequest is the body of POST /api/entries.
type CreateEntryRequest struct {
	VehicleID     string   `json:"vehicle_id"`
	Date          string   `json:"date"`
	Time          string   `json:"time"`
	Liters        float64  `json:"liters"`
	PricePerLiter float64  `json:"price_per_liter"`
	Cost          float64  `json:"cost"`
	Odometer      *float64 `json:"odometer"`
}

// EntryPatch carries the editable fields of an entry. Nil fields are left untouched.
type EntryPatch struct {
	Liters        *float64 `json:"liters"`
	PricePerLiter *float64 `json:"price_per_liter"`
	Cost          *float64 `json:"cost"`
	Odometer      *float64 `json:"odometer"`
}

// Validate checks the request fields.
func (r CreateEntryRequest) Validate() error {
	if r.Liters <= 0 {
		return NewValidationError("liters", "liters must be greater than zero")
	}
	if r.PricePerLiter <= 0 {
		return NewValidationError("price_per_liter", "price per liter must be greater than zero")
	}
	if r.Cost < 0 {
		return NewValidationError("cost", "cost cannot be negative")
	}
	if r.Odometer != nil && *r.Odometer < 0 {
		return NewValidationError("odometer", "odometer cannot be negative")
	}
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return NewValidationError("date", "date must be formatted as YYYY-MM-DD")
	}
	if r.Time != "" {
		if _, err := time.Parse(TimeLayout, r.Time); err != nil {
			return NewValidationError("time", "time must be formatted as HH:MM")
		}
	}
	return nil
}

// Validate checks the patch fields.
func (p EntryPatch) Validate() error {
	if p.Liters != nil && *p.Liters <= 0 {
		return NewValidationError("liters", "liters must be greater than zero")
	}
	if p.PricePerLiter != nil && *p.PricePerLiter <= 0 {
		return NewValidationError("price_per_liter", "price per liter must be greater than zero")
	}
	if p.Cost != nil && *p.Cost < 0 {
		return NewValidationError("cost", "cost cannot be negative")
	}
	if p.Odometer != nil && *p.Odometer < 0 {
		return NewValidationError("odometer", "odometer cannot be negative")
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing.
func (p EntryPatch) IsEmpty() bool {
	return p.Liters == nil && p.PricePerLiter == nil && p.Cost == nil && p.Odometer == nil
}

// Apply returns a copy of e with the patch fields set.
func (p EntryPatch) Apply(e FuelEntry) FuelEntry {
	if p.Liters != nil {
		e.Liters = *p.Liters
	}
	if p.PricePerLiter != nil {
		e.PricePerLiter = *p.PricePerLiter
	}
	if p.Cost != nil {
		e.Cost = *p.Cost
	}
	if p.Odometer != nil {
		odo := *p.Odometer
		e.Odometer = &odo
	}
	return e
}
