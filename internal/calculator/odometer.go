package calculator

import "github.com/ukydev/fueltrack/internal/models"

// OdometerSource tells where a vehicle's current odometer reading came from.
type OdometerSource string

const (
	OdometerOverride OdometerSource = "override"
	OdometerEntries  OdometerSource = "entries"
	OdometerNone     OdometerSource = "none"
)

// CurrentOdometer resolves the latest known reading. A manual override wins
// until it is cleared; otherwise the highest entry reading is used.
func CurrentOdometer(entries []models.FuelEntry, override *float64) (float64, OdometerSource) {
	if override != nil {
		return clampZero(*override), OdometerOverride
	}
	if highest := MaxOdometer(entries); highest > 0 {
		return highest, OdometerEntries
	}
	return 0, OdometerNone
}

// MaxOdometer returns the highest odometer reading in entries, 0 if none.
func MaxOdometer(entries []models.FuelEntry) float64 {
	var highest float64
	for _, e := range entries {
		if odo := finite(e.OdometerValue()); odo > highest {
			highest = odo
		}
	}
	return highest
}

// EarliestOdometer returns the lowest positive odometer reading in entries, 0 if none.
func EarliestOdometer(entries []models.FuelEntry) float64 {
	var lowest float64
	for _, e := range entries {
		odo := finite(e.OdometerValue())
		if odo > 0 && (lowest == 0 || odo < lowest) {
			lowest = odo
		}
	}
	return lowest
}
