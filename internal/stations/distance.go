package stations

import (
	"math"

	"github.com/ukydev/fueltrack/internal/models"
)

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between a and b.
func HaversineKm(a, b models.Location) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	s := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
}

func roundKm(km float64) float64 {
	return math.Round(km*1000) / 1000
}
