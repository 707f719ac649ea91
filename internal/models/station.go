package models

// Location represents a geographical location with latitude and longitude coordinates.
type Location struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lon float64 `bson:"lon" json:"lon"`
}

// Station is a fuel station returned by the station lookup service.
type Station struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Brand      string   `json:"brand,omitempty"`
	Location   Location `json:"location"`
	DistanceKm float64  `json:"distance_km"`
}
