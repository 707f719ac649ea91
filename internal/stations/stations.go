// Package stations looks up fuel stations near a point through the Overpass API.
package stations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/ukydev/fueltrack/internal/config"
	"github.com/ukydev/fueltrack/internal/models"
)

// ErrUpstream reports a failed or malformed response from the lookup service.
var ErrUpstream = errors.New("station lookup unavailable")

// Client queries an Overpass interpreter endpoint.
type Client struct {
	apiURL        string
	httpClient    *http.Client
	defaultRadius int
	maxRadius     int
}

func NewClient(cfg config.StationsConfig) *Client {
	return &Client{
		apiURL:        cfg.APIURL,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		defaultRadius: cfg.DefaultRadius,
		maxRadius:     cfg.MaxRadius,
	}
}

type overpassResponse struct {
	Elements []struct {
		Type   string  `json:"type"`
		ID     int64   `json:"id"`
		Lat    float64 `json:"lat"`
		Lon    float64 `json:"lon"`
		Center *struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"center"`
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

// Radius returns the search radius in meters actually used for a request.
func (c *Client) Radius(requested int) int {
	switch {
	case requested <= 0:
		return c.defaultRadius
	case requested > c.maxRadius:
		return c.maxRadius
	default:
		return requested
	}
}

// Nearby returns fuel stations within radius meters of origin, nearest first.
func (c *Client) Nearby(ctx context.Context, origin models.Location, radius int) ([]models.Station, error) {
	if origin.Lat < -90 || origin.Lat > 90 {
		return nil, models.NewValidationError("lat", "lat must be between -90 and 90")
	}
	if origin.Lon < -180 || origin.Lon > 180 {
		return nil, models.NewValidationError("lon", "lon must be between -180 and 180")
	}

	query := fmt.Sprintf(`[out:json][timeout:25];nwr["amenity"="fuel"](around:%d,%.6f,%.6f);out center;`,
		c.Radius(radius), origin.Lat, origin.Lon)
	form := url.Values{"data": {query}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build overpass request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: overpass status %d", ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	var obj overpassResponse
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}

	stations := make([]models.Station, 0, len(obj.Elements))
	for _, el := range obj.Elements {
		loc := models.Location{Lat: el.Lat, Lon: el.Lon}
		if el.Center != nil {
			loc = models.Location{Lat: el.Center.Lat, Lon: el.Center.Lon}
		}
		if loc.Lat == 0 && loc.Lon == 0 {
			continue
		}
		name := el.Tags["name"]
		if name == "" {
			name = el.Tags["brand"]
		}
		stations = append(stations, models.Station{
			ID:         el.ID,
			Name:       name,
			Brand:      el.Tags["brand"],
			Location:   loc,
			DistanceKm: roundKm(HaversineKm(origin, loc)),
		})
	}
	SortByDistance(stations)
	return stations, nil
}

// SortByDistance orders stations nearest first; ties keep their input order.
func SortByDistance(stations []models.Station) {
	sort.SliceStable(stations, func(i, j int) bool {
		return stations[i].DistanceKm < stations[j].DistanceKm
	})
}
