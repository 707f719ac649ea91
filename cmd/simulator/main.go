package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// Credentials identify the simulated rider.
type Credentials struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// Vehicle is the create-vehicle request body.
type Vehicle struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Interval float64 `json:"interval,omitempty"`
}

// Refuel is one fuel entry posted to the API.
type Refuel struct {
	VehicleID     string  `json:"vehicle_id"`
	Date          string  `json:"date"`
	Time          string  `json:"time"`
	Liters        float64 `json:"liters"`
	PricePerLiter float64 `json:"price_per_liter"`
	Odometer      float64 `json:"odometer"`
}

// Maintenance mirrors the part of the dashboard the simulator reacts to.
type Maintenance struct {
	Valid             bool    `json:"valid"`
	PercentConsumed   float64 `json:"percent_consumed"`
	RemainingDistance float64 `json:"remaining_distance"`
	IsCritical        bool    `json:"is_critical"`
}

// Dashboard is the subset of GET /vehicles/{id}/dashboard the simulator reads.
type Dashboard struct {
	Odometer struct {
		Value  float64 `json:"value"`
		Source string  `json:"source"`
	} `json:"odometer"`
	Maintenance Maintenance `json:"maintenance"`
}

// VehicleState tracks one simulated vehicle between refuels.
type VehicleState struct {
	VehicleID  string
	Type       string
	Odometer   float64
	KmPerLiter float64
	Clock      time.Time
}

// Fuel prices per liter to sample from.
var basePrices = []float64{32.5, 35.9, 38.4, 41.2}

var authToken string

var httpClient = &http.Client{Timeout: 10 * time.Second}

func jitter(v, fraction float64) float64 {
	return v * (1 + (rand.Float64()*2-1)*fraction)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func doJSON(method, url string, body, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&apiErr)
		return resp.StatusCode, fmt.Errorf("%s %s failed with status %d: %s", method, url, resp.StatusCode, apiErr.Error)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// signIn logs in and registers the rider first when the account does not exist yet.
func signIn(apiURL string, creds Credentials) (string, error) {
	var result struct {
		Token string `json:"token"`
	}
	status, err := doJSON(http.MethodPost, apiURL+"/auth/login", Credentials{Username: creds.Username, Password: creds.Password}, &result)
	if err == nil {
		return result.Token, nil
	}
	if status != http.StatusUnauthorized {
		return "", err
	}

	if _, err := doJSON(http.MethodPost, apiURL+"/auth/register", creds, &result); err != nil {
		return "", err
	}
	log.WithField("username", creds.Username).Info("Registered simulator account")
	return result.Token, nil
}

func createVehicle(apiURL string, index int, vtype string) (*VehicleState, error) {
	var created struct {
		ID string `json:"id"`
	}
	vehicle := Vehicle{Name: fmt.Sprintf("sim-%s-%d", vtype, index), Type: vtype}
	if _, err := doJSON(http.MethodPost, apiURL+"/vehicles", vehicle, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, errors.New("invalid vehicle ID in response")
	}

	state := &VehicleState{
		VehicleID:  created.ID,
		Type:       vtype,
		Odometer:   float64(1000 + rand.Intn(20000)),
		KmPerLiter: 12 + rand.Float64()*10,
		Clock:      time.Now().AddDate(0, -1, 0),
	}
	if vtype == "Bike" {
		state.KmPerLiter = 35 + rand.Float64()*15
	}

	log.WithFields(log.Fields{
		"vehicle_id": state.VehicleID,
		"type":       vtype,
		"odometer":   state.Odometer,
	}).Info("Created vehicle")
	return state, nil
}

// nextRefuel advances the vehicle by one tank and returns the entry to post.
func nextRefuel(s *VehicleState) Refuel {
	km := 80 + rand.Float64()*220
	s.Odometer = math.Round(s.Odometer + km)
	s.Clock = s.Clock.Add(time.Duration(12+rand.Intn(60)) * time.Hour)

	return Refuel{
		VehicleID:     s.VehicleID,
		Date:          s.Clock.Format("2006-01-02"),
		Time:          s.Clock.Format("15:04"),
		Liters:        round2(km / jitter(s.KmPerLiter, 0.1)),
		PricePerLiter: round2(jitter(basePrices[rand.Intn(len(basePrices))], 0.03)),
		Odometer:      s.Odometer,
	}
}

func simulateRefuel(apiURL string, s *VehicleState) error {
	entry := nextRefuel(s)
	if _, err := doJSON(http.MethodPost, apiURL+"/entries", entry, nil); err != nil {
		return err
	}

	var dash Dashboard
	if _, err := doJSON(http.MethodGet, apiURL+"/vehicles/"+s.VehicleID+"/dashboard", nil, &dash); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"vehicle_id": s.VehicleID,
		"odometer":   dash.Odometer.Value,
		"liters":     entry.Liters,
		"oil_used":   dash.Maintenance.PercentConsumed,
	}).Info("Logged refuel")

	if dash.Maintenance.IsCritical {
		if _, err := doJSON(http.MethodPost, apiURL+"/vehicles/"+s.VehicleID+"/maintenance/reset", nil, nil); err != nil {
			return err
		}
		log.WithField("vehicle_id", s.VehicleID).Warn("Oil change due, maintenance reset")
	}
	return nil
}

func simulateVehicle(apiURL string, s *VehicleState, interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for range tick.C {
		if err := simulateRefuel(apiURL, s); err != nil {
			log.WithError(err).WithField("vehicle_id", s.VehicleID).Error("Refuel simulation failed")
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	fleetSize := 3
	if val := os.Getenv("FLEET_SIZE"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			fleetSize = n
		}
	}

	apiURL := getEnv("API_BASE_URL", "http://localhost:8080/api")

	interval := 5 * time.Second
	if v := os.Getenv("SIM_TICK_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			interval = time.Duration(n) * time.Second
		}
	}

	creds := Credentials{
		Username: getEnv("SIM_USERNAME", "simulator"),
		Email:    getEnv("SIM_EMAIL", "simulator@example.com"),
		Password: getEnv("SIM_PASSWORD", "simulator-pass"),
	}

	log.WithFields(log.Fields{
		"fleet_size": fleetSize,
		"api_url":    apiURL,
		"interval":   interval,
	}).Info("Starting refuel simulation")

	token, err := signIn(apiURL, creds)
	if err != nil {
		log.WithError(err).Fatal("Failed to sign in")
	}
	authToken = token

	states := make([]*VehicleState, 0, fleetSize)
	for i := 0; i < fleetSize; i++ {
		vtype := []string{"Bike", "Car"}[rand.Intn(2)]
		state, err := createVehicle(apiURL, i+1, vtype)
		if err != nil {
			log.WithError(err).Error("Failed to create vehicle")
			continue
		}
		states = append(states, state)
	}

	log.WithField("created_vehicles", len(states)).Info("Vehicle creation completed")
	if len(states) == 0 {
		log.Error("No vehicles created. Ensure the API is reachable. Exiting.")
		return
	}

	for _, s := range states {
		go simulateVehicle(apiURL, s, interval)
	}

	log.Info("Refuel simulation started")
	select {}
}
