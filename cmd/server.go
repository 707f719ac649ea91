package main

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/fueltrack/internal/auth"
	"github.com/ukydev/fueltrack/internal/config"
	"github.com/ukydev/fueltrack/internal/db"
	"github.com/ukydev/fueltrack/internal/handlers"
	"github.com/ukydev/fueltrack/internal/metrics"
	"github.com/ukydev/fueltrack/internal/middleware"
	"github.com/ukydev/fueltrack/internal/models"
	"github.com/ukydev/fueltrack/internal/notify"
)

type routerDeps struct {
	cfg      *config.Config
	store    *db.Store
	auth     *auth.Service
	notifier notify.Notifier
	finder   handlers.StationFinder
	metrics  *metrics.Metrics
	logger   logrus.FieldLogger
}

// newRouter registers every route and wraps the mux in request logging and
// authentication.
func newRouter(d routerDeps) http.Handler {
	authHandler := handlers.NewAuthHandler(d.auth, d.store.Users, d.logger)
	vehicleHandler := handlers.NewVehicleHandler(d.store.Vehicles, d.store.Entries, d.cfg.Maintenance.DefaultBaseline, d.metrics, d.logger)
	entryHandler := handlers.NewEntryHandler(d.store.Entries, d.store.Vehicles, d.metrics, d.logger)
	statsHandler := handlers.NewStatsHandler(d.store.Entries, d.store.Vehicles, d.logger)
	stationHandler := handlers.NewStationHandler(d.finder, d.logger)
	supportHandler := handlers.NewSupportHandler(d.store.Tickets, d.store.Users, d.notifier, d.logger)

	authMW := middleware.NewAuthMiddleware(d.auth)
	limiter := middleware.NewRateLimitMiddleware(
		d.cfg.Server.RateLimitRequests,
		time.Duration(d.cfg.Server.RateLimitWindow)*time.Second,
		d.metrics,
	)
	limiter.TrustProxy = d.cfg.Server.TrustProxy

	mux := http.NewServeMux()

	mux.Handle("POST /api/auth/register", limiter.Limit(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /api/auth/login", limiter.Limit(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("GET /api/auth/profile", authHandler.GetProfile)
	mux.HandleFunc("PUT /api/auth/profile", authHandler.UpdateProfile)
	mux.HandleFunc("POST /api/auth/password", authHandler.ChangePassword)

	mux.HandleFunc("GET /api/vehicles", vehicleHandler.List)
	mux.HandleFunc("POST /api/vehicles", vehicleHandler.Create)
	mux.HandleFunc("GET /api/vehicles/{id}", vehicleHandler.Get)
	mux.HandleFunc("DELETE /api/vehicles/{id}", vehicleHandler.Delete)
	mux.HandleFunc("POST /api/vehicles/{id}/maintenance/reset", vehicleHandler.ResetMaintenance)
	mux.HandleFunc("PUT /api/vehicles/{id}/odometer", vehicleHandler.SetOdometer)
	mux.HandleFunc("DELETE /api/vehicles/{id}/odometer", vehicleHandler.ClearOdometer)
	mux.HandleFunc("GET /api/vehicles/{id}/dashboard", vehicleHandler.Dashboard)

	mux.HandleFunc("GET /api/entries", entryHandler.List)
	mux.HandleFunc("POST /api/entries", entryHandler.Create)
	mux.HandleFunc("PUT /api/entries/{id}", entryHandler.Update)
	mux.HandleFunc("DELETE /api/entries/{id}", entryHandler.Delete)

	mux.HandleFunc("GET /api/stats", statsHandler.Stats)
	mux.HandleFunc("POST /api/trips/estimate", statsHandler.EstimateTrip)
	mux.HandleFunc("GET /api/stations", stationHandler.Nearby)

	mux.HandleFunc("GET /api/support", supportHandler.ListTickets)
	mux.HandleFunc("POST /api/support", supportHandler.CreateTicket)
	mux.Handle("POST /api/admin/announcements",
		authMW.RequirePermission(models.PermSendAnnouncements)(http.HandlerFunc(supportHandler.Announce)))

	mux.HandleFunc("GET /health", healthHandler)
	mux.Handle("GET /metrics", d.metrics.Handler())

	return middleware.RequestLogger(d.logger, d.metrics, mux)(authMW.Authenticate(mux))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
