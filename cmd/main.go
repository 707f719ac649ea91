package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fueltrack/internal/auth"
	"github.com/ukydev/fueltrack/internal/config"
	"github.com/ukydev/fueltrack/internal/db"
	"github.com/ukydev/fueltrack/internal/db/sqlite"
	"github.com/ukydev/fueltrack/internal/metrics"
	"github.com/ukydev/fueltrack/internal/notify"
	"github.com/ukydev/fueltrack/internal/stations"
)

const (
	shutdownTimeout     = 15 * time.Second
	notificationTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	logger := newLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		logger.WithError(err).WithField("backend", cfg.Storage.Backend).Fatal("failed to open storage")
	}
	logger.WithField("backend", cfg.Storage.Backend).Info("storage ready")

	authService, err := auth.NewService(cfg.Auth)
	if err != nil {
		logger.WithError(err).Fatal("failed to create auth service")
	}

	m := metrics.New()
	relay, mqttClient := newNotifier(cfg.MQTT, logger)
	async := notify.NewAsync(relay, notificationTimeout, logger, m)

	handler := newRouter(routerDeps{
		cfg:      cfg,
		store:    store,
		auth:     authService,
		notifier: async,
		finder:   stations.NewClient(cfg.Stations),
		metrics:  m,
		logger:   logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown")
	}
	if err := async.Wait(shutdownCtx); err != nil {
		logger.WithError(err).Warn("pending notifications dropped")
	}
	if mqttClient != nil {
		mqttClient.Disconnect(250)
	}
	if err := store.Close(shutdownCtx); err != nil {
		logger.WithError(err).Error("storage close")
	}
}

// newLogger configures logrus from LOG_LEVEL and LOG_FORMAT.
func newLogger(cfg config.LogConfig) *log.Logger {
	logger := log.New()
	logger.SetOutput(os.Stdout)
	if cfg.Format == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		logger.WithField("level", cfg.Level).Warn("unknown LOG_LEVEL, using info")
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func openStore(ctx context.Context, cfg config.StorageConfig) (*db.Store, error) {
	if cfg.Backend == config.BackendSQLite {
		s, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s.Store(), nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	client, err := db.ConnectMongo(connectCtx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	store, err := db.NewMongoStore(connectCtx, client, cfg.MongoDB)
	if err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	return store, nil
}

// newNotifier connects to the MQTT broker when one is configured and falls
// back to logging otherwise.
func newNotifier(cfg config.MQTTConfig, logger *log.Logger) (notify.Notifier, mqtt.Client) {
	if cfg.BrokerURL == "" {
		return notify.LogNotifier{Logger: logger}, nil
	}
	n, client, err := notify.NewMQTTNotifier(cfg, logger)
	if err != nil {
		logger.WithError(err).Warn("mqtt unavailable, notifications will only be logged")
		return notify.LogNotifier{Logger: logger}, nil
	}
	return n, client
}
