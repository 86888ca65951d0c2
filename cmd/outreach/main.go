package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gartstein/outreach/internal/outreach/config"
	"github.com/gartstein/outreach/internal/outreach/controller"
	gorm "github.com/gartstein/outreach/internal/outreach/db"
	"github.com/gartstein/outreach/internal/outreach/events"
	"github.com/gartstein/outreach/internal/outreach/handlers"
	"github.com/gartstein/outreach/internal/outreach/metrics"
	"github.com/gartstein/outreach/internal/outreach/store"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", filepath.Join("internal", "outreach", "config", "config.yaml"), "path to the YAML config file")
	flag.Parse()

	logger := initLogger()
	defer func(logger *zap.Logger) {
		err := logger.Sync()
		if err != nil {
			logger.Error("failed to sync logger", zap.Error(err))
		}
	}(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	st, err := initStore(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize store", zap.Error(err))
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("failed to close store", zap.Error(err))
		}
	}()

	producer, closeProducer := initProducer(cfg, logger)
	defer closeProducer()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	outreachSvc := controller.NewOutreachService(st, producer, m, time.Now, controller.Options{
		QuickThresholdDays: cfg.QuickThresholdDays,
		DefaultWindowDays:  cfg.DefaultWindowDays,
		RecentLimit:        cfg.RecentLimit,
		HistoryLimit:       cfg.HistoryLimit,
		PhoneRegion:        cfg.PhoneRegion,
	}, logger)

	if cfg.SeedMethods {
		if err := outreachSvc.SeedDefaultMethods(context.Background()); err != nil {
			logger.Fatal("failed to seed communication methods", zap.Error(err))
		}
	}

	// Create handlers
	outreachHandler := handlers.NewOutreachHandler(outreachSvc, logger)

	// Create server
	server := handlers.NewServer(cfg.GRPCPort, cfg.HTTPPort, logger)
	if err := server.RegisterHTTPHandlers(
		outreachHandler,
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		cfg.JWTSecret,
	); err != nil {
		logger.Fatal("Failed to register HTTP handlers", zap.Error(err))
	}

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start servers", zap.Error(err))
		}
	}()

	waitForShutdown(server, logger)
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

// initStore opens the configured store. Database connections are retried
// while the database starts up.
func initStore(cfg *config.Config, logger *zap.Logger) (controller.Store, error) {
	if cfg.Store == config.StoreMemory {
		logger.Info("Using in-memory store")
		return store.NewMemory(), nil
	}

	dbConf := initDatabase(cfg)
	var repo *gorm.Repository
	operation := func() error {
		var err error
		repo, err = gorm.NewRepository(dbConf)
		if err != nil {
			logger.Warn("Database not ready, retrying", zap.Error(err))
		}
		return err
	}
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = time.Minute
	if err := backoff.Retry(operation, b); err != nil {
		return nil, err
	}
	logger.Info("Connected to database", zap.String("driver", dbConf.Driver))
	return repo, nil
}

// initDatabase maps the service config onto the repository config.
func initDatabase(cfg *config.Config) *gorm.Config {
	return &gorm.Config{
		Driver:   cfg.Store,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
		Path:     cfg.DBPath,
	}
}

// initProducer returns a Kafka producer, or a no-op one when no brokers are configured.
func initProducer(cfg *config.Config, logger *zap.Logger) (controller.EventProducer, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("No Kafka brokers configured, events are not published")
		return events.Nop{}, func() {}
	}
	producer, err := events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
	if err != nil {
		logger.Fatal("failed to initialize Kafka producer", zap.Error(err))
	}
	return producer, producer.Close
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, then shuts down servers.
func waitForShutdown(server *handlers.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	server.Stop()
	logger.Info("Servers stopped properly")
}
