package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"

	"ms-attendance/internal/attendance"
	"ms-attendance/internal/attendance/checkin_api"
	"ms-attendance/internal/config"
	"ms-attendance/internal/database"
	"ms-attendance/internal/database/migrations"
	"ms-attendance/internal/kafka"
	"ms-attendance/internal/logger"
	"ms-attendance/internal/server"
	"ms-attendance/internal/settings"
	"ms-attendance/internal/settings/settings_api"
	ticket_db "ms-attendance/internal/tickets/db"
	"ms-attendance/internal/tickets/qr"
	tickets "ms-attendance/internal/tickets/service"
	"ms-attendance/internal/tickets/ticket_api"
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Dir, "attendance-service", logger.ParseLevel(cfg.Log.Level))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("APP", "Starting Attendance Service initialization")
	if envErr != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		stop()
		log.Fatal("APP", err.Error())
	}
	log.Info("APP", "Attendance Service stopped")
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	bunDB, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer bunDB.Close()

	if err := prepareSchema(ctx, cfg, bunDB, log); err != nil {
		return err
	}

	loc := cfg.Attendance.Location()
	ticketDB := &ticket_db.DB{Bun: bunDB}
	ticketService := tickets.NewTicketService(ticketDB, log)

	settingsService := settings.NewService(&settings.Store{Bun: bunDB}, settingsCache(ctx, cfg.Redis, log), log)
	settingsService.RegisterValidator(cfg.Attendance.EventDayKey, func(v string) error {
		_, err := attendance.ParseEventDay(v, loc)
		return err
	})

	recorder := attendance.NewRecorder(ticketDB, ticketDB, cfg.Attendance.DefaultVenueID, log)
	var consumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		topics := []string{cfg.Kafka.Topics.Scans, cfg.Kafka.Topics.TicketImport}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics, log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}

		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.Scans, log)
		defer producer.Close()
		recorder.WithPublisher(producer)
		log.Info("KAFKA", "Scan publisher initialized")

		consumer = kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.TicketImport, cfg.Kafka.GroupID, log)
		defer consumer.Close()
	} else {
		log.Info("KAFKA", "Kafka disabled, scans are not published")
	}

	checkinHandler := &checkin_api.Handler{
		Recorder:    recorder,
		Aggregator:  attendance.NewAggregator(ticketDB),
		Events:      ticketService,
		Settings:    settingsService,
		EventDayKey: cfg.Attendance.EventDayKey,
		Location:    loc,
		Logger:      log,
	}
	router := server.NewRouter(log, bunDB,
		checkinHandler,
		ticket_api.NewHandler(ticketService, qr.DefaultSize, log),
		settings_api.NewHandler(settingsService),
	)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 2)
	if consumer != nil {
		go func() {
			if err := consumer.Start(ctx, ticketService); err != nil {
				errCh <- err
			}
		}()
	}
	go func() {
		log.Info("HTTP", fmt.Sprintf("Listening on %s", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("APP", "Shutdown signal received")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return runErr
}

// prepareSchema migrates Postgres or creates the SQLite tables, then seeds
// the default venue and event day.
func prepareSchema(ctx context.Context, cfg *config.Config, bunDB *bun.DB, log *logger.Logger) error {
	switch {
	case cfg.Database.Driver == "sqlite":
		if err := database.CreateSchema(ctx, bunDB); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	case cfg.Database.AutoMigrate:
		// The runner is not closed: closing it closes bunDB as well.
		runner := migrations.NewRunner(bunDB, log)
		if err := runner.MigrateUp(); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	default:
		log.Info("MIGRATION", "Auto migration disabled")
	}

	today := time.Now().In(cfg.Attendance.Location()).Format("2006-01-02")
	if err := database.SeedDefaults(ctx, bunDB, cfg.Attendance.DefaultVenueID, cfg.Attendance.EventDayKey, today); err != nil {
		return fmt.Errorf("failed to seed defaults: %w", err)
	}
	log.LogDatabase("SEED", "settings", fmt.Sprintf("%s defaults to %s unless already set", cfg.Attendance.EventDayKey, today))
	return nil
}

func settingsCache(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *settings.Cache {
	if !cfg.Enabled {
		log.Info("REDIS", "Redis disabled, settings are read from the database")
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, DB: cfg.DB})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("REDIS", fmt.Sprintf("Redis unavailable at %s, settings cache disabled: %v", cfg.Addr, err))
		client.Close()
		return nil
	}
	log.Info("REDIS", fmt.Sprintf("Redis connection successful to %s (DB: %d)", cfg.Addr, cfg.DB))
	return settings.NewCache(client, cfg.CacheTTL)
}
