package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campusrooms/internal/api"
	"campusrooms/internal/config"
	"campusrooms/internal/database"
	"campusrooms/internal/domain"
	"campusrooms/internal/events"
	"campusrooms/internal/logging"
	"campusrooms/internal/metrics"
	"campusrooms/internal/models"
	"campusrooms/internal/repository"
	"campusrooms/internal/service"
	"campusrooms/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	yamlv2 "gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	if err := seedDirectory(cfg, db, &logger); err != nil {
		return err
	}

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	limiter := buildLimiter(redisClient, &logger)

	eventBus := events.NewEventBus()
	subscribeEventLogging(eventBus, &logger)

	exportWorker := worker.NewExportWorker(db, cfg.Exports.Path, worker.RetryPolicy{}, &logger)

	reservationSvc := service.NewReservationService(
		db, db, db, eventBus, exportWorker,
		service.Policy{
			HorizonDays:    cfg.Booking.HorizonDays,
			MinLeadMinutes: cfg.Booking.MinLeadMinutes,
			StrictApproval: cfg.Booking.StrictApproval,
		},
		&logger,
	)
	directorySvc := service.NewDirectoryService(db, &logger)

	httpServer := api.NewHTTPServer(cfg.API, cfg.Booking, reservationSvc, directorySvc, limiter, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go exportWorker.Start(ctx)
	startMetrics(ctx, cfg, &logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

// seedDirectory loads rooms, users and holidays from the seed YAML
// files into the store. The reservation core only reads them.
func seedDirectory(cfg *config.Config, db *database.DB, logger *zerolog.Logger) error {
	ctx := context.Background()

	if cfg.Seeds.Rooms != "" {
		var seed struct {
			Rooms []models.Room `yaml:"rooms"`
		}
		if err := readSeed(cfg.Seeds.Rooms, &seed); err != nil {
			return fmt.Errorf("load rooms seed: %w", err)
		}
		for i := range seed.Rooms {
			if err := db.UpsertRoom(ctx, &seed.Rooms[i]); err != nil {
				return err
			}
		}
		logger.Info().Int("count", len(seed.Rooms)).Msg("rooms seeded")
	}

	if cfg.Seeds.Users != "" {
		var seed struct {
			Users []models.User `yaml:"users"`
		}
		if err := readSeed(cfg.Seeds.Users, &seed); err != nil {
			return fmt.Errorf("load users seed: %w", err)
		}
		for i := range seed.Users {
			if err := db.UpsertUser(ctx, &seed.Users[i]); err != nil {
				return err
			}
		}
		logger.Info().Int("count", len(seed.Users)).Msg("users seeded")
	}

	if cfg.Seeds.Holidays != "" {
		var seed struct {
			Holidays []models.Holiday `yaml:"holidays"`
		}
		if err := readSeed(cfg.Seeds.Holidays, &seed); err != nil {
			return fmt.Errorf("load holidays seed: %w", err)
		}
		for i := range seed.Holidays {
			if err := db.UpsertHoliday(ctx, &seed.Holidays[i]); err != nil {
				return err
			}
		}
		logger.Info().Int("count", len(seed.Holidays)).Msg("holidays seeded")
	}

	return nil
}

func readSeed(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yamlv2.Unmarshal(data, out)
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if !cfg.Redis.Enabled || cfg.Redis.Address == "" {
		logger.Info().Msg("redis disabled, using in-memory rate limiting")
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis unreachable, falling back to memory")
	}
	return client
}

func buildLimiter(redisClient *redis.Client, logger *zerolog.Logger) domain.RateLimiter {
	memory := repository.NewMemoryLimiterRepository()
	if redisClient == nil {
		return memory
	}
	primary := repository.NewRedisLimiterRepository(redisClient)
	return repository.NewFailoverLimiterRepository(primary, memory, logger)
}

func subscribeEventLogging(bus *events.EventBus, logger *zerolog.Logger) {
	handler := func(event *events.Event) error {
		logger.Debug().
			Str("event_type", event.Type).
			RawJSON("payload", event.Payload).
			Msg("domain event")
		return nil
	}
	for _, eventType := range []string{
		events.EventReservationCreated,
		events.EventReservationApproved,
		events.EventReservationRejected,
		events.EventReservationCancelled,
	} {
		bus.Subscribe(eventType, handler)
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("metrics listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}
