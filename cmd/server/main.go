package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"streambook/internal/api"
	"streambook/internal/config"
	"streambook/internal/db"
	"streambook/internal/events"
	"streambook/internal/middleware"
	"streambook/internal/repository"
	"streambook/internal/service"
	"streambook/internal/utils"
	"streambook/internal/worker"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/handlers"
	"github.com/hibiken/asynq"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

type stores struct {
	availability service.AvailabilityStore
	bookings     service.BookingStore
	completion   service.CompletionStore
	contacts     service.ContactDirectory
	messages     service.MessageStore
	health       api.Pinger
	close        func() error
}

type sqlPinger struct{ *sql.DB }

func (p sqlPinger) Ping(ctx context.Context) error { return p.PingContext(ctx) }

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger, err := utils.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		cacheClient *redis.Client
		bus         events.Bus = events.NewMemoryBus()
	)
	if cfg.RedisEnabled {
		cacheClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisCacheDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := cacheClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer cacheClient.Close()
		bus = events.NewRedisBus(cacheClient, logger)
	}

	st, err := openStores(ctx, cfg, bus, logger)
	if err != nil {
		return err
	}
	defer st.close()

	availabilityStore := st.availability
	if cacheClient != nil {
		availabilityStore = repository.NewCachedAvailabilityRepository(st.availability, cacheClient, cfg.AvailabilityCacheTTL, logger)
	}

	var email service.EmailSender
	if s := service.NewSendGridSender(cfg.SendGridAPIKey, cfg.SendGridFromEmail, cfg.SendGridFromName, logger); s != nil {
		email = s
	}
	var sms service.SMSSender
	if s := service.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger); s != nil {
		sms = s
	}
	notifications := service.NewNotificationService(st.messages, st.contacts, email, sms, logger)

	var notifier service.Notifier = notifications
	if cfg.NotifyMode == config.NotifyModeQueue {
		queueOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisQueueDB}
		queueClient := asynq.NewClient(queueOpt)
		defer queueClient.Close()
		notifier = worker.NewQueuedNotifier(queueClient, notifications, logger)

		notificationWorker := worker.NewNotificationWorker(queueOpt, notifications, logger)
		if err := notificationWorker.Start(); err != nil {
			return err
		}
		defer notificationWorker.Shutdown()
	}

	clock := service.SystemClock{}
	loc := cfg.Location()
	availabilitySvc := service.NewAvailabilityService(availabilityStore, logger, cfg.ReadRetryBackoff)
	schedulerSvc := service.NewSchedulerService(availabilitySvc, st.bookings, clock, loc, logger)
	lifecycleSvc := service.NewLifecycleService(st.bookings, st.contacts, notifier, clock, loc, logger, cfg.ReadRetryBackoff)
	jobSvc := service.NewJobService(st.completion, clock, logger)

	sweep, err := worker.StartCompletionSweep(cfg.CompletionSweepSpec, jobSvc, logger)
	if err != nil {
		return err
	}
	defer func() { <-sweep.Stop().Done() }()

	router := api.NewRouter(api.RouterDeps{
		Availability: availabilitySvc,
		Scheduler:    schedulerSvc,
		Lifecycle:    lifecycleSvc,
		Events:       bus,
		Health:       st.health,
		JWTSecret:    []byte(cfg.JWTSecret),
		RateLimiter:  middleware.NewRateLimiter(cfg.BookingRequestsPerMin, logger),
		Logger:       logger,
	})

	var handler http.Handler = router
	handler = handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSAllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)(handler)
	handler = handlers.RecoveryHandler(handlers.RecoveryLogger(zapRecoveryLogger{logger}))(handler)
	handler = handlers.CustomLoggingHandler(io.Discard, handler, accessLog(logger))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running", zap.String("port", cfg.Port), zap.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStores(ctx context.Context, cfg *config.Config, bus events.Publisher, logger *zap.Logger) (*stores, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		mem := repository.NewMemoryStore(bus, logger)
		return &stores{
			availability: mem,
			bookings:     mem,
			completion:   mem,
			contacts:     mem,
			messages:     mem,
			health:       mem,
			close:        func() error { return nil },
		}, nil
	}

	conn, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	if err := db.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &stores{
		availability: repository.NewAvailabilityRepository(conn),
		bookings:     repository.NewBookingRepository(conn, bus, logger),
		completion:   repository.NewJobRepository(conn, bus, logger),
		contacts:     repository.NewContactRepository(conn),
		messages:     repository.NewMessageRepository(conn),
		health:       sqlPinger{conn},
		close:        conn.Close,
	}, nil
}

func accessLog(logger *zap.Logger) handlers.LogFormatter {
	return func(_ io.Writer, p handlers.LogFormatterParams) {
		logger.Info("http request",
			zap.String("method", p.Request.Method),
			zap.String("path", p.URL.Path),
			zap.Int("status", p.StatusCode),
			zap.Int("size", p.Size),
			zap.Duration("elapsed", time.Since(p.TimeStamp)))
	}
}

type zapRecoveryLogger struct{ logger *zap.Logger }

func (l zapRecoveryLogger) Println(v ...interface{}) {
	l.logger.Error("panic recovered", zap.String("panic", fmt.Sprint(v...)))
}
