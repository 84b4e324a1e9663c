package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"bookingrule/internal/app/bookingwindow"
	"bookingrule/internal/app/commands"
	availabilityapp "bookingrule/internal/app/handlers/availability"
	rulesapp "bookingrule/internal/app/handlers/rules"
	widgetapp "bookingrule/internal/app/handlers/widget"
	"bookingrule/internal/app/middleware"
	"bookingrule/internal/app/outbox"
	"bookingrule/internal/app/policies"
	"bookingrule/internal/app/queries"
	"bookingrule/internal/app/warnings"
	"bookingrule/internal/domain/availability"
	"bookingrule/internal/domain/rules"
	"bookingrule/internal/domain/shared/daterange"
	"bookingrule/internal/infra/broker/kafka"
	"bookingrule/internal/infra/config"
	mongodb "bookingrule/internal/infra/db/mongo"
	ginserver "bookingrule/internal/infra/http/gin"
	"bookingrule/internal/infra/inbox"
	"bookingrule/internal/infra/obs"
	infraoutbox "bookingrule/internal/infra/outbox"
	"bookingrule/internal/infra/rulesource"
	"bookingrule/internal/infra/storage/memory"
	"bookingrule/internal/infra/storage/redisstore"
	s3store "bookingrule/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "dotenv:", err)
	}
	cfg, err := config.Load()
	logger := obs.NewLogger(cfg.Env)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger, Metrics: app.metrics}, obs.HealthHandlers{Checks: app.checks}, app.handlers)

	var wg sync.WaitGroup
	for _, job := range app.background {
		wg.Add(1)
		go func(job func(context.Context)) {
			defer wg.Done()
			job(ctx)
		}(job)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "rules_source", cfg.RulesSource, "blocks_source", cfg.BlocksSource, "session_store", cfg.SessionStore)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		stop()
	}
	wg.Wait()
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers   ginserver.Handlers
	metrics    *obs.Metrics
	checks     map[string]obs.ReadinessCheck
	background []func(context.Context)
	closers    []func() error
}

func (a *application) close(logger *slog.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{checks: map[string]obs.ReadinessCheck{}}
	app.metrics = obs.NewMetrics()

	format, err := daterange.ParseFormat(cfg.DateFormat)
	if err != nil {
		return nil, err
	}
	catalog, err := warnings.NewCatalog(warnings.Locale(cfg.Locale), warnings.Mode(cfg.NotifierMode))
	if err != nil {
		return nil, err
	}

	var db *mongodb.Client
	if cfg.MongoURI != "" {
		db, err = mongodb.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		app.closers = append(app.closers, func() error {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return db.Close(closeCtx)
		})
		app.checks["mongo"] = db.Ping
	}

	ruleSource, err := buildRuleSource(ctx, cfg, db, app, logger)
	if err != nil {
		return nil, err
	}

	var calendars availability.Repository
	switch cfg.BlocksSource {
	case "mongo":
		calendars = mongodb.NewCalendarRepository(db.DB)
	case "memory":
		calendars = memory.NewAvailabilityRepository()
	}
	var blocked policies.BlockedDateSource
	if calendars != nil {
		blocked = bookingwindow.CalendarBlockedDates{Calendars: calendars}
	}

	var sessions bookingwindow.SessionRepository
	switch cfg.SessionStore {
	case "redis":
		client, err := redisstore.NewClient(ctx, redisstore.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		app.closers = append(app.closers, client.Close)
		app.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		sessions = redisstore.NewSessionRepository(client, cfg.SessionTTL)
	default:
		memSessions := memory.NewSessionRepository(cfg.SessionTTL)
		sessions = memSessions
		app.background = append(app.background, func(ctx context.Context) {
			sweepSessions(ctx, memSessions, cfg.SessionTTL, logger)
		})
	}

	var (
		box   outbox.Outbox
		store infraoutbox.Store
	)
	if db != nil {
		mongoBox, err := infraoutbox.NewMongoStore(ctx, db.DB)
		if err != nil {
			return nil, fmt.Errorf("outbox: %w", err)
		}
		box, store = mongoBox, mongoBox
	} else {
		memBox := memory.NewOutbox()
		box, store = memBox, memBox
	}

	factory := bookingwindow.NewFactory(bookingwindow.Options{
		Rules:   ruleSource,
		Blocked: blocked,
		Catalog: catalog,
		Format:  format,
		Metrics: app.metrics,
		Logger:  logger,
	})
	if ruleSource == nil || blocked == nil {
		logger.Warn("booking window validation disabled", "rules_source", cfg.RulesSource, "blocks_source", cfg.BlocksSource)
	}

	locks := memory.NewKeyedMutex()
	encoder := outbox.JSONEventEncoder{}
	commandBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()
	widgetapp.Register(commandBus, queryBus, widgetapp.Deps{
		Sessions: sessions,
		Engines:  factory,
		Locks:    locks,
		Outbox:   box,
		Encoder:  encoder,
	})
	if calendars != nil {
		availabilityapp.Register(commandBus, queryBus, availabilityapp.CalendarDeps{
			Calendars: calendars,
			Locks:     locks,
			Outbox:    box,
			Encoder:   encoder,
		}, format)
	}
	rulesapp.Register(queryBus, factory.Resolver())
	logger.Debug("command handlers registered", "commands", commandBus.Keys())

	validator := middleware.NewStructValidator()
	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Logging(logger),
		middleware.Validation(validator),
		middleware.OutboxFlush(box),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryLogging(logger),
		middleware.QueryValidation(validator),
	)

	if cfg.KafkaEnabled() {
		if err := wireKafka(ctx, cfg, app, store, db, commandBusWithMiddleware, calendars != nil, logger); err != nil {
			return nil, err
		}
	} else {
		logger.Info("kafka disabled, outbox events stay local")
	}

	app.handlers = ginserver.Handlers{
		Widget: ginserver.WidgetHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
		},
		Inventory: ginserver.InventoryHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
			Format:   format,
		},
		Metrics: app.metrics.Handler(),
	}
	return app, nil
}

func buildRuleSource(ctx context.Context, cfg config.Config, db *mongodb.Client, app *application, logger *slog.Logger) (rules.Source, error) {
	var loader rulesource.Loader
	switch cfg.RulesSource {
	case "none":
		return nil, nil
	case "mongo":
		repo := mongodb.NewRulesRepository(db.DB)
		if cfg.RulesRefresh <= 0 {
			return repo, nil
		}
		loader = repo
	case "s3":
		object, err := s3store.NewRulesObject(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3RulesObject, logger)
		if err != nil {
			return nil, fmt.Errorf("s3 rules: %w", err)
		}
		loader = object
	default:
		loader = rulesource.File{Path: cfg.RulesFile}
	}

	snapshot := rulesource.NewSnapshot(loader, logger)
	if err := snapshot.Reload(ctx); err != nil {
		logger.Warn("inventory rules unavailable, validation stays inactive until reload", "source", cfg.RulesSource, "error", err)
	} else {
		logger.Info("inventory rules loaded", "source", cfg.RulesSource, "entries", snapshot.Len())
	}
	if cfg.RulesRefresh > 0 {
		app.background = append(app.background, func(ctx context.Context) {
			snapshot.Watch(ctx, cfg.RulesRefresh)
		})
	}
	return snapshot, nil
}

func wireKafka(ctx context.Context, cfg config.Config, app *application, store infraoutbox.Store, db *mongodb.Client, cmds commands.Bus, consumeBookings bool, logger *slog.Logger) error {
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		return fmt.Errorf("kafka producer: %w", err)
	}
	app.closers = append(app.closers, producer.Close)

	worker := &infraoutbox.Worker{
		Store:       store,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
		Logger:      logger.With("component", "outbox"),
	}
	app.background = append(app.background, func(ctx context.Context) {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("outbox worker stopped", "error", err)
		}
	})

	if !consumeBookings {
		return nil
	}
	var seen kafka.Inbox = inbox.NewMemoryStore()
	if db != nil {
		mongoInbox, err := inbox.NewMongoStore(ctx, db.DB, cfg.KafkaGroupID)
		if err != nil {
			return err
		}
		seen = mongoInbox
	}
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, nil, kafka.BookingEventsHandler{
		Commands: cmds,
		Inbox:    seen,
		Logger:   logger.With("component", "booking-events"),
	}, logger)
	if err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}
	app.closers = append(app.closers, consumer.Close)
	app.background = append(app.background, func(ctx context.Context) {
		if err := consumer.Run(ctx, []string{cfg.KafkaBookingsTopic}); err != nil {
			logger.Error("booking events consumer stopped", "error", err)
		}
	})
	return nil
}

func sweepSessions(ctx context.Context, sessions *memory.SessionRepository, ttl time.Duration, logger *slog.Logger) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(); n > 0 {
				logger.Debug("expired widget sessions removed", "count", n)
			}
		}
	}
}
