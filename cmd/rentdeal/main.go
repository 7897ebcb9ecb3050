package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"rentdeal/internal/app/commands"
	bookingapp "rentdeal/internal/app/handlers/booking"
	negotiationapp "rentdeal/internal/app/handlers/negotiation"
	reconcileapp "rentdeal/internal/app/handlers/reconcile"
	"rentdeal/internal/app/middleware"
	appoutbox "rentdeal/internal/app/outbox"
	"rentdeal/internal/app/policies"
	"rentdeal/internal/app/queries"
	"rentdeal/internal/app/uow"
	"rentdeal/internal/infra/broker/kafka"
	"rentdeal/internal/infra/config"
	mongodb "rentdeal/internal/infra/db/mongo"
	ginserver "rentdeal/internal/infra/http/gin"
	"rentdeal/internal/infra/obs"
	infraoutbox "rentdeal/internal/infra/outbox"
	"rentdeal/internal/infra/paygate"
	"rentdeal/internal/infra/storage/memory"
	redisstore "rentdeal/internal/infra/storage/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application bootstrap failed", "error", err)
		os.Exit(1)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	if app.outboxWorker != nil {
		go func() {
			if err := app.outboxWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers     ginserver.Handlers
	outboxWorker *infraoutbox.Worker
	ready        func() error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, error) {
	var (
		uowFactory uow.UoWFactory
		box        appoutbox.Outbox
		idStore    middleware.IdempotencyStore
		worker     *infraoutbox.Worker
		ready      = func() error { return nil }
	)

	switch cfg.StorageMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, err
		}
		offersRepo := mongodb.NewOfferRepository(client.DB)
		bookingsRepo := mongodb.NewBookingRepository(client.DB)
		if err := bookingsRepo.EnsureIndexes(ctx); err != nil {
			return application{}, err
		}
		uowFactory = mongodb.Factory{OffersRepo: offersRepo, BookingsRepo: bookingsRepo}
		store := infraoutbox.NewStore(client.DB)
		box = store
		ready = func() error { return client.Ping(context.Background()) }

		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return application{}, err
			}
			worker = &infraoutbox.Worker{
				Store:       store,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
			}
		} else {
			logger.Warn("kafka brokers not configured, domain events stay in outbox")
		}
	default:
		uowFactory = memory.Factory{
			OffersRepo:   memory.NewOfferRepository(),
			BookingsRepo: memory.NewBookingRepository(),
		}
		box = memory.NewOutbox()
	}

	if cfg.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return application{}, err
		}
		idStore = redisstore.NewIdempotencyStore(rdb, cfg.IdempotencyTTL)
	} else {
		idStore = memory.NewIdempotencyStore()
	}

	verifier := &paygate.Client{
		HTTP:    &http.Client{Timeout: cfg.PaygateTimeout},
		BaseURL: cfg.PaygateURL,
		Logger:  logger,
	}

	commandBus := newCommandBus(uowFactory, box, verifier, logger)
	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Validation(policies.SelfValidation{}),
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(box),
	)
	queryBus := newQueryBus(uowFactory)

	return application{
		handlers: ginserver.Handlers{
			Offer: ginserver.OfferHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBus,
			},
			Booking: ginserver.BookingHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBus,
			},
			Payment: ginserver.PaymentHandler{
				Commands: commandBusWithMiddleware,
			},
		},
		outboxWorker: worker,
		ready:        ready,
	}, nil
}

func newCommandBus(factory uow.UoWFactory, box appoutbox.Outbox, verifier policies.PaymentVerifier, logger *slog.Logger) *commands.InMemoryBus {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, negotiationapp.ProposeOfferCommand{}.Key(), &negotiationapp.ProposeOfferHandler{
		UoWFactory: factory,
		Outbox:     box,
	})
	commands.RegisterHandler(bus, negotiationapp.RespondToOfferCommand{}.Key(), &negotiationapp.RespondToOfferHandler{
		UoWFactory: factory,
		Outbox:     box,
		Logger:     logger,
	})
	commands.RegisterHandler(bus, reconcileapp.ReconcilePaymentCommand{}.Key(), &reconcileapp.ReconcilePaymentHandler{
		UoWFactory: factory,
		Verifier:   verifier,
		Outbox:     box,
		Logger:     logger,
	})
	commands.RegisterHandler(bus, bookingapp.RequestBookingCommand{}.Key(), &bookingapp.RequestBookingHandler{
		UoWFactory: factory,
		Outbox:     box,
	})
	commands.RegisterHandler(bus, bookingapp.CancelBookingCommand{}.Key(), &bookingapp.CancelBookingHandler{
		UoWFactory: factory,
		Outbox:     box,
	})
	return bus
}

func newQueryBus(factory uow.UoWFactory) queries.Bus {
	bus := queries.NewInMemoryBus()
	queries.RegisterHandler(bus, negotiationapp.ListHostOffersQuery{}.Key(), &negotiationapp.ListHostOffersHandler{UoWFactory: factory})
	queries.RegisterHandler(bus, negotiationapp.GetOfferQuery{}.Key(), &negotiationapp.GetOfferHandler{UoWFactory: factory})
	queries.RegisterHandler(bus, bookingapp.GetBookingQuery{}.Key(), &bookingapp.GetBookingHandler{UoWFactory: factory})
	return middleware.ChainQueries(bus)
}
