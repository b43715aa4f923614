package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/adapter/handler/http"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/adapter/logger"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/adapter/memory"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/adapter/mongo"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/adapter/payment"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/adapter/postgres"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/adapter/prometheus"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/adapter/redis"
	grpcapp "github.com/sm8ta/webike_rental_microservice_nikita/internal/app/grpc"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/config"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/ports"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/services"

	httptransport "github.com/go-openapi/runtime/client"
	"github.com/go-openapi/strfmt"
	"github.com/go-playground/validator/v10"
	"github.com/pressly/goose"
	redisClient "github.com/redis/go-redis/v9"
	user_client "github.com/sm8ta/webike_user_microservice_nikita/pkg/client"
)

const migrationsDir = "./internal/adapter/postgres/migrations"

type App struct {
	Config      *config.Container
	Logger      ports.LoggerPort
	Store       ports.Store
	RedisClient *redisClient.Client
	HTTPRouter  *http.Router
	GRPCServer  *grpcapp.App

	closeStore func(ctx context.Context) error
}

func New(ctx context.Context, cfg *config.Container) (*App, error) {
	// Set logger
	loggerAdapter := logger.NewLoggerAdapter(cfg.App.Env)
	loggerAdapter.Info("Starting the application", map[string]interface{}{
		"app":    cfg.App.Name,
		"env":    cfg.App.Env,
		"driver": cfg.DB.Driver,
	})

	store, closeStore, err := openStore(ctx, cfg, loggerAdapter)
	if err != nil {
		return nil, err
	}

	// Set redis; without an address cache and lock stay in process
	var (
		redisConn *redisClient.Client
		cache     ports.CachePort = memory.NewCache()
		locker    ports.LockPort  = memory.NewLocker()
	)
	if cfg.Redis.Address != "" {
		redisConn = redisClient.NewClient(&redisClient.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       0,
		})
		if _, err := redisConn.Ping(ctx).Result(); err != nil {
			_ = closeStore(ctx)
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		cache = redis.NewRedisAdapter(redisConn)
		locker = redis.NewLocker(redisConn, loggerAdapter)
	}

	// Payments
	var gateway ports.PaymentGateway
	if cfg.Payment.StripeSecretKey != "" {
		gateway = payment.NewBreakerGateway(
			payment.NewStripeGateway(cfg.Payment.StripeSecretKey, cfg.Payment.Currency),
			payment.NewBreaker(5, 30*time.Second, time.Minute),
			loggerAdapter,
		)
	} else {
		loggerAdapter.Warn("STRIPE_SECRET_KEY is empty, using sandbox payments", nil)
		gateway = payment.NewSandboxGateway()
	}

	// Validate
	validate := validator.New()

	// Observability
	metrics := prometheus.NewPrometheusAdapter()

	// Services
	var bookingOpts []services.BookingOption
	if cfg.Booking.LockEnabled {
		bookingOpts = append(bookingOpts, services.WithBookingLock(locker, cfg.Booking.LockTTL))
	}

	availability := services.NewAvailabilityChecker(store)
	aggregates := services.NewAggregateService(store, store, store, cache, loggerAdapter)
	bikeService := services.NewBikeService(store, store, store, store, store, aggregates, loggerAdapter, validate, cache)
	bookingService := services.NewBookingService(store, store, store, availability, gateway, loggerAdapter, validate, bookingOpts...)
	reviewService := services.NewReviewService(store, store, aggregates, loggerAdapter, validate)
	categoryService := services.NewCategoryService(store, store, loggerAdapter, validate)
	userService := services.NewUserService(store, store, store, loggerAdapter)

	// User service client init
	var userClient *user_client.UserMicroservice
	if cfg.UserService.Address != "" {
		transport := httptransport.New(cfg.UserService.Address, "", []string{"http"})
		userClient = user_client.New(transport, strfmt.Default)
	}

	// HTTP Handlers
	tokenService := http.NewJWTTokenService(cfg.Token.Secret, loggerAdapter)
	router, err := http.NewRouter(cfg.HTTP, tokenService, store, http.Handlers{
		Bike:     http.NewBikeHandler(bikeService, bookingService, loggerAdapter, metrics),
		Booking:  http.NewBookingHandler(bookingService, loggerAdapter, metrics),
		Review:   http.NewReviewHandler(reviewService, loggerAdapter, metrics),
		Category: http.NewCategoryHandler(categoryService, loggerAdapter, metrics),
		User:     http.NewUserHandler(userService, loggerAdapter, metrics, userClient),
	})
	if err != nil {
		_ = closeStore(ctx)
		if redisConn != nil {
			redisConn.Close()
		}
		return nil, fmt.Errorf("failed to initialize router: %w", err)
	}

	return &App{
		Config:      cfg,
		Logger:      loggerAdapter,
		Store:       store,
		RedisClient: redisConn,
		HTTPRouter:  router,
		GRPCServer:  grpcapp.New(loggerAdapter, store, cfg.GRPC.PortInt()),
		closeStore:  closeStore,
	}, nil
}

func openStore(ctx context.Context, cfg *config.Container, log ports.LoggerPort) (ports.Store, func(context.Context) error, error) {
	switch cfg.DB.Driver {
	case config.DriverMemory:
		log.Warn("Using in-memory store, data is lost on restart", nil)
		return memory.NewStore(), func(context.Context) error { return nil }, nil

	case config.DriverPostgres:
		db, err := sql.Open("postgres", cfg.DB.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to ping database: %w", err)
		}
		if err := goose.Up(db, migrationsDir); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return postgres.NewStore(db), func(context.Context) error { return db.Close() }, nil

	default:
		store, err := mongo.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, nil, fmt.Errorf("failed to create indexes: %w", err)
		}
		return store, store.Close, nil
	}
}

// Run serves HTTP and gRPC; it returns when either server fails or is stopped.
func (a *App) Run() error {
	errCh := make(chan error, 2)

	go func() {
		if err := a.GRPCServer.Run(); err != nil {
			errCh <- err
		}
	}()

	listenAddr := fmt.Sprintf("%s:%s", a.Config.HTTP.URL, a.Config.HTTP.Port)
	a.Logger.Info("Starting HTTP server", map[string]interface{}{
		"addr": listenAddr,
	})

	go func() {
		if err := a.HTTPRouter.Serve(listenAddr); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	if err := <-errCh; err != nil {
		a.Logger.Error("Server error", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	return nil
}

// Stops all services
func (a *App) Stop(ctx context.Context) error {
	a.Logger.Info("Shutting down gracefully...", nil)

	var errs []error

	if err := a.HTTPRouter.Shutdown(ctx); err != nil {
		a.Logger.Error("HTTP shutdown error", map[string]interface{}{
			"error": err.Error(),
		})
		errs = append(errs, err)
	}

	a.GRPCServer.Stop()

	if err := a.closeStore(ctx); err != nil {
		a.Logger.Error("Database close error", map[string]interface{}{
			"error": err.Error(),
		})
		errs = append(errs, err)
	}

	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Logger.Error("Redis close error", map[string]interface{}{
				"error": err.Error(),
			})
			errs = append(errs, err)
		}
	}

	a.Logger.Info("Application stopped successfully", nil)
	return errors.Join(errs...)
}
