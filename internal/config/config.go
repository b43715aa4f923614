package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type (
	Container struct {
		App         *App
		Token       *Token
		DB          *DB
		Mongo       *Mongo
		HTTP        *HTTP
		Redis       *Redis
		GRPC        *GRPC
		UserService *UserService
		Payment     *Payment
		Booking     *Booking
	}

	App struct {
		Name string
		Env  string
	}

	Token struct {
		Secret string
	}

	// DB selects the store. Host..Name only matter for the postgres driver.
	DB struct {
		Driver   string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Mongo struct {
		URI      string
		Database string
	}

	HTTP struct {
		Env            string
		Port           string
		AllowedOrigins string
		URL            string
	}

	Redis struct {
		Address  string
		Password string
	}

	GRPC struct {
		Port string
	}

	UserService struct {
		Address string
	}

	Payment struct {
		StripeSecretKey string
		Currency        string
	}

	Booking struct {
		LockEnabled bool
		LockTTL     time.Duration
	}
)

func New() (*Container, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Container{
		App: &App{
			Name: getEnv("APP_NAME", "webike-rental"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Token: &Token{
			Secret: os.Getenv("TOKEN_SECRET"),
		},
		DB: &DB{
			Driver:   getEnv("DB_DRIVER", DriverMongo),
			Host:     os.Getenv("DB_HOST"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
		},
		Mongo: &Mongo{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "bike-rental"),
		},
		HTTP: &HTTP{
			Port:           getEnv("HTTP_PORT", "8081"),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
			URL:            os.Getenv("HTTP_URL"),
			Env:            getEnv("APP_ENV", "development"),
		},
		Redis: &Redis{
			Address:  os.Getenv("REDIS_ADDRESS"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		GRPC: &GRPC{
			Port: os.Getenv("GRPC_PORT"),
		},
		UserService: &UserService{
			Address: os.Getenv("USER_SERVICE_ADDRESS"),
		},
		Payment: &Payment{
			StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
			Currency:        getEnv("PAYMENT_CURRENCY", "usd"),
		},
		Booking: &Booking{
			LockEnabled: getBool("BOOKING_LOCK_ENABLED", false),
			LockTTL:     getDuration("BOOKING_LOCK_TTL", 10*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Container) Validate() error {
	if c.Token.Secret == "" {
		return errors.New("TOKEN_SECRET is required")
	}
	switch c.DB.Driver {
	case DriverMongo, DriverMemory:
	case DriverPostgres:
		if c.DB.Host == "" || c.DB.Name == "" {
			return errors.New("DB_HOST and DB_NAME are required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DB.Driver)
	}
	if c.Booking.LockEnabled && c.Booking.LockTTL <= 0 {
		return errors.New("BOOKING_LOCK_TTL must be positive")
	}
	return nil
}

func (d *DB) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

func (g *GRPC) PortInt() int {
	port, err := strconv.Atoi(g.Port)
	if err != nil {
		return 50052 // дефолт если ошибка
	}
	return port
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
