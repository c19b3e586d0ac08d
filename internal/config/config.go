package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env     string `validate:"required,oneof=development stage production"`
	Storage string `validate:"required,oneof=postgres memory"`

	Http Http
	Cors CORS `validate:"required"`

	Auth     Auth     `validate:"required"`
	Kafka    Kafka    `validate:"required"`
	Postgres Postgres
	Services Services `validate:"required"`
	Payments Payments `validate:"required"`
}

type Http struct {
	Host string `validate:"required,hostname|ip"`
	Port string `validate:"required,gt=0,lte=65535"`
}

type CORS struct {
	AllowedOrigins []string `validate:"required,min=1,dive,url"`
}

type Auth struct {
	JWTSecret string `validate:"required"`

	// Revocation entries must outlive the longest-lived token; the cache
	// drops them afterwards on its own.
	RevocationTTL      time.Duration `validate:"gt=0"`
	RevocationCapacity int           `validate:"gte=1"`
}

type Kafka struct {
	Brokers []string `validate:"required,min=1,dive,hostname_port"`
	GroupID string   `validate:"required"`

	NotificationsTopic string `validate:"required"`
	PaymentEventsTopic string `validate:"required"`

	ReaderMaxWait time.Duration `validate:"gte=0"`
	BatchTimeout  time.Duration `validate:"gte=0"`
}

type Postgres struct {
	Host     string `validate:"omitempty,hostname|ip"`
	Port     int    `validate:"omitempty,gt=0,lte=65535"`
	DBName   string
	User     string
	Password string

	SSLMode string `validate:"omitempty,oneof=disable require verify-ca verify-full"`

	MaxOpenConns    int           `validate:"gte=0"`
	MaxIdleConns    int           `validate:"gte=0"`
	ConnMaxLifetime time.Duration `validate:"gte=0"`
}

type Services struct {
	UserServiceURL       string `validate:"required,url"`
	RestaurantServiceURL string `validate:"required,url"`
	InternalToken        string

	RequestTimeout time.Duration `validate:"gt=0"`
}

type Payments struct {
	GatewayURL string `validate:"required,url"`
	APIKey     string

	RequestTimeout time.Duration `validate:"gt=0"`
}

func New() Config {
	return Config{
		Env:     env("ENV", "development"),
		Storage: env("STORAGE", "postgres"),

		Http: Http{
			Host: env("HOST", "localhost"),
			Port: env("PORT", "8080"),
		},

		Cors: CORS{
			AllowedOrigins: strings.Split(env("ALLOWED_CORS_ORIGINS", "http://localhost:3000"), ","),
		},

		Auth: Auth{
			JWTSecret:          env("JWT_SECRET", ""),
			RevocationTTL:      envDuration("TOKEN_REVOCATION_TTL", 24*time.Hour),
			RevocationCapacity: envInt("TOKEN_REVOCATION_CAPACITY", 10000),
		},

		Kafka: Kafka{
			Brokers: strings.Split(env("KAFKA_BROKERS", "localhost:9092"), ","),
			GroupID: env("KAFKA_GROUP_ID", "order-service"),

			NotificationsTopic: env("KAFKA_NOTIFICATIONS_TOPIC", "order-notifications"),
			PaymentEventsTopic: env("KAFKA_PAYMENT_EVENTS_TOPIC", "payment-events"),

			ReaderMaxWait: envDuration("KAFKA_READER_MAX_WAIT", 10*time.Millisecond),
			BatchTimeout:  envDuration("KAFKA_BATCH_TIMEOUT", 10*time.Millisecond),
		},

		Postgres: Postgres{
			Host:     env("POSTGRES_HOST", "localhost"),
			Port:     envInt("POSTGRES_PORT", 5432),
			DBName:   env("POSTGRES_DB", "orders"),
			User:     env("POSTGRES_USER", ""),
			Password: env("POSTGRES_PASSWORD", ""),

			SSLMode: env("POSTGRES_SSL_MODE", "disable"),

			MaxOpenConns:    envInt("POSTGRES_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("POSTGRES_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: envDuration("POSTGRES_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Services: Services{
			UserServiceURL:       env("USER_SERVICE_URL", "http://localhost:3001"),
			RestaurantServiceURL: env("RESTAURANT_SERVICE_URL", "http://localhost:3002"),
			InternalToken:        env("INTERNAL_SERVICE_TOKEN", ""),
			RequestTimeout:       envDuration("SERVICE_REQUEST_TIMEOUT", 5*time.Second),
		},

		Payments: Payments{
			GatewayURL:     env("PAYMENT_GATEWAY_URL", "http://localhost:3003"),
			APIKey:         env("PAYMENT_GATEWAY_API_KEY", ""),
			RequestTimeout: envDuration("PAYMENT_GATEWAY_TIMEOUT", 10*time.Second),
		},
	}
}

func (c Config) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

func env(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}
