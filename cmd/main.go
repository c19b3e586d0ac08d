package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mbalabaev/food-order-service/internal/app"
	"github.com/mbalabaev/food-order-service/internal/auth"
	"github.com/mbalabaev/food-order-service/internal/config"
	"github.com/mbalabaev/food-order-service/internal/handler"
	"github.com/mbalabaev/food-order-service/internal/middleware"
	"github.com/mbalabaev/food-order-service/internal/notifier"
	"github.com/mbalabaev/food-order-service/internal/payments"
	"github.com/mbalabaev/food-order-service/internal/postgres"
	"github.com/mbalabaev/food-order-service/internal/repo"
	"github.com/mbalabaev/food-order-service/internal/service"
	"github.com/mbalabaev/food-order-service/pkg/cache"
	"github.com/mbalabaev/food-order-service/pkg/trm"

	"github.com/joho/godotenv"
)

const revocationSweepInterval = 2 * time.Minute

func main() {
	conf := config.New()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	var store interface {
		service.OrderRepo
		service.CartRepo
	}
	txManager := trm.NewNopManager()

	if conf.Storage == "postgres" {
		db, err := postgres.New(conf.Postgres)
		panicIfErr("failed to connect to db", err)
		defer db.Close()
		logger.Info("postgres connected")

		store = repo.NewPostgresRepo(db)
		txManager = trm.NewManager(db)
	} else {
		store = repo.NewMemoryRepo()
		logger.Warn("using in-memory storage, data will not survive restarts")
	}

	revocationCache := cache.NewLRUCache(conf.Auth.RevocationCapacity, conf.Auth.RevocationTTL)
	revocations := auth.NewCacheRevocations(revocationCache)
	resolver := auth.NewJWTResolver(conf.Auth.JWTSecret, revocations)

	contacts := notifier.NewHTTPContactLookup(
		conf.Services.UserServiceURL,
		conf.Services.RestaurantServiceURL,
		conf.Services.InternalToken,
		conf.Services.RequestTimeout,
	)
	dispatcher := notifier.NewKafkaDispatcher(logger, conf.Kafka, contacts)
	defer dispatcher.Close()

	gateway := payments.NewHTTPGateway(conf.Payments.GatewayURL, conf.Payments.APIKey, conf.Payments.RequestTimeout)

	orderService := service.NewOrderService(logger, txManager, store, store, dispatcher)
	cartService := service.NewCartService(logger, store)

	httpHandler := handler.NewHTTPHandler(logger, middleware.Auth(resolver), orderService, cartService, gateway)
	kafkaHandler := handler.NewKafkaHandler(logger, conf.Kafka, orderService)

	app := app.New(logger, conf)
	app.SetHTTPHandlers(httpHandler)
	app.SetConsumers(kafkaHandler)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	revocationCache.StartJanitor(ctx, revocationSweepInterval)

	panicIfErr("failed to start app", app.Start(ctx))
	<-ctx.Done()
	panicIfErr("failed to stop app", app.Stop())
}

func init() {
	godotenv.Load()
}

func newLogger(env string) *slog.Logger {
	switch env {
	case "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func panicIfErr(prefix string, err error) {
	if err != nil {
		panic(prefix + ": " + err.Error())
	}
}
