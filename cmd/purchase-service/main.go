package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/eaglebank/purchase-service/internal/clock"
	purchasecmd "github.com/eaglebank/purchase-service/internal/command"
	"github.com/eaglebank/purchase-service/internal/config"
	"github.com/eaglebank/purchase-service/internal/events"
	"github.com/eaglebank/purchase-service/internal/handler"
	"github.com/eaglebank/purchase-service/internal/logging"
	"github.com/eaglebank/purchase-service/internal/metrics"
	"github.com/eaglebank/purchase-service/internal/models"
	purchaseqry "github.com/eaglebank/purchase-service/internal/query"
	redisClient "github.com/eaglebank/purchase-service/internal/redis"
	"github.com/eaglebank/purchase-service/internal/repository"
	"github.com/eaglebank/purchase-service/internal/schema"
	"github.com/eaglebank/purchase-service/internal/server"
	"github.com/eaglebank/purchase-service/internal/storage"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	if envErr != nil {
		logger.Debug("no .env file found; relying on existing environment")
	}
	gin.SetMode(cfg.GinMode)

	if cfg.RunMigrations {
		if err := storage.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.WithError(err).Fatal("run migrations")
		}
	}

	ctx := context.Background()
	db, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("open database")
	}
	defer db.Close()

	clk := clock.System()

	// Redis backs the view cache and the event stream. Without it both are
	// inert and every read goes to Postgres.
	cacheLog := logging.Component(logger, "view-cache")
	views := redisClient.NewViewCache[models.PurchaseView](nil, cfg.PurchaseViewTTL, cacheLog)
	var publisher *events.Publisher
	if cfg.CacheEnabled() {
		rdb, err := redisClient.Connect(ctx, redisClient.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.WithError(err).Fatal("connect to redis")
		}
		defer rdb.Close()
		views = redisClient.NewViewCache[models.PurchaseView](rdb.Client, cfg.PurchaseViewTTL, cacheLog)
		publisher = events.NewPublisher(rdb.Client, clk)
	} else {
		logger.Info("REDIS_ADDR not set; view cache and event stream disabled")
	}

	// --- CQRS wiring ---
	writeRepo := repository.NewPurchaseWriteRepository(db)
	readRepo := repository.NewPurchaseReadRepository(db, views)

	commandSvc := purchasecmd.NewPurchaseCommandService(writeRepo, readRepo, publisher, clk, logger)
	querySvc := purchaseqry.NewPurchaseQueryService(readRepo, clk)

	m := metrics.New()
	purchaseHandler := handler.NewPurchaseHandler(
		commandSvc, querySvc, schema.NewValidator(clk), m, cfg.ErrorStatus(), logger,
	)

	srv := server.New(server.Deps{
		Config:    cfg,
		Logger:    logger,
		Metrics:   m,
		Clock:     clk,
		Purchases: purchaseHandler,
	})

	go func() {
		logger.WithField("addr", cfg.HTTPAddress()).Info("purchase service listening")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("http server error")
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.WithError(err).Error("graceful shutdown error")
	}
}
