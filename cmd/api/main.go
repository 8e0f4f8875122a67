package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/feastlyapp/feastly-backend/api/routes"
	"github.com/feastlyapp/feastly-backend/internal/auth"
	"github.com/feastlyapp/feastly-backend/internal/cart"
	"github.com/feastlyapp/feastly-backend/internal/menu"
	"github.com/feastlyapp/feastly-backend/internal/notifications"
	"github.com/feastlyapp/feastly-backend/internal/offers"
	"github.com/feastlyapp/feastly-backend/internal/orders"
	"github.com/feastlyapp/feastly-backend/internal/reviews"
	"github.com/feastlyapp/feastly-backend/internal/users"
	"github.com/feastlyapp/feastly-backend/pkg/auth/session"
	"github.com/feastlyapp/feastly-backend/pkg/config"
	"github.com/feastlyapp/feastly-backend/pkg/db"
	"github.com/feastlyapp/feastly-backend/pkg/logger"
	"github.com/feastlyapp/feastly-backend/pkg/metrics"
	"github.com/feastlyapp/feastly-backend/pkg/migrate"
	"github.com/feastlyapp/feastly-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:          userRepo,
		SessionManager:    sessionManager,
		JWTConfig:         cfg.JWT,
		PasswordConfig:    cfg.Password,
		IsUniqueViolation: func(err error) bool { return db.IsUniqueViolation(err, "") },
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	menuService, err := menu.NewService(menu.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create menu service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	offersService, err := offers.NewService(offers.ServiceParams{
		Repo:              offers.NewRepository(dbClient.DB()),
		Users:             userRepo,
		Notifier:          notificationsService,
		IsUniqueViolation: func(err error) bool { return db.IsUniqueViolation(err, "") },
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create offers service", err)
		os.Exit(1)
	}

	cartAdapter, err := cart.NewAdapter(redisClient, logg, cfg.Cart.TTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart adapter", err)
		os.Exit(1)
	}
	cartService, err := cart.NewService(cartAdapter, logg, cfg.Cart.WriteBuffer)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}
	defer cartService.Close()

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:     orders.NewRepository(dbClient.DB()),
		Tx:       dbClient,
		Cart:     cartService,
		Offers:   offersService,
		Notifier: notificationsService,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	reviewsService, err := reviews.NewService(reviews.ServiceParams{
		Repo:              reviews.NewRepository(dbClient.DB()),
		MenuRepo:          menu.NewRepository(dbClient.DB()),
		Tx:                dbClient,
		Logger:            logg,
		IsUniqueViolation: func(err error) bool { return db.IsUniqueViolation(err, "") },
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reviews service", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	router := routes.NewRouter(routes.RouterParams{
		Config:        cfg,
		Logger:        logg,
		DB:            dbClient,
		Redis:         redisClient,
		Sessions:      sessionManager,
		HTTPMetrics:   httpMetrics,
		Auth:          authService,
		Menu:          menuService,
		Cart:          cartService,
		Orders:        ordersService,
		Offers:        offersService,
		Reviews:       reviewsService,
		Notifications: notificationsService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutdown signal received, draining")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
