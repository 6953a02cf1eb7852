package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shopsphere/shopsphere-backend/api/routes"
	"github.com/shopsphere/shopsphere-backend/internal/agents"
	"github.com/shopsphere/shopsphere-backend/internal/assignment"
	checkoutsvc "github.com/shopsphere/shopsphere-backend/internal/checkout"
	"github.com/shopsphere/shopsphere-backend/internal/commission"
	"github.com/shopsphere/shopsphere-backend/internal/delivery"
	"github.com/shopsphere/shopsphere-backend/internal/ledger"
	"github.com/shopsphere/shopsphere-backend/internal/notifications"
	"github.com/shopsphere/shopsphere-backend/internal/orders"
	"github.com/shopsphere/shopsphere-backend/internal/wallet"
	"github.com/shopsphere/shopsphere-backend/pkg/config"
	"github.com/shopsphere/shopsphere-backend/pkg/db"
	"github.com/shopsphere/shopsphere-backend/pkg/logger"
	"github.com/shopsphere/shopsphere-backend/pkg/mailer"
	"github.com/shopsphere/shopsphere-backend/pkg/metrics"
	"github.com/shopsphere/shopsphere-backend/pkg/migrate"
	"github.com/shopsphere/shopsphere-backend/pkg/redis"
)

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

	deliveryMetrics := metrics.NewDeliveryMetrics(prometheus.DefaultRegisterer)
	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)
	mail := mailer.New(cfg.SMTP)

	gdb := dbClient.DB()

	walletSvc, err := wallet.NewService(wallet.NewRepository(gdb))
	requireService(logg, "wallet", err)

	commissionSvc, err := commission.NewService(commission.NewRepository(gdb))
	requireService(logg, "commission", err)

	notificationsSvc, err := notifications.NewService(notifications.NewRepository(gdb), logg)
	requireService(logg, "notifications", err)

	checkoutService, err := checkoutsvc.NewService(dbClient, checkoutsvc.NewRepository(gdb), commissionSvc, notificationsSvc, logg)
	requireService(logg, "checkout", err)

	assignmentSvc, err := assignment.NewService(dbClient, assignment.NewRepository(gdb), cfg.Delivery, notificationsSvc, logg, deliveryMetrics)
	requireService(logg, "assignment", err)

	deliverySvc, err := delivery.NewService(dbClient, delivery.NewRepository(gdb), walletSvc, cfg.Delivery, notificationsSvc, mail, logg, deliveryMetrics)
	requireService(logg, "delivery", err)

	ledgerSvc, err := ledger.NewService(dbClient, ledger.NewRepository(gdb), walletSvc, notificationsSvc, logg, deliveryMetrics)
	requireService(logg, "ledger", err)

	ordersSvc, err := orders.NewService(dbClient, orders.NewRepository(gdb), assignmentSvc, notificationsSvc, logg)
	requireService(logg, "orders", err)

	agentsSvc, err := agents.NewService(dbClient, agents.NewRepository(gdb), logg)
	requireService(logg, "agents", err)

	handler := routes.NewRouter(cfg, logg, dbClient, redisClient, httpMetrics, routes.Services{
		Checkout:      checkoutService,
		Orders:        ordersSvc,
		Delivery:      deliverySvc,
		Assignment:    assignmentSvc,
		Agents:        agentsSvc,
		Commissions:   commissionSvc,
		Ledger:        ledgerSvc,
		Wallets:       walletSvc,
		Notifications: notificationsSvc,
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
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}

func requireService(logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(logg.WithField(context.Background(), "service", name), "failed to wire service", err)
	os.Exit(1)
}
