package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/Skotchmaster/marketplace_admin/pkg/config"
	pkgdb "github.com/Skotchmaster/marketplace_admin/pkg/db"
	"github.com/Skotchmaster/marketplace_admin/pkg/idempotency"
	"github.com/Skotchmaster/marketplace_admin/pkg/metrics"
	loggingmw "github.com/Skotchmaster/marketplace_admin/pkg/middleware/logging"

	"github.com/Skotchmaster/marketplace_admin/services/order/internal/httpserver"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/repo"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/service"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/transport"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API (and the outbox relay when KAFKA_BROKERS is set)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, logger, db, err := boot(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = pkgdb.Close(db) }()
		if err := config.RequireNonEmpty(string(cfg.JWTAccessSecret), "JWT_SECRET"); err != nil {
			return err
		}

		r := repo.New(db)
		if cfg.AutoMigrate {
			if err := migrate(ctx, r); err != nil {
				return err
			}
			logger.Info("migrations_applied")
		}

		m := metrics.New("order")

		deps := service.NewDeps(r)
		deps.Observer = m
		deps.Options = service.Options{
			TransitionTimeout: cfg.TransitionTimeout,
			CommissionRate:    cfg.CommissionRate,
			IdempotencyTTL:    cfg.IdempotencyTTL,
		}
		if cfg.RedisAddr != "" {
			rdb, err := idempotency.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
			if err != nil {
				return err
			}
			defer func() { _ = rdb.Close() }()
			deps.Idempotency = idempotency.NewRedisStore(rdb)
		} else {
			logger.Warn("idempotency_in_memory", "reason", "REDIS_ADDR is not set")
			deps.Idempotency = idempotency.NewMemoryStore()
		}

		var relayLoop *background
		if len(cfg.KafkaBrokers) > 0 {
			relay, producer, err := newRelay(cfg, db, logger, m)
			if err != nil {
				return err
			}
			defer func() { _ = producer.Close() }()
			relayLoop = startBackground(ctx, logger, relay.Run)
			// runs before the producer and the database are closed, on every return path
			defer relayLoop.Stop()
		} else {
			logger.Warn("outbox_relay_disabled", "reason", "KAFKA_BROKERS is not set")
		}

		e := echo.New()
		e.HideBanner = true
		e.Validator = transport.NewValidator()
		e.HTTPErrorHandler = httpserver.ErrorHandler
		e.Use(echomw.Recover())
		e.Use(echomw.RequestID())
		e.Use(loggingmw.RequestLogger(logger))
		e.Use(m.Middleware())
		e.Use(echomw.CORS())

		httpserver.Register(e, &httpserver.Deps{
			OrderHandler:   &httpserver.OrderHTTP{Svc: service.NewOrderService(deps)},
			VendorHandler:  &httpserver.VendorHTTP{Svc: service.NewVendorService(deps)},
			ProductHandler: &httpserver.ProductHTTP{Svc: service.NewProductService(deps)},
			JWTSecret:      cfg.JWTAccessSecret,
			Metrics:        m,
			Ready:          r,
		})

		srv := &http.Server{
			Addr:              ":" + strconv.Itoa(cfg.ServerPort),
			Handler:           e,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      15 * time.Second,
			ReadHeaderTimeout: 3 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("order_listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case <-ctx.Done():
		case err := <-errCh:
			if err != nil {
				return err
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown_error", "error", err)
		}
		relayLoop.Stop()

		logger.Info("order_stopped")
		return nil
	},
}
