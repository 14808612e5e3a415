package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/telbill/dunning_service/internal/dunning_service/adapters/channels"
	"github.com/telbill/dunning_service/internal/dunning_service/app"
	"github.com/telbill/dunning_service/internal/dunning_service/middleware"
	"github.com/telbill/dunning_service/internal/dunning_service/repository/postgres"
	transportHttp "github.com/telbill/dunning_service/internal/dunning_service/transport/http"
	"github.com/telbill/dunning_service/internal/platform/config"
	"github.com/telbill/dunning_service/internal/platform/database"
	"github.com/telbill/dunning_service/internal/platform/logger"
	"github.com/telbill/dunning_service/internal/platform/messagebroker"
)

const (
	serviceName     = "dunning-service"
	shutdownTimeout = 15 * time.Second
)

// httpLogger is a middleware that logs HTTP requests using slog.
func httpLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			requestID := chiMiddleware.GetReqID(r.Context())

			next.ServeHTTP(ww, r)

			duration := time.Since(start)

			logger.LogAttrs(r.Context(), slog.LevelInfo, "HTTP request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status_code", ww.Status()),
				slog.Int64("duration_ms", duration.Milliseconds()),
				slog.String("request_id", requestID),
				slog.String("remote_ip", r.RemoteAddr),
			)
		}
		return http.HandlerFunc(fn)
	}
}

func main() {
	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	appLogger := logger.New(cfg.LogLevel)
	appLogger = appLogger.With("service", serviceName)

	appLogger.Info("Dunning service starting...",
		"http_port", cfg.ServerPort,
		"metrics_port", cfg.MetricsPort,
		"log_level", cfg.LogLevel,
	)

	dbPool, err := database.NewDBPool(mainCtx, cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	appLogger.Info("Successfully connected to PostgreSQL")

	var natsClient *messagebroker.NatsClient
	if cfg.NATSUrl != "" {
		natsClient, err = messagebroker.NewNatsClient(cfg.NATSUrl, serviceName, appLogger)
		if err != nil {
			appLogger.Error("Failed to connect to NATS", "url", cfg.NATSUrl, "error", err)
			os.Exit(1)
		}
		defer natsClient.Close()
		appLogger.Info("Successfully connected to NATS", "url", cfg.NATSUrl)
	} else {
		appLogger.Info("NATS URL not configured, event publication disabled")
	}

	customerRepo := postgres.NewPgCustomerRepository()
	ruleRepo := postgres.NewPgRuleRepository()
	logRepo := postgres.NewPgDunningLogRepository()
	curingRepo := postgres.NewPgCuringActionRepository()
	paymentRepo := postgres.NewPgPaymentRepository()
	notificationRepo := postgres.NewPgNotificationRepository()

	sender := channels.NewSimulatedSender(appLogger, 0.02, 5, 50)
	notifier := app.NewNotificationService(notificationRepo, sender, natsClient, appLogger)

	txm := app.NewPgxTxManager(dbPool)
	notifyTimeout := time.Duration(cfg.NotifyTimeoutSeconds) * time.Second

	dunningService := app.NewDunningService(
		customerRepo, ruleRepo, logRepo, notifier, dbPool, txm, appLogger, notifyTimeout,
	)
	curingService := app.NewCuringService(
		customerRepo, paymentRepo, curingRepo, notifier, dbPool, txm, appLogger,
		cfg.CuringSettlementThreshold, notifyTimeout,
	)
	paymentService := app.NewPaymentService(customerRepo, paymentRepo, curingService, dbPool, appLogger)
	appLogger.Info("Application services initialized")

	validate := validator.New()

	customerHandler := transportHttp.NewCustomerHandler(customerRepo, paymentRepo, notificationRepo, dbPool, appLogger, validate)
	ruleHandler := transportHttp.NewRuleHandler(ruleRepo, dbPool, appLogger, validate)
	dunningHandler := transportHttp.NewDunningHandler(dunningService, customerRepo, logRepo, dbPool, appLogger)
	curingHandler := transportHttp.NewCuringHandler(curingService, customerRepo, curingRepo, dbPool, appLogger, validate)
	paymentHandler := transportHttp.NewPaymentHandler(paymentService, paymentRepo, dbPool, appLogger, validate)
	portalHandler := transportHttp.NewPortalHandler(
		customerRepo, paymentRepo, notificationRepo, paymentService, dbPool, appLogger, validate,
		cfg.JWTSecret, time.Duration(cfg.JWTExpiryHours)*time.Hour,
		cfg.AdminEmail, cfg.AdminPasswordHash,
	)

	router := chi.NewRouter()
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Recoverer)
	router.Use(httpLogger(appLogger))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	router.Route("/api/v1", func(r chi.Router) {
		// Unauthenticated: login and the payment gateway callback.
		portalHandler.RegisterLogin(r)
		paymentHandler.RegisterWebhook(r)

		// Authenticated: customer portal self-service.
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(cfg.JWTSecret, appLogger))
			portalHandler.RegisterRoutes(r)
		})

		// Authenticated, admin only: management and execution surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(cfg.JWTSecret, appLogger))
			r.Use(middleware.RequireAdmin(appLogger))
			customerHandler.RegisterRoutes(r)
			ruleHandler.RegisterRoutes(r)
			dunningHandler.RegisterRoutes(r)
			curingHandler.RegisterRoutes(r)
			paymentHandler.RegisterRoutes(r)
		})
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler: metricsMux,
	}

	scheduler := app.NewScheduler(dunningService, appLogger, cfg.DunningCron)
	if err := scheduler.Start(); err != nil {
		appLogger.Error("Failed to start dunning scheduler", "schedule", cfg.DunningCron, "error", err)
		os.Exit(1)
	}

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		appLogger.Info("HTTP server starting", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server ListenAndServe error", "error", err)
			return err
		}
		appLogger.Info("HTTP server shut down gracefully.")
		return nil
	})

	g.Go(func() error {
		appLogger.Info("Metrics HTTP server starting", "address", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Metrics HTTP server ListenAndServe error", "error", err)
			return err
		}
		appLogger.Info("Metrics HTTP server shut down gracefully.")
		return nil
	})

	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, syscall.SIGINT, syscall.SIGTERM)

	g.Go(func() error {
		select {
		case sig := <-stopSignal:
			appLogger.Info("Received termination signal", "signal", sig.String())
			mainCancel()
			return nil
		case <-groupCtx.Done():
			return nil
		}
	})

	g.Go(func() error {
		<-groupCtx.Done()
		appLogger.Info("Initiating graceful shutdown...")

		scheduler.Stop()

		shutdownCtx, cancelShutdownTimeout := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdownTimeout()

		var shutdownErrors error
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Metrics HTTP server graceful shutdown failed", "error", err)
			shutdownErrors = errors.Join(shutdownErrors, fmt.Errorf("metrics http shutdown: %w", err))
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("HTTP server graceful shutdown failed", "error", err)
			shutdownErrors = errors.Join(shutdownErrors, fmt.Errorf("http shutdown: %w", err))
		}
		return shutdownErrors
	})

	appLogger.Info("Dunning service is ready and running.")
	if err := g.Wait(); err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Service group encountered an error during run/shutdown", "error", err)
		}
	}

	appLogger.Info("Dunning service shut down successfully.")
}
