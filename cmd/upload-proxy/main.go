package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aula-lms/internal/config"
	"aula-lms/internal/handler"
	"aula-lms/internal/messaging"
	"aula-lms/internal/middleware"
	"aula-lms/internal/observability"
	"aula-lms/internal/upload"
	"aula-lms/internal/websocket"
)

func main() {
	cfg := config.Load()

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}
	observability.InitLogger(logLevel, logFormat)

	if err := cfg.ValidateUploadProxy(); err != nil {
		slog.Error("invalid upload proxy configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("starting upload proxy")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The event feed is optional; uploads work without it
	var (
		events handler.EventPublisher
		broker handler.Broker
	)
	if cfg.RabbitMQURL != "" {
		rmqCtx, rmqCancel := context.WithTimeout(ctx, 60*time.Second)
		rmq, err := messaging.NewRabbitMQWithRetry(rmqCtx, cfg.RabbitMQURL)
		rmqCancel()
		if err != nil {
			slog.Error("failed to connect to rabbitmq", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer rmq.Close()
		events, broker = rmq, rmq
		slog.Info("connected to rabbitmq")
	}

	hub := websocket.NewHub()

	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go func() {
		if err := hub.Run(hubCtx); err != nil && err != context.Canceled {
			slog.Error("hub error", slog.String("error", err.Error()))
		}
	}()
	slog.Info("progress hub started")

	// No client timeout: large videos stream for as long as they need
	cdnClient := &http.Client{}
	cdn := upload.NewCDN(cfg.CDNStorageURL, cfg.CDNPublicURL, cfg.CDNAccessKey, cdnClient)

	origins := middleware.ParseOrigins(cfg.AllowedOrigins)
	uploadHandler := handler.NewUploadHandler(cdn, hub, events)
	progressHandler := handler.NewProgressHandler(hub, origins)

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CORS(origins))
	r.Use(middleware.Metrics())

	r.Get("/health", handler.Health)
	r.Get("/health/ready", handler.Ready(map[string]handler.Check{
		"cdn":      handler.HTTPCheck(&http.Client{Timeout: 3 * time.Second}, cfg.CDNStorageURL),
		"rabbitmq": handler.BrokerCheck(broker),
	}))
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not Found")
	})

	var secret []byte
	if cfg.JWTSecret != "" {
		secret = []byte(cfg.JWTSecret)
	}

	uploadLimiter := middleware.NewRateLimiter(ctx, 2, 5)
	wsLimiter := middleware.NewRateLimiter(ctx, 10, 20)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(secret))

		r.With(uploadLimiter.Middleware()).Post("/api/upload", uploadHandler.Upload)
		// Browsers cannot set headers on websocket requests; Auth also
		// accepts ?token=
		r.With(wsLimiter.Middleware()).Get("/ws/uploads/{upload_id}", progressHandler.HandleConnection)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("upload proxy listening", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down upload proxy")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", slog.String("error", err.Error()))
	}

	cancel()
	hubCancel()

	slog.Info("upload proxy stopped gracefully")
}
