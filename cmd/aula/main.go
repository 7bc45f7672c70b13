package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aula-lms/internal/api"
	"aula-lms/internal/config"
	"aula-lms/internal/messaging"
	"aula-lms/internal/observability"
	"aula-lms/internal/querycache"
	"aula-lms/internal/redirect"
	"aula-lms/internal/service"
	"aula-lms/internal/session"
	"aula-lms/internal/storage"
	"aula-lms/internal/upload"
)

func main() {
	cfg := config.Load()

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "warn"
	}
	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "text"
	}
	// stdout belongs to command output
	observability.InitLoggerTo(os.Stderr, logLevel, logFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
	defer closeStore()

	cache := querycache.New(querycache.Options{
		StaleTime:       cfg.CacheStaleTime,
		GCTime:          cfg.CacheGCTime,
		MaxRetries:      cfg.CacheMaxRetries,
		RetryDelay:      time.Second,
		JanitorInterval: time.Minute,
	})
	defer cache.Close()

	// The manager needs the auth service, which needs the client; the
	// token is looked up lazily to break the cycle.
	var mgr *session.Manager
	tokens := api.TokenFunc(func() string { return mgr.Token() })

	client := api.NewClient(cfg.APIBaseURL, tokens,
		api.WithUnauthorizedHandler(func(ctx context.Context) {
			mgr.Logout(ctx)
			cache.Clear()
		}),
	)
	svc := service.New(client, cache, service.NewWriterNotifier(os.Stderr))

	mgr = newSessionManager(store, svc)
	mgr.Init(ctx)
	defer mgr.Close()

	cli := commandLine{
		svc:      svc,
		session:  mgr,
		cache:    cache,
		uploader: upload.NewUploader(cfg.UploadProxyURL, tokens, nil),
		out:      os.Stdout,
	}
	cli.watch = func(ctx context.Context) error {
		return watch(ctx, cfg, mgr, svc, cache, os.Stdout)
	}

	if err := cli.run(ctx, os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
		}
		os.Exit(1)
	}
}

// newSessionManager keeps the session user in step with profile updates
func newSessionManager(store storage.Store, svc *service.Services) *session.Manager {
	mgr := session.NewManager(store, svc.Auth)
	svc.Auth.OnProfileChange(mgr.SetUser)
	return mgr
}

// openStore returns the device-local store the config selects
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, func(), error) {
	switch cfg.StorageBackend {
	case config.StorageRedis:
		rc, err := config.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewRedisStore(rc, "aula"), func() { rc.Close() }, nil
	case config.StorageMemory:
		return storage.NewMemoryStore(), func() {}, nil
	default:
		return storage.NewFileStore(cfg.StatePath), func() {}, nil
	}
}

type printNavigator struct {
	out io.Writer
}

func (n printNavigator) Navigate(path string) {
	fmt.Fprintf(n.out, "-> %s\n", path)
}

// watch follows session changes through the redirect controller and, with
// an event feed configured, keeps the cache in step with backend changes.
func watch(ctx context.Context, cfg *config.Config, mgr *session.Manager, svc *service.Services, cache *querycache.Client, out io.Writer) error {
	if cfg.RabbitMQURL != "" {
		rmqCtx, rmqCancel := context.WithTimeout(ctx, 30*time.Second)
		rmq, err := messaging.NewRabbitMQWithRetry(rmqCtx, cfg.RabbitMQURL)
		rmqCancel()
		if err != nil {
			return fmt.Errorf("event feed: %w", err)
		}
		defer rmq.Close()

		invalidator := messaging.NewCacheInvalidator(cache, service.Domains)
		consumer := messaging.NewEventConsumer(rmq, messaging.EventHandlerFunc(func(ctx context.Context, ev messaging.Event) {
			invalidator.HandleEvent(ctx, ev)
			fmt.Fprintf(out, "[%s] %s %s\n", ev.Domain, ev.Type, ev.ID)

			if ev.Domain == "notifications" {
				if n, err := svc.Notifications.UnreadCount(ctx); err == nil {
					fmt.Fprintf(out, "%d unread notifications\n", n)
				}
			}
		}))
		if err := consumer.Start(ctx); err != nil {
			return fmt.Errorf("event feed: %w", err)
		}
		slog.Info("following live updates")
	}

	fmt.Fprintln(out, "Watching; press Ctrl+C to stop")
	err := redirect.NewController(mgr, printNavigator{out: out}).Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}
