package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/artmixer/atelier/config"
	redisadapter "github.com/artmixer/atelier/internal/adapters/redis"
	"github.com/artmixer/atelier/internal/admin"
	"github.com/artmixer/atelier/internal/api"
	"github.com/artmixer/atelier/internal/gallery"
	"github.com/artmixer/atelier/internal/preset"
	"github.com/artmixer/atelier/internal/session"
	"github.com/artmixer/atelier/internal/transfer"
)

// App is the assembled service graph used by the CLIs.
type App struct {
	Config   config.AppConfig
	Logger   *slog.Logger
	Session  *session.Manager
	Client   *api.Client
	Transfer *transfer.Service
	Gallery  *gallery.Service
	Admin    *admin.Service

	redis *redis.Client
}

// NewApp builds the full graph from configuration: session store per
// the configured backend, session manager, call gateway, and the
// domain services on top of it.
func NewApp(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	app := &App{Config: cfg, Logger: logger}

	store, err := app.buildStore(cfg.Session)
	if err != nil {
		return nil, err
	}

	app.Session, err = session.NewManager(ctx, session.ManagerOptions{
		Store:      store,
		LoginURL:   cfg.API.BaseURL + "/auth/login",
		HTTPClient: &http.Client{Timeout: cfg.API.Timeout},
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create session manager: %w", err)
	}

	app.Client, err = api.New(api.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Session: app.Session,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}

	tracker := transfer.NewTracker(transfer.TrackerOptions{
		Client:   app.Client,
		Interval: cfg.Poll.Interval,
		Logger:   logger,
	})
	app.Transfer = transfer.NewService(transfer.ServiceOptions{
		Client:  app.Client,
		Tracker: tracker,
		Logger:  logger,
	})

	app.Gallery, err = gallery.NewService(gallery.ServiceOptions{
		Client:     app.Client,
		Classifier: preset.NewClassifier(nil),
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create gallery service: %w", err)
	}

	app.Admin, err = admin.NewService(admin.ServiceOptions{
		Client: app.Client,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create admin service: %w", err)
	}

	return app, nil
}

func (a *App) buildStore(cfg config.SessionConfig) (session.Store, error) {
	switch cfg.Backend {
	case config.SessionBackendRedis:
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return redisadapter.NewSessionStore(a.redis), nil
	default:
		store, err := session.NewFileStore(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("create session file store: %w", err)
		}
		return store, nil
	}
}

// Close releases held connections.
func (a *App) Close() error {
	a.Transfer.Tracker().Cancel()
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
