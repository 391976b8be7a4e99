// Package app builds the JobGrid API from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"cloud.google.com/go/storage"

	"github.com/Lllllllleong/jobgrid/internal/auth"
	"github.com/Lllllllleong/jobgrid/internal/config"
	"github.com/Lllllllleong/jobgrid/internal/events"
	"github.com/Lllllllleong/jobgrid/internal/gcp"
	"github.com/Lllllllleong/jobgrid/internal/httpapi"
	"github.com/Lllllllleong/jobgrid/internal/notify"
	"github.com/Lllllllleong/jobgrid/internal/planner"
	"github.com/Lllllllleong/jobgrid/internal/services"
	"github.com/Lllllllleong/jobgrid/internal/store"
	"github.com/Lllllllleong/jobgrid/internal/upload"
)

// App holds the long-lived clients of one function instance.
type App struct {
	Config  config.Config
	Store   store.Store
	Hub     *events.Hub
	Handler http.Handler

	closers []func() error
}

// New connects every backend named in cfg and assembles the HTTP handler.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if cfg.Auth.APIKey == "" {
		return nil, fmt.Errorf("IDENTITY_API_KEY environment variable must be set")
	}
	idSvc, err := gcp.NewIdentityService(ctx, cfg.Auth.APIKey)
	if err != nil {
		return nil, err
	}
	return NewWithAuth(ctx, cfg, auth.NewIdentity(idSvc))
}

// NewWithAuth is New with the auth provider supplied by the caller.
func NewWithAuth(ctx context.Context, cfg config.Config, provider auth.Provider) (*App, error) {
	a := &App{Config: cfg}

	st, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Store = st
	a.closers = append(a.closers, st.Close)

	up, err := a.newUploader(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	root, err := upload.OpenRoot(cfg.Upload.LocalRoot)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	if root != nil {
		a.closers = append(a.closers, root.Close)
	}
	images := upload.NewResolver(up, root)

	a.Hub = events.NewHub()
	n := notify.Default()
	if !n.Initialize(ctx) {
		slog.Warn("Notifications are unavailable.")
	}
	hub := a.Hub
	remove := n.OnResponse(func(r notify.Response) {
		hub.Publish(events.MakeEvent("", events.TypeNotificationTapped, 1, r))
	})
	a.closers = append(a.closers, func() error { remove(); return nil })

	profiles := services.NewProfiles(st, st, images)
	a.Handler = httpapi.NewHandler(httpapi.Deps{
		Jobs:        services.NewJobs(st, st, images),
		Profiles:    profiles,
		Accounts:    services.NewAccounts(provider, profiles),
		Auth:        provider,
		Uploader:    up,
		Hub:         a.Hub,
		Planner:     planner.NewBoards(),
		Notify:      n,
		AuthLimiter: httpapi.NewClientLimiter(cfg.Auth.RatePerSec, cfg.Auth.Burst, cfg.Auth.TrustProxy),
	})

	slog.Info("JobGrid API ready.",
		"store", cfg.Store.Backend,
		"upload", cfg.Upload.Backend,
		"localUploads", root != nil,
		"projectId", cfg.ProjectID,
	)
	return a, nil
}

// OpenStore connects the document store selected by cfg.Store.Backend.
func OpenStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.StoreFirestore:
		client, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
		if err != nil {
			return nil, err
		}
		return store.NewFirestore(client, cfg.Store.UsersCollection, cfg.Store.JobsCollection), nil
	case config.StoreSQLite:
		st, err := store.OpenSQLite(cfg.Store.SQLitePath, cfg.Store.UsersCollection, cfg.Store.JobsCollection)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return st, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

func (a *App) newUploader(ctx context.Context, cfg config.Config) (upload.Uploader, error) {
	switch cfg.Upload.Backend {
	case config.UploadCloudinary:
		return upload.NewCloudinary(cfg.Upload.CloudinaryURL, cfg.Upload.CloudinaryPreset), nil
	case config.UploadGCS:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		return upload.NewGCS(client, cfg.Upload.Bucket), nil
	}
	return nil, fmt.Errorf("unknown upload backend %q", cfg.Upload.Backend)
}

// Close releases every client in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
