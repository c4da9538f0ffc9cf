// Package app wires the database handle, services and HTTP server together
// and owns their startup and shutdown ordering.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/msomdec/jobly/internal/config"
	"github.com/msomdec/jobly/internal/handler"
	"github.com/msomdec/jobly/internal/metrics"
	"github.com/msomdec/jobly/internal/repository/sqlite"
	"github.com/msomdec/jobly/internal/service"
)

// App is a running instance of the job board.
type App struct {
	cfg     *config.Config
	db      *sqlite.DB
	metrics *metrics.Metrics
	srv     *http.Server
	handler http.Handler

	shutdownOnce sync.Once
	shutdownErr  error
}

// New loads the database image, ensures the schema, seeds a freshly created
// database and builds the HTTP stack. Nothing is served until Run.
func New(ctx context.Context, cfg *config.Config, version string) (*App, error) {
	db, err := sqlite.Load(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("load database: %w", err)
	}

	fresh, err := db.EnsureSchema(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	slog.Info("database schema ensured")

	hasher := service.NewBcryptHasher(cfg.BcryptCost)
	if fresh {
		if err := sqlite.Seed(ctx, db, hasher); err != nil {
			db.Close()
			return nil, fmt.Errorf("seed database: %w", err)
		}
	}

	if cfg.TokenTTL == 0 {
		slog.Warn("bearer tokens are issued without expiry; set TOKEN_TTL to bound their lifetime")
	}
	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	authService := service.NewAuthService(db.Users(), hasher, tokens)
	jobService := service.NewJobService(db.Jobs())
	appService := service.NewApplicationService(db.Applications())

	m := metrics.New()
	h := handler.Routes(authService, jobService, appService, handler.Options{
		Version:        version,
		LoginRateLimit: cfg.LoginRateLimit,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		Metrics:        m,
		Health:         db.Ping,
	})

	return &App{
		cfg:     cfg,
		db:      db,
		metrics: m,
		handler: h,
		srv: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
			MaxHeaderBytes:    1 << 20, // 1MB
		},
	}, nil
}

// Handler returns the HTTP handler, for tests that drive the API directly.
func (a *App) Handler() http.Handler {
	return a.handler
}

// DB returns the live database handle.
func (a *App) DB() *sqlite.DB {
	return a.db
}

// Run serves HTTP on the configured address until ctx is cancelled, then
// shuts down.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.srv.Addr)
	if err != nil {
		a.Shutdown(context.Background())
		return fmt.Errorf("listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", ln.Addr().String())
		if err := a.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case serveErr = <-errCh:
		slog.Error("server error", "error", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	return errors.Join(serveErr, a.Shutdown(shutdownCtx))
}

// Shutdown drains in-flight requests, then checkpoints the database to its
// file and closes the handle. Only the first call does any work.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownOnce.Do(func() {
		a.shutdownErr = a.shutdown(ctx)
	})
	return a.shutdownErr
}

func (a *App) shutdown(ctx context.Context) error {
	var errs []error

	if err := a.srv.Shutdown(ctx); err != nil {
		// A handler still inside a statement holds the handle, so the
		// checkpoint below runs after it regardless.
		slog.Error("server shutdown error", "error", err)
		errs = append(errs, fmt.Errorf("shutdown server: %w", err))
		if cerr := a.srv.Close(); cerr != nil {
			errs = append(errs, fmt.Errorf("close server: %w", cerr))
		}
	} else {
		slog.Info("server stopped")
	}

	start := time.Now()
	err := a.db.Checkpoint(context.WithoutCancel(ctx), a.cfg.DatabasePath)
	a.metrics.ObserveCheckpoint(time.Since(start), err)
	if err != nil {
		slog.Error("checkpoint database", "error", err)
		errs = append(errs, fmt.Errorf("checkpoint: %w", err))
	}

	if err := a.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	slog.Info("database closed")

	return errors.Join(errs...)
}
