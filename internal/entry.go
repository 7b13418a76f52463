// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atotto/clipboard"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/devflow/internal/api"
	"github.com/starford/devflow/internal/importer"
	"github.com/starford/devflow/internal/insights"
	"github.com/starford/devflow/internal/mcpserver"
	"github.com/starford/devflow/internal/narrative"
	"github.com/starford/devflow/internal/recordservice"
	"github.com/starford/devflow/internal/sse"
	"github.com/starford/devflow/internal/storage"
	"github.com/starford/devflow/internal/store"
	"github.com/starford/devflow/internal/termreport"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{out: os.Stdout, now: time.Now}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// runtime is the set of services shared by every command.
type runtime struct {
	cfg      *Config
	logger   *slog.Logger
	db       *store.DB
	files    *storage.FS
	records  *recordservice.Service
	insights *insights.Service
}

// open wires the store, the bundle directory and the services. broker may
// be nil for commands that do not serve events.
func (a *application) open(logger *slog.Logger, broker *sse.Broker) (*runtime, error) {
	cfg := a.config
	rt := &runtime{cfg: cfg, logger: logger}

	if cfg.Import.Enabled() {
		if err := os.MkdirAll(cfg.Import.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create import dir: %w", err)
		}
		files, err := storage.NewFS(cfg.Import.Path)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		rt.files = files
	}

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	rt.db = db

	recordOpts := []recordservice.Option{recordservice.WithClock(a.now)}
	insightOpts := []insights.Option{
		insights.WithCalendar(cfg.App.Calendar()),
		insights.WithClock(a.now),
		insights.WithTimeout(cfg.Summary.Timeout),
		insights.WithTimelineDays(cfg.Analytics.TimelineDays),
		insights.WithLogger(logger),
	}
	if cfg.Summary.Enabled {
		insightOpts = append(insightOpts, insights.WithGenerator(newGenerator(cfg.Summary)))
	}
	if broker != nil {
		recordOpts = append(recordOpts, recordservice.WithChangeFunc(broker.PublishChange))
		insightOpts = append(insightOpts, insights.WithEventFunc(broker.Emit))
	}

	rt.records = recordservice.NewService(db, recordOpts...)
	rt.insights = insights.NewService(db, insightOpts...)
	return rt, nil
}

func (rt *runtime) close() {
	if err := rt.db.Close(); err != nil {
		rt.logger.Warn("close store", slog.String("error", err.Error()))
	}
}

// syncFunc returns the bundle import function, or nil when no import
// directory is configured.
func (rt *runtime) syncFunc(broker *sse.Broker) func(ctx context.Context) error {
	if rt.files == nil {
		return nil
	}
	var cb importer.ChangeFunc
	if broker != nil {
		cb = importChanged(broker)
	}
	return func(ctx context.Context) error {
		return importer.Sync(ctx, rt.db, rt.files, rt.logger, cb)
	}
}

func (rt *runtime) initialSync(ctx context.Context, sync func(ctx context.Context) error) {
	if sync == nil {
		return
	}
	if err := sync(ctx); err != nil {
		rt.logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
}

func importChanged(broker *sse.Broker) importer.ChangeFunc {
	return func(action, path string) {
		broker.PublishChange("import", action, path)
	}
}

func newGenerator(c SummaryConfig) *narrative.Client {
	opts := []narrative.Option{
		narrative.WithEndpoint(c.BaseURL),
		narrative.WithModel(c.Model),
		narrative.WithMaxTokens(c.MaxTokens),
		narrative.WithTemperature(c.Temperature),
	}
	if c.Referer != "" {
		opts = append(opts, narrative.WithReferer(c.Referer))
	}
	return narrative.NewClient(c.APIKey, opts...)
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Run starts the HTTP server, the bundle watcher and the event broker, and
// blocks until ctx is cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(os.Stdout, cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("import_path", cfg.Import.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("timezone", cfg.App.Timezone),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.Bool("summary_enabled", cfg.Summary.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	rt, err := app.open(logger, broker)
	if err != nil {
		return err
	}
	defer rt.close()

	sync := rt.syncFunc(broker)
	rt.initialSync(ctx, sync)

	deps := api.Deps{
		Records:  rt.records,
		Insights: rt.insights,
		Events:   broker,
		Auth: api.AuthConfig{
			Mode:      cfg.Auth.Mode,
			Token:     cfg.Auth.Token,
			JWTSecret: cfg.Auth.JWTSecret,
			UserID:    cfg.App.UserID,
		},
	}
	if rt.files != nil {
		deps.Files = rt.files
		deps.Sync = sync
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := rt.db.Ping(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})

	r.Mount("/api", api.NewRouter(deps))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if rt.files != nil && cfg.Import.Watch {
		g.Go(func() error {
			return importer.Watch(gCtx, rt.db, rt.files, rt.files.Root(), logger, importChanged(broker))
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Open event streams would hold Shutdown until its deadline.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, `{"status":%q}`, status)
}

// RunMCP serves the analytics tools over stdio. Logs go to stderr since
// stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, app.config.App.LogLevel)
	slog.SetDefault(logger)

	rt, err := app.open(logger, nil)
	if err != nil {
		return err
	}
	defer rt.close()

	sync := rt.syncFunc(nil)
	rt.initialSync(ctx, sync)

	deps := mcpserver.Deps{Insights: rt.insights, UserID: app.config.App.UserID}
	if rt.files != nil {
		deps.Files = rt.files
		deps.Sync = sync
	}

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(deps).ServeStdio()
}

// cliRuntime opens the services for a one-shot command and imports the
// bundle directory first so reports include file-backed records.
func cliRuntime(ctx context.Context, opts []Option) (*application, *runtime, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(os.Stderr, max(app.config.App.LogLevel, slog.LevelWarn))

	rt, err := app.open(logger, nil)
	if err != nil {
		return nil, nil, err
	}
	rt.initialSync(ctx, rt.syncFunc(nil))
	return app, rt, nil
}

// RunStats prints the activity overview for the last days days.
func RunStats(ctx context.Context, days int, opts ...Option) error {
	app, rt, err := cliRuntime(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.close()

	ov, err := rt.insights.Overview(ctx, days)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	_, err = fmt.Fprintln(app.out, termreport.Overview(ov))
	return err
}

// RunDigest generates this week's digest for the configured user and prints
// it. With copyText the summary is also placed on the clipboard.
func RunDigest(ctx context.Context, copyText bool, opts ...Option) error {
	app, rt, err := cliRuntime(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.close()

	d, err := rt.insights.GenerateDigest(ctx, app.config.App.UserID)
	if err != nil {
		return fmt.Errorf("digest: %w", err)
	}
	if _, err := fmt.Fprintln(app.out, termreport.Digest(d)); err != nil {
		return err
	}
	if copyText {
		if err := clipboard.WriteAll(d.Summary); err != nil {
			return fmt.Errorf("digest: copy to clipboard: %w", err)
		}
		_, _ = fmt.Fprintln(app.out, "Copied to clipboard.")
	}
	return nil
}

// RunExport writes every record into the bundle file path, relative to the
// import directory.
func RunExport(ctx context.Context, path string, opts ...Option) error {
	app, rt, err := cliRuntime(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.close()

	if rt.files == nil {
		return fmt.Errorf("export: import.path is not configured")
	}
	n, err := importer.Export(ctx, rt.db, rt.files, path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	_, err = fmt.Fprintf(app.out, "Exported %d records to %s\n", n, path)
	return err
}
