package app

import (
	"context"
	"fmt"
	"math/rand"
	nethttp "net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"short-order/server"
	"short-order/server/internal/game"
	httpnet "short-order/server/internal/net"
	"short-order/server/internal/session"
	"short-order/server/internal/telemetry"
	"short-order/server/logging"
	"short-order/server/logging/sinks"
)

// Options collects everything Run needs. Zero values fall back to defaults.
type Options struct {
	Addr   string
	Config server.Config
	Log    logging.Config
}

// OptionsFromEnv reads the SHORT_ORDER_* environment overrides.
func OptionsFromEnv() Options {
	opts := Options{
		Addr:   ":8080",
		Config: server.DefaultConfig(),
		Log:    logging.DefaultConfig(),
	}
	if addr := os.Getenv("SHORT_ORDER_ADDR"); addr != "" {
		opts.Addr = addr
	}
	if dir := os.Getenv("SHORT_ORDER_DATA_DIR"); dir != "" {
		opts.Config.DataDir = dir
	}
	if path := os.Getenv("SHORT_ORDER_LEVELS"); path != "" {
		opts.Config.LevelFile = path
	}
	if raw := os.Getenv("SHORT_ORDER_SEED"); raw != "" {
		if seed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			opts.Config.Seed = seed
		}
	}
	if raw := os.Getenv("SHORT_ORDER_TICK_RATE"); raw != "" {
		if rate, err := strconv.Atoi(raw); err == nil && rate > 0 {
			opts.Config.TickRate = rate
		}
	}
	if raw := os.Getenv("SHORT_ORDER_CUSTOMERS"); raw != "" {
		if enabled, err := strconv.ParseBool(raw); err == nil {
			opts.Config.CustomersEnabled = enabled
		}
	}
	return opts
}

// Run wires the full server and blocks until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	zl := zerolog.New(os.Stdout).With().Timestamp().Str("service", "short-order").Logger()
	logger := telemetry.WrapZerolog(zl)

	counters := &logging.Metrics{}
	metrics := telemetry.WrapMetrics(counters)

	router, cleanupLog, err := buildEventRouter(opts)
	if err != nil {
		return fmt.Errorf("build event router: %w", err)
	}
	defer cleanupLog()

	store, closeStore := openSessionStore(opts.Config.DataDir, logger)
	defer closeStore()

	ledger := session.NewLedger(store, logger, router)
	ledger.Restore(ctx)

	levels, err := game.LoadLevelProvider(opts.Config.LevelFile)
	if err != nil {
		return fmt.Errorf("load levels: %w", err)
	}

	seed := opts.Config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	world := game.NewWorld(game.WorldConfig{
		CustomersEnabled: opts.Config.CustomersEnabled,
		Coordinator:      opts.Config.Coordinator,
	}, levels, game.VariantLibraryDefault(), ledger, router, logger, metrics, rng)

	hub := server.NewHub(opts.Config, world, ledger, router, logger, metrics)
	if err := hub.StartRun(ctx); err != nil {
		return fmt.Errorf("start run: %w", err)
	}

	srv := &nethttp.Server{
		Addr:    opts.Addr,
		Handler: httpnet.NewHTTPHandler(hub, httpnet.HTTPHandlerConfig{Logger: logger}),
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info().Str("addr", opts.Addr).Int64("seed", seed).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
			errCh <- err
		}
	}()
	go hub.Run(ctx)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Warn().Err(err).Msg("http shutdown")
	}
	hub.PersistSession(shutdownCtx)
	return nil
}

// buildEventRouter assembles the gameplay event pipeline: always a console
// sink, plus an NDJSON file sink when a data directory exists.
func buildEventRouter(opts Options) (*logging.Router, func(), error) {
	cfg := opts.Log
	named := []logging.NamedSink{
		{Name: "console", Sink: sinks.NewConsoleSink(os.Stdout, cfg.Console)},
	}
	var jsonSink *sinks.JSONSink
	var jsonFile *os.File
	if opts.Config.DataDir != "" {
		path := cfg.JSON.FilePath
		if path == "" {
			path = filepath.Join(opts.Config.DataDir, "events.ndjson")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
			if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
				jsonFile = f
				jsonSink = sinks.NewJSONSink(f, cfg.JSON.FlushInterval)
				named = append(named, logging.NamedSink{Name: "json", Sink: jsonSink})
				if !cfg.HasSink("json") {
					cfg.EnabledSinks = append(cfg.EnabledSinks, "json")
				}
			}
		}
	}

	router, err := logging.NewRouter(logging.SystemClock{}, cfg, named)
	if err != nil {
		if jsonFile != nil {
			jsonFile.Close()
		}
		return nil, nil, err
	}
	cleanup := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		router.Close(closeCtx)
		if jsonFile != nil {
			jsonFile.Close()
		}
	}
	return router, cleanup, nil
}

// openSessionStore prefers the on-disk store and degrades to memory when the
// database cannot open. A broken disk never blocks play.
func openSessionStore(dataDir string, logger telemetry.Logger) (session.Store, func()) {
	if dataDir == "" {
		return session.NewMemoryStore(), func() {}
	}
	path := filepath.Join(dataDir, "sessions")
	store, err := session.OpenBadgerStore(path)
	if err != nil {
		if logger != nil {
			logger.Printf("falling back to in-memory sessions: %v", err)
		}
		return session.NewMemoryStore(), func() {}
	}
	return store, func() {
		if err := store.Close(); err != nil && logger != nil {
			logger.Printf("closing session store: %v", err)
		}
	}
}
