package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/storydeck/internal/deck"
	"github.com/roach88/storydeck/internal/loader"
	"github.com/roach88/storydeck/internal/metrics"
)

// metricsShutdownTimeout bounds the graceful stop of the metrics server.
const metricsShutdownTimeout = 5 * time.Second

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Vars        []string
	Seed        uint64
	Debounce    time.Duration
	MetricsAddr string
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <path>",
		Short: "Reload and re-validate deck files as they change",
		Long: `Watch a deck file or a directory of deck files. Every file is loaded and
reshuffled once at start, then again each time it is saved.

With --metrics-addr the reshuffles of every reload are exported in the
Prometheus format at /metrics.

Examples:
  storydeck watch barks.yaml --var street_wealth=2
  storydeck watch ./decks --metrics-addr :9090`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Vars, "var", nil, "host context value as name=value (repeatable)")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "shuffle seed (random when unset)")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", loader.DefaultDebounce, "quiet period before reloading")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	return cmd
}

// reloader loads deck files into fresh decks and reports the outcome.
// Reloads can run on the watcher's timer goroutine, so output is serialized.
type reloader struct {
	opts    *WatchOptions
	seeded  bool
	metrics *metrics.Metrics
	logger  *slog.Logger
	f       *OutputFormatter

	mu sync.Mutex
}

func (r *reloader) reload(path string) error {
	ctx, err := contextFromVars(r.opts.Vars)
	if err != nil {
		return err
	}

	deckOpts := []deck.Option{
		deck.WithLogger(r.logger),
		deck.WithObserver(r.metrics.ForDeck(filepath.Base(path))),
	}
	if r.seeded {
		deckOpts = append(deckOpts, deck.WithSeed(r.opts.Seed))
	}

	d, loadErr := loader.NewDeck(path, ctx, loader.Options{Reshuffle: true}, deckOpts...)

	r.mu.Lock()
	defer r.mu.Unlock()

	fr := FileResult{Path: path}
	if loadErr != nil {
		fr.Error = &CLIError{Code: CodeFor(loadErr), Message: loadErr.Error()}
	} else {
		fr.Valid = true
		fr.Storylets = d.Len()
		fr.Pile = d.PileSize()
	}

	if r.f.JSON() {
		resp := CLIResponse{Status: "ok", Data: fr}
		if !fr.Valid {
			resp.Status = "error"
			resp.Error = fr.Error
		}
		if err := r.f.encode(resp); err != nil {
			return err
		}
	} else if fr.Valid {
		fmt.Fprintf(r.f.Writer, "✓ %s (%d storylets, %d eligible)\n", fr.Path, fr.Storylets, fr.Pile)
	} else {
		fmt.Fprintf(r.f.Writer, "✗ %s\n", fr.Path)
		fmt.Fprintf(r.f.Writer, "  %s: %s\n", fr.Error.Code, fr.Error.Message)
	}

	return loadErr
}

func runWatch(opts *WatchOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	logger := opts.logger(cmd.ErrOrStderr())

	if _, err := contextFromVars(opts.Vars); err != nil {
		_ = f.Error(ErrCodeBadArgument, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	}

	files, err := findDeckFiles([]string{path})
	if err != nil {
		code := ErrCodeScanError
		if errors.Is(err, os.ErrNotExist) {
			code = ErrCodeNotFound
		}
		_ = f.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot read deck files", err)
	}

	r := &reloader{
		opts:    opts,
		seeded:  cmd.Flags().Changed("seed"),
		metrics: metrics.New(metrics.Config{}, nil),
		logger:  logger,
		f:       f,
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if opts.MetricsAddr != "" {
		stop, err := serveMetrics(opts.MetricsAddr, r.metrics, logger)
		if err != nil {
			_ = f.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to start metrics server", err)
		}
		defer stop()
		f.VerboseLog("Metrics at http://%s/metrics", opts.MetricsAddr)
	}

	for _, file := range files {
		// Failures are printed; the watch continues so the file can be fixed.
		_ = r.reload(file)
	}

	w, err := loader.NewWatcher(loader.WatchConfig{Path: path, Debounce: opts.Debounce}, logger)
	if err != nil {
		_ = f.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to watch", err)
	}
	defer w.Stop()

	f.VerboseLog("Watching %s (Ctrl-C to stop)", path)
	if err := w.Watch(ctx, r.reload); err != nil {
		_ = f.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, "watch failed", err)
	}
	return nil
}

// serveMetrics starts an HTTP server exposing /metrics and returns a
// function that shuts it down.
func serveMetrics(addr string, m *metrics.Metrics, logger *slog.Logger) (func(), error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("starting metrics server", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	// Surface an immediate bind failure.
	select {
	case err, ok := <-errChan:
		if ok {
			return nil, fmt.Errorf("metrics server: %w", err)
		}
	case <-time.After(50 * time.Millisecond):
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("metrics server shutdown failed", "error", err)
		}
	}, nil
}
