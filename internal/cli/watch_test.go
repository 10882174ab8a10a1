package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storydeck/internal/metrics"
)

// syncBuffer is a bytes.Buffer safe for the watcher's timer goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestReloader_ReportsAndExportsMetrics(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "gate.yaml", gateDeck)
	bad := writeFile(t, dir, "bad.yaml", "storylets:\n  - id: a\n    condition: missing_flag\n")

	buf := &bytes.Buffer{}
	m := metrics.New(metrics.Config{}, nil)
	r := &reloader{
		opts:    &WatchOptions{RootOptions: &RootOptions{Format: "text"}, Seed: 3},
		seeded:  true,
		metrics: m,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		f:       &OutputFormatter{Format: "text", Writer: buf},
	}

	require.NoError(t, r.reload(good))
	require.NoError(t, r.reload(good))
	require.Error(t, r.reload(bad))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "✓ "+good+" (2 storylets, 1 eligible)\n✓ "+good+" (2 storylets, 1 eligible)\n"), out)
	assert.Contains(t, out, "✗ "+bad+"\n  E011: ")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `storydeck_deck_reshuffles_total{deck="gate.yaml",mode="sync",outcome="finished"} 2`)
	assert.Contains(t, body, `storydeck_deck_pile_size{deck="gate.yaml"} 1`)
}

func TestReloader_JSON(t *testing.T) {
	good := writeFile(t, t.TempDir(), "gate.yaml", gateDeck)

	buf := &bytes.Buffer{}
	r := &reloader{
		opts:    &WatchOptions{RootOptions: &RootOptions{Format: "json"}},
		metrics: metrics.New(metrics.Config{}, nil),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		f:       &OutputFormatter{Format: "json", Writer: buf},
	}
	require.NoError(t, r.reload(good))

	var fr FileResult
	resp := decodeResponse(t, buf.String(), &fr)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, fr.Valid)
	assert.Equal(t, 1, fr.Pile)
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "gate.yaml", gateDeck)

	out := &syncBuffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"watch", path, "--debounce", "20ms"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "✓ "+path)
	}, 5*time.Second, 10*time.Millisecond)

	// Rewrite until the watcher, which starts after the initial load,
	// picks the change up.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("storylets: [\n"), 0o644)
		return strings.Contains(out.String(), "✗ "+path)
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
	assert.Contains(t, out.String(), "E020: ")
}

func TestWatch_MissingPath(t *testing.T) {
	out, err := executeCommand(t, "--format", "json", "watch", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decodeResponse(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestServeMetrics(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New(metrics.Config{}, nil)

	stop, err := serveMetrics("127.0.0.1:0", m, logger)
	require.NoError(t, err)
	stop()

	_, err = serveMetrics("127.0.0.1:99999", m, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metrics server")
}
