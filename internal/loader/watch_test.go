package loader

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storydeck/internal/deck"
)

func TestNewWatcher_Defaults(t *testing.T) {
	w, err := NewWatcher(WatchConfig{Path: "testdata"}, nil)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	assert.Equal(t, DefaultDebounce, w.cfg.Debounce)
	assert.Equal(t, Extensions, w.cfg.Extensions)
	assert.Empty(t, w.file)
}

func TestNewWatcher_MissingPath(t *testing.T) {
	_, err := NewWatcher(WatchConfig{Path: "testdata/nope"}, nil)
	require.Error(t, err)
}

func TestWatcher_StopWithoutWatch(t *testing.T) {
	w, err := NewWatcher(WatchConfig{Path: "testdata"}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}

func TestWatcher_ReloadsChangedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storylets:\n  - id: a\n"), 0o644))

	w, err := NewWatcher(WatchConfig{Path: path, Debounce: 20 * time.Millisecond}, nil)
	require.NoError(t, err)

	var (
		mu     sync.Mutex
		counts []int
	)
	reload := func(p string) error {
		d := deck.New(nil)
		if err := LoadFile(d, p, Options{}); err != nil {
			return err
		}
		mu.Lock()
		counts = append(counts, d.Len())
		mu.Unlock()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- w.Watch(ctx, reload) }()

	// Give the watcher time to register before writing.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("storylets:\n  - id: a\n  - id: b\n"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(counts) > 0 && counts[len(counts)-1] == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-errCh)
	require.NoError(t, w.Stop())
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storylets: []\n"), 0o644))

	w, err := NewWatcher(WatchConfig{Path: dir, Debounce: 10 * time.Millisecond}, nil)
	require.NoError(t, err)

	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Watch(ctx, func(string) error {
			calls.Add(1)
			return nil
		})
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".deck.yaml.swp"), []byte("x"), 0o644))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())

	require.NoError(t, os.WriteFile(path, []byte("storylets: []\n"), 0o644))
	require.Eventually(t, func() bool { return calls.Load() > 0 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
	require.NoError(t, w.Stop())
}

func TestDebouncer_CollapsesBursts(t *testing.T) {
	d := newDebouncer(30 * time.Millisecond)
	defer d.Stop()

	var calls atomic.Int32
	var last atomic.Int32
	for i := range 5 {
		d.Trigger(func() {
			calls.Add(1)
			last.Store(int32(i))
		})
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(4), last.Load())
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)
	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	d.Stop()
	d.Trigger(func() { calls.Add(1) })

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}
