package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storydeck/internal/deck"
	"github.com/roach88/storydeck/internal/env"
	"github.com/roach88/storydeck/internal/storylet"
)

func newObservedDeck(t *testing.T, m *Metrics, name string, ids ...string) *deck.Deck {
	t.Helper()
	d := deck.New(nil, deck.WithSeed(1), deck.WithObserver(m.ForDeck(name)))
	for _, id := range ids {
		require.NoError(t, d.Add(storylet.New(id)))
	}
	return d
}

func TestNew_Defaults(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(Config{}, reg)
	assert.Same(t, reg, m.Registry())

	d := newObservedDeck(t, m, "barks", "a")
	require.NoError(t, d.Reshuffle(nil, nil))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "storydeck_deck_reshuffles_total")
	assert.Contains(t, names, "storydeck_deck_reshuffle_duration_seconds")
	assert.Contains(t, names, "storydeck_deck_pile_size")
}

func TestObserver_DrawsAndPlays(t *testing.T) {
	m := New(Config{}, nil)
	d := newObservedDeck(t, m, "streets", "docks", "market")

	require.NoError(t, d.Reshuffle(nil, nil))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.pileSize.WithLabelValues("streets")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reshuffles.WithLabelValues("streets", "sync", "finished")))

	s, err := d.Draw()
	require.NoError(t, err)
	require.NoError(t, d.Play(s))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.draws.WithLabelValues("streets", s.ID)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.plays.WithLabelValues("streets", s.ID)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pileSize.WithLabelValues("streets")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.tick.WithLabelValues("streets")))

	d.Reset()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resets.WithLabelValues("streets")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.tick.WithLabelValues("streets")))
}

func TestObserver_EmptyAndFailedDraws(t *testing.T) {
	m := New(Config{}, nil)
	d := deck.New(nil, deck.WithSeed(1), deck.WithObserver(m.ForDeck("gate")))

	s, err := d.Draw()
	require.NoError(t, err)
	require.Nil(t, s)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tick.WithLabelValues("gate")))

	toll := storylet.New("toll")
	toll.UpdateOnDrawn = []env.Update{env.MustUpdate("gold", "gold - 3")}
	require.NoError(t, d.Add(toll))
	require.NoError(t, d.Reshuffle(nil, nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pileSize.WithLabelValues("gate")))

	_, err = d.Draw()
	require.Error(t, err)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.pileSize.WithLabelValues("gate")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.tick.WithLabelValues("gate")))
	assert.Equal(t, 0, testutil.CollectAndCount(m.draws))
}

func TestObserver_AsyncAndAbandoned(t *testing.T) {
	m := New(Config{}, nil)
	d := newObservedDeck(t, m, "encounters", "a", "b", "c")

	require.NoError(t, d.ReshuffleAsync(nil, nil, nil))
	for d.InProgress() {
		_, err := d.Advance(1)
		require.NoError(t, err)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reshuffles.WithLabelValues("encounters", "async", "finished")))

	broken := storylet.New("broken")
	require.NoError(t, broken.SetCondition("missing"))
	require.NoError(t, d.Add(broken))
	require.Error(t, d.Reshuffle(nil, nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.reshuffles.WithLabelValues("encounters", "sync", "abandoned")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.pileSize.WithLabelValues("encounters")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.reshuffleDuration))
}

func TestObserver_SeparatesDecks(t *testing.T) {
	m := New(Config{Namespace: "game", Subsystem: "cards"}, nil)
	a := newObservedDeck(t, m, "a", "x")
	b := newObservedDeck(t, m, "b", "x")

	require.NoError(t, a.Reshuffle(nil, nil))
	require.NoError(t, b.Reshuffle(nil, nil))
	_, err := a.Draw()
	require.NoError(t, err)

	expected := `
# HELP game_cards_draws_total Total number of storylets drawn
# TYPE game_cards_draws_total counter
game_cards_draws_total{deck="a",storylet="x"} 1
`
	require.NoError(t, testutil.CollectAndCompare(m.draws, strings.NewReader(expected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pileSize.WithLabelValues("b")))
}

func TestHandler(t *testing.T) {
	m := New(Config{}, nil)
	d := newObservedDeck(t, m, "barks", "a")
	_, err := d.DrawHand(1, true)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `storydeck_deck_draws_total{deck="barks",storylet="a"} 1`)
}
