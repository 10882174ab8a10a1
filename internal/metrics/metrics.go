package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/storydeck/internal/deck"
)

// Config names the exported metrics.
type Config struct {
	// Namespace prefixes every metric. Default: "storydeck"
	Namespace string

	// Subsystem follows the namespace. Default: "deck"
	Subsystem string

	// DurationBuckets are the reshuffle duration histogram buckets, in
	// seconds. Default: 10µs to ~330ms, doubling
	DurationBuckets []float64
}

// Metrics holds the Prometheus collectors for any number of decks. Each
// deck gets its own Observer via ForDeck; series are labelled by deck name.
//
// Metrics:
//   - storydeck_deck_reshuffles_total: Reshuffles by deck, mode and outcome
//   - storydeck_deck_reshuffle_duration_seconds: Time from start to finish or abandon
//   - storydeck_deck_draws_total: Draws by deck and storylet
//   - storydeck_deck_plays_total: Plays by deck and storylet
//   - storydeck_deck_resets_total: Resets by deck
//   - storydeck_deck_pile_size: Storylets left in the pile
//   - storydeck_deck_tick: Current tick
type Metrics struct {
	registry *prometheus.Registry

	reshuffles        *prometheus.CounterVec
	reshuffleDuration *prometheus.HistogramVec
	draws             *prometheus.CounterVec
	plays             *prometheus.CounterVec
	resets            *prometheus.CounterVec
	pileSize          *prometheus.GaugeVec
	tick              *prometheus.GaugeVec
}

// New creates the collectors and registers them with registry. A nil
// registry gets a fresh one.
func New(cfg Config, registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "storydeck"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "deck"
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = prometheus.ExponentialBuckets(0.00001, 2, 16)
	}

	m := &Metrics{
		registry: registry,

		reshuffles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "reshuffles_total",
				Help:      "Total number of reshuffles by mode (sync, async) and outcome (finished, abandoned)",
			},
			[]string{"deck", "mode", "outcome"},
		),

		reshuffleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "reshuffle_duration_seconds",
				Help:      "Duration of reshuffles in seconds, including time between incremental updates",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"deck", "mode"},
		),

		draws: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "draws_total",
				Help:      "Total number of storylets drawn",
			},
			[]string{"deck", "storylet"},
		),

		plays: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "plays_total",
				Help:      "Total number of storylets played",
			},
			[]string{"deck", "storylet"},
		),

		resets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "resets_total",
				Help:      "Total number of deck resets",
			},
			[]string{"deck"},
		),

		pileSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "pile_size",
				Help:      "Number of storylets left in the draw pile",
			},
			[]string{"deck"},
		),

		tick: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tick",
				Help:      "Current deck tick",
			},
			[]string{"deck"},
		),
	}

	registry.MustRegister(
		m.reshuffles,
		m.reshuffleDuration,
		m.draws,
		m.plays,
		m.resets,
		m.pileSize,
		m.tick,
	)
	return m
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

// ForDeck returns an observer that records the events of the deck called
// name. Register it with deck.WithObserver.
func (m *Metrics) ForDeck(name string) deck.Observer {
	return &deckObserver{m: m, deck: name}
}

type deckObserver struct {
	m    *Metrics
	deck string
}

// Observe implements deck.Observer.
func (o *deckObserver) Observe(e deck.Event) {
	m := o.m
	switch e.Type {
	case deck.EventReshuffleStarted:
		m.pileSize.WithLabelValues(o.deck).Set(0)

	case deck.EventReshuffleFinished:
		m.reshuffles.WithLabelValues(o.deck, mode(e), "finished").Inc()
		m.reshuffleDuration.WithLabelValues(o.deck, mode(e)).Observe(e.Duration.Seconds())
		m.pileSize.WithLabelValues(o.deck).Set(float64(e.Eligible))

	case deck.EventReshuffleAbandoned:
		m.reshuffles.WithLabelValues(o.deck, mode(e), "abandoned").Inc()
		m.reshuffleDuration.WithLabelValues(o.deck, mode(e)).Observe(e.Duration.Seconds())
		m.pileSize.WithLabelValues(o.deck).Set(0)

	case deck.EventDrawn:
		m.draws.WithLabelValues(o.deck, e.StoryletID).Inc()
		m.pileSize.WithLabelValues(o.deck).Dec()
		m.tick.WithLabelValues(o.deck).Set(float64(e.Tick))

	case deck.EventDrawEmpty:
		m.tick.WithLabelValues(o.deck).Set(float64(e.Tick))

	case deck.EventDrawFailed:
		m.pileSize.WithLabelValues(o.deck).Dec()
		m.tick.WithLabelValues(o.deck).Set(float64(e.Tick))

	case deck.EventPlayed:
		m.plays.WithLabelValues(o.deck, e.StoryletID).Inc()
		m.tick.WithLabelValues(o.deck).Set(float64(e.Tick))

	case deck.EventReset:
		m.resets.WithLabelValues(o.deck).Inc()
		m.tick.WithLabelValues(o.deck).Set(0)
	}
}

func mode(e deck.Event) string {
	if e.Async {
		return "async"
	}
	return "sync"
}
