// Package metrics exports deck activity to Prometheus.
//
//	m := metrics.New(metrics.Config{}, nil)
//	d := deck.New(ctx, deck.WithObserver(m.ForDeck("barks")))
//	http.Handle("/metrics", m.Handler())
package metrics
