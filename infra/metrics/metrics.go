// Package metrics exposes engine counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tradebook/domain/market"
)

const namespace = "tradebook"

// Source is what the metrics read. Everything it returns must be safe to
// call from the scrape goroutine.
type Source interface {
	Stats() *market.Stats
	QueueDepth() int
	Sequence() uint64
}

// Register adds collectors reading src to reg.
func Register(reg prometheus.Registerer, src Source) error {
	st := src.Stats()

	counter := func(name, help string, fn func() float64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, fn)
	}
	gauge := func(name, help string, fn func() float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, fn)
	}

	collectors := []prometheus.Collector{
		counter("orders_added_total", "Orders rested in a book.",
			func() float64 { return float64(st.OrdersAdded.Load()) }),
		counter("orders_reduced_total", "Partial cancels that left quantity resting.",
			func() float64 { return float64(st.OrdersReduced.Load()) }),
		counter("orders_removed_total", "Orders removed from a book.",
			func() float64 { return float64(st.OrdersRemoved.Load()) }),
		counter("dropped_unknown_symbol_total", "Orders dropped because their symbol has no book.",
			func() float64 { return float64(st.DroppedUnknownSymbol.Load()) }),
		counter("dropped_zero_quantity_total", "Commands dropped for a zero quantity.",
			func() float64 { return float64(st.DroppedZeroQuantity.Load()) }),
		counter("ignored_unknown_order_total", "Cancels and deletes naming no resting order.",
			func() float64 { return float64(st.IgnoredUnknownOrder.Load()) }),
		counter("rejected_total", "Commands rejected as precondition violations.",
			func() float64 { return float64(st.Rejected.Load()) }),
		gauge("live_orders", "Resting orders.",
			func() float64 { return float64(st.LiveOrders.Load()) }),
		gauge("live_levels", "Non-empty price levels.",
			func() float64 { return float64(st.LiveLevels.Load()) }),
		gauge("books", "Registered symbols.",
			func() float64 { return float64(st.Books.Load()) }),
		gauge("queue_depth", "Commands waiting for the engine.",
			func() float64 { return float64(src.QueueDepth()) }),
		gauge("sequence", "Last sequence number applied.",
			func() float64 { return float64(src.Sequence()) }),
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Handler serves the registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
