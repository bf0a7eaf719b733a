// Package prom exports memoization outcomes as Prometheus counters.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-memocache/cache"
)

// Adapter implements cache.Metrics. Every series carries a "function" label
// holding the memoized function name. Safe for concurrent use.
type Adapter struct {
	hits    *prometheus.CounterVec
	misses  *prometheus.CounterVec
	corrupt *prometheus.CounterVec
	writes  *prometheus.CounterVec
	bytes   *prometheus.CounterVec
}

// New constructs the adapter and registers its collectors.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	counter := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
		}, []string{"function"})
	}
	a := &Adapter{
		hits:    counter("hits_total", "Calls served from the cache"),
		misses:  counter("misses_total", "Calls that ran the memoized function"),
		corrupt: counter("corrupt_entries_total", "Unreadable entries treated as misses"),
		writes:  counter("writes_total", "Entries written"),
		bytes:   counter("written_bytes_total", "Encoded bytes written"),
	}
	reg.MustRegister(a.hits, a.misses, a.corrupt, a.writes, a.bytes)
	return a
}

// Hit increments the hit counter for fn.
func (a *Adapter) Hit(fn string) { a.hits.WithLabelValues(fn).Inc() }

// Miss increments the miss counter for fn.
func (a *Adapter) Miss(fn string) { a.misses.WithLabelValues(fn).Inc() }

// Corrupt increments the corrupt entry counter for fn.
func (a *Adapter) Corrupt(fn string) { a.corrupt.WithLabelValues(fn).Inc() }

// Stored records one write of n bytes for fn.
func (a *Adapter) Stored(fn string, n int) {
	a.writes.WithLabelValues(fn).Inc()
	a.bytes.WithLabelValues(fn).Add(float64(n))
}

var _ cache.Metrics = (*Adapter)(nil)
