package cache

// Metrics receives one event per memoized call outcome. Implementations
// must be safe for concurrent use.
type Metrics interface {
	// Hit records a result served from an entry or the memory tier.
	Hit(function string)
	// Miss records a call that ran the wrapped function.
	Miss(function string)
	// Corrupt records an entry that existed but could not be read or decoded.
	Corrupt(function string)
	// Stored records a written entry and its size in bytes.
	Stored(function string, bytes int)
}

// NoopMetrics discards every event.
type NoopMetrics struct{}

func (NoopMetrics) Hit(string)         {}
func (NoopMetrics) Miss(string)        {}
func (NoopMetrics) Corrupt(string)     {}
func (NoopMetrics) Stored(string, int) {}
