package index

import "github.com/prometheus/client_golang/prometheus"

// DefaultMaxSegments mirrors the uint16 num_segments field the original C
// wp_index used: a generous ceiling that exists to bound cursor-sentinel
// style bookkeeping and pathological on-disk directories, not a realistic
// operating limit.
const DefaultMaxSegments = 65536

// Config holds the coordinator-level settings spec.md leaves to the
// embedder: how many segments an index may grow to, and how large each
// segment's postings region may get before rollover.
type Config struct {
	MaxSegments          int
	SegmentCapacityBytes uint64
	Registerer           prometheus.Registerer
}

// Option configures an Index at Create/Load time, in the functional-options
// style Epokhe-bitdb's core.Open uses (WithRolloverThreshold, WithFsync, ...).
type Option func(*Config)

// WithMaxSegments overrides DefaultMaxSegments.
func WithMaxSegments(n int) Option {
	return func(c *Config) { c.MaxSegments = n }
}

// WithSegmentCapacityBytes overrides the per-segment postings capacity
// that triggers rollover.
func WithSegmentCapacityBytes(n uint64) Option {
	return func(c *Config) { c.SegmentCapacityBytes = n }
}

// WithRegisterer attaches a Prometheus registerer so the index's metrics
// are observable. When none is supplied, metrics are still counted but are
// not registered anywhere.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Config) { c.Registerer = reg }
}

func newConfig(opts ...Option) Config {
	c := Config{
		MaxSegments:          DefaultMaxSegments,
		SegmentCapacityBytes: 0, // 0 means segment.DefaultCapacityBytes
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
