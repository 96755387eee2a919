package predictor

// config.go defines the predictor's internal configuration object and the
// functional options used to build it, following pkg/config.go's Option/
// applyOptions/defaultConfig idiom (there parameterized over K,V; the
// predictor has no such type parameters, so Option is non-generic here).
//
// © 2025 dbsp authors. MIT License.

import (
    "github.com/prometheus/client_golang/prometheus"
    "go.uber.org/zap"
)

// Option configures a Predictor at construction time.
type Option func(*config)

type config struct {
    params  Params
    logger  *zap.Logger
    metrics metricsSink
}

func defaultConfig() *config {
    return &config{
        params:  Defaults(),
        logger:  zap.NewNop(),
        metrics: noopMetrics{},
    }
}

// WithParams overrides the default (OriginalPaperCase) parameter set.
func WithParams(p Params) Option {
    return func(c *config) { c.params = p }
}

// WithLogger plugs an external zap.Logger. The predictor never logs on the
// compute hot path; it emits only the thread_count clamping warning and, in
// threaded mode, a debug line per completed mining pass.
func WithLogger(l *zap.Logger) Option {
    return func(c *config) {
        if l != nil {
            c.logger = l
        }
    }
}

// WithMetrics enables Prometheus metrics collection for the predictor.
// Passing nil disables metrics (default).
func WithMetrics(reg *prometheus.Registry) Option {
    return func(c *config) {
        if reg != nil {
            c.metrics = newPromMetrics(reg)
        }
    }
}

// applyOptions copies user-supplied options into cfg and validates the
// resulting parameter set.
func applyOptions(cfg *config, opts []Option) error {
    for _, opt := range opts {
        opt(cfg)
    }
    if cfg.params.ThreadCount != 0 && cfg.params.ThreadCount != 1 {
        cfg.logger.Warn("predictor: thread_count clamped to 1",
            zap.Int("requested", cfg.params.ThreadCount))
        cfg.params.ThreadCount = 1
    }
    return cfg.params.validate()
}
