package classfile

import (
	"runtime"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Option describes a function used to configure reading or writing a class.
type Option func(*config)

type config struct {
	logger      zerolog.Logger
	optimize    bool
	stackMaps   bool
	concurrency int
}

func newConfig(opts []Option) *config {
	cfg := &config{
		logger:      log.Logger,
		optimize:    true,
		stackMaps:   true,
		concurrency: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.concurrency < 1 {
		cfg.concurrency = 1
	}
	return cfg
}

// WithLogger sets the logger that receives unknown-attribute warnings and
// read/write debug events.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithOptimize enables or disables the peephole and nop-elimination passes
// run on built method bodies. Enabled by default.
func WithOptimize(enabled bool) Option {
	return func(cfg *config) {
		cfg.optimize = enabled
	}
}

// WithStackMaps enables or disables writing StackMapTable attributes.
// Enabled by default.
func WithStackMaps(enabled bool) Option {
	return func(cfg *config) {
		cfg.stackMaps = enabled
	}
}

// WithConcurrency sets the number of classes ParseAll decodes at once.
func WithConcurrency(n int) Option {
	return func(cfg *config) {
		cfg.concurrency = n
	}
}
