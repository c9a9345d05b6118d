// Copyright (c) 2025 Robert Clausecker <fuz@fuz.su>

package popcount

import (
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// An Option configures a Counter.
type Option func(*Counter)

// WithAllocator makes the Counter allocate result arrays from mem.
// The default is memory.DefaultAllocator.
func WithAllocator(mem memory.Allocator) Option {
	return func(c *Counter) {
		c.mem = mem
	}
}

// WithLogger sets the logger.  The default discards all output.
func WithLogger(log *zap.Logger) Option {
	return func(c *Counter) {
		c.log = log
	}
}

// WithMetrics makes the Counter record its calls in m.
func WithMetrics(m *Metrics) Option {
	return func(c *Counter) {
		c.metrics = m
	}
}

// WithParallel splits arrays of at least threshold elements across up
// to workers goroutines.  A threshold of 0 disables splitting, a worker
// count of 0 means GOMAXPROCS.
func WithParallel(threshold, workers int) Option {
	return func(c *Counter) {
		c.threshold = threshold
		c.workers = workers
	}
}

// WithKernel forces the kernel of the given name where one exists.
// See Kernels for the names in use.
func WithKernel(name string) Option {
	return func(c *Counter) {
		c.kernel = name
	}
}

// Config holds the settings that can be taken from the environment.
type Config struct {
	Kernel            string `envconfig:"KERNEL"`
	ParallelThreshold int    `envconfig:"PARALLEL_THRESHOLD" default:"0"`
	Workers           int    `envconfig:"WORKERS" default:"0"`
}

// ConfigFromEnv reads POPCOUNT_KERNEL, POPCOUNT_PARALLEL_THRESHOLD,
// and POPCOUNT_WORKERS.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	err := envconfig.Process("popcount", &cfg)
	return cfg, errors.Wrap(err, "reading popcount config")
}

// Options turns cfg into options for New.
func (cfg Config) Options() []Option {
	return []Option{
		WithKernel(cfg.Kernel),
		WithParallel(cfg.ParallelThreshold, cfg.Workers),
	}
}

// NewFromConfig is New with cfg applied before opts.
func NewFromConfig(cfg Config, opts ...Option) (*Counter, error) {
	return New(append(cfg.Options(), opts...)...)
}
