package dql

import (
	"time"

	"go.uber.org/zap"

	"github.com/dqlang/dql/exec"
	"github.com/dqlang/dql/rows"
)

// Options configures an Engine, following the teacher's functional-options
// convention (options.go's Options/DefaultOptions/Option/WithX).
type Options struct {
	Logger      *zap.Logger
	Decoder     rows.Decoder
	RetryPolicy exec.RetryPolicy
	SchemaTTL   time.Duration
}

// DefaultOptions mirrors the teacher's DefaultOptions: a no-op logger, the
// default decoder, and a caching TTL long enough to spare most statements a
// DescribeTable round trip without going stale across a long REPL session.
func DefaultOptions() *Options {
	return &Options{
		Logger:      zap.NewNop(),
		Decoder:     rows.DefaultDecoder(),
		RetryPolicy: exec.DefaultRetryPolicy(),
		SchemaTTL:   5 * time.Minute,
	}
}

// Option is a function type that modifies Options for use with New().
type Option func(*Options)

// WithLogger overrides the default no-op zap.Logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *Options) {
		if log != nil {
			o.Logger = log
		}
	}
}

// WithDecoder overrides the default rows.Decoder.
func WithDecoder(d rows.Decoder) Option {
	return func(o *Options) {
		if d != nil {
			o.Decoder = d
		}
	}
}

// WithRetryPolicy overrides the executor's DefaultRetryPolicy.
func WithRetryPolicy(p exec.RetryPolicy) Option {
	return func(o *Options) { o.RetryPolicy = p }
}

// WithSchemaTTL overrides how long a table's DescribeTable result is cached.
// A zero TTL disables caching.
func WithSchemaTTL(ttl time.Duration) Option {
	return func(o *Options) { o.SchemaTTL = ttl }
}
