package extract

import (
	"net/http"

	"go.uber.org/zap"
)

// Option configures Run, ReadRequest, the handler adapters, and
// Service.
type Option interface {
	// Apply sets the Option value on a config.
	Apply(c *config)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(*config)

// Apply applies the option.
func (f OptionFunc) Apply(c *config) {
	f(c)
}

// ErrorWriter writes the response for a request whose extraction (or
// handler) failed.  status is the code picked by StatusFor.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, status int, err error)

type config struct {
	logger       *zap.Logger
	maxBodyBytes int64
	errorWriter  ErrorWriter
}

func newConfig(opts ...Option) *config {
	c := &config{
		logger:       zap.NewNop(),
		maxBodyBytes: DefaultMaxBodyBytes,
		errorWriter:  writePlainError,
	}
	for _, opt := range opts {
		opt.Apply(c)
	}
	return c
}

// WithLogger sets the logger.  The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return OptionFunc(func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// WithMaxBodyBytes limits how much of a request body is buffered.
// Non-positive values are ignored.
func WithMaxBodyBytes(n int64) Option {
	return OptionFunc(func(c *config) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	})
}

// WithErrorWriter replaces the default plain-text error response.
func WithErrorWriter(ew ErrorWriter) Option {
	return OptionFunc(func(c *config) {
		if ew != nil {
			c.errorWriter = ew
		}
	})
}

func writePlainError(w http.ResponseWriter, _ *http.Request, status int, err error) {
	http.Error(w, err.Error(), status)
}
