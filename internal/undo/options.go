package undo

import (
	"time"

	"github.com/dshills/undocore/internal/logging"
)

// options holds settings shared by SectionManager, Manager and Enhancer.
type options struct {
	logger *logging.Logger
	equal  func(a, b any) bool
	now    func() time.Time
}

func defaultOptions() options {
	return options{
		logger: logging.NullLogger,
		equal:  Same,
		now:    time.Now,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures a SectionManager, Manager or Enhancer.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		o.logger = logging.OrNull(l)
	}
}

// WithEqual replaces Same as the state equality used to detect no-op
// changes.
func WithEqual(equal func(a, b any) bool) Option {
	return func(o *options) {
		if equal != nil {
			o.equal = equal
		}
	}
}

// WithClock sets the clock used to timestamp history entries.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
