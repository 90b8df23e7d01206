package dispatch

import (
	"time"

	"github.com/okian/fila/pkg/logger"
)

// Option applies a configuration option to the Dispatcher.
type Option func(*Dispatcher)

// WithInterval sets the sync cycle interval.
func WithInterval(d time.Duration) Option {
	return func(di *Dispatcher) {
		if d > 0 {
			di.interval = d
		}
	}
}

// WithLogger sets a custom logger for the dispatcher.
func WithLogger(l logger.Logger) Option {
	return func(di *Dispatcher) {
		if l != nil {
			di.logger = l
		}
	}
}
