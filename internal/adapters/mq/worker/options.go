// Package worker drains the trigger queue for the distribution service.
package worker

import (
	"github.com/okian/fila/pkg/logger"
)

// Option applies a configuration option to the TriggerWorker.
type Option func(*TriggerWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *TriggerWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *TriggerWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}
