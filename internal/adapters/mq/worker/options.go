// Package worker flushes queued rating writes to the media server.
package worker

import (
	"time"

	"github.com/dtt-git/stash-battle/pkg/logger"
)

// Option applies a configuration option to the Writer.
type Option func(*Writer)

// WithWriteTimeout caps a single flush call.
func WithWriteTimeout(d time.Duration) Option {
	return func(w *Writer) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithLogger sets a custom logger for the writer.
func WithLogger(l logger.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}
