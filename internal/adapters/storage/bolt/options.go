package bolt

import (
	"time"
)

const defaultTimeout = time.Second

type config struct {
	timeout time.Duration
	noSync  bool
}

func defaultConfig() config {
	return config{timeout: defaultTimeout}
}

// Option applies a configuration option to Open.
type Option func(*config)

// WithTimeout bounds how long Open waits for the file lock.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithNoSync trades durability for write speed. Meant for bulk seeding,
// never for the live session store.
func WithNoSync() Option {
	return func(c *config) {
		c.noSync = true
	}
}
