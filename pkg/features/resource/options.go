package resource

import "time"

type config struct {
	label      string
	staleTime  time.Duration
	retryCount int
	retryDelay time.Duration
}

func defaultConfig() config {
	return config{
		retryDelay: 250 * time.Millisecond,
	}
}

// Option configures a Resource at construction.
type Option func(*config)

// WithLabel sets the label of the underlying atom, used in logs, error
// messages and the devtools inspector.
func WithLabel(label string) Option {
	return func(c *config) { c.label = label }
}

// WithStaleTime sets how long fetched data satisfies Refresh without a
// refetch. Zero (the default) means every Refresh fetches.
func WithStaleTime(d time.Duration) Option {
	return func(c *config) { c.staleTime = d }
}

// WithRetry sets the number of retries after a failed fetch and the
// delay between attempts. The default is no retries.
func WithRetry(count int, delay time.Duration) Option {
	return func(c *config) {
		c.retryCount = count
		if delay > 0 {
			c.retryDelay = delay
		}
	}
}
