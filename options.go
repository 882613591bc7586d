package bufchan

import "github.com/sirupsen/logrus"

// Option configures a Channel at construction time. Capacity and drop
// behavior are fixed once NewChannel returns; there is no runtime-mutable
// configuration.
type Option[T any] func(*Channel[T])

// WithLogger overrides the package default logger for one channel.
func WithLogger[T any](entry *logrus.Entry) Option[T] {
	return func(c *Channel[T]) {
		if entry != nil {
			c.logger = entry
		}
	}
}

// WithDropCallback registers a function invoked once per residual
// buffered value when Destroy tears down a channel that was closed with
// messages still queued. Without this option, residual values are
// discarded with a single warning log line.
func WithDropCallback[T any](fn func(T)) Option[T] {
	return func(c *Channel[T]) {
		c.onDrop = fn
	}
}
