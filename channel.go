// Package bufchan implements a bounded, multi-producer/multi-consumer
// message channel: a fixed-capacity FIFO queue guarded by a mutex and two
// condition variables, with an explicit close signal that wakes every
// blocked sender and receiver, plus a Select coordinator that waits on
// several channels at once.
//
// A Channel is the synchronization engine; the payload type T is never
// inspected, copied beyond a plain assignment, or interpreted — callers
// own whatever T refers to.
package bufchan

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/greg2105/bufchan/internal/ring"
)

// Channel is an independently addressable, bounded FIFO synchronization
// object. The zero value is not usable; construct one with NewChannel.
type Channel[T any] struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	buf      *ring.Buffer[T]
	open     bool
	capacity int // immutable after construction; read by Cap without locking

	// waiting holds the readiness signals any in-flight Select calls have
	// registered on this channel. The channel posts to every member on each
	// state change and each select deregisters itself before returning, which is what
	// keeps this from degenerating into the dangling single-pointer
	// hazard described for the reference design.
	waiting map[*readinessSignal]struct{}

	logger *logrus.Entry
	onDrop func(T)
}

// NewChannel returns an open channel with an empty FIFO of the given
// capacity. Capacity zero (rendezvous) is not supported.
func NewChannel[T any](capacity int, opts ...Option[T]) (*Channel[T], error) {
	if capacity <= 0 {
		return nil, ErrZeroCapacity
	}
	c := &Channel[T]{
		buf:      ring.NewBuffer[T](capacity),
		open:     true,
		capacity: capacity,
		waiting:  make(map[*readinessSignal]struct{}),
		logger:   defaultLogger,
	}
	c.notFull = sync.NewCond(&c.mu)
	c.notEmpty = sync.NewCond(&c.mu)
	for _, opt := range opts {
		opt(c)
	}
	c.logger.WithField("capacity", capacity).Debug("channel created")
	return c, nil
}

// Len reports the number of currently buffered values.
func (c *Channel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Len()
}

// Cap reports the fixed capacity of the channel.
func (c *Channel[T]) Cap() int {
	return c.capacity
}

// postReadiness wakes every Select currently registered on this channel.
// Must be called with c.mu held.
func (c *Channel[T]) postReadiness() {
	for sig := range c.waiting {
		sig.post()
	}
}

// Send enqueues v. When blocking is true and the channel is full, Send
// waits until a slot frees up, the channel closes, or ctx is done. When
// blocking is false, a full channel yields StatusWouldBlock immediately.
func (c *Channel[T]) Send(ctx context.Context, v T, blocking bool) (Status, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()

	if !c.open {
		c.mu.Unlock()
		return StatusClosed, ErrChannelClosed
	}

	if c.buf.Full() {
		if !blocking {
			c.mu.Unlock()
			return StatusWouldBlock, nil
		}
		if err := c.waitFor(ctx, c.notFull, func() bool { return c.open && c.buf.Full() }); err != nil {
			c.mu.Unlock()
			return StatusOther, err
		}
		if !c.open {
			c.mu.Unlock()
			return StatusClosed, ErrChannelClosed
		}
	}

	if !c.buf.Push(v) {
		c.mu.Unlock()
		return StatusOther, errors.Wrap(ErrBufferFault, "send: push rejected by non-full buffer")
	}
	c.postReadiness()
	c.notEmpty.Signal()
	c.mu.Unlock()
	return StatusSuccess, nil
}

// TrySend is a convenience non-blocking Send.
func (c *Channel[T]) TrySend(v T) Status {
	status, _ := c.Send(context.Background(), v, false)
	return status
}

// Receive dequeues the next value. When blocking is true and the buffer
// is empty, Receive waits until a value arrives, ctx is done, or the
// channel closes. A closed-but-still-buffered channel keeps returning
// StatusSuccess until the buffer drains — only an empty, closed channel
// returns StatusClosed. See the "close-time drain policy" design note.
func (c *Channel[T]) Receive(ctx context.Context, blocking bool) (T, Status, error) {
	var zero T
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()

	if c.buf.Empty() {
		if !c.open {
			c.mu.Unlock()
			return zero, StatusClosed, ErrChannelClosed
		}
		if !blocking {
			c.mu.Unlock()
			return zero, StatusWouldBlock, nil
		}
		if err := c.waitFor(ctx, c.notEmpty, func() bool { return c.open && c.buf.Empty() }); err != nil {
			c.mu.Unlock()
			return zero, StatusOther, err
		}
		if c.buf.Empty() {
			// Only reachable once closed: waitFor only returns with the
			// buffer still empty when the close broadcast woke us.
			c.mu.Unlock()
			return zero, StatusClosed, ErrChannelClosed
		}
	}

	v, ok := c.buf.Pop()
	if !ok {
		c.mu.Unlock()
		return zero, StatusOther, errors.Wrap(ErrBufferFault, "receive: pop rejected by non-empty buffer")
	}
	c.postReadiness()
	c.notFull.Signal()
	c.mu.Unlock()
	return v, StatusSuccess, nil
}

// TryReceive is a convenience non-blocking Receive.
func (c *Channel[T]) TryReceive() (T, Status) {
	v, status, _ := c.Receive(context.Background(), false)
	return v, status
}

// Close transitions the channel from open to closed. It is idempotent in
// effect — a second call returns StatusClosed — but the transition itself
// happens exactly once and wakes every waiter on both conditions.
func (c *Channel[T]) Close() (Status, error) {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return StatusClosed, ErrChannelClosed
	}
	c.open = false
	remaining := c.buf.Len()
	c.notFull.Broadcast()
	c.notEmpty.Broadcast()
	c.postReadiness()
	c.mu.Unlock()
	c.logger.WithField("buffered", remaining).Info("channel closed")
	return StatusSuccess, nil
}

// Destroy releases the channel's buffer. It is only legal once the
// channel is closed; calling it on an open channel returns
// StatusDestroyError and leaves the channel untouched. Any values still
// buffered are handed to the drop callback configured with
// WithDropCallback, or logged and discarded if none was configured.
func (c *Channel[T]) Destroy() (Status, error) {
	c.mu.Lock()
	if c.open {
		c.mu.Unlock()
		return StatusDestroyError, ErrDestroyOpenChannel
	}
	var dropped []T
	for {
		v, ok := c.buf.Pop()
		if !ok {
			break
		}
		dropped = append(dropped, v)
	}
	c.waiting = nil
	c.buf = nil
	c.mu.Unlock()

	if len(dropped) == 0 {
		c.logger.Debug("channel destroyed")
		return StatusSuccess, nil
	}
	if c.onDrop != nil {
		for _, v := range dropped {
			c.onDrop(v)
		}
	} else {
		c.logger.WithField("dropped", len(dropped)).Warn("destroying channel with buffered messages and no drop callback")
	}
	return StatusSuccess, nil
}

// waitFor waits on cond in a re-checking loop, as required for both
// spurious wakeups and close broadcasts: every wakeup re-evaluates
// predicate before proceeding. It returns ctx.Err() if ctx is done while
// still waiting, and nil as soon as predicate is false (including
// because the channel closed, which the caller re-checks itself).
func (c *Channel[T]) waitFor(ctx context.Context, cond *sync.Cond, predicate func() bool) error {
	if ctx.Done() == nil {
		for predicate() {
			cond.Wait()
		}
		return nil
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			cond.Broadcast()
			c.mu.Unlock()
		case <-done:
		}
	}()

	for predicate() {
		if err := ctx.Err(); err != nil {
			return err
		}
		cond.Wait()
	}
	return nil
}
