package bufchan

import (
	"context"

	"github.com/pkg/errors"
)

// Direction names which half of a SelectCase the coordinator should
// attempt: enqueue a value, or dequeue one.
type Direction int

const (
	// SelectSend attempts to enqueue Send on Chan.
	SelectSend Direction = iota
	// SelectRecv attempts to dequeue into Recv on Chan.
	SelectRecv
)

// SelectCase describes one candidate operation on one channel: a
// direction and a payload slot. For a send case, Send holds the value to
// enqueue. For a receive case, Recv — if non-nil — receives the dequeued
// value.
type SelectCase[T any] struct {
	Chan *Channel[T]
	Dir  Direction
	Send T
	Recv *T
}

// ErrEmptySelect is returned by Select when given no cases.
var ErrEmptySelect = errors.New("bufchan: select requires at least one case")

// Select blocks until the first of cases (in index order) that can
// complete does so, completes it, and reports its index and status. A
// case on an already-closed channel is immediately ready: a receive case
// still drains any buffered values with StatusSuccess and reports
// StatusClosed once the buffer is empty, and a send case is discovered
// closed on its next lock acquisition and reports StatusClosed.
//
// Select registers one readiness signal on every channel named in cases
// while it polls, and deregisters itself — under each channel's lock —
// before returning, so a channel never holds a stale reference to a
// signal a finished Select call has abandoned.
func Select[T any](ctx context.Context, cases []SelectCase[T]) (int, Status, error) {
	if len(cases) == 0 {
		return -1, StatusOther, ErrEmptySelect
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sig := newReadinessSignal()

	for _, cs := range cases {
		c := cs.Chan
		c.mu.Lock()
		c.waiting[sig] = struct{}{}
		c.mu.Unlock()
	}
	defer func() {
		for _, cs := range cases {
			c := cs.Chan
			c.mu.Lock()
			delete(c.waiting, sig)
			c.mu.Unlock()
		}
	}()

	for {
		for i, cs := range cases {
			c := cs.Chan
			c.mu.Lock()
			var ready bool
			if cs.Dir == SelectSend {
				ready = !c.open || !c.buf.Full()
			} else {
				ready = !c.buf.Empty() || !c.open
			}
			c.mu.Unlock()

			if !ready {
				continue
			}

			if cs.Dir == SelectSend {
				status, err := c.Send(ctx, cs.Send, true)
				c.logger.WithField("index", i).WithField("status", status).Debug("select committed send")
				return i, status, err
			}
			v, status, err := c.Receive(ctx, true)
			if cs.Recv != nil {
				*cs.Recv = v
			}
			c.logger.WithField("index", i).WithField("status", status).Debug("select committed receive")
			return i, status, err
		}

		if err := sig.wait(ctx); err != nil {
			return -1, StatusOther, err
		}
	}
}
