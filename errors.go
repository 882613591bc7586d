package bufchan

import "errors"

// ErrZeroCapacity is returned by NewChannel when asked for a capacity-0
// (rendezvous) channel, which this package does not support.
var ErrZeroCapacity = errors.New("bufchan: capacity must be positive")

// ErrChannelClosed accompanies StatusClosed wherever a caller may want to
// use errors.Is instead of comparing the Status value.
var ErrChannelClosed = errors.New("bufchan: channel is closed")

// ErrDestroyOpenChannel accompanies StatusDestroyError.
var ErrDestroyOpenChannel = errors.New("bufchan: destroy called on an open channel")

// ErrBufferFault wraps a violation of the ring buffer's push/pop
// contract. It should be unreachable in correct use of this package; it
// exists because the spec this module follows reserves StatusOther for
// exactly this class of failure.
var ErrBufferFault = errors.New("bufchan: buffer contract violated")
