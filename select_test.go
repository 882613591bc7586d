package bufchan

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSelectRejectsEmptyCaseList(t *testing.T) {
	_, status, err := Select[int](context.Background(), nil)
	require.Equal(t, StatusOther, status)
	require.ErrorIs(t, err, ErrEmptySelect)
}

// TestSelectLowestIndexWins exercises spec scenario 5: a send-ready case
// and a receive-ready case both ready on the first poll; the
// lowest-indexed descriptor wins.
func TestSelectLowestIndexWins(t *testing.T) {
	x, err := NewChannel[string](1) // empty, send-ready
	require.NoError(t, err)
	y, err := NewChannel[string](1)
	require.NoError(t, err)
	y.TrySend("v") // non-empty, receive-ready

	var recvInto string
	index, status, err := Select[string](context.Background(), []SelectCase[string]{
		{Chan: x, Dir: SelectSend, Send: "w"},
		{Chan: y, Dir: SelectRecv, Recv: &recvInto},
	})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, status)
	require.Equal(t, 0, index)
	require.Equal(t, 1, x.Len())
	require.Equal(t, 1, y.Len()) // the unchosen case saw no side effect

	v, _ := x.TryReceive()
	require.Equal(t, "w", v)
}

// TestSelectUnblocksOnClose exercises spec scenario 6: two empty channels
// in a receive-select; closing one must wake Select with StatusClosed and
// the index of the closed channel.
func TestSelectUnblocksOnClose(t *testing.T) {
	a, err := NewChannel[int](1)
	require.NoError(t, err)
	b, err := NewChannel[int](1)
	require.NoError(t, err)

	done := make(chan struct{})
	var index int
	var status Status
	go func() {
		defer close(done)
		var recvInto int
		index, status, _ = Select[int](context.Background(), []SelectCase[int]{
			{Chan: a, Dir: SelectRecv, Recv: &recvInto},
			{Chan: b, Dir: SelectRecv, Recv: &recvInto},
		})
	}()

	time.Sleep(20 * time.Millisecond)
	b.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("select did not unblock on close")
	}

	require.Equal(t, 1, index)
	require.Equal(t, StatusClosed, status)
}

// TestSelectDeregistersReadinessSignal guards against the dangling
// readiness-signal hazard: after a Select returns, subsequent operations
// on a channel it touched must not observe (or panic on) a stale
// registration.
func TestSelectDeregistersReadinessSignal(t *testing.T) {
	a, err := NewChannel[int](1)
	require.NoError(t, err)
	b, err := NewChannel[int](1)
	require.NoError(t, err)
	a.TrySend(1)

	var recvInto int
	_, status, err := Select[int](context.Background(), []SelectCase[int]{
		{Chan: a, Dir: SelectRecv, Recv: &recvInto},
		{Chan: b, Dir: SelectRecv, Recv: &recvInto},
	})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, status)

	a.mu.Lock()
	require.Empty(t, a.waiting)
	a.mu.Unlock()
	b.mu.Lock()
	require.Empty(t, b.waiting)
	b.mu.Unlock()

	// b must still behave normally: no stray posts, no panics.
	require.Equal(t, StatusSuccess, b.TrySend(9))
}

// TestSelectFanInViaMultipleConsumers combines spec scenario 2 with a
// select-based consumer reading from two producer channels.
func TestSelectFanInFromMultipleProducers(t *testing.T) {
	a, err := NewChannel[int](2)
	require.NoError(t, err)
	b, err := NewChannel[int](2)
	require.NoError(t, err)

	go func() {
		for i := 0; i < 5; i++ {
			a.Send(context.Background(), i, true)
		}
		a.Close()
	}()
	go func() {
		for i := 100; i < 105; i++ {
			b.Send(context.Background(), i, true)
		}
		b.Close()
	}()

	var got []int
	aClosed, bClosed := false, false
	for !aClosed || !bClosed {
		var recvInto int
		cases := make([]SelectCase[int], 0, 2)
		if !aClosed {
			cases = append(cases, SelectCase[int]{Chan: a, Dir: SelectRecv, Recv: &recvInto})
		}
		if !bClosed {
			cases = append(cases, SelectCase[int]{Chan: b, Dir: SelectRecv, Recv: &recvInto})
		}
		index, status, err := Select[int](context.Background(), cases)
		require.NoError(t, err)
		switch status {
		case StatusSuccess:
			got = append(got, recvInto)
		case StatusClosed:
			if cases[index].Chan == a {
				aClosed = true
			} else {
				bClosed = true
			}
		}
	}

	require.Len(t, got, 10)
}
