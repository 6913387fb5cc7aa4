package pipeline

import (
	"context"
	"sync/atomic"
)

// DefaultQueueDepth is roughly eight seconds of audio at 100 ms per block.
const DefaultQueueDepth = 80

// Queue is a bounded FIFO handoff between the capture callback and the
// sender. Enqueue never blocks: when the queue is full the newest block is
// dropped so the capture thread stays real-time and buffered audio stays
// contiguous from the oldest block.
type Queue struct {
	ch      chan []byte
	dropped atomic.Uint64
}

func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueDepth
	}
	return &Queue{ch: make(chan []byte, capacity)}
}

// Enqueue adds a block, reporting false when it was dropped.
func (q *Queue) Enqueue(b []byte) bool {
	select {
	case q.ch <- b:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Dequeue blocks until a block is available or ctx is done.
func (q *Queue) Dequeue(ctx context.Context) ([]byte, error) {
	select {
	case b := <-q.ch:
		return b, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Drain discards everything buffered and returns the count, used when a
// fresh connection should not receive stale audio.
func (q *Queue) Drain() int {
	n := 0
	for {
		select {
		case <-q.ch:
			n++
		default:
			return n
		}
	}
}

func (q *Queue) Len() int { return len(q.ch) }

func (q *Queue) Cap() int { return cap(q.ch) }

func (q *Queue) Dropped() uint64 { return q.dropped.Load() }
