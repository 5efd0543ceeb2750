package player

import (
	"context"
	"io"
	"sync"
)

// Chunk is an immutable buffer of interleaved 16-bit little-endian PCM.
type Chunk struct {
	Data   []byte
	Start  int // frame index of the first sample
	Frames int

	epoch uint64
}

// Epoch returns the queue epoch the chunk was produced under.
func (c Chunk) Epoch() uint64 { return c.epoch }

type entry struct {
	chunk Chunk
	eos   bool
	epoch uint64
}

// FrameQueue is a bounded FIFO of PCM chunks between the producer and the
// consumer of a session.
//
// Every entry carries the epoch it was produced under. Clear advances the
// epoch and drains the buffer; Take silently discards entries from older
// epochs, so a Put that was already blocked on a full queue when Clear ran
// can never surface stale audio. Clear also reopens a queue whose
// end-of-stream marker was already taken.
type FrameQueue struct {
	items chan entry

	mu      sync.Mutex
	epoch   uint64
	closed  bool
	cleared chan struct{} // closed by the next Clear
}

// NewFrameQueue creates a queue holding at most capacity entries.
func NewFrameQueue(capacity int) *FrameQueue {
	return &FrameQueue{
		items:   make(chan entry, max(capacity, 1)),
		cleared: make(chan struct{}),
	}
}

// Put blocks until c is queued or ctx is done. The chunk is stamped with
// the current epoch.
func (q *FrameQueue) Put(ctx context.Context, c Chunk) error {
	c.epoch = q.Epoch()
	return q.put(ctx, entry{chunk: c, epoch: c.epoch})
}

// PutEnd queues the end-of-stream marker.
func (q *FrameQueue) PutEnd(ctx context.Context) error {
	return q.put(ctx, entry{eos: true, epoch: q.Epoch()})
}

func (q *FrameQueue) put(ctx context.Context, e entry) error {
	if q.isClosed() {
		return ErrQueueClosed
	}
	select {
	case q.items <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// offer queues e without blocking and reports whether it fit.
func (q *FrameQueue) offer(e entry) bool {
	if q.isClosed() {
		return false
	}
	select {
	case q.items <- e:
		return true
	default:
		return false
	}
}

// Take blocks until a chunk of the current epoch is available. It returns
// io.EOF once the end-of-stream marker has been taken, and keeps doing so
// until the next Clear.
func (q *FrameQueue) Take(ctx context.Context) (Chunk, error) {
	for {
		if q.isClosed() {
			return Chunk{}, io.EOF
		}
		select {
		case e := <-q.items:
			q.mu.Lock()
			if e.epoch != q.epoch {
				q.mu.Unlock()
				continue
			}
			if e.eos {
				q.closed = true
				q.mu.Unlock()
				return Chunk{}, io.EOF
			}
			q.mu.Unlock()
			return e.chunk, nil
		case <-ctx.Done():
			return Chunk{}, ctx.Err()
		}
	}
}

// Clear discards everything buffered, reopens the queue and returns the
// new epoch.
func (q *FrameQueue) Clear() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.epoch++
	q.closed = false
	close(q.cleared)
	q.cleared = make(chan struct{})
	for {
		select {
		case <-q.items:
		default:
			return q.epoch
		}
	}
}

// reopened returns a channel closed once the queue is cleared after its
// end-of-stream marker was taken. It is already closed when the queue is
// open.
func (q *FrameQueue) reopened() <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return q.cleared
}

// Epoch returns the current epoch.
func (q *FrameQueue) Epoch() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.epoch
}

func (q *FrameQueue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *FrameQueue) isCurrent(c Chunk) bool { return c.epoch == q.Epoch() }

// Len returns the number of buffered entries, stale ones included.
func (q *FrameQueue) Len() int { return len(q.items) }

// Cap returns the queue capacity.
func (q *FrameQueue) Cap() int { return cap(q.items) }
