package audio

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"

	"github.com/llehouerou/ncstream/internal/player"
)

// sink is a push-driven speaker streamer. Writes append to a bounded
// pending buffer that the speaker drains; when the buffer is empty the
// speaker gets silence instead of a finished stream.
type sink struct {
	backend  backend
	channels int
	limit    int           // pending frames accepted before Write blocks
	tail     time.Duration // audio still inside the speaker after pending empties
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	flushed  atomic.Bool

	mu      sync.Mutex
	pending [][2]float64
	epoch   uint64 // writes from earlier epochs are dropped
	closed  bool

	space chan struct{}
	empty chan struct{}
	done  chan struct{}
}

func newSink(b backend, format beep.Format, limit int, tail time.Duration) *sink {
	s := &sink{
		backend:  b,
		channels: format.NumChannels,
		limit:    max(limit, 1),
		tail:     tail,
		space:    make(chan struct{}, 1),
		empty:    make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	s.ctrl = &beep.Ctrl{Streamer: beep.StreamerFunc(s.stream)}
	s.volume = &effects.Volume{Streamer: s.ctrl, Base: 2}
	return s
}

// stream is called by the speaker with its lock held.
func (s *sink) stream(samples [][2]float64) (int, bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, false
	}
	n := copy(samples, s.pending)
	s.pending = s.pending[n:]
	isEmpty := len(s.pending) == 0
	s.mu.Unlock()

	clear(samples[n:])
	if n > 0 {
		notify(s.space)
	}
	if isEmpty {
		notify(s.empty)
	}
	return len(samples), true
}

// Write blocks until all of p is buffered, ctx is done or the sink closes.
// It stops accepting frames, and returns nil, as soon as a Flush for a
// later epoch has run.
func (s *sink) Write(ctx context.Context, epoch uint64, p []byte) error {
	frames := make([][2]float64, len(p)/player.FrameSize(s.channels))
	player.DecodePCM(frames, p, s.channels)

	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return ErrSinkClosed
		}
		if epoch < s.epoch {
			s.mu.Unlock()
			return nil
		}
		appended := false
		if room := s.limit - len(s.pending); room > 0 {
			k := min(room, len(frames))
			s.pending = append(s.pending, frames[:k]...)
			frames = frames[k:]
			appended = k > 0
		}
		s.mu.Unlock()

		if appended {
			s.unmute()
		}
		if len(frames) == 0 {
			return nil
		}
		select {
		case <-s.space:
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return ErrSinkClosed
		}
	}
}

// Drain waits until the pending buffer and the speaker's own buffer have played.
func (s *sink) Drain(ctx context.Context) error {
	for {
		s.mu.Lock()
		settled := s.closed || len(s.pending) == 0
		s.mu.Unlock()
		if settled {
			break
		}
		select {
		case <-s.empty:
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return ErrSinkClosed
		}
	}
	select {
	case <-time.After(s.tail):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush drops pending audio, rejects writes from epochs before epoch and
// mutes output until a current write lands.
func (s *sink) Flush(epoch uint64) {
	s.backend.Lock()
	s.volume.Silent = true
	s.mu.Lock()
	s.pending = nil
	s.epoch = max(s.epoch, epoch)
	s.mu.Unlock()
	s.flushed.Store(true)
	s.backend.Unlock()
	notify(s.space)
}

// unmute lifts the flush mute once.
func (s *sink) unmute() {
	if s.flushed.CompareAndSwap(true, false) {
		s.backend.Lock()
		s.volume.Silent = false
		s.backend.Unlock()
	}
}

func (s *sink) Start() {
	s.backend.Lock()
	s.ctrl.Paused = false
	s.backend.Unlock()
}

func (s *sink) Stop() {
	s.backend.Lock()
	s.ctrl.Paused = true
	s.backend.Unlock()
}

// Close detaches the sink; the speaker drops it on its next read.
func (s *sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.pending = nil
	close(s.done)
	return nil
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

var _ player.Sink = (*sink)(nil)
