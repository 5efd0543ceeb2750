package player

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
)

// session is the live state of one Track. Its decoder is owned by the
// session's goroutines; the Controller reaches the line and queue only after
// activation and under its own lock.
type session struct {
	track  Track
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	prev   *session

	seeks chan seekRequest

	// Set by setup. The Controller reads them only once active is true.
	decoder Decoder
	format  beep.Format
	length  int
	total   time.Duration
	queue   *FrameQueue
	line    Line
	sink    Sink
	clip    Clip

	active   bool // guarded by Controller.mu
	position atomic.Int64
}

func newSession(track Track, prev *session) *session {
	ctx, cancel := context.WithCancel(context.Background())
	return &session{
		track:  track,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		prev:   prev,
		seeks:  make(chan seekRequest, 1),
		total:  track.Duration,
	}
}

// requestSeek replaces any pending request (last write wins).
func (s *session) requestSeek(req seekRequest) {
	select {
	case s.seeks <- req:
	default:
		// Channel full, drain and send new value
		select {
		case <-s.seeks:
		default:
		}
		select {
		case s.seeks <- req:
		default:
		}
	}
}

func (s *session) positionDuration() time.Duration {
	if s.format.SampleRate <= 0 {
		return 0
	}
	return s.format.SampleRate.D(int(s.position.Load()))
}

func (s *session) progress() Progress {
	return NewProgress(s.total, s.positionDuration())
}

// release closes the decoder and the output line. Only the session's own
// goroutine calls it, after the pipeline has exited.
func (s *session) release() error {
	var firstErr error
	if s.line != nil {
		if err := s.line.Close(); err != nil {
			firstErr = err
		}
	}
	if s.decoder != nil {
		if err := s.decoder.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
