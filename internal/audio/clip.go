package audio

import (
	"errors"
	"sync"

	"github.com/gopxl/beep/v2"

	"github.com/llehouerou/ncstream/internal/player"
)

var errClipLoaded = errors.New("clip already loaded")

// clip plays a fully decoded track from memory.
type clip struct {
	backend  backend
	channels int
	play     func(beep.Streamer)

	mu      sync.Mutex
	samples [][2]float64
	pos     int
	stopped bool
	closed  bool
	ctrl    *beep.Ctrl

	done chan struct{}
	once sync.Once
}

func newClip(b backend, format beep.Format, play func(beep.Streamer)) *clip {
	return &clip{
		backend:  b,
		channels: format.NumChannels,
		play:     play,
		done:     make(chan struct{}),
	}
}

// Load decodes pcm into memory and starts output, paused if Stop was
// called beforehand.
func (c *clip) Load(pcm []byte) error {
	samples := make([][2]float64, len(pcm)/player.FrameSize(c.channels))
	player.DecodePCM(samples, pcm, c.channels)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrSinkClosed
	}
	if c.ctrl != nil {
		c.mu.Unlock()
		return errClipLoaded
	}
	c.samples = samples
	c.ctrl = &beep.Ctrl{Streamer: beep.StreamerFunc(c.stream), Paused: c.stopped}
	ctrl := c.ctrl
	c.mu.Unlock()

	c.play(beep.Seq(ctrl, beep.Callback(c.finish)))
	return nil
}

func (c *clip) stream(samples [][2]float64) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.pos >= len(c.samples) {
		return 0, false
	}
	n := copy(samples, c.samples[c.pos:])
	c.pos += n
	return n, true
}

func (c *clip) finish() {
	c.once.Do(func() { close(c.done) })
}

func (c *clip) FrameLength() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.samples)
}

func (c *clip) FramePosition() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos
}

func (c *clip) SetFramePosition(frame int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pos = min(max(frame, 0), len(c.samples))
}

func (c *clip) Done() <-chan struct{} { return c.done }

func (c *clip) Start() { c.setPaused(false) }

func (c *clip) Stop() { c.setPaused(true) }

func (c *clip) setPaused(paused bool) {
	c.backend.Lock()
	defer c.backend.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = paused
	if c.ctrl != nil {
		c.ctrl.Paused = paused
	}
}

func (c *clip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.samples = nil
	return nil
}

var _ player.Clip = (*clip)(nil)
