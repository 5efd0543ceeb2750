package player

import (
	"context"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gopxl/beep/v2"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/llehouerou/ncstream/internal/errmsg"
)

// Mode selects the consumer strategy.
type Mode string

const (
	// ModeStream plays chunks as they are decoded through a Sink.
	ModeStream Mode = "stream"
	// ModeClip decodes the whole track into memory and plays it from a Clip.
	ModeClip Mode = "clip"
)

const (
	defaultLookahead   = time.Second
	defaultChunkFrames = 4096
	minQueueCapacity   = 2
)

// Options tunes the pipeline.
type Options struct {
	Mode Mode
	// Lookahead bounds decoded-but-unplayed audio held in the frame queue.
	Lookahead time.Duration
	// ChunkFrames is the number of frames the decoder yields per frame.
	ChunkFrames int
}

// DefaultOptions returns streaming mode with one second of lookahead.
func DefaultOptions() Options {
	return Options{
		Mode:        ModeStream,
		Lookahead:   defaultLookahead,
		ChunkFrames: defaultChunkFrames,
	}
}

// Controller owns the playback state machine and at most one session.
type Controller struct {
	opMu sync.Mutex // serializes public operations

	mu      sync.Mutex
	status  Status
	track   *Track
	session *session
	closed  bool

	// deferred holds a fault of a session that died while Paused; Paused
	// only leaves for Error through Resume.
	deferred *Error

	resolver Resolver
	opener   DecoderOpener
	device   Device
	opts     Options
	logger   zerolog.Logger

	listeners *registry
	events    *dispatcher
	wg        sync.WaitGroup
}

// New creates an idle Controller. Call Close to release it.
func New(resolver Resolver, opener DecoderOpener, device Device, opts Options, logger zerolog.Logger) *Controller {
	if opts.Mode == "" {
		opts.Mode = ModeStream
	}
	if opts.Lookahead <= 0 {
		opts.Lookahead = defaultLookahead
	}
	if opts.ChunkFrames <= 0 {
		opts.ChunkFrames = defaultChunkFrames
	}
	logger = logger.With().Str("component", "player").Logger()
	reg := &registry{}
	return &Controller{
		status:    statusOf(Idle),
		resolver:  resolver,
		opener:    opener,
		device:    device,
		opts:      opts,
		logger:    logger,
		listeners: reg,
		events:    newDispatcher(reg, logger),
	}
}

// SetDataSource records the track the next Start will play.
func (c *Controller) SetDataSource(track Track) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.track = &track
	c.logger.Debug().Int64("id", track.ID).Str("name", track.Name).Msg("Data source set")
}

// Start begins playback of the current data source. It returns immediately;
// URL resolution and device setup run on a separate goroutine. A session
// that is already running is paused, cancelled and fully released before
// the new one opens its output device.
func (c *Controller) Start() {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.status.State == Started {
		c.pauseLocked()
	}
	if c.track == nil {
		c.logger.Debug().Err(ErrNoTrack).Msg("Start ignored")
		return
	}

	c.deferred = nil
	prev := c.detachLocked()
	s := newSession(*c.track, prev)
	c.session = s
	c.events.postProgress(NewProgress(s.total, 0))

	c.wg.Add(1)
	go c.run(s)
}

// Pause halts output without releasing the device. Only effective while Started.
func (c *Controller) Pause() {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pauseLocked()
}

func (c *Controller) pauseLocked() {
	if !c.status.State.CanPause() || c.session == nil || !c.session.active {
		return
	}
	c.session.line.Stop()
	c.setStatusLocked(statusOf(Paused))
}

// Resume restarts output after Pause. If the session failed while paused,
// the failure is reported now instead. Otherwise, without a paused session
// it does nothing.
func (c *Controller) Resume() {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deferred != nil && c.status.State == Paused {
		perr := c.deferred
		c.deferred = nil
		c.failLocked(perr)
		return
	}
	if !c.status.State.CanResume() || c.session == nil || !c.session.active {
		return
	}
	c.session.line.Start()
	c.setStatusLocked(statusOf(Started))
}

// Stop cancels the active session, waits for its decoder and device to be
// released, then emits Stopped followed by Idle. It is idempotent.
func (c *Controller) Stop() {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	c.deferred = nil
	s := c.detachLocked()
	c.mu.Unlock()

	if s != nil {
		<-s.done
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.setStatusLocked(statusOf(Stopped))
	c.setStatusLocked(statusOf(Idle))
}

// SeekTo jumps to fraction (clamped to [0,1]) of the track. Buffered
// pre-seek audio is discarded before the new position is decoded.
func (c *Controller) SeekTo(fraction float64) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	if s == nil || !s.active || !c.status.State.IsActive() {
		return
	}
	fraction = lo.Clamp(fraction, 0, 1)
	target := int(fraction * float64(s.length))

	if s.clip != nil {
		s.requestSeek(seekRequest{fraction: fraction})
	} else {
		if s.length <= 0 {
			c.logger.Debug().Msg("Seek ignored, stream length unknown")
			return
		}
		epoch := s.queue.Clear()
		s.sink.Flush(epoch)
		s.requestSeek(seekRequest{frame: target, epoch: epoch})
	}
	s.position.Store(int64(target))
	c.logger.Debug().Float64("fraction", fraction).Int("frame", target).Msg("Seek")
	c.events.postProgress(s.progress())
}

// Status returns the current status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Track returns the current data source, or nil if none was set.
func (c *Controller) Track() *Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.track == nil {
		return nil
	}
	t := *c.track
	return &t
}

// Position returns the playback position of the active session.
func (c *Controller) Position() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || !c.session.active {
		return 0
	}
	return c.session.positionDuration()
}

// Duration returns the total duration of the active session, 0 without one.
func (c *Controller) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return 0
	}
	if !c.session.active {
		return c.session.track.Duration
	}
	return c.session.total
}

// AddListener registers l for status and progress events.
func (c *Controller) AddListener(l Listener) {
	c.listeners.add(l)
}

// RemoveListener unregisters l. Events dispatched after it returns are not
// delivered to l.
func (c *Controller) RemoveListener(l Listener) {
	c.listeners.remove(l)
}

// Close stops any session and shuts down event delivery.
func (c *Controller) Close() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	s := c.detachLocked()
	c.mu.Unlock()

	if s != nil {
		<-s.done
	}
	c.wg.Wait()
	c.events.close()
	return nil
}

func (c *Controller) detachLocked() *session {
	s := c.session
	c.session = nil
	if s != nil {
		s.cancel()
	}
	return s
}

func (c *Controller) setStatusLocked(st Status) {
	prev := c.status
	c.status = st
	c.logger.Debug().Stringer("from", prev).Stringer("to", st).Msg("Status changed")
	c.events.postStatus(st)
}

// run drives one session from setup to release.
func (c *Controller) run(s *session) {
	defer c.wg.Done()
	defer close(s.done)

	if s.prev != nil {
		<-s.prev.done
		s.prev = nil
	}

	if err := c.setup(s); err != nil {
		c.releaseSession(s)
		if isCancellation(err) {
			c.logger.Debug().Int64("id", s.track.ID).Msg("Setup cancelled")
			return
		}
		c.fail(s, classify(err, ErrDecode, errmsg.OpPlaybackStart))
		return
	}
	if !c.activate(s) {
		c.releaseSession(s)
		return
	}

	err := c.pipeline(s)
	c.releaseSession(s)
	c.finish(s, err)
}

func (c *Controller) setup(s *session) error {
	source := s.track.Source
	if source == "" {
		url, err := c.resolver.Resolve(s.ctx, s.track.ID)
		if err != nil {
			if isCancellation(err) || s.ctx.Err() != nil {
				return context.Canceled
			}
			return newError(ErrGetURL, errmsg.OpResolveURL, err)
		}
		source = url
	}
	if err := s.ctx.Err(); err != nil {
		return err
	}

	dec, err := c.opener.Open(s.ctx, source)
	if err != nil {
		if s.ctx.Err() != nil {
			return s.ctx.Err()
		}
		return newError(ErrDecode, errmsg.OpOpenSource, err)
	}
	s.decoder = dec
	s.format = dec.Format()
	s.length = dec.Len()
	if s.total <= 0 && s.format.SampleRate > 0 {
		s.total = s.format.SampleRate.D(s.length)
	}

	switch c.opts.Mode {
	case ModeClip:
		clip, err := c.device.OpenClip(s.format)
		if err != nil {
			return newError(ErrDevice, errmsg.OpOpenDevice, err)
		}
		s.clip, s.line = clip, clip
	default:
		sink, err := c.device.OpenSink(s.format)
		if err != nil {
			return newError(ErrDevice, errmsg.OpOpenDevice, err)
		}
		s.sink, s.line = sink, sink
	}

	capacity := c.queueCapacity(s.format)
	s.queue = NewFrameQueue(capacity)

	lookahead := uint64(capacity) * uint64(c.opts.ChunkFrames) * uint64(FrameSize(s.format.NumChannels)) //nolint:gosec // sizes are positive
	c.logger.Info().
		Int64("id", s.track.ID).
		Str("source", source).
		Int("sample_rate", int(s.format.SampleRate)).
		Int("channels", s.format.NumChannels).
		Dur("duration", s.total).
		Str("mode", string(c.opts.Mode)).
		Str("lookahead", humanize.Bytes(lookahead)).
		Msg("Session ready")
	return nil
}

// queueCapacity converts the lookahead budget into a number of chunks.
func (c *Controller) queueCapacity(format beep.Format) int {
	if format.SampleRate <= 0 {
		return minQueueCapacity
	}
	chunk := format.SampleRate.D(c.opts.ChunkFrames)
	if chunk <= 0 {
		return minQueueCapacity
	}
	n := int((c.opts.Lookahead + chunk - 1) / chunk)
	return max(n, minQueueCapacity)
}

// activate publishes Started unless the session was superseded during setup.
func (c *Controller) activate(s *session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != s || s.ctx.Err() != nil {
		return false
	}
	s.active = true
	c.setStatusLocked(statusOf(Started))
	return true
}

// pipeline runs the producer and the consumer until the track ends, the
// session is cancelled, or either stage fails.
func (c *Controller) pipeline(s *session) error {
	g, gctx := errgroup.WithContext(s.ctx)
	prodCtx, stopProducer := context.WithCancel(gctx)
	defer stopProducer()

	var producerSeeks <-chan seekRequest
	if s.clip == nil {
		producerSeeks = s.seeks
	}
	prod := newProducer(s.decoder, s.queue, producerSeeks, c.logger)

	g.Go(func() error { return prod.run(prodCtx) })
	g.Go(func() error {
		defer stopProducer()
		if s.clip != nil {
			cons := &clipConsumer{
				queue:  s.queue,
				clip:   s.clip,
				seeks:  s.seeks,
				period: s.format.SampleRate.D(c.opts.ChunkFrames),
				played: func(frame int) { c.played(s, frame) },
			}
			return cons.run(gctx)
		}
		cons := &streamConsumer{
			queue:  s.queue,
			sink:   s.sink,
			played: func(epoch uint64, frame int) { c.playedAt(s, epoch, frame) },
		}
		return cons.run(gctx)
	})
	return g.Wait()
}

func (c *Controller) played(s *session, frame int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != s {
		return
	}
	c.storePositionLocked(s, frame)
}

// playedAt records progress for a chunk written under epoch. A chunk
// superseded by a seek must not move the position back past the target.
func (c *Controller) playedAt(s *session, epoch uint64, frame int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != s || s.queue.Epoch() != epoch {
		return
	}
	c.storePositionLocked(s, frame)
}

func (c *Controller) storePositionLocked(s *session, frame int) {
	s.position.Store(int64(frame))
	c.events.postProgress(s.progress())
}

// finish reports how a session that ran its pipeline ended. Sessions that
// were stopped or replaced have already been detached and report nothing.
func (c *Controller) finish(s *session, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != s {
		return
	}
	c.session = nil
	s.cancel()

	switch {
	case err == nil:
		c.logger.Info().Int64("id", s.track.ID).Msg("Track finished")
		c.setStatusLocked(statusOf(Stopped))
		c.setStatusLocked(statusOf(Idle))
	case isCancellation(err):
		c.logger.Debug().Int64("id", s.track.ID).Msg("Session cancelled")
	case c.status.State == Paused:
		perr := classify(err, ErrDecode, errmsg.OpDecode)
		c.logger.Warn().Err(perr.Err).Str("code", string(perr.Code)).Msg("Playback failed while paused, reporting on resume")
		c.deferred = perr
	default:
		c.failLocked(classify(err, ErrDecode, errmsg.OpDecode))
	}
}

func (c *Controller) fail(s *session, perr *Error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != s {
		return
	}
	c.session = nil
	s.cancel()
	c.failLocked(perr)
}

func (c *Controller) failLocked(perr *Error) {
	c.logger.Error().Err(perr.Err).Str("code", string(perr.Code)).Msg(perr.Message)
	c.setStatusLocked(errorStatus(perr))
}

func (c *Controller) releaseSession(s *session) {
	if err := s.release(); err != nil {
		c.logger.Warn().Err(err).Int64("id", s.track.ID).Msg("Releasing session")
	}
}
