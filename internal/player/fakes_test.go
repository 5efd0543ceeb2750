package player

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
)

var errFake = errors.New("fake failure")

// fakeSample encodes the frame index into the left channel so tests can
// recover positions from written PCM.
func fakeSample(frame int) [2]float64 {
	v := float64(frame%20000) / 32767
	return [2]float64{v, -v}
}

// firstFrame reads back the frame index encoded by fakeSample.
func firstFrame(pcm []byte) int {
	return int(int16(binary.LittleEndian.Uint16(pcm))) //nolint:gosec // test data
}

type fakeDecoder struct {
	mu       sync.Mutex
	format   beep.Format
	length   int
	chunk    int
	pos      int
	failAt   int // frame index at which Next fails, 0 for never
	noiseAt  int // emit one non-audio frame when reaching this index
	noised   bool
	seeks    []int
	closed   bool
	seekErr  error
	nextCall int
}

func newFakeDecoder(rate beep.SampleRate, length, chunk int) *fakeDecoder {
	return &fakeDecoder{
		format: beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2},
		length: length,
		chunk:  chunk,
	}
}

func (d *fakeDecoder) Format() beep.Format { return d.format }

func (d *fakeDecoder) Len() int { return d.length }

func (d *fakeDecoder) Next() (Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextCall++
	if d.failAt > 0 && d.pos >= d.failAt {
		return Frame{}, errFake
	}
	if d.noiseAt > 0 && !d.noised && d.pos >= d.noiseAt {
		d.noised = true
		return Frame{Kind: FrameOther}, nil
	}
	if d.pos >= d.length {
		return Frame{}, io.EOF
	}
	n := min(d.chunk, d.length-d.pos)
	samples := make([][2]float64, n)
	for i := range samples {
		samples[i] = fakeSample(d.pos + i)
	}
	d.pos += n
	return Frame{Kind: FrameAudio, Samples: samples}, nil
}

func (d *fakeDecoder) Seek(frame int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seekErr != nil {
		return d.seekErr
	}
	d.seeks = append(d.seeks, frame)
	d.pos = frame
	return nil
}

func (d *fakeDecoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *fakeDecoder) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *fakeDecoder) Seeks() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.seeks)
}

// fakeOpener hands out decoders built by newDecoder and records sources.
type fakeOpener struct {
	mu         sync.Mutex
	err        error
	newDecoder func() *fakeDecoder
	sources    []string
	decoders   []*fakeDecoder
}

func (o *fakeOpener) Open(ctx context.Context, source string) (Decoder, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sources = append(o.sources, source)
	if o.err != nil {
		return nil, o.err
	}
	d := o.newDecoder()
	o.decoders = append(o.decoders, d)
	return d, nil
}

func (o *fakeOpener) Sources() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.sources)
}

func (o *fakeOpener) Decoders() []*fakeDecoder {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.decoders)
}

type resolverFunc func(ctx context.Context, id int64) (string, error)

func (f resolverFunc) Resolve(ctx context.Context, id int64) (string, error) { return f(ctx, id) }

// fakeDevice opens sinks that play in simulated real time.
type fakeDevice struct {
	mu       sync.Mutex
	openErr  error
	writeErr error
	drainFor time.Duration
	sinks    []*fakeSink
	clips    []*fakeClip
	// overlap records an open that happened while an earlier line was still open.
	overlap bool
}

func (d *fakeDevice) OpenSink(format beep.Format) (Sink, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.checkOverlap()
	s := &fakeSink{format: format, wake: make(chan struct{}), writeErr: d.writeErr, drainFor: d.drainFor}
	d.sinks = append(d.sinks, s)
	return s, nil
}

func (d *fakeDevice) OpenClip(format beep.Format) (Clip, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.checkOverlap()
	c := &fakeClip{format: format, done: make(chan struct{})}
	d.clips = append(d.clips, c)
	return c, nil
}

func (d *fakeDevice) checkOverlap() {
	for _, s := range d.sinks {
		if !s.Closed() {
			d.overlap = true
		}
	}
	for _, c := range d.clips {
		if !c.Closed() {
			d.overlap = true
		}
	}
}

func (d *fakeDevice) Sinks() []*fakeSink {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.sinks)
}

func (d *fakeDevice) Clips() []*fakeClip {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.clips)
}

func (d *fakeDevice) Overlapped() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.overlap
}

// fakeSink takes as long to accept a write as the audio lasts.
type fakeSink struct {
	mu       sync.Mutex
	format   beep.Format
	writes   [][]byte
	flushes  []int // number of writes recorded at each Flush
	epoch    uint64
	stale    int // writes rejected after a flush
	drainFor time.Duration
	drained  bool
	stopped  bool
	closed   bool
	wake     chan struct{}
	writeErr error
}

func (s *fakeSink) Write(ctx context.Context, epoch uint64, p []byte) error {
	for {
		s.mu.Lock()
		if epoch < s.epoch {
			s.stale++
			s.mu.Unlock()
			return nil
		}
		if s.closed {
			s.mu.Unlock()
			return errors.New("sink closed")
		}
		if s.writeErr != nil {
			err := s.writeErr
			s.mu.Unlock()
			return err
		}
		if !s.stopped {
			s.writes = append(s.writes, slices.Clone(p))
			s.mu.Unlock()
			break
		}
		wake := s.wake
		s.mu.Unlock()
		select {
		case <-wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	frames := len(p) / FrameSize(s.format.NumChannels)
	select {
	case <-time.After(s.format.SampleRate.D(frames)):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *fakeSink) Drain(ctx context.Context) error {
	select {
	case <-time.After(s.drainFor):
	case <-ctx.Done():
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drained = true
	return nil
}

func (s *fakeSink) Flush(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes = append(s.flushes, len(s.writes))
	s.epoch = max(s.epoch, epoch)
}

func (s *fakeSink) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		s.stopped = false
		close(s.wake)
	}
}

func (s *fakeSink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.stopped = true
		s.wake = make(chan struct{})
	}
}

func (s *fakeSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeSink) Writes() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.writes)
}

func (s *fakeSink) Flushes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.flushes)
}

func (s *fakeSink) Stale() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

func (s *fakeSink) Drained() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drained
}

func (s *fakeSink) Bytes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, w := range s.writes {
		n += len(w)
	}
	return n
}

// fakeClip holds loaded PCM; tests drive its position and completion.
type fakeClip struct {
	mu      sync.Mutex
	format  beep.Format
	pcm     []byte
	pos     int
	stopped bool
	closed  bool
	done    chan struct{}
	once    sync.Once
}

func (c *fakeClip) Load(pcm []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pcm = slices.Clone(pcm)
	return nil
}

func (c *fakeClip) FrameLength() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pcm) / FrameSize(c.format.NumChannels)
}

func (c *fakeClip) FramePosition() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos
}

func (c *fakeClip) SetFramePosition(frame int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pos = frame
}

func (c *fakeClip) Done() <-chan struct{} { return c.done }

// Finish simulates the clip reaching its end.
func (c *fakeClip) Finish() {
	c.once.Do(func() { close(c.done) })
}

func (c *fakeClip) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = false
}

func (c *fakeClip) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
}

func (c *fakeClip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeClip) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeClip) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

func (c *fakeClip) Loaded() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pcm
}

// recorder is a Listener keeping every event in arrival order.
type recorder struct {
	mu         sync.Mutex
	statuses   []Status
	progresses []Progress
}

func (r *recorder) OnStatusChanged(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

func (r *recorder) OnProgress(p Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progresses = append(r.progresses, p)
}

func (r *recorder) States() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]State, len(r.statuses))
	for i, s := range r.statuses {
		out[i] = s.State
	}
	return out
}

func (r *recorder) Statuses() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.statuses)
}

func (r *recorder) LastProgress() (Progress, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.progresses) == 0 {
		return Progress{}, false
	}
	return r.progresses[len(r.progresses)-1], true
}
