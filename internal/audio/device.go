package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/rs/zerolog"

	"github.com/llehouerou/ncstream/internal/player"
)

// ErrSinkClosed is returned by writes to a closed Sink.
var ErrSinkClosed = errors.New("audio sink closed")

const resampleQuality = 4

// backend is the slice of the speaker package a Device drives.
type backend interface {
	Init(rate beep.SampleRate, bufferSize int) error
	Play(s ...beep.Streamer)
	Lock()
	Unlock()
}

type speakerBackend struct{}

func (speakerBackend) Init(rate beep.SampleRate, bufferSize int) error {
	return speaker.Init(rate, bufferSize)
}
func (speakerBackend) Play(s ...beep.Streamer) { speaker.Play(s...) }
func (speakerBackend) Lock() { speaker.Lock() }
func (speakerBackend) Unlock() { speaker.Unlock() }

// Device is the system audio output. The speaker is initialized lazily at
// the sample rate of the first opened line; later lines are resampled.
type Device struct {
	backend backend
	buffer  time.Duration
	logger  zerolog.Logger

	mu          sync.Mutex
	initialized bool
	rate        beep.SampleRate
}

// NewDevice creates a Device whose speaker buffers the given duration.
func NewDevice(buffer time.Duration, logger zerolog.Logger) *Device {
	return newDevice(speakerBackend{}, buffer, logger)
}

func newDevice(b backend, buffer time.Duration, logger zerolog.Logger) *Device {
	if buffer <= 0 {
		buffer = 100 * time.Millisecond
	}
	return &Device{
		backend: b,
		buffer:  buffer,
		logger:  logger.With().Str("component", "speaker").Logger(),
	}
}

func (d *Device) init(format beep.Format) (beep.SampleRate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return d.rate, nil
	}
	if format.SampleRate <= 0 {
		return 0, fmt.Errorf("invalid sample rate %d", format.SampleRate)
	}
	if err := d.backend.Init(format.SampleRate, format.SampleRate.N(d.buffer)); err != nil {
		return 0, err
	}
	d.initialized = true
	d.rate = format.SampleRate
	d.logger.Info().Int("sample_rate", int(d.rate)).Dur("buffer", d.buffer).Msg("Speaker initialized")
	return d.rate, nil
}

// output adapts s to the speaker rate.
func (d *Device) output(s beep.Streamer, from, to beep.SampleRate) beep.Streamer {
	if from == to {
		return s
	}
	return beep.Resample(resampleQuality, from, to, s)
}

// OpenSink implements player.Device.
func (d *Device) OpenSink(format beep.Format) (player.Sink, error) {
	rate, err := d.init(format)
	if err != nil {
		return nil, err
	}
	s := newSink(d.backend, format, format.SampleRate.N(d.buffer)*2, d.buffer)
	d.backend.Play(d.output(s.volume, format.SampleRate, rate))
	return s, nil
}

// OpenClip implements player.Device. Output starts when the clip is loaded.
func (d *Device) OpenClip(format beep.Format) (player.Clip, error) {
	rate, err := d.init(format)
	if err != nil {
		return nil, err
	}
	return newClip(d.backend, format, func(s beep.Streamer) {
		d.backend.Play(d.output(s, format.SampleRate, rate))
	}), nil
}

var _ player.Device = (*Device)(nil)
