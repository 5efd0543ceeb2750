// internal/player/interface.go
package player

import (
	"context"
	"time"

	"github.com/gopxl/beep/v2"
)

// Track identifies what to play. It is immutable once handed to
// SetDataSource.
type Track struct {
	ID       int64
	Name     string
	Duration time.Duration
	// Source, when set, is a path or URL played as-is, bypassing resolution.
	Source string
}

// FrameKind distinguishes audio frames from anything else a container may yield.
type FrameKind int

const (
	FrameAudio FrameKind = iota
	FrameOther
)

// Frame is one decoded unit returned by a Decoder.
type Frame struct {
	Kind    FrameKind
	Samples [][2]float64
}

// Decoder extracts frames sequentially from an opened media source.
// It is owned by a single producer goroutine and is not safe for concurrent use.
type Decoder interface {
	Format() beep.Format
	// Len returns the total length in frames, or 0 when unknown.
	Len() int
	// Next returns the next frame, or io.EOF once the source is exhausted.
	Next() (Frame, error)
	// Seek repositions the decoder to an absolute frame index.
	Seek(frame int) error
	Close() error
}

// DecoderOpener opens a Decoder for a URL or filesystem path.
type DecoderOpener interface {
	Open(ctx context.Context, source string) (Decoder, error)
}

// Line is the part of an output device the Controller drives directly.
// Stop halts output without releasing the device; Start resumes it.
type Line interface {
	Start()
	Stop()
	Close() error
}

// Sink is a streaming output device fed with interleaved 16-bit PCM.
//
// Writes and flushes carry the frame queue epoch. Once Flush(e) has run, a
// Write with an epoch below e accepts nothing more, even if it was already
// blocked inside the device.
type Sink interface {
	Line
	// Write blocks until p has been accepted by the device or ctx is done.
	// A write superseded by a flush returns nil with p partly or not at all
	// accepted.
	Write(ctx context.Context, epoch uint64, p []byte) error
	// Drain blocks until everything written has been played.
	Drain(ctx context.Context) error
	// Flush discards PCM accepted but not yet played and rejects writes
	// from epochs before epoch.
	Flush(epoch uint64)
}

// Clip is a fixed-buffer output device holding a whole track in memory.
type Clip interface {
	Line
	// Load hands the complete interleaved PCM buffer to the device.
	Load(pcm []byte) error
	FrameLength() int
	FramePosition() int
	SetFramePosition(frame int)
	// Done is closed when playback reaches the end of the buffer.
	Done() <-chan struct{}
}

// Device opens output lines for a given PCM format.
type Device interface {
	OpenSink(format beep.Format) (Sink, error)
	OpenClip(format beep.Format) (Clip, error)
}

// Resolver turns a catalog track identifier into a playable URL.
type Resolver interface {
	Resolve(ctx context.Context, id int64) (string, error)
}

// Listener observes a Controller. Callbacks run on the Controller's dispatch
// goroutine and must not block appreciably.
type Listener interface {
	OnStatusChanged(status Status)
	OnProgress(p Progress)
}

// Interface defines the controller contract for dependency injection and testing.
type Interface interface {
	SetDataSource(track Track)
	Start()
	Pause()
	Resume()
	Stop()
	SeekTo(fraction float64)
	Status() Status
	Track() *Track
	Position() time.Duration
	Duration() time.Duration
	AddListener(l Listener)
	RemoveListener(l Listener)
}

// Verify Controller implements Interface at compile time.
var _ Interface = (*Controller)(nil)
