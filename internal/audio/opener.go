// Package audio implements the player's decoder and output collaborators on
// top of beep.
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/rs/zerolog"

	"github.com/llehouerou/ncstream/internal/player"
)

const defaultChunkFrames = 4096

// Opener opens local files and HTTP(S) URLs as player Decoders.
type Opener struct {
	client      *http.Client
	chunkFrames int
	logger      zerolog.Logger
}

// NewOpener creates an Opener. Decoders yield chunkFrames frames per Next.
func NewOpener(client *http.Client, chunkFrames int, logger zerolog.Logger) *Opener {
	if client == nil {
		client = http.DefaultClient
	}
	if chunkFrames <= 0 {
		chunkFrames = defaultChunkFrames
	}
	return &Opener{
		client:      client,
		chunkFrames: chunkFrames,
		logger:      logger.With().Str("component", "audio").Logger(),
	}
}

// Open implements player.DecoderOpener.
func (o *Opener) Open(ctx context.Context, source string) (player.Decoder, error) {
	src, err := o.openSource(ctx, source)
	if err != nil {
		return nil, err
	}

	container, err := detect(src, source)
	if err != nil {
		src.Close()
		return nil, err
	}

	stream, format, err := decode(container, src)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("%s: %w", container, err)
	}

	o.logger.Debug().
		Str("source", source).
		Str("container", string(container)).
		Int("sample_rate", int(format.SampleRate)).
		Int("frames", stream.Len()).
		Msg("Opened decoder")

	return newDecoder(stream, format, src, o.chunkFrames), nil
}

func (o *Opener) openSource(ctx context.Context, source string) (io.ReadSeekCloser, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return openHTTPSource(ctx, o.client, source)
	}
	f, err := os.Open(source)
	if err != nil {
		return nil, err
	}
	return &onceCloser{ReadSeekCloser: f}, nil
}

// onceCloser lets both the beep stream and the decoder close the source.
type onceCloser struct {
	io.ReadSeekCloser
	once sync.Once
	err  error
}

func (c *onceCloser) Close() error {
	c.once.Do(func() { c.err = c.ReadSeekCloser.Close() })
	return c.err
}

// decoder adapts a beep.StreamSeekCloser to player.Decoder.
type decoder struct {
	stream beep.StreamSeekCloser
	format beep.Format
	source io.Closer
	chunk  int
}

func newDecoder(stream beep.StreamSeekCloser, format beep.Format, source io.Closer, chunk int) *decoder {
	return &decoder{stream: stream, format: format, source: source, chunk: chunk}
}

func (d *decoder) Format() beep.Format { return d.format }

func (d *decoder) Len() int { return d.stream.Len() }

// Next returns up to one chunk of frames. A read that produced nothing but
// did not end the stream yields a non-audio frame.
func (d *decoder) Next() (player.Frame, error) {
	samples := make([][2]float64, d.chunk)
	n, ok := d.stream.Stream(samples)
	if n > 0 {
		return player.Frame{Kind: player.FrameAudio, Samples: samples[:n]}, nil
	}
	if !ok {
		if err := d.stream.Err(); err != nil {
			return player.Frame{}, err
		}
		return player.Frame{}, io.EOF
	}
	return player.Frame{Kind: player.FrameOther}, nil
}

func (d *decoder) Seek(frame int) error {
	return d.stream.Seek(frame)
}

func (d *decoder) Close() error {
	return errors.Join(d.stream.Close(), d.source.Close())
}
