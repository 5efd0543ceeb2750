package audio

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/ncstream/internal/player"
)

// fakeStream yields length frames then ends, optionally with an error.
type fakeStream struct {
	length int
	pos    int
	err    error
	closed bool
}

func (s *fakeStream) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= s.length {
		return 0, false
	}
	n := min(len(samples), s.length-s.pos)
	for i := range n {
		samples[i] = [2]float64{float64(s.pos + i), 0}
	}
	s.pos += n
	return n, true
}

func (s *fakeStream) Err() error { return s.err }
func (s *fakeStream) Len() int { return s.length }
func (s *fakeStream) Position() int { return s.pos }
func (s *fakeStream) Seek(p int) error { s.pos = p; return nil }
func (s *fakeStream) Close() error { s.closed = true; return nil }

type closeRecorder struct{ closed bool }

func (c *closeRecorder) Close() error { c.closed = true; return nil }

func TestDecoder_Chunks(t *testing.T) {
	stream := &fakeStream{length: 10}
	src := &closeRecorder{}
	d := newDecoder(stream, stereo, src, 4)

	var sizes []int
	for {
		f, err := d.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		require.Equal(t, player.FrameAudio, f.Kind)
		sizes = append(sizes, len(f.Samples))
	}
	assert.Equal(t, []int{4, 4, 2}, sizes)
	assert.Equal(t, 10, d.Len())

	require.NoError(t, d.Seek(8))
	f, err := d.Next()
	require.NoError(t, err)
	assert.InDelta(t, 8.0, f.Samples[0][0], 1e-9)

	require.NoError(t, d.Close())
	assert.True(t, stream.closed)
	assert.True(t, src.closed)
}

func TestDecoder_StreamError(t *testing.T) {
	boom := errors.New("corrupt frame")
	d := newDecoder(&fakeStream{length: 0, err: boom}, stereo, &closeRecorder{}, 4)

	_, err := d.Next()
	assert.ErrorIs(t, err, boom)
}

func TestOpener_UnsupportedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("definitely not audio"), 0o600))

	_, err := NewOpener(nil, 0, zerolog.Nop()).Open(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestOpener_MissingFile(t *testing.T) {
	_, err := NewOpener(nil, 0, zerolog.Nop()).Open(context.Background(), "/nonexistent/song.mp3")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

var _ beep.StreamSeekCloser = (*fakeStream)(nil)
