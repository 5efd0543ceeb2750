package audio

import (
	"context"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/ncstream/internal/player"
)

type fakeBackend struct {
	mu       sync.Mutex
	initRate beep.SampleRate
	initBuf  int
	inits    int
	playing  []beep.Streamer
}

func (b *fakeBackend) Init(rate beep.SampleRate, bufferSize int) error {
	b.inits++
	b.initRate = rate
	b.initBuf = bufferSize
	return nil
}

func (b *fakeBackend) Play(s ...beep.Streamer) { b.playing = append(b.playing, s...) }
func (b *fakeBackend) Lock() { b.mu.Lock() }
func (b *fakeBackend) Unlock() { b.mu.Unlock() }

// pull reads n frames from the most recently played streamer the way the
// speaker would.
func (b *fakeBackend) pull(n int) ([][2]float64, bool) {
	b.Lock()
	defer b.Unlock()
	buf := make([][2]float64, n)
	got, ok := b.playing[len(b.playing)-1].Stream(buf)
	return buf[:got], ok
}

var stereo = beep.Format{SampleRate: 1000, NumChannels: 2, Precision: 2}

func pcmOf(values ...float64) []byte {
	samples := make([][2]float64, len(values))
	for i, v := range values {
		samples[i] = [2]float64{v, v}
	}
	return player.EncodePCM(samples, 2)
}

func newTestSink(t *testing.T, limit int) (*sink, *fakeBackend) {
	t.Helper()
	b := &fakeBackend{}
	s := newSink(b, stereo, limit, 10*time.Millisecond)
	b.Play(s.volume)
	return s, b
}

func TestSink_WriteThenStream(t *testing.T) {
	s, b := newTestSink(t, 8)

	require.NoError(t, s.Write(context.Background(), 0, pcmOf(0.5, -0.5)))

	out, ok := b.pull(4)
	require.True(t, ok)
	require.Len(t, out, 4)
	assert.InDelta(t, 0.5, out[0][0], 1e-3)
	assert.InDelta(t, -0.5, out[1][0], 1e-3)
	assert.Equal(t, [2]float64{}, out[2], "underrun plays silence")
}

func TestSink_WriteBlocksWhenFull(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, b := newTestSink(t, 2)

		done := make(chan error, 1)
		go func() { done <- s.Write(context.Background(), 0, pcmOf(0.1, 0.2, 0.3, 0.4)) }()
		synctest.Wait()

		select {
		case <-done:
			t.Fatal("Write returned before the speaker consumed anything")
		default:
		}

		b.pull(2)
		synctest.Wait()
		require.NoError(t, <-done)

		out, _ := b.pull(2)
		assert.InDelta(t, 0.3, out[0][0], 1e-3)
		assert.InDelta(t, 0.4, out[1][0], 1e-3)
	})
}

func TestSink_WriteCancelled(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, _ := newTestSink(t, 1)
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() { done <- s.Write(ctx, 0, pcmOf(0.1, 0.2, 0.3)) }()
		synctest.Wait()
		cancel()

		assert.ErrorIs(t, <-done, context.Canceled)
	})
}

func TestSink_StopHoldsAudio(t *testing.T) {
	s, b := newTestSink(t, 8)
	require.NoError(t, s.Write(context.Background(), 0, pcmOf(0.5)))

	s.Stop()
	out, ok := b.pull(1)
	assert.True(t, ok)
	assert.Equal(t, [2]float64{}, out[0])

	s.Start()
	out, _ = b.pull(1)
	assert.InDelta(t, 0.5, out[0][0], 1e-3)
}

func TestSink_FlushMutesUntilNextWrite(t *testing.T) {
	s, b := newTestSink(t, 8)
	require.NoError(t, s.Write(context.Background(), 0, pcmOf(0.5, 0.5)))

	s.Flush(1)
	assert.True(t, s.volume.Silent)
	out, _ := b.pull(2)
	assert.Equal(t, [2]float64{}, out[0])

	require.NoError(t, s.Write(context.Background(), 1, pcmOf(0.25)))
	assert.False(t, s.volume.Silent)
	out, _ = b.pull(1)
	assert.InDelta(t, 0.25, out[0][0], 1e-3)
}

func TestSink_FlushCutsBlockedWrite(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, b := newTestSink(t, 2)

		done := make(chan error, 1)
		go func() { done <- s.Write(context.Background(), 0, pcmOf(0.1, 0.2, 0.3, 0.4)) }()
		synctest.Wait()

		s.Flush(1)
		synctest.Wait()
		require.NoError(t, <-done, "superseded write returns cleanly")

		s.mu.Lock()
		pending := len(s.pending)
		s.mu.Unlock()
		assert.Zero(t, pending, "rest of the old chunk was buffered after the flush")
		assert.True(t, s.volume.Silent)

		require.NoError(t, s.Write(context.Background(), 1, pcmOf(0.9)))
		out, _ := b.pull(2)
		assert.InDelta(t, 0.9, out[0][0], 1e-3)
		assert.Equal(t, [2]float64{}, out[1])
	})
}

func TestSink_StaleWriteAfterFlush(t *testing.T) {
	s, b := newTestSink(t, 8)
	s.Flush(3)

	// A write of a chunk taken before the seek reaches the sink late.
	require.NoError(t, s.Write(context.Background(), 2, pcmOf(0.7, 0.7)))
	assert.True(t, s.volume.Silent, "stale write must not unmute")
	out, _ := b.pull(2)
	assert.Equal(t, [2]float64{}, out[0])

	require.NoError(t, s.Write(context.Background(), 3, pcmOf(0.4)))
	assert.False(t, s.volume.Silent)
	out, _ = b.pull(1)
	assert.InDelta(t, 0.4, out[0][0], 1e-3)
}

func TestSink_Drain(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, b := newTestSink(t, 8)
		require.NoError(t, s.Write(context.Background(), 0, pcmOf(0.1, 0.2)))

		done := make(chan error, 1)
		go func() { done <- s.Drain(context.Background()) }()
		synctest.Wait()

		select {
		case <-done:
			t.Fatal("Drain returned with audio pending")
		default:
		}

		b.pull(2)
		time.Sleep(20 * time.Millisecond)
		synctest.Wait()
		require.NoError(t, <-done)
	})
}

func TestSink_Close(t *testing.T) {
	s, b := newTestSink(t, 8)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Write(context.Background(), 0, pcmOf(0.1)), ErrSinkClosed)
	_, ok := b.pull(4)
	assert.False(t, ok, "closed sink leaves the mixer")
}

func TestDevice_InitOnce(t *testing.T) {
	b := &fakeBackend{}
	d := newDevice(b, 100*time.Millisecond, zerolog.Nop())

	_, err := d.OpenSink(stereo)
	require.NoError(t, err)
	_, err = d.OpenSink(beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2})
	require.NoError(t, err)

	assert.Equal(t, 1, b.inits)
	assert.Equal(t, beep.SampleRate(1000), b.initRate)
	assert.Equal(t, 100, b.initBuf)
	require.Len(t, b.playing, 2)
	_, resampled := b.playing[1].(*beep.Resampler)
	assert.True(t, resampled, "second sink at another rate must be resampled")
}

func TestDevice_InvalidFormat(t *testing.T) {
	d := newDevice(&fakeBackend{}, 0, zerolog.Nop())
	_, err := d.OpenClip(beep.Format{})
	assert.Error(t, err)
}
