package audio

import (
	"errors"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/llehouerou/go-mp3"

	"github.com/llehouerou/ncstream/internal/player"
)

// goMP3Decoder wraps llehouerou/go-mp3 to implement beep.StreamSeekCloser.
type goMP3Decoder struct {
	decoder *mp3.Decoder
	closer  io.Closer
	err     error
	readBuf []byte // reusable buffer for reading
}

// decodeGoMP3 decodes MP3 from a seekable source.
func decodeGoMP3(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	decoder, err := mp3.NewDecoder(rc)
	if err != nil {
		return nil, beep.Format{}, err
	}

	sampleRate := decoder.SampleRate()
	if sampleRate == 0 {
		return nil, beep.Format{}, errors.New("mp3: invalid sample rate")
	}

	format := beep.Format{
		SampleRate:  beep.SampleRate(sampleRate),
		NumChannels: 2, // go-mp3 always outputs stereo
		Precision:   2, // 16-bit
	}

	d := &goMP3Decoder{
		decoder: decoder,
		closer:  rc,
		readBuf: make([]byte, 8192),
	}
	return d, format, nil
}

// Stream reads audio samples into the provided buffer.
func (d *goMP3Decoder) Stream(samples [][2]float64) (n int, ok bool) {
	if d.err != nil {
		return 0, false
	}

	bytesNeeded := len(samples) * player.FrameSize(2)
	if len(d.readBuf) < bytesNeeded {
		d.readBuf = make([]byte, bytesNeeded)
	}

	bytesRead, err := io.ReadFull(d.decoder, d.readBuf[:bytesNeeded])
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		d.err = err
		return 0, false
	}

	n = player.DecodePCM(samples, d.readBuf[:bytesRead], 2)
	return n, n > 0
}

func (d *goMP3Decoder) Err() error {
	return d.err
}

// Len returns the total number of frames.
func (d *goMP3Decoder) Len() int {
	count := d.decoder.SampleCount()
	if count < 0 {
		return 0
	}
	return int(count)
}

func (d *goMP3Decoder) Position() int {
	return int(d.decoder.SamplePosition())
}

// Seek moves to frame p, clamped to the stream.
func (d *goMP3Decoder) Seek(p int) error {
	p = min(max(p, 0), d.Len())
	if err := d.decoder.SeekToSample(int64(p)); err != nil {
		return err
	}
	d.err = nil
	return nil
}

// Close closes the underlying source.
func (d *goMP3Decoder) Close() error {
	return d.closer.Close()
}
