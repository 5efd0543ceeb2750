package audio

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
)

// ErrUnsupportedFormat is returned when a source is neither MP3 nor FLAC.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Container identifies how a source must be decoded.
type Container string

const (
	MP3  Container = "mp3"
	FLAC Container = "flac"
)

const id3HeaderSize = 10

// detect sniffs the first bytes of r, falling back to the extension of
// name. r is left positioned at the start.
func detect(r io.ReadSeeker, name string) (Container, error) {
	header := make([]byte, id3HeaderSize)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	header = header[:n]

	var c Container
	switch {
	case hasMagic(header, "fLaC"):
		c = FLAC
	case hasMagic(header, "ID3") && n == id3HeaderSize:
		c, err = detectAfterID3(r, header)
		if err != nil {
			return "", err
		}
	case n >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0:
		c = MP3
	default:
		c = fromExtension(name)
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	if c == "" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	return c, nil
}

// detectAfterID3 looks past an ID3v2 tag. Some taggers prepend one to FLAC
// files; everything else carrying one is treated as MP3.
func detectAfterID3(r io.ReadSeeker, header []byte) (Container, error) {
	if _, err := r.Seek(id3HeaderSize+id3Size(header), io.SeekStart); err != nil {
		return "", err
	}
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err == nil && string(magic) == "fLaC" {
		return FLAC, nil
	}
	return MP3, nil
}

func hasMagic(b []byte, magic string) bool {
	return len(b) >= len(magic) && string(b[:len(magic)]) == magic
}

// id3Size decodes the syncsafe tag size stored in bytes 6-9.
// Each byte only uses 7 bits (bit 7 is always 0).
func id3Size(header []byte) int64 {
	return int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
}

func fromExtension(name string) Container {
	if u, err := url.Parse(name); err == nil && u.Scheme != "" {
		name = u.Path
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".mp3":
		return MP3
	case ".flac":
		return FLAC
	default:
		return ""
	}
}

// skipID3v2 skips an ID3v2 tag if present at the beginning of the stream.
// The FLAC decoder doesn't handle them.
func skipID3v2(r io.ReadSeeker) error {
	header := make([]byte, id3HeaderSize)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return err
	}
	if n < id3HeaderSize || !hasMagic(header, "ID3") {
		_, err = r.Seek(0, io.SeekStart)
		return err
	}
	_, err = r.Seek(id3HeaderSize+id3Size(header), io.SeekStart)
	return err
}

func decodeFLAC(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	if err := skipID3v2(rc); err != nil {
		return nil, beep.Format{}, err
	}
	return flac.Decode(rc)
}

func decode(c Container, rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	switch c {
	case MP3:
		return decodeGoMP3(rc)
	case FLAC:
		return decodeFLAC(rc)
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, c)
	}
}
