package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

var errNotSeekable = errors.New("http source does not support range requests")

// httpSource is an io.ReadSeekCloser over a remote file. Reads stream from a
// single response body; a Seek to anywhere but the current offset reissues
// the request with a Range header.
type httpSource struct {
	ctx    context.Context
	client *http.Client
	url    string

	size      int64 // -1 when unknown
	rangeable bool

	mu      sync.Mutex
	pos     int64
	body    io.ReadCloser
	bodyPos int64
	closed  bool
}

func openHTTPSource(ctx context.Context, client *http.Client, url string) (*httpSource, error) {
	s := &httpSource{ctx: ctx, client: client, url: url, size: -1}
	resp, err := s.get(0)
	if err != nil {
		return nil, err
	}
	switch resp.StatusCode {
	case http.StatusPartialContent:
		s.rangeable = true
		s.size = totalFromContentRange(resp.Header.Get("Content-Range"))
	case http.StatusOK:
		s.rangeable = resp.Header.Get("Accept-Ranges") == "bytes"
		s.size = resp.ContentLength
	}
	s.body = resp.Body
	return s, nil
}

func (s *httpSource) get(offset int64) (*http.Response, error) {
	req, err := http.NewRequestWithContext(s.ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range", "bytes="+strconv.FormatInt(offset, 10)+"-")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: unexpected status %d", s.url, resp.StatusCode)
	}
	if offset > 0 && resp.StatusCode == http.StatusOK {
		resp.Body.Close()
		return nil, errNotSeekable
	}
	return resp, nil
}

func (s *httpSource) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, io.ErrClosedPipe
	}
	if s.size >= 0 && s.pos >= s.size {
		return 0, io.EOF
	}
	if err := s.align(); err != nil {
		return 0, err
	}
	n, err := s.body.Read(p)
	s.pos += int64(n)
	s.bodyPos = s.pos
	return n, err
}

// align makes the open body start at pos.
func (s *httpSource) align() error {
	if s.body != nil && s.bodyPos == s.pos {
		return nil
	}
	if s.body != nil && !s.rangeable && s.pos > s.bodyPos {
		n, err := io.CopyN(io.Discard, s.body, s.pos-s.bodyPos)
		s.bodyPos += n
		return err
	}
	if !s.rangeable && s.pos != 0 {
		return errNotSeekable
	}
	if s.body != nil {
		s.body.Close()
		s.body = nil
	}
	resp, err := s.get(s.pos)
	if err != nil {
		return err
	}
	s.body = resp.Body
	s.bodyPos = s.pos
	return nil
}

func (s *httpSource) Seek(offset int64, whence int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = s.pos + offset
	case io.SeekEnd:
		if s.size < 0 {
			return 0, errors.New("http source: size unknown")
		}
		abs = s.size + offset
	default:
		return 0, errors.New("http source: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("http source: negative position")
	}
	s.pos = abs
	return abs, nil
}

func (s *httpSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.body != nil {
		return s.body.Close()
	}
	return nil
}

// totalFromContentRange parses "bytes 0-99/1234" into 1234.
func totalFromContentRange(v string) int64 {
	_, total, ok := strings.Cut(v, "/")
	if !ok || total == "*" {
		return -1
	}
	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return -1
	}
	return n
}
