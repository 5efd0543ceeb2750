package player

import (
	"context"
	"errors"
	"fmt"

	"github.com/llehouerou/ncstream/internal/errmsg"
)

// ErrorCode classifies a playback failure.
type ErrorCode string

const (
	ErrGetURL ErrorCode = "ERROR_GET_URL"
	ErrDecode ErrorCode = "ERROR_DECODE"
	ErrDevice ErrorCode = "ERROR_DEVICE"
)

var (
	// ErrQueueClosed is returned by FrameQueue operations once the
	// end-of-stream marker has been taken.
	ErrQueueClosed = errors.New("frame queue closed")

	// ErrNoTrack is returned when Start is called without a data source.
	ErrNoTrack = errors.New("no track set")
)

// Error is a playback failure reported to listeners through an Errored status.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newError(code ErrorCode, op errmsg.Op, err error) *Error {
	return &Error{Code: code, Message: errmsg.Format(op, err), Err: err}
}

// isCancellation reports whether err stems from an intentional stop, seek or
// replace rather than a real fault.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// classify turns a pipeline error into a reportable *Error. Unknown errors
// are attributed to the given fallback code.
func classify(err error, fallback ErrorCode, op errmsg.Op) *Error {
	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}
	return newError(fallback, op, err)
}
