//go:build !windows

// Package stderr captures stderr output from C libraries (ALSA, the audio
// backend) that write directly to file descriptor 2, bypassing Go's
// os.Stderr. Captured lines are forwarded to the logger so they cannot
// corrupt the terminal UI.
package stderr

import (
	"os"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
)

var (
	mu         sync.Mutex
	origStderr = -1
	pipeRead   *os.File
	pipeWrite  *os.File
	done       chan struct{}
)

// Start redirects fd 2 into a pipe whose lines are logged at warn level.
// Must be called before the speaker is initialized. On error the program
// can continue; output just goes to the original stderr.
func Start(logger zerolog.Logger) error {
	mu.Lock()
	defer mu.Unlock()
	if done != nil {
		return nil
	}

	r, w, err := os.Pipe()
	if err != nil {
		return err
	}

	orig, err := syscall.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return err
	}

	if err := syscall.Dup2(int(w.Fd()), int(os.Stderr.Fd())); err != nil {
		syscall.Close(orig)
		r.Close()
		w.Close()
		return err
	}

	origStderr = orig
	pipeRead = r
	pipeWrite = w
	done = make(chan struct{})

	ch := done
	go func() {
		defer close(ch)
		forward(r, logger.With().Str("component", "stderr").Logger())
	}()

	return nil
}

// WriteOriginal writes directly to the original stderr, bypassing capture.
// Used for fatal errors that must stay visible while the TUI is running.
func WriteOriginal(msg string) {
	mu.Lock()
	fd := origStderr
	mu.Unlock()
	if fd < 0 {
		_, _ = os.Stderr.WriteString(msg)
		return
	}
	_, _ = syscall.Write(fd, []byte(msg))
}

// Stop restores the original stderr and waits for pending lines to be logged.
func Stop() {
	mu.Lock()
	defer mu.Unlock()
	if done == nil {
		return
	}

	_ = syscall.Dup2(origStderr, int(os.Stderr.Fd()))
	_ = syscall.Close(origStderr)
	origStderr = -1

	// Closing the write end lets the reader drain and finish.
	pipeWrite.Close()
	<-done
	pipeRead.Close()
	done = nil
}
