// internal/player/mock.go
package player

import (
	"slices"
	"sync"
	"time"
)

// Mock is a test double for Interface. Listener callbacks run synchronously
// on the goroutine calling the Emit helpers.
type Mock struct {
	mu        sync.Mutex
	status    Status
	track     *Track
	position  time.Duration
	duration  time.Duration
	listeners []Listener

	startCalls int
	stopCalls  int
	seekCalls  []float64
}

// NewMock creates a new mock controller in the Idle state.
func NewMock() *Mock {
	return &Mock{status: statusOf(Idle)}
}

func (m *Mock) SetDataSource(track Track) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track = &track
}

func (m *Mock) Start() {
	m.mu.Lock()
	m.startCalls++
	hasTrack := m.track != nil
	m.mu.Unlock()
	if hasTrack {
		m.EmitStatus(statusOf(Started))
	}
}

func (m *Mock) Pause() {
	if m.Status().State.CanPause() {
		m.EmitStatus(statusOf(Paused))
	}
}

func (m *Mock) Resume() {
	if m.Status().State.CanResume() {
		m.EmitStatus(statusOf(Started))
	}
}

func (m *Mock) Stop() {
	m.mu.Lock()
	m.stopCalls++
	m.position = 0
	m.mu.Unlock()
	m.EmitStatus(statusOf(Stopped))
	m.EmitStatus(statusOf(Idle))
}

func (m *Mock) SeekTo(fraction float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seekCalls = append(m.seekCalls, fraction)
}

func (m *Mock) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Mock) Track() *Track {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.track
}

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Mock) AddListener(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

func (m *Mock) RemoveListener(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = slices.DeleteFunc(m.listeners, func(x Listener) bool { return x == l })
}

// Test helpers

// EmitStatus sets the status and notifies listeners.
func (m *Mock) EmitStatus(s Status) {
	m.mu.Lock()
	m.status = s
	ls := slices.Clone(m.listeners)
	m.mu.Unlock()
	for _, l := range ls {
		l.OnStatusChanged(s)
	}
}

// EmitError moves the mock to an Errored status.
func (m *Mock) EmitError(code ErrorCode, message string) {
	m.EmitStatus(errorStatus(&Error{Code: code, Message: message}))
}

// EmitProgress records the position and notifies listeners.
func (m *Mock) EmitProgress(p Progress) {
	m.mu.Lock()
	m.position = p.Current
	m.duration = p.Total
	ls := slices.Clone(m.listeners)
	m.mu.Unlock()
	for _, l := range ls {
		l.OnProgress(p)
	}
}

func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

func (m *Mock) SetPosition(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = d
}

func (m *Mock) StartCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startCalls
}

func (m *Mock) StopCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCalls
}

func (m *Mock) SeekCalls() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.seekCalls)
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
