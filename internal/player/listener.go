package player

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Progress is a snapshot of playback position.
type Progress struct {
	Total      time.Duration
	Current    time.Duration
	Percentage float64 // 0-100, always 0 when Total is 0
}

// NewProgress builds a Progress, guarding the percentage against a zero total.
func NewProgress(total, current time.Duration) Progress {
	p := Progress{Total: total, Current: current}
	if total > 0 {
		p.Percentage = lo.Clamp(float64(current)*100/float64(total), 0, 100)
	}
	return p
}

// ListenerFuncs adapts plain functions to the Listener interface.
// Register it by pointer so it can be removed again.
type ListenerFuncs struct {
	Status   func(Status)
	Progress func(Progress)
}

func (f *ListenerFuncs) OnStatusChanged(s Status) {
	if f.Status != nil {
		f.Status(s)
	}
}

func (f *ListenerFuncs) OnProgress(p Progress) {
	if f.Progress != nil {
		f.Progress(p)
	}
}

type registration struct {
	listener Listener
	removed  atomic.Bool
}

// registry holds listeners. Dispatch works on a copy of the slice so
// registration changes never race with delivery.
type registry struct {
	mu      sync.RWMutex
	entries []*registration
}

func (r *registry) add(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, &registration{listener: l})
}

// remove drops l. Listeners are compared with ==, so they must be of a
// comparable type (typically a pointer).
func (r *registry) remove(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = slices.DeleteFunc(r.entries, func(e *registration) bool {
		if e.listener == l {
			e.removed.Store(true)
			return true
		}
		return false
	})
}

func (r *registry) snapshot() []*registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.entries)
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

type event struct {
	status   *Status
	progress *Progress
}

// dispatcher delivers events in FIFO order on a single goroutine.
type dispatcher struct {
	reg    *registry
	logger zerolog.Logger

	mu      sync.Mutex
	pending []event
	closed  bool

	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func newDispatcher(reg *registry, logger zerolog.Logger) *dispatcher {
	d := &dispatcher{
		reg:     reg,
		logger:  logger,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *dispatcher) postStatus(s Status) { d.post(event{status: &s}) }

func (d *dispatcher) postProgress(p Progress) { d.post(event{progress: &p}) }

func (d *dispatcher) post(e event) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.pending = append(d.pending, e)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *dispatcher) run() {
	defer close(d.stopped)
	for {
		select {
		case <-d.wake:
			d.flush()
		case <-d.done:
			d.flush()
			return
		}
	}
}

func (d *dispatcher) flush() {
	for {
		d.mu.Lock()
		batch := d.pending
		d.pending = nil
		d.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, e := range batch {
			d.deliver(e)
		}
	}
}

func (d *dispatcher) deliver(e event) {
	for _, reg := range d.reg.snapshot() {
		if reg.removed.Load() {
			continue
		}
		d.call(reg.listener, e)
	}
}

func (d *dispatcher) call(l Listener, e event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Interface("panic", r).Msg("Listener panicked")
		}
	}()
	if e.status != nil {
		l.OnStatusChanged(*e.status)
	}
	if e.progress != nil {
		l.OnProgress(*e.progress)
	}
}

// close delivers what is already queued, then stops the goroutine.
func (d *dispatcher) close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()
		close(d.done)
	})
	<-d.stopped
}
