package player

const eventBufferSize = 16

// Subscription is a Listener that forwards events to buffered channels, for
// consumers that prefer select loops over callbacks.
type Subscription struct {
	StatusChanged   <-chan Status
	ProgressChanged <-chan Progress
	Done            <-chan struct{}

	statusCh   chan Status
	progressCh chan Progress
	doneCh     chan struct{}
}

// NewSubscription creates a subscription with buffered channels.
// Register it with Controller.AddListener.
func NewSubscription() *Subscription {
	s := &Subscription{
		statusCh:   make(chan Status, eventBufferSize),
		progressCh: make(chan Progress, eventBufferSize),
		doneCh:     make(chan struct{}),
	}
	s.StatusChanged = s.statusCh
	s.ProgressChanged = s.progressCh
	s.Done = s.doneCh
	return s
}

// OnStatusChanged sends a status event (non-blocking).
func (s *Subscription) OnStatusChanged(st Status) {
	select {
	case s.statusCh <- st:
	default:
		// Drop if buffer full
	}
}

// OnProgress sends a progress event (non-blocking).
func (s *Subscription) OnProgress(p Progress) {
	select {
	case s.progressCh <- p:
	default:
	}
}

// Close signals the reader to stop.
func (s *Subscription) Close() {
	close(s.doneCh)
}
