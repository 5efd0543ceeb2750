package notify

import (
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/ncstream/internal/player"
)

const (
	trackExpire = 4 * time.Second
	errorExpire = 8 * time.Second
)

// Listener announces playback on the desktop. A track is announced once
// when it starts playing; resuming it, or restarting it in place, is not
// announced again. Failures get a critical notification, and stopping
// withdraws the track notification. Successive notifications replace each
// other and are delivered in order off the dispatch goroutine.
type Listener struct {
	notifier Notifier
	track    func() *player.Track
	logger   zerolog.Logger

	mu        sync.Mutex
	last      player.State
	announced string // key of the last announced track

	qmu     sync.Mutex
	jobs    []func()
	running bool
	wg      sync.WaitGroup

	// Owned by the delivery goroutine.
	shownID      uint32
	showingTrack bool
}

// NewListener creates a Listener. track is queried for the current track when
// playback starts; it is typically Controller.Track.
func NewListener(n Notifier, track func() *player.Track, logger zerolog.Logger) *Listener {
	return &Listener{
		notifier: n,
		track:    track,
		logger:   logger.With().Str("component", "notify").Logger(),
	}
}

// OnStatusChanged implements player.Listener.
func (l *Listener) OnStatusChanged(s player.Status) {
	switch s.State {
	case player.Started:
		t := l.track()
		key := trackKey(t)
		l.mu.Lock()
		// Paused then Started is a resume unless the track changed, which
		// is what Start does while another track is playing.
		fresh := l.last != player.Paused || key != l.announced
		l.last = s.State
		if fresh {
			l.announced = key
		}
		l.mu.Unlock()
		if fresh {
			n := trackNotification(t)
			l.enqueue(func() { l.show(n, true) })
		}
	case player.Errored:
		l.setLast(s.State)
		if s.Err == nil {
			return
		}
		n := Notification{
			Summary:  "Playback failed",
			Body:     s.Err.Message,
			Category: CategoryError,
			Urgency:  UrgencyCritical,
			Expire:   errorExpire,
		}
		l.enqueue(func() { l.show(n, false) })
	case player.Stopped:
		l.setLast(s.State)
		l.enqueue(l.withdraw)
	default:
		l.setLast(s.State)
	}
}

// OnProgress implements player.Listener.
func (l *Listener) OnProgress(player.Progress) {}

// Wait blocks until queued notifications have been delivered.
func (l *Listener) Wait() {
	l.wg.Wait()
}

func (l *Listener) setLast(s player.State) {
	l.mu.Lock()
	l.last = s
	l.mu.Unlock()
}

// enqueue runs job after every job queued before it. D-Bus calls may
// block, so they never run on the Controller's dispatch goroutine.
func (l *Listener) enqueue(job func()) {
	l.qmu.Lock()
	defer l.qmu.Unlock()
	l.jobs = append(l.jobs, job)
	l.wg.Add(1)
	if !l.running {
		l.running = true
		go l.deliver()
	}
}

func (l *Listener) deliver() {
	for {
		l.qmu.Lock()
		if len(l.jobs) == 0 {
			l.running = false
			l.qmu.Unlock()
			return
		}
		job := l.jobs[0]
		l.jobs = l.jobs[1:]
		l.qmu.Unlock()

		job()
		l.wg.Done()
	}
}

func (l *Listener) show(n Notification, track bool) {
	n.ReplacesID = l.shownID
	id, err := l.notifier.Notify(n)
	if err != nil {
		l.logger.Warn().Err(err).Str("summary", n.Summary).Msg("Notification failed")
		return
	}
	l.shownID = id
	l.showingTrack = track
}

// withdraw closes the track notification still on screen. Error
// notifications stay until they expire.
func (l *Listener) withdraw() {
	if l.shownID == 0 || !l.showingTrack {
		return
	}
	if err := l.notifier.Close(l.shownID); err != nil {
		l.logger.Debug().Err(err).Uint32("id", l.shownID).Msg("Closing notification")
	}
	l.shownID = 0
	l.showingTrack = false
}

func trackNotification(t *player.Track) Notification {
	n := Notification{
		Summary:  "Now playing",
		Category: CategoryTrack,
		Urgency:  UrgencyLow,
		Expire:   trackExpire,
	}
	if t != nil {
		n.Summary = trackTitle(t)
		n.Body = trackSource(t)
	}
	return n
}

func trackKey(t *player.Track) string {
	if t == nil {
		return ""
	}
	return strconv.FormatInt(t.ID, 10) + "|" + t.Source + "|" + t.Name
}

func trackTitle(t *player.Track) string {
	if t.Name != "" {
		return t.Name
	}
	if t.Source != "" {
		return t.Source
	}
	return "Track " + strconv.FormatInt(t.ID, 10)
}

func trackSource(t *player.Track) string {
	if t.Source != "" {
		return "Local source"
	}
	return "NetEase #" + strconv.FormatInt(t.ID, 10)
}
