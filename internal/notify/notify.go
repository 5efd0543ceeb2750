// Package notify announces playback on the desktop via D-Bus.
package notify

import "time"

// Urgency is the freedesktop notification urgency level.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Category hints for the notification server.
const (
	CategoryTrack = "x-gnome.music"
	CategoryError = "transfer.error"
)

// Notification is one playback announcement.
type Notification struct {
	Summary  string
	Body     string
	Category string
	Urgency  Urgency
	// Expire is how long the server shows it; zero uses the server default.
	Expire time.Duration
	// ReplacesID is the ID of a previous notification to update in place.
	ReplacesID uint32
}

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify shows n and returns its ID. A disabled or unavailable notifier
	// returns 0 and no error.
	Notify(n Notification) (uint32, error)
	// Close withdraws a notification by ID.
	Close(id uint32) error
}

// noopNotifier is used when notifications are disabled or D-Bus is missing.
type noopNotifier struct{}

// Disabled returns a Notifier that drops everything.
func Disabled() Notifier { return noopNotifier{} }

func (noopNotifier) Notify(Notification) (uint32, error) { return 0, nil }

func (noopNotifier) Close(uint32) error { return nil }
