//go:build linux

package notify

import (
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	dbusNotifyDest      = "org.freedesktop.Notifications"
	dbusNotifyPath      = "/org/freedesktop/Notifications"
	dbusNotifyInterface = "org.freedesktop.Notifications"

	appName = "ncstream"
	appIcon = "audio-x-generic"
)

// dbusNotifier sends notifications to the session bus notification server.
type dbusNotifier struct {
	obj dbus.BusObject
}

// New connects to the session bus. Without one it returns a Notifier that
// drops everything, so playback never depends on a desktop being present.
func New() (Notifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return noopNotifier{}, nil //nolint:nilerr // no session bus, notifications off
	}
	return &dbusNotifier{obj: conn.Object(dbusNotifyDest, dbusNotifyPath)}, nil
}

// Notify calls
// Notify(app_name, replaces_id, app_icon, summary, body, actions, hints, expire_timeout).
func (n *dbusNotifier) Notify(notif Notification) (uint32, error) {
	call := n.obj.Call(
		dbusNotifyInterface+".Notify",
		0,
		appName,
		notif.ReplacesID,
		appIcon,
		notif.Summary,
		notif.Body,
		[]string{},
		hints(notif),
		expireMillis(notif.Expire),
	)
	if call.Err != nil {
		return 0, call.Err
	}
	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// Close withdraws a notification by ID.
func (n *dbusNotifier) Close(id uint32) error {
	return n.obj.Call(dbusNotifyInterface+".CloseNotification", 0, id).Err
}

func hints(n Notification) map[string]dbus.Variant {
	h := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(n.Urgency)),
		"desktop-entry": dbus.MakeVariant(appName),
	}
	if n.Category != "" {
		h["category"] = dbus.MakeVariant(n.Category)
	}
	// Low urgency track notices stay out of the server's history.
	if n.Urgency == UrgencyLow {
		h["transient"] = dbus.MakeVariant(true)
	}
	return h
}

// expireMillis converts d to the protocol's timeout, -1 for server default.
func expireMillis(d time.Duration) int32 {
	if d <= 0 {
		return -1
	}
	return int32(min(d.Milliseconds(), int64(^uint32(0)>>1))) //nolint:gosec // clamped
}
