//go:build linux

package notify

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHints(t *testing.T) {
	track := hints(Notification{Category: CategoryTrack, Urgency: UrgencyLow})
	assert.Equal(t, byte(UrgencyLow), track["urgency"].Value())
	assert.Equal(t, appName, track["desktop-entry"].Value())
	assert.Equal(t, CategoryTrack, track["category"].Value())
	assert.Equal(t, true, track["transient"].Value())

	failure := hints(Notification{Urgency: UrgencyCritical})
	assert.Equal(t, byte(UrgencyCritical), failure["urgency"].Value())
	assert.NotContains(t, failure, "category")
	assert.NotContains(t, failure, "transient")
}

func TestExpireMillis(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want int32
	}{
		{0, -1},
		{-time.Second, -1},
		{4 * time.Second, 4000},
		{1500 * time.Microsecond, 1},
		{1000 * time.Hour, 1<<31 - 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, expireMillis(tt.in), "expireMillis(%v)", tt.in)
	}
}

func TestNotify_SessionBus(t *testing.T) {
	if os.Getenv("DBUS_SESSION_BUS_ADDRESS") == "" {
		t.Skip("no D-Bus session available")
	}

	n, err := New()
	require.NoError(t, err)

	first, err := n.Notify(Notification{Summary: "Track 1", Body: "NetEase #1", Urgency: UrgencyLow, Expire: time.Second})
	require.NoError(t, err)
	if first == 0 {
		t.Skip("session bus has no notification server")
	}

	second, err := n.Notify(Notification{Summary: "Track 2", Body: "NetEase #2", ReplacesID: first, Expire: time.Second})
	require.NoError(t, err)
	assert.Equal(t, first, second, "replacing keeps the ID")
	assert.NoError(t, n.Close(second))
}
