//go:build linux

// Package mpris exposes the playback controller on the session bus as an
// MPRIS2 media player, so desktop media keys and applets can drive it.
package mpris

import (
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/ncstream/internal/player"
)

// Adapter connects a player.Interface to MPRIS over D-Bus.
type Adapter struct {
	server *server.Server
}

// New creates and starts a new MPRIS adapter.
func New(p player.Interface) (*Adapter, error) {
	a := &Adapter{
		server: server.NewServer("ncstream", &rootAdapter{}, &playerAdapter{player: p}),
	}

	// Start the server in background
	go func() {
		_ = a.server.Listen()
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil // Not supported
}

func (r *rootAdapter) Quit() error {
	return nil // Not supported - app manages its own lifecycle
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "ncstream", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file", "http", "https"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/mp3"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter.
type playerAdapter struct {
	player player.Interface
}

// Next is a no-op: a controller holds a single track.
func (p *playerAdapter) Next() error {
	return nil
}

// Previous restarts the current track.
func (p *playerAdapter) Previous() error {
	if p.player.Status().State.IsActive() {
		p.player.SeekTo(0)
	}
	return nil
}

func (p *playerAdapter) Pause() error {
	p.player.Pause()
	return nil
}

func (p *playerAdapter) PlayPause() error {
	switch state := p.player.Status().State; {
	case state.CanPause():
		p.player.Pause()
	case state.CanResume():
		p.player.Resume()
	default:
		p.player.Start()
	}
	return nil
}

func (p *playerAdapter) Stop() error {
	p.player.Stop()
	return nil
}

func (p *playerAdapter) Play() error {
	switch state := p.player.Status().State; {
	case state.CanResume():
		p.player.Resume()
	case !state.IsActive():
		p.player.Start()
	}
	return nil
}

// Seek moves relative to the current position.
func (p *playerAdapter) Seek(offset types.Microseconds) error {
	target := p.player.Position() + time.Duration(offset)*time.Microsecond
	p.seekTo(target)
	return nil
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	p.seekTo(time.Duration(position) * time.Microsecond)
	return nil
}

func (p *playerAdapter) seekTo(target time.Duration) {
	total := p.player.Duration()
	if total <= 0 {
		return
	}
	// SeekTo clamps out-of-range fractions.
	p.player.SeekTo(float64(target) / float64(total))
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(uri string) error {
	p.player.SetDataSource(player.Track{Name: uri, Source: uri})
	p.player.Start()
	return nil
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch p.player.Status().State {
	case player.Started:
		return types.PlaybackStatusPlaying, nil
	case player.Paused:
		return types.PlaybackStatusPaused, nil
	case player.Idle, player.Stopped, player.Errored:
		return types.PlaybackStatusStopped, nil
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	track := p.player.Track()
	if track == nil {
		return types.Metadata{}, nil
	}

	title := track.Name
	if title == "" {
		title = fmt.Sprintf("Track %d", track.ID)
	}
	return types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(track)),
		Length:  types.Microseconds(p.player.Duration().Microseconds()),
		Title:   title,
	}, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetVolume(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Position() (int64, error) {
	return p.player.Position().Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return p.player.Status().State.IsActive(), nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.player.Track() != nil, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return p.player.Duration() > 0, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

// formatTrackID builds a D-Bus object path for the track. Catalog tracks use
// their id; direct sources all share one path.
func formatTrackID(t *player.Track) string {
	if t.ID > 0 {
		return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%d", t.ID)
	}
	return "/org/mpris/MediaPlayer2/Track/source"
}
