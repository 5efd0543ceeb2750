package tui

import (
	"github.com/llehouerou/ncstream/internal/lyrics"
	"github.com/llehouerou/ncstream/internal/player"
)

// StatusMsg carries a controller status change.
type StatusMsg player.Status

// ProgressMsg carries a controller progress snapshot.
type ProgressMsg player.Progress

// ClosedMsg is sent once the subscription is closed.
type ClosedMsg struct{}

// LyricsMsg carries the lyrics fetched for track ID. Lyrics is nil when the
// song has none.
type LyricsMsg struct {
	ID     int64
	Lyrics *lyrics.Lyrics
	Err    error
}
