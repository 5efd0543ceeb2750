package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/ncstream/internal/lyrics"
	"github.com/llehouerou/ncstream/internal/player"
)

// watchEvents returns a command that waits for the next controller event.
// It is re-issued after every event it delivers.
func watchEvents(sub *player.Subscription) tea.Cmd {
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case s := <-sub.StatusChanged:
			return StatusMsg(s)
		case p := <-sub.ProgressChanged:
			return ProgressMsg(p)
		case <-sub.Done:
			return ClosedMsg{}
		}
	}
}

// LyricsFunc fetches the lyrics of a NetEase song.
type LyricsFunc func(ctx context.Context, id int64) (*lyrics.Lyrics, error)

// fetchLyrics loads the lyrics of id off the UI goroutine.
func fetchLyrics(fetch LyricsFunc, id int64) tea.Cmd {
	if fetch == nil || id <= 0 {
		return nil
	}
	return func() tea.Msg {
		l, err := fetch(context.Background(), id)
		return LyricsMsg{ID: id, Lyrics: l, Err: err}
	}
}
