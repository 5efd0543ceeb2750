package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/ncstream/internal/player"
)

// Run shows the UI until the user quits. fetch loads lyrics and may be
// nil. Playback is left running; the caller owns the controller.
func Run(p player.Interface, fetch LyricsFunc) error {
	sub := player.NewSubscription()
	p.AddListener(sub)
	defer func() {
		p.RemoveListener(sub)
		sub.Close()
	}()

	_, err := tea.NewProgram(New(p, sub, fetch), tea.WithAltScreen()).Run()
	return err
}
