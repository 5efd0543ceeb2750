// Package playerbar renders the now-playing panel: status, title, progress
// bar and elapsed/total time.
package playerbar

import (
	"fmt"
	"time"

	"github.com/llehouerou/ncstream/internal/icons"
	"github.com/llehouerou/ncstream/internal/player"
	"github.com/llehouerou/ncstream/internal/ui/render"
	"github.com/llehouerou/ncstream/internal/ui/styles"
)

// Height is the number of terminal rows the bar occupies, borders included.
const Height = 4

// State holds everything needed to render the player bar.
type State struct {
	Status   player.Status
	Title    string
	Subtitle string
	Position time.Duration
	Duration time.Duration
}

// NewState snapshots p for rendering.
func NewState(p player.Interface) State {
	s := State{
		Status:   p.Status(),
		Position: p.Position(),
		Duration: p.Duration(),
	}
	if t := p.Track(); t != nil {
		s.Title, s.Subtitle = describe(t)
	}
	return s
}

// WithProgress returns s updated from a progress event.
func (s State) WithProgress(p player.Progress) State {
	s.Position = p.Current
	s.Duration = p.Total
	return s
}

func describe(t *player.Track) (title, subtitle string) {
	title = t.Name
	switch {
	case t.Source != "":
		subtitle = t.Source
	case t.ID > 0:
		subtitle = fmt.Sprintf("NetEase #%d", t.ID)
	}
	if title == "" {
		title = subtitle
		subtitle = ""
	}
	if title == "" {
		title = "Unknown Track"
	}
	return title, subtitle
}

// Symbol returns the glyph shown for a state.
func Symbol(state player.State) string {
	switch state {
	case player.Started:
		return icons.Play()
	case player.Paused:
		return icons.Pause()
	case player.Errored:
		return icons.Error()
	case player.Idle, player.Stopped:
		return icons.Stop()
	}
	return icons.Stop()
}

// Render returns the player bar for the given terminal width.
func Render(s State, width int) string {
	st := styles.T().S()
	inner := max(width-4, 10) // border + padding

	// Line 1: ▶ Title · subtitle                    Started
	label := s.Status.State.String()
	head := st.Playing.Render(Symbol(s.Status.State)) + " " + st.Title.Render(icons.FormatTitle(render.Truncate(s.Title, inner/2)))
	if s.Subtitle != "" {
		head += st.Muted.Render(" · " + render.Truncate(s.Subtitle, max(inner/2-4, 1)))
	}
	first := render.Row(head, st.Subtle.Render(label), inner)

	// Line 2: progress bar, or the failure message
	var second string
	if s.Status.State == player.Errored && s.Status.Err != nil {
		second = st.Error.Render(render.Truncate(string(s.Status.Err.Code)+": "+s.Status.Err.Message, inner))
	} else {
		second = RenderProgressBar(s.Position, s.Duration, inner)
	}

	return st.Panel.Padding(0, 1).Width(width - 2).Render(first + "\n" + second)
}
