// Package tui is the terminal front end: a single now-playing panel driven
// by key bindings and fed by controller events.
package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/ncstream/internal/keymap"
	"github.com/llehouerou/ncstream/internal/lyrics"
	"github.com/llehouerou/ncstream/internal/player"
	"github.com/llehouerou/ncstream/internal/ui/playerbar"
	"github.com/llehouerou/ncstream/internal/ui/render"
	"github.com/llehouerou/ncstream/internal/ui/styles"
)

const (
	seekStep     = 5 * time.Second
	seekStepLong = 30 * time.Second
	defaultWidth = 80
)

// Model is the root bubbletea model.
type Model struct {
	player   player.Interface
	sub      *player.Subscription
	keys     keymap.Map
	bar      playerbar.State
	width    int
	showHelp bool

	fetchLyrics LyricsFunc
	lyricsID    int64 // track the lyrics were requested for
	lyrics      *lyrics.Lyrics
}

// New creates a model for p. sub must already be registered with p.
// fetch may be nil to go without lyrics.
func New(p player.Interface, sub *player.Subscription, fetch LyricsFunc) Model {
	return Model{
		player:      p,
		sub:         sub,
		keys:        keymap.Default(),
		bar:         playerbar.NewState(p),
		width:       defaultWidth,
		fetchLyrics: fetch,
		lyricsID:    lyricsTrack(p.Track()),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(watchEvents(m.sub), fetchLyrics(m.fetchLyrics, m.lyricsID))
}

// requestLyrics asks for the lyrics of the current track when it changed.
func (m *Model) requestLyrics() tea.Cmd {
	id := lyricsTrack(m.player.Track())
	if id == m.lyricsID {
		return nil
	}
	m.lyricsID = id
	m.lyrics = nil
	return fetchLyrics(m.fetchLyrics, id)
}

// lyricsTrack returns the NetEase id to fetch lyrics for, or 0 for local
// sources.
func lyricsTrack(t *player.Track) int64 {
	if t == nil || t.Source != "" {
		return 0
	}
	return max(t.ID, 0)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	case StatusMsg:
		m.bar = playerbar.NewState(m.player)
		m.bar.Status = player.Status(msg)
		return m, tea.Batch(watchEvents(m.sub), m.requestLyrics())
	case ProgressMsg:
		m.bar = m.bar.WithProgress(player.Progress(msg))
		return m, watchEvents(m.sub)
	case LyricsMsg:
		// A reply for a track that is no longer current is dropped.
		if msg.ID == m.lyricsID && msg.Err == nil {
			m.lyrics = msg.Lyrics
		}
		return m, nil
	case ClosedMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	switch m.keys.Resolve(key) {
	case keymap.ActionQuit:
		return m, tea.Quit
	case keymap.ActionHelp:
		m.showHelp = !m.showHelp
	case keymap.ActionPlayPause:
		m.togglePlayback()
	case keymap.ActionStop:
		m.player.Stop()
	case keymap.ActionRestart:
		m.player.Start()
	case keymap.ActionSeekForward:
		m.seekBy(seekStep)
	case keymap.ActionSeekBack:
		m.seekBy(-seekStep)
	case keymap.ActionSeekForwardLong:
		m.seekBy(seekStepLong)
	case keymap.ActionSeekBackLong:
		m.seekBy(-seekStepLong)
	case keymap.ActionSeekStart:
		m.player.SeekTo(0)
	}
	return m, nil
}

func (m Model) togglePlayback() {
	switch state := m.player.Status().State; {
	case state.CanPause():
		m.player.Pause()
	case state.CanResume():
		m.player.Resume()
	default:
		m.player.Start()
	}
}

// seekBy moves relative to the current position. The controller clamps the
// resulting fraction.
func (m Model) seekBy(delta time.Duration) {
	total := m.player.Duration()
	if total <= 0 {
		return
	}
	m.player.SeekTo(float64(m.player.Position()+delta) / float64(total))
}

// View implements tea.Model.
func (m Model) View() string {
	st := styles.T().S()
	var b strings.Builder

	b.WriteString(" ")
	b.WriteString(styles.ProgressRamp().Title("ncstream"))
	b.WriteString("\n")
	b.WriteString(playerbar.Render(m.bar, m.width))
	b.WriteString("\n")
	if line := m.lyricLine(); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.showHelp {
		b.WriteString(" " + st.Subtle.Render(render.Truncate(m.keys.Help(), max(m.width-2, 1))))
	} else {
		b.WriteString(" " + st.Subtle.Render("? keys"))
	}
	return b.String()
}

// lyricLine renders the lyric under the playhead and its translation.
func (m Model) lyricLine() string {
	i := m.lyrics.LineAt(m.bar.Position)
	if i < 0 {
		return ""
	}
	st := styles.T().S()
	line := m.lyrics.Lines[i]
	width := max(m.width-2, 1)

	out := " " + st.Base.Render(render.Truncate(line.Text, width))
	if line.Translation != "" {
		out += "\n " + st.Muted.Render(render.Truncate(line.Translation, width))
	}
	return out
}
