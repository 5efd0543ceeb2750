package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/ncstream/internal/lyrics"
	"github.com/llehouerou/ncstream/internal/player"
)

func newModel(t *testing.T) (Model, *player.Mock, *player.Subscription) {
	t.Helper()
	m := player.NewMock()
	m.SetDataSource(player.Track{ID: 33894312, Name: "Song"})
	sub := player.NewSubscription()
	m.AddListener(sub)
	return New(m, sub, nil), m, sub
}

func key(k string) tea.KeyMsg {
	switch k {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func TestModel_PlayPause(t *testing.T) {
	m, p, _ := newModel(t)

	m, _ = update(t, m, key(" "))
	assert.Equal(t, player.Started, p.Status().State)

	m, _ = update(t, m, key(" "))
	assert.Equal(t, player.Paused, p.Status().State)

	_, _ = update(t, m, key(" "))
	assert.Equal(t, player.Started, p.Status().State)
	assert.Equal(t, 1, p.StartCalls(), "space resumes instead of restarting")
}

func TestModel_StopAndRestart(t *testing.T) {
	m, p, _ := newModel(t)
	m, _ = update(t, m, key(" "))

	m, _ = update(t, m, key("s"))
	assert.Equal(t, 1, p.StopCalls())
	assert.Equal(t, player.Idle, p.Status().State)

	_, _ = update(t, m, key("enter"))
	assert.Equal(t, 2, p.StartCalls())
}

func TestModel_Seek(t *testing.T) {
	m, p, _ := newModel(t)
	p.SetDuration(100 * time.Second)
	p.SetPosition(50 * time.Second)

	m, _ = update(t, m, key("right"))
	m, _ = update(t, m, key("left"))
	m, _ = update(t, m, key("L"))
	_, _ = update(t, m, key("0"))

	seeks := p.SeekCalls()
	require.Len(t, seeks, 4)
	assert.InDelta(t, 0.55, seeks[0], 1e-9)
	assert.InDelta(t, 0.45, seeks[1], 1e-9)
	assert.InDelta(t, 0.80, seeks[2], 1e-9)
	assert.InDelta(t, 0.0, seeks[3], 1e-9)
}

func TestModel_SeekWithoutDuration(t *testing.T) {
	m, p, _ := newModel(t)
	_, _ = update(t, m, key("right"))
	assert.Empty(t, p.SeekCalls())
}

func TestModel_Quit(t *testing.T) {
	m, _, _ := newModel(t)
	_, cmd := update(t, m, key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestModel_Events(t *testing.T) {
	m, p, sub := newModel(t)

	p.Start()
	msg := watchEvents(sub)()
	require.Equal(t, StatusMsg(player.Status{State: player.Started}), msg)
	m, cmd := update(t, m, msg)
	assert.NotNil(t, cmd, "keeps watching")
	assert.Equal(t, player.Started, m.bar.Status.State)
	assert.Equal(t, "Song", m.bar.Title)

	p.EmitProgress(player.NewProgress(200*time.Second, 50*time.Second))
	m, _ = update(t, m, watchEvents(sub)())
	assert.Equal(t, 50*time.Second, m.bar.Position)

	sub.Close()
	_, cmd = update(t, m, watchEvents(sub)())
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestModel_View(t *testing.T) {
	m, _, _ := newModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 60, Height: 10})

	view := m.View()
	assert.Contains(t, view, "Song")
	assert.Contains(t, view, "? keys")

	m, _ = update(t, m, key("?"))
	view = m.View()
	assert.Contains(t, view, "play/pause")
	assert.False(t, strings.Contains(view, "? keys"))
}

func TestModel_Lyrics(t *testing.T) {
	p := player.NewMock()
	p.SetDataSource(player.Track{ID: 186016, Name: "晴天"})
	sub := player.NewSubscription()
	p.AddListener(sub)

	var asked []int64
	fetch := func(_ context.Context, id int64) (*lyrics.Lyrics, error) {
		asked = append(asked, id)
		l := lyrics.Parse("[00:01.00]故事的小黄花\n[00:05.00]从出生那年就飘着")
		l.Merge(lyrics.Parse("[00:05.00]Floating since birth"))
		return l, nil
	}
	m := New(p, sub, fetch)

	msg := fetchLyrics(fetch, m.lyricsID)()
	m, _ = update(t, m, msg)
	assert.Equal(t, []int64{186016}, asked)

	view := m.View()
	assert.NotContains(t, view, "故事的小黄花", "nothing before the first line")

	m, _ = update(t, m, ProgressMsg(player.NewProgress(200*time.Second, 6*time.Second)))
	view = m.View()
	assert.Contains(t, view, "从出生那年就飘着")
	assert.Contains(t, view, "Floating since birth")
	assert.NotContains(t, view, "故事的小黄花")
}

func TestModel_LyricsFollowTrack(t *testing.T) {
	m, p, _ := newModel(t)
	m.fetchLyrics = func(context.Context, int64) (*lyrics.Lyrics, error) {
		return lyrics.Parse("[00:00.00]old"), nil
	}
	m, _ = update(t, m, LyricsMsg{ID: 33894312, Lyrics: lyrics.Parse("[00:00.00]first song")})
	assert.Contains(t, m.View(), "first song")

	p.SetDataSource(player.Track{ID: 7, Name: "Next"})
	m, cmd := update(t, m, StatusMsg(player.Status{State: player.Started}))
	require.NotNil(t, cmd)
	assert.Equal(t, int64(7), m.lyricsID)
	assert.NotContains(t, m.View(), "first song", "old lyrics are cleared")

	// A late reply for the previous track is ignored.
	m, _ = update(t, m, LyricsMsg{ID: 33894312, Lyrics: lyrics.Parse("[00:00.00]first song")})
	assert.NotContains(t, m.View(), "first song")

	m, _ = update(t, m, LyricsMsg{ID: 7, Err: errors.New("timeout")})
	assert.Nil(t, m.lyrics)
}

func TestModel_NoLyricsForLocalSource(t *testing.T) {
	p := player.NewMock()
	p.SetDataSource(player.Track{ID: 3, Source: "/music/a.flac"})
	m := New(p, nil, func(context.Context, int64) (*lyrics.Lyrics, error) {
		t.Fatal("local sources have no NetEase lyrics")
		return nil, nil
	})
	assert.Zero(t, m.lyricsID)
	assert.Nil(t, fetchLyrics(m.fetchLyrics, m.lyricsID))
}
