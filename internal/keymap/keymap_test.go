//nolint:goconst // test cases intentionally repeat strings for readability
package keymap

import (
	"strings"
	"testing"
)

func TestMap_Resolve(t *testing.T) {
	m, err := New([]Binding{
		{ActionQuit, []string{"q", "ctrl+c"}, "quit"},
		{ActionPlayPause, []string{" "}, "play/pause"},
		{ActionSeekBack, []string{"left", "h"}, "-5s"},
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		key      string
		expected Action
	}{
		{"q", ActionQuit},
		{"ctrl+c", ActionQuit},
		{" ", ActionPlayPause},
		{"left", ActionSeekBack},
		{"h", ActionSeekBack},
		{"s", ""},
		{"unknown", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := m.Resolve(tt.key); got != tt.expected {
				t.Errorf("Resolve(%q) = %q, want %q", tt.key, got, tt.expected)
			}
		})
	}
}

func TestNew_RejectsConflicts(t *testing.T) {
	_, err := New([]Binding{
		{ActionStop, []string{"s"}, "stop"},
		{ActionSeekStart, []string{" ", "s"}, "seek to start"},
	})
	if err == nil || !strings.Contains(err.Error(), `"s"`) {
		t.Errorf("New() error = %v, want conflict on \"s\"", err)
	}
}

func TestNew_RepeatedKeySameAction(t *testing.T) {
	m, err := New([]Binding{
		{ActionStop, []string{"s", "x"}, "stop"},
		{ActionStop, []string{"s"}, "stop"},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := m.Resolve("x"); got != ActionStop {
		t.Errorf("Resolve(x) = %q, want %q", got, ActionStop)
	}
}

func TestDefault(t *testing.T) {
	m := Default()

	tests := []struct {
		key  string
		want Action
	}{
		{"q", ActionQuit},
		{" ", ActionPlayPause},
		{"s", ActionStop},
		{"enter", ActionRestart},
		{"right", ActionSeekForward},
		{"shift+left", ActionSeekBackLong},
		{"home", ActionSeekStart},
	}
	for _, tt := range tests {
		if got := m.Resolve(tt.key); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
	if got := m.Help(); got != Help(All) {
		t.Errorf("Help() = %q", got)
	}
}

func TestHelp(t *testing.T) {
	got := Help([]Binding{
		{ActionPlayPause, []string{" "}, "play/pause"},
		{ActionQuit, []string{"q", "ctrl+c"}, "quit"},
		{ActionHelp, nil, "ignored"},
	})
	if got != "space play/pause · q quit" {
		t.Errorf("Help() = %q", got)
	}
	if strings.Contains(Help(All), "  ") {
		t.Error("Help(All) should not contain empty keys")
	}
}
