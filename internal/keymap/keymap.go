package keymap

import (
	"fmt"
	"strings"
)

// Binding ties keys to an action, with a description for the help line.
type Binding struct {
	Action      Action
	Keys        []string
	Description string
}

// All contains the default key bindings.
var All = []Binding{
	{ActionQuit, []string{"q", "ctrl+c"}, "quit"},
	{ActionHelp, []string{"?"}, "help"},
	{ActionPlayPause, []string{" "}, "play/pause"},
	{ActionStop, []string{"s"}, "stop"},
	{ActionRestart, []string{"enter"}, "start over"},
	{ActionSeekBack, []string{"left", "h"}, "-5s"},
	{ActionSeekForward, []string{"right", "l"}, "+5s"},
	{ActionSeekBackLong, []string{"shift+left", "H"}, "-30s"},
	{ActionSeekForwardLong, []string{"shift+right", "L"}, "+30s"},
	{ActionSeekStart, []string{"0", "home"}, "seek to start"},
}

// Map dispatches key presses to playback actions. Keys outside its
// bindings resolve to no action.
type Map struct {
	actions  map[string]Action
	bindings []Binding
}

// Default returns the Map for All.
func Default() Map {
	m, err := New(All)
	if err != nil {
		panic(err)
	}
	return m
}

// New builds a Map. A key bound to two different actions is an error;
// repeating a key for the same action is not.
func New(bindings []Binding) (Map, error) {
	m := Map{
		actions:  make(map[string]Action),
		bindings: bindings,
	}
	for _, b := range bindings {
		for _, k := range b.Keys {
			if prev, ok := m.actions[k]; ok && prev != b.Action {
				return Map{}, fmt.Errorf("key %q bound to both %s and %s", displayKey(k), prev, b.Action)
			}
			m.actions[k] = b.Action
		}
	}
	return m, nil
}

// Resolve returns the action bound to key, or "" if there is none.
func (m Map) Resolve(key string) Action {
	return m.actions[key]
}

// Help renders the bindings as a compact "key desc · key desc" line.
func (m Map) Help() string {
	return Help(m.bindings)
}

// Help renders bindings as a compact "key desc · key desc" line.
func Help(bindings []Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if len(b.Keys) == 0 {
			continue
		}
		parts = append(parts, displayKey(b.Keys[0])+" "+b.Description)
	}
	return strings.Join(parts, " · ")
}

func displayKey(k string) string {
	if k == " " {
		return "space"
	}
	return k
}
