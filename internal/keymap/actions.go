// Package keymap defines key bindings and action dispatch for the terminal UI.
package keymap

// Action represents a user-triggerable action.
type Action string

const (
	ActionQuit Action = "quit"
	ActionHelp Action = "help"

	// Playback actions
	ActionPlayPause       Action = "play_pause"
	ActionStop            Action = "stop"
	ActionRestart         Action = "restart"
	ActionSeekForward     Action = "seek_forward"
	ActionSeekBack        Action = "seek_back"
	ActionSeekForwardLong Action = "seek_forward_long"
	ActionSeekBackLong    Action = "seek_back_long"
	ActionSeekStart       Action = "seek_start"
)
