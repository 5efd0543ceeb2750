// Package icons selects the glyphs used for playback state in the terminal.
package icons

// Style represents the icon style to use.
type Style string

const (
	StyleNerd    Style = "nerd"
	StyleUnicode Style = "unicode"
	StyleNone    Style = "none"
)

// Icons holds the icon characters for the current style.
type Icons struct {
	Play  string
	Pause string
	Stop  string
	Error string
	Audio string
}

var (
	nerdIcons = Icons{
		Play:  "\uf04b", // nf-fa-play
		Pause: "\uf04c", // nf-fa-pause
		Stop:  "\uf04d", // nf-fa-stop
		Error: "\uf071", // nf-fa-warning
		Audio: "\uf001", // nf-fa-music
	}

	unicodeIcons = Icons{
		Play:  "▶",
		Pause: "⏸",
		Stop:  "■",
		Error: "✖",
		Audio: "♫",
	}

	noneIcons = Icons{
		Play:  ">",
		Pause: "||",
		Stop:  "[]",
		Error: "!",
		Audio: "",
	}

	// current holds the active icon set
	current = unicodeIcons
)

// Init initializes the icons based on the style.
// Call this once at startup with the config value.
func Init(style string) {
	switch Style(style) {
	case StyleNerd:
		current = nerdIcons
	case StyleNone:
		current = noneIcons
	case StyleUnicode:
		current = unicodeIcons
	default:
		current = unicodeIcons
	}
}

// Play returns the playing indicator.
func Play() string {
	return current.Play
}

// Pause returns the paused indicator.
func Pause() string {
	return current.Pause
}

// Stop returns the idle/stopped indicator.
func Stop() string {
	return current.Stop
}

// Error returns the failure indicator.
func Error() string {
	return current.Error
}

// FormatTitle prefixes a track title with the audio icon, if the style has one.
func FormatTitle(name string) string {
	if current.Audio == "" {
		return name
	}
	return current.Audio + " " + name
}
