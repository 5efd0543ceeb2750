// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Source lookup
	OpResolveURL Op = "resolve song url"

	// Decoding
	OpOpenSource Op = "open audio source"
	OpDecode     Op = "decode audio"

	// Output device
	OpOpenDevice Op = "open audio device"
	OpWriteAudio Op = "write audio"
	OpDrain      Op = "drain audio device"

	// Playback
	OpPlaybackStart Op = "start playback"

	// Initialization
	OpLoadConfig Op = "load configuration"
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
