// internal/player/state.go
package player

// State is the coarse playback state of a Controller.
//
// The state machine has five states with the following valid transitions:
//
//	┌──────┐  start (setup ok)  ┌─────────┐   pause   ┌────────┐
//	│ Idle │ ──────────────────▶│ Started │ ─────────▶│ Paused │
//	└──────┘                    └─────────┘ ◀──────── └────────┘
//	   ▲  │                        │    │     resume      │
//	   │  │ setup failed     fault │    │ stop / end      │ stop
//	   │  ▼                        ▼    ▼                 ▼
//	   │ ┌───────┐◀────────────────┘  ┌─────────┐◀────────┘
//	   │ │ Error │                    │ Stopped │
//	   │ └───────┘                    └─────────┘
//	   │     │ start                       │
//	   │     └──────▶ Started              │
//	   └───────────────────────────────────┘ (emitted immediately)
//
// Valid transitions:
//   - Idle    → Started (via Start, once the pipeline is set up)
//   - Idle    → Error   (via Start, when resolution or setup fails)
//   - Started → Paused  (via Pause)
//   - Paused  → Started (via Resume)
//   - Started → Error   (decoder or device fault mid-stream)
//   - Paused  → Error   (via Resume, for a fault that hit while paused; or
//     via Start, when the replacing session's setup fails after the
//     implicit pause)
//   - Any     → Stopped → Idle (via Stop, or when the track plays to the end)
//   - Error   → Started (via a fresh Start)
//
// Invalid/No-op transitions (handled gracefully):
//   - Paused  → Paused  (Pause ignored)
//   - Started → Started (Resume ignored, Start pauses and replaces the session)
//   - Idle    → Paused  (Pause ignored)
type State int

const (
	Idle State = iota
	Started
	Paused
	Stopped
	Errored
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Started:
		return "Started"
	case Paused:
		return "Paused"
	case Stopped:
		return "Stopped"
	case Errored:
		return "Error"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a session is playing or paused.
func (s State) IsActive() bool {
	return s == Started || s == Paused
}

// CanPause returns true if the state allows pausing.
func (s State) CanPause() bool {
	return s == Started
}

// CanResume returns true if the state allows resuming.
func (s State) CanResume() bool {
	return s == Paused
}

// Status is the value delivered to listeners on every transition.
// Err is set only when State is Errored.
type Status struct {
	State State
	Err   *Error
}

// String renders the status, including the error code when present.
func (s Status) String() string {
	if s.State == Errored && s.Err != nil {
		return "Error(" + string(s.Err.Code) + ", " + s.Err.Message + ")"
	}
	return s.State.String()
}

func statusOf(state State) Status { return Status{State: state} }

func errorStatus(err *Error) Status { return Status{State: Errored, Err: err} }
