package session

import "fmt"

// Phase is the state of the session state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePreparing
	PhaseReady
	PhasePlaying
	PhasePaused
	PhaseBuffering
	PhaseEnded
	PhaseError
	PhaseReleased
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePreparing:
		return "preparing"
	case PhaseReady:
		return "ready"
	case PhasePlaying:
		return "playing"
	case PhasePaused:
		return "paused"
	case PhaseBuffering:
		return "buffering"
	case PhaseEnded:
		return "ended"
	case PhaseError:
		return "error"
	case PhaseReleased:
		return "released"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// terminal phases ignore engine events until the next load.
func (p Phase) terminal() bool {
	return p == PhaseIdle || p == PhaseError || p == PhaseReleased
}
