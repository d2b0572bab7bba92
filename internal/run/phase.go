package run

import "fmt"

// Phase is the lifecycle position of a run.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConfiguring
	PhaseActive
	PhaseEnded
	PhaseCancelled
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseConfiguring:
		return "configuring"
	case PhaseActive:
		return "active"
	case PhaseEnded:
		return "ended"
	case PhaseCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Terminal reports whether the run is over until the next Configure or Start.
func (p Phase) Terminal() bool {
	return p == PhaseEnded || p == PhaseCancelled
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for q := PhaseIdle; q <= PhaseCancelled; q++ {
		if q.String() == string(text) {
			*p = q
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}
