package system

import "time"

// Phase defines execution ordering within a single frame.
type Phase int

const (
	PhaseScene      Phase = iota // 0: apply a requested scene change
	PhaseEvents                  // 1: deliver last frame's events
	PhaseInput                   // 2: host input polling
	PhaseUpdate                  // 3: actor lifecycle
	PhaseRender                  // 4: host rendering
	PhaseLateUpdate              // 5: end-of-frame bookkeeping
)

func (p Phase) String() string {
	switch p {
	case PhaseScene:
		return "scene"
	case PhaseEvents:
		return "events"
	case PhaseInput:
		return "input"
	case PhaseUpdate:
		return "update"
	case PhaseRender:
		return "render"
	case PhaseLateUpdate:
		return "late_update"
	}
	return "unknown"
}

// System is one unit of per-frame work.
type System interface {
	Phase() Phase
	Update(dt time.Duration) error
}
