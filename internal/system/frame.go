package system

import (
	"time"

	coresys "github.com/l1jgo/engine2d/internal/core/system"
)

// FrameCounter is advanced once per completed frame.
type FrameCounter interface {
	AdvanceFrame()
}

// FrameSystem closes the frame. Phase 5 (LateUpdate).
type FrameSystem struct {
	counter FrameCounter
}

func NewFrameSystem(counter FrameCounter) *FrameSystem {
	return &FrameSystem{counter: counter}
}

func (s *FrameSystem) Phase() coresys.Phase { return coresys.PhaseLateUpdate }

func (s *FrameSystem) Update(_ time.Duration) error {
	s.counter.AdvanceFrame()
	return nil
}
