package system

import (
	"time"

	coresys "github.com/l1jgo/engine2d/internal/core/system"
)

// Lifecycle runs one frame of actor callbacks.
type Lifecycle interface {
	Update() error
}

// ActorSystem drives the guild through its frame. Phase 3 (Update).
type ActorSystem struct {
	guild Lifecycle
	check func() error
}

// NewActorSystem wraps g. check, when non-nil, is consulted after each
// frame for errors raised outside the guild's return path (script VM).
func NewActorSystem(g Lifecycle, check func() error) *ActorSystem {
	return &ActorSystem{guild: g, check: check}
}

func (s *ActorSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *ActorSystem) Update(_ time.Duration) error {
	if err := s.guild.Update(); err != nil {
		return err
	}
	if s.check != nil {
		return s.check()
	}
	return nil
}
