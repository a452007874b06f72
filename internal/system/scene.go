package system

import (
	"time"

	coresys "github.com/l1jgo/engine2d/internal/core/system"
)

// SceneLoader applies a scene change requested during the previous frame.
type SceneLoader interface {
	LoadPendingScene() error
}

// SceneSystem swaps scenes before anything else runs. Phase 0 (Scene).
type SceneSystem struct {
	loader SceneLoader
}

func NewSceneSystem(loader SceneLoader) *SceneSystem {
	return &SceneSystem{loader: loader}
}

func (s *SceneSystem) Phase() coresys.Phase { return coresys.PhaseScene }

func (s *SceneSystem) Update(_ time.Duration) error {
	return s.loader.LoadPendingScene()
}
