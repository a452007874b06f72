package engine

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/engine2d/internal/config"
	"github.com/l1jgo/engine2d/internal/core/component"
	"github.com/l1jgo/engine2d/internal/core/event"
	"github.com/l1jgo/engine2d/internal/core/guild"
	coresys "github.com/l1jgo/engine2d/internal/core/system"
	"github.com/l1jgo/engine2d/internal/data"
	"github.com/l1jgo/engine2d/internal/scripting"
	"github.com/l1jgo/engine2d/internal/system"
)

// Engine owns one game: its resources, actors, script VM and frame loop.
// It is driven from a single goroutine through Step.
type Engine struct {
	log    *zap.Logger
	res    *data.Resources
	reg    *component.Registry
	guild  *guild.Guild
	lua    *scripting.Engine
	bus    *event.Bus
	runner *coresys.Runner

	frame     int
	scene     string
	nextScene string
	done      bool
}

// New loads the resources directory named in cfg, registers every component
// type script and actor template, and schedules the initial scene for the
// first frame.
func New(cfg *config.Config, log *zap.Logger) (*Engine, error) {
	res, err := data.LoadResources(cfg.Game.Resources)
	if err != nil {
		return nil, fmt.Errorf("load resources: %w", err)
	}

	e := &Engine{
		log:    log,
		res:    res,
		reg:    component.NewRegistry(),
		bus:    event.NewBus(),
		runner: coresys.NewRunner(),
	}
	e.guild = guild.New(e.reg, log, guild.WithDestroyCallbacks(cfg.Loop.FireOnDestroy))
	e.lua = scripting.NewEngine(e.guild, e, log)

	if err := e.lua.LoadComponentTypes(res.ComponentTypesDir(), e.reg); err != nil {
		e.lua.Close()
		return nil, fmt.Errorf("load component types: %w", err)
	}
	if err := e.guild.LoadTemplates(res.Templates); err != nil {
		e.lua.Close()
		return nil, fmt.Errorf("load templates: %w", err)
	}
	log.Info("resources loaded",
		zap.String("dir", res.Dir),
		zap.Int("component_types", e.reg.Len()),
		zap.Int("templates", e.guild.TemplateCount()),
		zap.String("initial_scene", res.InitialScene),
	)

	event.Subscribe(e.bus, func(ev event.QuitRequested) {
		log.Info("quit requested", zap.Int("frame", ev.Frame))
		e.done = true
	})
	event.Subscribe(e.bus, func(ev event.SceneLoaded) {
		log.Info("scene loaded",
			zap.String("scene", ev.Name),
			zap.Int("actors", ev.Actors),
			zap.Int("frame", ev.Frame),
		)
	})

	e.runner.Register(system.NewSceneSystem(e))
	e.runner.Register(system.NewEventSystem(e.bus))
	e.runner.Register(system.NewActorSystem(e.guild, e.lua.Err))
	e.runner.Register(system.NewFrameSystem(e))

	e.LoadScene(res.InitialScene)
	return e, nil
}

// Step runs one frame.
func (e *Engine) Step(dt time.Duration) error {
	return e.runner.Tick(dt)
}

// Done reports whether a script asked the application to quit.
func (e *Engine) Done() bool { return e.done }

// Register adds a host system (input, rendering) to the frame.
func (e *Engine) Register(s coresys.System) { e.runner.Register(s) }

func (e *Engine) Bus() *event.Bus            { return e.bus }
func (e *Engine) Guild() *guild.Guild        { return e.guild }
func (e *Engine) Resources() *data.Resources { return e.res }

// ComponentTypes returns the number of registered component types.
func (e *Engine) ComponentTypes() int { return e.reg.Len() }

// Close releases the script VM.
func (e *Engine) Close() {
	e.lua.Close()
}

// Frame returns the number of completed frames.
func (e *Engine) Frame() int { return e.frame }

// AdvanceFrame is called once at the end of every frame.
func (e *Engine) AdvanceFrame() { e.frame++ }

// Quit asks the loop to stop; it takes effect when the event is delivered
// at the start of the next frame.
func (e *Engine) Quit() {
	event.Emit(e.bus, event.QuitRequested{Frame: e.frame})
}

// LoadScene schedules name for the start of the next frame. The last
// request in a frame wins.
func (e *Engine) LoadScene(name string) { e.nextScene = name }

func (e *Engine) CurrentScene() string { return e.scene }

// LoadPendingScene applies a scheduled scene change: every actor not marked
// DontDestroyOnLoad is destroyed, then the scene's actors are staged. A
// scene that cannot be read stops the engine.
func (e *Engine) LoadPendingScene() error {
	if e.nextScene == "" {
		return nil
	}
	name := e.nextScene
	e.nextScene = ""

	if err := e.guild.Clear(); err != nil {
		return err
	}
	doc, err := e.res.LoadScene(name)
	if err != nil {
		return component.Fatal(err)
	}
	if err := e.guild.LoadActors(doc); err != nil {
		return component.Fatal(fmt.Errorf("scene %s: %w", name, err))
	}
	e.scene = name
	event.Emit(e.bus, event.SceneLoaded{Name: name, Actors: e.guild.Pending(), Frame: e.frame})
	return nil
}
