package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/l1jgo/engine2d/internal/config"
	"github.com/l1jgo/engine2d/internal/core/component"
	"github.com/l1jgo/engine2d/internal/core/event"
	coresys "github.com/l1jgo/engine2d/internal/core/system"
	"github.com/l1jgo/engine2d/internal/data"
)

const frame = time.Second / 60

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
}

func gameFiles() map[string]string {
	return map[string]string{
		"game.config": `{"initial_scene": "basic", "game_title": "test"}`,
		"component_types/Counter.lua": `
Counter = {
  count = 0,
  OnUpdate = function(self)
    self.count = self.count + 1
  end
}`,
		"component_types/Director.lua": `
Director = {
  target = "second",
  OnUpdate = function(self)
    if Application.GetFrame() == 2 then
      Scene.DontDestroy(self.actor)
      Scene.Load(self.target)
    end
  end
}`,
		"component_types/Quitter.lua": `
Quitter = {
  OnStart = function(self)
    Application.Quit()
  end
}`,
		"actor_templates/Coin.template": `{"name": "coin", "components": {"c": {"type": "Counter"}}}`,
		"scenes/basic.scene": `{"actors": [
  {"name": "director", "components": {"d": {"type": "Director"}}},
  {"name": "player", "template": "Coin"}
]}`,
		"scenes/second.scene": `{"actors": [{"name": "quitter", "components": {"q": {"type": "Quitter"}}}]}`,
	}
}

func newEngine(t *testing.T, files map[string]string) (*Engine, *observer.ObservedLogs) {
	t.Helper()
	dir := t.TempDir()
	writeFiles(t, dir, files)

	cfg := config.Defaults()
	cfg.Game.Resources = dir
	core, logs := observer.New(zapcore.InfoLevel)
	e, err := New(cfg, zap.New(core))
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e, logs
}

func TestNewMissingResources(t *testing.T) {
	cfg := config.Defaults()
	cfg.Game.Resources = filepath.Join(t.TempDir(), "absent")
	_, err := New(cfg, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, data.ErrMissing)
}

func TestNewBadComponentType(t *testing.T) {
	files := gameFiles()
	files["component_types/Broken.lua"] = `Broken = {`
	dir := t.TempDir()
	writeFiles(t, dir, files)

	cfg := config.Defaults()
	cfg.Game.Resources = dir
	_, err := New(cfg, zap.NewNop())
	require.Error(t, err)
	assert.True(t, component.IsFatal(err))
}

func TestInitialSceneLoadsOnFirstStep(t *testing.T) {
	e, logs := newEngine(t, gameFiles())
	assert.Equal(t, "", e.CurrentScene())
	assert.Equal(t, 1, e.Guild().TemplateCount())

	require.NoError(t, e.Step(frame))
	assert.Equal(t, "basic", e.CurrentScene())
	assert.Equal(t, 1, e.Frame())
	require.Len(t, e.Guild().Members(), 2)

	player := e.Guild().Find("player")
	require.NotNil(t, player)
	count, _ := player.GetComponent("c").Int("count")
	assert.Equal(t, 1, count)

	entries := logs.FilterMessage("scene loaded").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "basic", entries[0].ContextMap()["scene"])
	assert.EqualValues(t, 2, entries[0].ContextMap()["actors"])
}

func TestSceneChangeKeepsDontDestroyActors(t *testing.T) {
	e, _ := newEngine(t, gameFiles())
	var loaded []string
	event.Subscribe(e.Bus(), func(ev event.SceneLoaded) {
		loaded = append(loaded, ev.Name)
	})

	for i := 0; i < 3; i++ {
		require.NoError(t, e.Step(frame))
	}
	// the request made during frame 2 has not been applied yet
	assert.Equal(t, "basic", e.CurrentScene())
	assert.NotNil(t, e.Guild().Find("player"))

	require.NoError(t, e.Step(frame))
	assert.Equal(t, "second", e.CurrentScene())
	assert.Nil(t, e.Guild().Find("player"))
	director := e.Guild().Find("director")
	require.NotNil(t, director)
	assert.True(t, director.DontDestroyOnLoad())
	assert.NotNil(t, e.Guild().Find("quitter"))
	assert.False(t, e.Done())
	assert.Equal(t, []string{"basic", "second"}, loaded)

	require.NoError(t, e.Step(frame))
	assert.True(t, e.Done())
}

func TestMissingSceneIsFatal(t *testing.T) {
	files := gameFiles()
	files["game.config"] = `{"initial_scene": "nowhere"}`
	e, _ := newEngine(t, files)

	err := e.Step(frame)
	require.Error(t, err)
	assert.True(t, component.IsFatal(err))
	assert.Equal(t, 0, e.Frame())
}

func TestScriptFatalStopsStep(t *testing.T) {
	files := gameFiles()
	files["scenes/basic.scene"] = `{"actors": [{"name": "x", "components": {"s": {"type": "Spawner"}}}]}`
	files["component_types/Spawner.lua"] = `
Spawner = {
  OnStart = function(self)
    Actor.Instantiate("Ghost")
  end
}`
	e, _ := newEngine(t, files)

	err := e.Step(frame)
	require.Error(t, err)
	assert.True(t, component.IsFatal(err))
	assert.Contains(t, err.Error(), "Ghost")
}

type renderSystem struct {
	frames []int
	e      *Engine
}

func (r *renderSystem) Phase() coresys.Phase { return coresys.PhaseRender }

func (r *renderSystem) Update(_ time.Duration) error {
	r.frames = append(r.frames, r.e.Frame())
	return nil
}

func TestHostSystemRunsBeforeFrameAdvance(t *testing.T) {
	e, _ := newEngine(t, gameFiles())
	r := &renderSystem{e: e}
	e.Register(r)

	require.NoError(t, e.Step(frame))
	require.NoError(t, e.Step(frame))
	assert.Equal(t, []int{0, 1}, r.frames)
}
