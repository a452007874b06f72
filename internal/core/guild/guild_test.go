package guild_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/l1jgo/engine2d/internal/core/actor"
	"github.com/l1jgo/engine2d/internal/core/component"
	"github.com/l1jgo/engine2d/internal/core/guild"
	"github.com/l1jgo/engine2d/internal/data"
)

func doc(t *testing.T, src string) *data.Document {
	t.Helper()
	d, err := data.Parse([]byte(src))
	require.NoError(t, err)
	return d
}

type fixture struct {
	reg   *component.Registry
	guild *guild.Guild
	log   []string
}

func (f *fixture) record(h component.Hook) component.HookFunc {
	return func(c *component.Component) error {
		owner, _ := c.Property(component.PropActor)
		name := "?"
		if a, ok := owner.(*actor.Actor); ok {
			name = a.Name()
		}
		f.log = append(f.log, name+"/"+c.Name()+":"+string(h))
		return nil
	}
}

func newFixture(t *testing.T, opts ...guild.Option) *fixture {
	t.Helper()
	f := &fixture{reg: component.NewRegistry()}

	health := component.NewTable(nil)
	health.Set("value", 10)
	f.reg.Register("Health", health)

	tracked := component.NewTable(nil)
	for _, h := range []component.Hook{component.HookStart, component.HookUpdate, component.HookLateUpdate, component.HookDestroy} {
		tracked.Set(string(h), f.record(h))
	}
	f.reg.Register("Tracked", tracked)
	f.reg.Register("Sprite", component.NewTable(nil))

	f.guild = guild.New(f.reg, zap.NewNop(), opts...)
	require.NoError(t, f.guild.LoadTemplates(map[string]*data.Document{
		"Enemy": doc(t, `
name: enemy
components:
  hp: { type: Health, value: 100 }
`),
		"Coin": doc(t, `
name: coin
components:
  spin: { type: Tracked }
`),
	}))
	return f
}

func ids(actors []*actor.Actor) []int {
	out := make([]int, len(actors))
	for i, a := range actors {
		out[i] = a.ID()
	}
	return out
}

func TestTemplatesConsumeIDs(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, 2, f.guild.TemplateCount())

	coin, ok := f.guild.Template("Coin")
	require.True(t, ok)
	enemy, ok := f.guild.Template("Enemy")
	require.True(t, ok)
	assert.Equal(t, 0, coin.ID(), "templates are created in name order")
	assert.Equal(t, 1, enemy.ID())

	a, err := f.guild.Instantiate("Enemy")
	require.NoError(t, err)
	b, err := f.guild.Instantiate("Coin")
	require.NoError(t, err)
	assert.Equal(t, 2, a.ID())
	assert.Equal(t, 3, b.ID())
	assert.Empty(t, f.guild.Members(), "templates and pending actors are not members")
	assert.Equal(t, 2, f.guild.Pending())
}

func TestIDsNeverReused(t *testing.T) {
	f := newFixture(t)
	a, err := f.guild.Instantiate("Coin")
	require.NoError(t, err)
	require.NoError(t, f.guild.Update())
	require.NoError(t, f.guild.Destroy(a))
	require.NoError(t, f.guild.Update())
	require.NoError(t, f.guild.Clear())

	b, err := f.guild.Instantiate("Coin")
	require.NoError(t, err)
	assert.Greater(t, b.ID(), a.ID())
}

func TestSceneOverridesTemplate(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.guild.LoadActors(doc(t, `
actors:
  - template: Enemy
    components:
      hp: { value: 50 }
  - name: plain
    components:
      body: { type: Sprite, color: blue }
`)))
	require.NoError(t, f.guild.Update())

	members := f.guild.Members()
	require.Len(t, members, 2)
	assert.Equal(t, []int{2, 3}, ids(members))

	enemy := members[0]
	assert.Equal(t, "enemy", enemy.Name())
	hp := enemy.GetComponent("hp")
	require.NotNil(t, hp)
	v, _ := hp.Int("value")
	assert.Equal(t, 50, v)

	owner, _ := hp.Property(component.PropActor)
	assert.Same(t, enemy, owner)

	tmpl, _ := f.guild.Template("Enemy")
	v, _ = tmpl.GetComponent("hp").Int("value")
	assert.Equal(t, 100, v, "template untouched")

	plain := members[1]
	assert.Equal(t, "plain", plain.Name())
	body := plain.GetComponent("body")
	require.NotNil(t, body)
	color, _ := body.String("color")
	assert.Equal(t, "blue", color)
}

func TestSceneNameOverridesTemplateName(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.guild.LoadActors(doc(t, `{"actors": [{"template": "Enemy", "name": "boss"}]}`)))
	assert.NotNil(t, f.guild.Find("boss"))
	assert.Nil(t, f.guild.Find("enemy"))
}

func TestLoadActorsUnknownTemplateIsFatal(t *testing.T) {
	f := newFixture(t)
	err := f.guild.LoadActors(doc(t, `{"actors": [{"template": "Ghost"}]}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, guild.ErrUnknownTemplate))
	assert.True(t, component.IsFatal(err))

	_, err = f.guild.Instantiate("Ghost")
	assert.True(t, errors.Is(err, guild.ErrUnknownTemplate))
	assert.True(t, component.IsFatal(err))
}

func TestLoadActorsUnregisteredComponent(t *testing.T) {
	f := newFixture(t)
	err := f.guild.LoadActors(doc(t, `{"actors": [{"components": {"x": {"type": "Nope"}}}]}`))
	assert.True(t, errors.Is(err, component.ErrUnknownType))
}

func TestLoadTemplatesUnregisteredComponent(t *testing.T) {
	g := guild.New(component.NewRegistry(), zap.NewNop())
	err := g.LoadTemplates(map[string]*data.Document{
		"Bad": doc(t, `{"components": {"x": {"type": "Nope"}}}`),
	})
	assert.True(t, errors.Is(err, component.ErrUnknownType))
}

func TestSceneWithoutActors(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.guild.LoadActors(doc(t, `{"name": "empty"}`)))
	assert.Equal(t, 0, f.guild.Pending())
}

func TestInstantiateDeepCopies(t *testing.T) {
	f := newFixture(t)
	a, err := f.guild.Instantiate("Enemy")
	require.NoError(t, err)

	hp := a.GetComponent("hp")
	require.NotNil(t, hp)
	hp.SetProperty("value", 1)

	tmpl, _ := f.guild.Template("Enemy")
	v, _ := tmpl.GetComponent("hp").Int("value")
	assert.Equal(t, 100, v)

	owner, _ := hp.Property(component.PropActor)
	assert.Same(t, a, owner)
}

func TestFramePhaseOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.guild.Instantiate("Coin")
	require.NoError(t, err)
	_, err = f.guild.Instantiate("Coin")
	require.NoError(t, err)

	require.NoError(t, f.guild.Update())
	assert.Equal(t, []string{
		"coin/spin:OnStart", "coin/spin:OnStart",
		"coin/spin:OnUpdate", "coin/spin:OnUpdate",
		"coin/spin:OnLateUpdate", "coin/spin:OnLateUpdate",
	}, f.log)
}

func TestDestroyTakesEffectAtPurge(t *testing.T) {
	f := newFixture(t)
	victim, err := f.guild.Instantiate("Coin")
	require.NoError(t, err)
	other, err := f.guild.Instantiate("Coin")
	require.NoError(t, err)
	require.NoError(t, f.guild.Update())

	// destroy from inside another actor's update: victim stays in iteration
	killer := component.NewTable(nil)
	killed := false
	killer.Set(string(component.HookUpdate), component.HookFunc(func(c *component.Component) error {
		if !killed {
			killed = true
			return f.guild.Destroy(victim)
		}
		return nil
	}))
	f.reg.Register("Killer", killer)
	_, err = other.AddComponent("Killer")
	require.NoError(t, err)
	f.log = nil
	require.NoError(t, f.guild.Update())

	// victim ran its Update before the killer, then was purged
	assert.Contains(t, f.log, "coin/spin:OnUpdate")
	assert.True(t, killed)
	assert.Equal(t, []int{other.ID()}, ids(f.guild.Members()))
	_, ok := f.guild.Lookup(victim.ID())
	assert.False(t, ok)
	_, ok = f.guild.Lookup(other.ID())
	assert.True(t, ok)
}

func TestDestroyedActorStillMemberUntilUpdate(t *testing.T) {
	f := newFixture(t)
	a, err := f.guild.Instantiate("Coin")
	require.NoError(t, err)
	require.NoError(t, f.guild.Update())

	require.NoError(t, f.guild.Destroy(a))
	assert.Len(t, f.guild.Members(), 1, "still iterated until purge")
	assert.Nil(t, f.guild.Find("coin"), "hidden from lookups")
	assert.Empty(t, f.guild.FindAll("coin"))
	assert.Nil(t, a.GetComponent("spin"))

	f.log = nil
	require.NoError(t, f.guild.Update())
	assert.Empty(t, f.log, "components of a destroyed actor are disabled")
	assert.Empty(t, f.guild.Members())
}

func TestDestroyPendingActor(t *testing.T) {
	f := newFixture(t)
	a, err := f.guild.Instantiate("Coin")
	require.NoError(t, err)
	require.NoError(t, f.guild.Destroy(a))
	require.NoError(t, f.guild.Destroy(a))

	require.NoError(t, f.guild.Update())
	assert.Empty(t, f.guild.Members())
	assert.Equal(t, 0, f.guild.Pending())
	assert.Empty(t, f.log)
}

func TestDestroyDoesNotFireOnDestroyByDefault(t *testing.T) {
	f := newFixture(t)
	a, err := f.guild.Instantiate("Coin")
	require.NoError(t, err)
	require.NoError(t, f.guild.Update())
	f.log = nil

	require.NoError(t, f.guild.Destroy(a))
	require.NoError(t, f.guild.Update())
	assert.NotContains(t, f.log, "coin/spin:OnDestroy")
}

func TestDestroyCallbacksOption(t *testing.T) {
	f := newFixture(t, guild.WithDestroyCallbacks(true))
	a, err := f.guild.Instantiate("Coin")
	require.NoError(t, err)
	require.NoError(t, f.guild.Update())
	f.log = nil

	require.NoError(t, f.guild.Destroy(a))
	assert.Equal(t, []string{"coin/spin:OnDestroy"}, f.log)
}

func TestFindPendingBeforeMembers(t *testing.T) {
	f := newFixture(t)
	first, err := f.guild.Instantiate("Coin")
	require.NoError(t, err)
	require.NoError(t, f.guild.Update())
	second, err := f.guild.Instantiate("Coin")
	require.NoError(t, err)

	assert.Same(t, second, f.guild.Find("coin"))
	assert.Equal(t, []int{second.ID(), first.ID()}, ids(f.guild.FindAll("coin")))
	assert.Nil(t, f.guild.Find("nobody"))

	got, ok := f.guild.Lookup(second.ID())
	require.True(t, ok)
	assert.Same(t, second, got)
}

func TestClearKeepsPersistentActors(t *testing.T) {
	f := newFixture(t)
	keep, err := f.guild.Instantiate("Coin")
	require.NoError(t, err)
	keep.SetDontDestroyOnLoad(true)
	_, err = f.guild.Instantiate("Enemy")
	require.NoError(t, err)
	require.NoError(t, f.guild.Update())
	pending, err := f.guild.Instantiate("Enemy")
	require.NoError(t, err)

	require.NoError(t, f.guild.Clear())

	assert.Equal(t, []int{keep.ID()}, ids(f.guild.Members()))
	assert.Equal(t, 0, f.guild.Pending())
	_, ok := f.guild.Lookup(pending.ID())
	assert.False(t, ok)
	assert.NotNil(t, keep.GetComponent("spin"))
}

func TestCallbackErrorDoesNotStopFrame(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	reg := component.NewRegistry()
	boom := component.NewTable(nil)
	boom.Set(string(component.HookUpdate), component.HookFunc(func(*component.Component) error {
		return errors.New("boom")
	}))
	reg.Register("Boom", boom)
	ran := 0
	ok := component.NewTable(nil)
	ok.Set(string(component.HookUpdate), component.HookFunc(func(*component.Component) error {
		ran++
		return nil
	}))
	reg.Register("Ok", ok)

	g := guild.New(reg, zap.New(core))
	require.NoError(t, g.LoadActors(doc(t, `
actors:
  - name: bad
    components: { a: { type: Boom } }
  - name: good
    components: { b: { type: Ok } }
`)))
	require.NoError(t, g.Update())
	assert.Equal(t, 1, ran)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "bad", logs.All()[0].ContextMap()["actor"])
}

func TestFatalCallbackAbortsFrame(t *testing.T) {
	reg := component.NewRegistry()
	def := component.NewTable(nil)
	var g *guild.Guild
	def.Set(string(component.HookStart), component.HookFunc(func(*component.Component) error {
		_, err := g.Instantiate("Ghost")
		return err
	}))
	reg.Register("Spawner", def)
	g = guild.New(reg, zap.NewNop())
	require.NoError(t, g.LoadActors(doc(t, `{"actors": [{"components": {"s": {"type": "Spawner"}}}]}`)))

	err := g.Update()
	require.Error(t, err)
	assert.True(t, errors.Is(err, guild.ErrUnknownTemplate))
}
