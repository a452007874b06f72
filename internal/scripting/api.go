package scripting

import (
	"fmt"
	"os/exec"
	"runtime"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/engine2d/internal/core/actor"
	"github.com/l1jgo/engine2d/internal/core/component"
)

const (
	componentTypeName = "component"
	actorTypeName     = "actor"
)

// registerTypes installs the metatables for wrapped components and actors.
func (e *Engine) registerTypes() {
	L := e.vm

	cmt := L.NewTypeMetatable(componentTypeName)
	L.SetField(cmt, "__index", L.NewFunction(e.componentIndex))
	L.SetField(cmt, "__newindex", L.NewFunction(e.componentNewIndex))
	L.SetField(cmt, "__eq", L.NewFunction(sameValue))
	L.SetField(cmt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		c := e.checkComponent(L, 1)
		L.Push(lua.LString(fmt.Sprintf("component<%s:%s>", c.Name(), c.Type())))
		return 1
	}))

	amt := L.NewTypeMetatable(actorTypeName)
	L.SetField(amt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"GetName":           e.actorGetName,
		"GetID":             e.actorGetID,
		"GetComponentByKey": e.actorGetComponentByKey,
		"GetComponent":      e.actorGetComponent,
		"GetComponents":     e.actorGetComponents,
		"AddComponent":      e.actorAddComponent,
		"RemoveComponent":   e.actorRemoveComponent,
	}))
	L.SetField(amt, "__eq", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(e.checkActor(L, 1).Equal(e.checkActor(L, 2))))
		return 1
	}))
	L.SetField(amt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		a := e.checkActor(L, 1)
		L.Push(lua.LString(fmt.Sprintf("actor<%d:%s>", a.ID(), a.Name())))
		return 1
	}))
}

func (e *Engine) registerNamespaces() {
	L := e.vm

	L.SetGlobal("Actor", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"Find":        e.actorFind,
		"FindAll":     e.actorFindAll,
		"Instantiate": e.actorInstantiate,
		"Destroy":     e.actorDestroy,
	}))

	L.SetGlobal("Scene", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"Load":        e.sceneLoad,
		"GetCurrent":  e.sceneGetCurrent,
		"DontDestroy": e.sceneDontDestroy,
	}))

	L.SetGlobal("Debug", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"Log": func(L *lua.LState) int {
			e.log.Info(L.ToStringMeta(L.Get(1)).String(), zap.String("source", "script"))
			return 0
		},
		"LogError": func(L *lua.LState) int {
			e.log.Error(L.ToStringMeta(L.Get(1)).String(), zap.String("source", "script"))
			return 0
		},
	}))

	L.SetGlobal("Application", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"Quit": func(L *lua.LState) int {
			e.host.Quit()
			return 0
		},
		"Sleep": func(L *lua.LState) int {
			time.Sleep(time.Duration(L.CheckInt(1)) * time.Millisecond)
			return 0
		},
		"GetFrame": func(L *lua.LState) int {
			L.Push(lua.LNumber(e.host.Frame()))
			return 1
		},
		"OpenURL": func(L *lua.LState) int {
			url := L.CheckString(1)
			if err := openURL(url); err != nil {
				e.log.Warn("open url failed", zap.String("url", url), zap.Error(err))
			}
			return 0
		},
	}))
}

// --- wrapping ---

// componentValue returns the one userdata that stands for c in scripts, so
// identity holds across callbacks (table keys, rawequal).
func (e *Engine) componentValue(c *component.Component) *lua.LUserData {
	if ud, ok := c.Binding().(*lua.LUserData); ok {
		return ud
	}
	ud := e.vm.NewUserData()
	ud.Value = c
	ud.Metatable = e.vm.GetTypeMetatable(componentTypeName)
	c.Bind(ud)
	return ud
}

func (e *Engine) actorValue(a *actor.Actor) *lua.LUserData {
	if ud, ok := a.Binding().(*lua.LUserData); ok {
		return ud
	}
	ud := e.vm.NewUserData()
	ud.Value = a
	ud.Metatable = e.vm.GetTypeMetatable(actorTypeName)
	a.Bind(ud)
	return ud
}

func (e *Engine) checkComponent(L *lua.LState, n int) *component.Component {
	ud := L.CheckUserData(n)
	c, ok := ud.Value.(*component.Component)
	if !ok {
		L.ArgError(n, "component expected")
	}
	return c
}

func (e *Engine) checkActor(L *lua.LState, n int) *actor.Actor {
	ud := L.CheckUserData(n)
	a, ok := ud.Value.(*actor.Actor)
	if !ok {
		L.ArgError(n, "actor expected")
	}
	return a
}

func sameValue(L *lua.LState) int {
	L.Push(lua.LBool(L.CheckUserData(1).Value == L.CheckUserData(2).Value))
	return 1
}

// --- component properties ---

func (e *Engine) componentIndex(L *lua.LState) int {
	c := e.checkComponent(L, 1)
	v, ok := c.Property(L.CheckString(2))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(e.toLua(v))
	return 1
}

func (e *Engine) componentNewIndex(L *lua.LState) int {
	c := e.checkComponent(L, 1)
	c.SetProperty(L.CheckString(2), e.fromLua(L.Get(3)))
	return 0
}

// --- actor methods ---

func (e *Engine) actorGetName(L *lua.LState) int {
	L.Push(lua.LString(e.checkActor(L, 1).Name()))
	return 1
}

func (e *Engine) actorGetID(L *lua.LState) int {
	L.Push(lua.LNumber(e.checkActor(L, 1).ID()))
	return 1
}

func (e *Engine) pushComponent(L *lua.LState, c *component.Component) int {
	if c == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(e.componentValue(c))
	return 1
}

func (e *Engine) actorGetComponentByKey(L *lua.LState) int {
	a := e.checkActor(L, 1)
	return e.pushComponent(L, a.GetComponent(L.CheckString(2)))
}

func (e *Engine) actorGetComponent(L *lua.LState) int {
	a := e.checkActor(L, 1)
	return e.pushComponent(L, a.GetComponentByType(L.CheckString(2)))
}

func (e *Engine) actorGetComponents(L *lua.LState) int {
	a := e.checkActor(L, 1)
	tbl := L.NewTable()
	for _, c := range a.GetComponentsByType(L.CheckString(2)) {
		tbl.Append(e.componentValue(c))
	}
	L.Push(tbl)
	return 1
}

func (e *Engine) actorAddComponent(L *lua.LState) int {
	a := e.checkActor(L, 1)
	c, err := a.AddComponent(L.CheckString(2))
	if err != nil {
		return e.fatal(L, err)
	}
	return e.pushComponent(L, c)
}

func (e *Engine) actorRemoveComponent(L *lua.LState) int {
	a := e.checkActor(L, 1)
	a.RemoveComponent(e.checkComponent(L, 2))
	return 0
}

// --- Actor namespace ---

func (e *Engine) pushActor(L *lua.LState, a *actor.Actor) int {
	if a == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(e.actorValue(a))
	return 1
}

func (e *Engine) actorFind(L *lua.LState) int {
	return e.pushActor(L, e.guild.Find(L.CheckString(1)))
}

func (e *Engine) actorFindAll(L *lua.LState) int {
	tbl := L.NewTable()
	for _, a := range e.guild.FindAll(L.CheckString(1)) {
		tbl.Append(e.actorValue(a))
	}
	L.Push(tbl)
	return 1
}

func (e *Engine) actorInstantiate(L *lua.LState) int {
	a, err := e.guild.Instantiate(L.CheckString(1))
	if err != nil {
		return e.fatal(L, err)
	}
	return e.pushActor(L, a)
}

func (e *Engine) actorDestroy(L *lua.LState) int {
	if err := e.guild.Destroy(e.checkActor(L, 1)); err != nil {
		return e.fatal(L, err)
	}
	return 0
}

// --- Scene namespace ---

func (e *Engine) sceneLoad(L *lua.LState) int {
	e.host.LoadScene(L.CheckString(1))
	return 0
}

func (e *Engine) sceneGetCurrent(L *lua.LState) int {
	L.Push(lua.LString(e.host.CurrentScene()))
	return 1
}

// sceneDontDestroy flags the live actor with the given actor's id so it
// survives the next scene change.
func (e *Engine) sceneDontDestroy(L *lua.LState) int {
	ref := e.checkActor(L, 1)
	if a, ok := e.guild.Lookup(ref.ID()); ok {
		a.SetDontDestroyOnLoad(true)
	}
	return 0
}

func openURL(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
