package scripting

import (
	"errors"
	"math"

	lua "github.com/yuin/gopher-lua"

	"github.com/l1jgo/engine2d/internal/core/actor"
	"github.com/l1jgo/engine2d/internal/core/component"
)

// luaFunc is a component property backed by a Lua function.
type luaFunc struct {
	e  *Engine
	fn *lua.LFunction
}

// Call invokes the function with the component as its only argument.
func (f *luaFunc) Call(c *component.Component) error {
	e := f.e
	err := e.vm.CallByParam(lua.P{
		Fn:      f.fn,
		NRet:    0,
		Protect: true,
	}, e.componentValue(c))
	if e.err != nil {
		return e.err
	}
	if err != nil {
		var apiErr *lua.ApiError
		if errors.As(err, &apiErr) && apiErr.Object != nil {
			return errors.New(apiErr.Object.String())
		}
		return err
	}
	return nil
}

// fromLua converts a Lua value into the property representation. Integral
// numbers become int, functions become component.Func, wrapped components
// and actors are unwrapped. Tables and other values are kept as-is.
func (e *Engine) fromLua(v lua.LValue) any {
	switch lv := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LString:
		return string(lv)
	case lua.LBool:
		return bool(lv)
	case lua.LNumber:
		f := float64(lv)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int(f)
		}
		return f
	case *lua.LFunction:
		return &luaFunc{e: e, fn: lv}
	case *lua.LUserData:
		switch lv.Value.(type) {
		case *component.Component, *actor.Actor:
			return lv.Value
		}
	}
	return v
}

func (e *Engine) toLua(v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case string:
		return lua.LString(x)
	case int:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case bool:
		return lua.LBool(x)
	case *luaFunc:
		return x.fn
	case component.Func:
		return e.vm.NewFunction(func(L *lua.LState) int {
			if err := x.Call(e.checkComponent(L, 1)); err != nil {
				if component.IsFatal(err) {
					return e.fatal(L, err)
				}
				L.RaiseError("%s", err.Error())
			}
			return 0
		})
	case *component.Component:
		return e.componentValue(x)
	case *actor.Actor:
		return e.actorValue(x)
	case lua.LValue:
		return x
	}
	return lua.LNil
}
