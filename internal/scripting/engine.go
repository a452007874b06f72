package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/engine2d/internal/core/component"
	"github.com/l1jgo/engine2d/internal/core/guild"
)

// ErrBadType is returned when a component type script does not define its table.
var ErrBadType = errors.New("bad component type script")

// Host is the part of the application scripts can reach: frame counter,
// scene switching and quitting.
type Host interface {
	Frame() int
	Quit()
	LoadScene(name string)
	CurrentScene() string
}

// Engine wraps a single gopher-lua VM. Single-goroutine access only (game loop).
type Engine struct {
	vm    *lua.LState
	log   *zap.Logger
	guild *guild.Guild
	host  Host

	// first fatal error raised from a bridge call; sticky
	err error
}

// NewEngine creates the VM and registers the Actor, Scene, Debug and
// Application namespaces.
func NewEngine(g *guild.Guild, host Host, log *zap.Logger) *Engine {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log, guild: g, host: host}
	e.registerTypes()
	e.registerNamespaces()
	return e
}

// LoadComponentTypes runs every .lua file in dir. Each file must define a
// global table named after the file; that table becomes the definition of
// the component type of the same name. A missing directory registers nothing.
func (e *Engine) LoadComponentTypes(dir string, reg *component.Registry) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		typ := strings.TrimSuffix(entry.Name(), ".lua")
		if err := e.vm.DoFile(path); err != nil {
			return component.Fatal(fmt.Errorf("load component type %s: %w", typ, err))
		}
		tbl, ok := e.vm.GetGlobal(typ).(*lua.LTable)
		if !ok {
			return component.Fatal(fmt.Errorf("%w: %s does not define table %s", ErrBadType, path, typ))
		}
		reg.Register(typ, e.definition(tbl))
		e.log.Debug("loaded component type", zap.String("type", typ), zap.String("file", path))
	}
	return nil
}

// definition links a type table to the registry. Reads go to the live Lua
// table, so later changes to it are seen by every instance that has not
// set the key itself. Only string keys are visible.
func (e *Engine) definition(tbl *lua.LTable) *component.Table {
	return component.NewSourceTable(func(key string) (any, bool) {
		v := tbl.RawGetString(key)
		if v == lua.LNil {
			return nil, false
		}
		return e.fromLua(v), true
	})
}

// DoString runs a chunk in the VM, e.g. to seed shared state on a type table.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// Err returns the fatal error raised by a script, if any.
func (e *Engine) Err() error {
	return e.err
}

// fatal records err and unwinds the running script.
func (e *Engine) fatal(L *lua.LState, err error) int {
	if e.err == nil {
		e.err = component.Fatal(err)
	}
	L.RaiseError("%s", err.Error())
	return 0
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
