package component

import "fmt"

// Hook names a lifecycle callback a component may expose.
type Hook string

const (
	HookStart      Hook = "OnStart"
	HookUpdate     Hook = "OnUpdate"
	HookLateUpdate Hook = "OnLateUpdate"
	HookDestroy    Hook = "OnDestroy"
)

// Default property keys set on every freshly constructed component.
const (
	PropKey     = "key"
	PropEnabled = "enabled"
	PropActor   = "actor"
)

// Func is a callable component property. The scripting bridge provides
// implementations backed by script functions.
type Func interface {
	Call(c *Component) error
}

// HookFunc adapts a plain Go function to Func.
type HookFunc func(c *Component) error

func (f HookFunc) Call(c *Component) error { return f(c) }

// Component is a named, typed property bag attached to an actor.
type Component struct {
	name  string
	typ   string
	props *Table

	// handle held by the scripting layer for this instance
	binding any
}

// New creates a component of type typ whose properties read through to the
// registered definition of typ.
func New(name, typ string, reg *Registry) (*Component, error) {
	def, ok := reg.Lookup(typ)
	if !ok {
		return nil, Fatal(fmt.Errorf("%w: %q", ErrUnknownType, typ))
	}
	c := &Component{
		name:  name,
		typ:   typ,
		props: NewTable(def),
	}
	c.SetProperty(PropKey, name)
	c.SetProperty(PropEnabled, true)
	return c, nil
}

// Copy creates a component whose properties read through to src itself.
// Writes to the copy never reach src; unset keys see src's current values.
func Copy(src *Component) *Component {
	return &Component{
		name:  src.name,
		typ:   src.typ,
		props: NewTable(src.props),
	}
}

func (c *Component) Name() string { return c.name }

// Binding returns the value stored by Bind. Copies start unbound.
func (c *Component) Binding() any { return c.binding }
func (c *Component) Bind(v any)   { c.binding = v }
func (c *Component) Type() string { return c.typ }

// Props exposes the underlying table, mainly for the scripting bridge.
func (c *Component) Props() *Table { return c.props }

func (c *Component) SetProperty(key string, v any) {
	c.props.Set(key, v)
}

func (c *Component) Property(key string) (any, bool) {
	return c.props.Get(key)
}

// Int reads a numeric property; floats are truncated.
func (c *Component) Int(key string) (int, bool) {
	v, _ := c.props.Get(key)
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	}
	return 0, false
}

func (c *Component) Float(key string) (float64, bool) {
	v, _ := c.props.Get(key)
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func (c *Component) String(key string) (string, bool) {
	v, _ := c.props.Get(key)
	s, ok := v.(string)
	return s, ok
}

func (c *Component) Bool(key string) (bool, bool) {
	v, _ := c.props.Get(key)
	b, ok := v.(bool)
	return b, ok
}

// Enabled is true only when the resolved "enabled" property is boolean true.
func (c *Component) Enabled() bool {
	b, ok := c.Bool(PropEnabled)
	return ok && b
}

// Hook returns the callable stored under h, if any.
func (c *Component) Hook(h Hook) (Func, bool) {
	v, ok := c.props.Get(string(h))
	if !ok {
		return nil, false
	}
	fn, ok := v.(Func)
	return fn, ok
}
