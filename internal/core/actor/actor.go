package actor

import (
	"strings"

	"go.uber.org/zap"

	"github.com/l1jgo/engine2d/internal/core/component"
	"github.com/l1jgo/engine2d/internal/data"
)

// Actor is an identified entity owning a set of components.
//
// Components move through three buckets: justAdded (staged, waiting for their
// Start call), active (updated every frame) and toRemove (names masked from
// lookups until the end-of-frame reconciliation erases them). Callbacks may
// add or remove components at any time because those calls only append to a
// staging bucket, never to the one being iterated.
type Actor struct {
	id                int
	name              string
	dontDestroyOnLoad bool

	justAdded *componentSet
	active    *componentSet
	toRemove  []string

	reg *component.Registry

	// number of justAdded entries visited by the last Start pass, or -1
	// when no Start ran since the last promotion
	started int

	binding any
}

// New creates an empty actor with the given id.
func New(id int, reg *component.Registry) *Actor {
	return &Actor{
		id:        id,
		justAdded: newComponentSet(),
		active:    newComponentSet(),
		reg:       reg,
		started:   -1,
	}
}

func (a *Actor) ID() int                 { return a.id }
func (a *Actor) Name() string            { return a.name }
func (a *Actor) SetName(name string)     { a.name = name }
func (a *Actor) DontDestroyOnLoad() bool { return a.dontDestroyOnLoad }

func (a *Actor) SetDontDestroyOnLoad(v bool) { a.dontDestroyOnLoad = v }

// Binding returns the value stored by Bind, used by the scripting layer to
// hand out one handle per actor.
func (a *Actor) Binding() any { return a.binding }
func (a *Actor) Bind(v any)   { a.binding = v }

// Equal compares actors by id only.
func (a *Actor) Equal(other *Actor) bool {
	return other != nil && a.id == other.id
}

func (a *Actor) removing(name string) bool {
	for _, n := range a.toRemove {
		if n == name {
			return true
		}
	}
	return false
}

// GetComponent returns the component named key, or nil when it is unknown
// or staged for removal.
func (a *Actor) GetComponent(key string) *component.Component {
	if a.removing(key) {
		return nil
	}
	if c, ok := a.justAdded.get(key); ok {
		return c
	}
	if c, ok := a.active.get(key); ok {
		return c
	}
	return nil
}

// GetComponentByType returns the first live component of type typ, looking
// at staged components before active ones.
func (a *Actor) GetComponentByType(typ string) *component.Component {
	for _, set := range []*componentSet{a.justAdded, a.active} {
		for _, c := range set.items() {
			if c.Type() == typ && !a.removing(c.Name()) {
				return c
			}
		}
	}
	return nil
}

// GetComponentsByType returns every live component of type typ, staged first.
func (a *Actor) GetComponentsByType(typ string) []*component.Component {
	var out []*component.Component
	for _, set := range []*componentSet{a.justAdded, a.active} {
		for _, c := range set.items() {
			if c.Type() == typ && !a.removing(c.Name()) {
				out = append(out, c)
			}
		}
	}
	return out
}

// Components returns staged then active components, including ones pending
// removal.
func (a *Actor) Components() []*component.Component {
	out := make([]*component.Component, 0, a.justAdded.len()+a.active.len())
	out = append(out, a.justAdded.items()...)
	out = append(out, a.active.items()...)
	return out
}

// AddComponent stages a new component of type typ under a fresh name. It
// takes part in the lifecycle from the next Start pass on. Generated names
// already used on this actor are skipped.
func (a *Actor) AddComponent(typ string) (*component.Component, error) {
	name := a.reg.NextName()
	for a.has(name) {
		name = a.reg.NextName()
	}
	c, err := component.New(name, typ, a.reg)
	if err != nil {
		return nil, err
	}
	a.justAdded.put(c)
	a.inject(c)
	return c, nil
}

func (a *Actor) has(name string) bool {
	if _, ok := a.justAdded.get(name); ok {
		return true
	}
	_, ok := a.active.get(name)
	return ok
}

// RemoveComponent disables c immediately and stages its name for removal at
// the end of the frame.
func (a *Actor) RemoveComponent(c *component.Component) {
	if c == nil {
		return
	}
	c.SetProperty(component.PropEnabled, false)
	a.toRemove = append(a.toRemove, c.Name())
}

// Start calls OnStart on every staged component. Components staged while the
// pass runs wait for the next one.
func (a *Actor) Start(log *zap.Logger) error {
	n := a.justAdded.len()
	a.started = n
	return a.run(component.HookStart, a.justAdded.items()[:n], log)
}

// PromoteAdded moves staged components into the active set. After a Start
// pass only the components that pass visited are moved.
func (a *Actor) PromoteAdded() {
	n := a.justAdded.len()
	if a.started >= 0 && a.started < n {
		n = a.started
	}
	for _, c := range a.justAdded.take(n) {
		a.active.put(c)
	}
	a.started = -1
}

func (a *Actor) Update(log *zap.Logger) error {
	return a.run(component.HookUpdate, a.active.items(), log)
}

func (a *Actor) LateUpdate(log *zap.Logger) error {
	return a.run(component.HookLateUpdate, a.active.items(), log)
}

func (a *Actor) OnDestroy(log *zap.Logger) error {
	return a.run(component.HookDestroy, a.active.items(), log)
}

// ReconcileRemovals erases every staged name and clears the removal list.
// A component removed in the frame it was added is dropped from the staged
// bucket too, so it never gets promoted.
func (a *Actor) ReconcileRemovals() {
	for _, name := range a.toRemove {
		a.active.remove(name)
		a.justAdded.remove(name)
	}
	a.toRemove = a.toRemove[:0]
	if a.started > a.justAdded.len() {
		a.started = a.justAdded.len()
	}
}

// run invokes hook on every enabled component of comps that defines it.
// Failures are logged per component; only fatal errors stop the pass.
func (a *Actor) run(hook component.Hook, comps []*component.Component, log *zap.Logger) error {
	for _, c := range comps {
		if !c.Enabled() {
			continue
		}
		fn, ok := c.Hook(hook)
		if !ok {
			continue
		}
		if err := fn.Call(c); err != nil {
			if component.IsFatal(err) {
				return err
			}
			a.report(log, c, hook, err)
		}
	}
	return nil
}

func (a *Actor) report(log *zap.Logger, c *component.Component, hook component.Hook, err error) {
	log.Error("component callback failed",
		zap.String("actor", a.name),
		zap.String("component", c.Name()),
		zap.String("hook", string(hook)),
		zap.String("error", NormalizeError(err)),
	)
}

// NormalizeError renders err with forward slashes so script paths read the
// same on every platform.
func NormalizeError(err error) string {
	return strings.ReplaceAll(err.Error(), `\`, "/")
}

// UpdateFromDocument applies the document's own fields; absent fields keep
// their current values.
func (a *Actor) UpdateFromDocument(doc *data.Document) {
	a.name = doc.String("name", a.name)
}

// UpdateFromActor inherits from a template: the name, a fresh copy of every
// component and the pending removals. Apply it before UpdateFromDocument so
// the document wins.
func (a *Actor) UpdateFromActor(other *Actor) {
	a.name = other.name
	for _, c := range other.justAdded.items() {
		a.justAdded.put(component.Copy(c))
	}
	for _, c := range other.active.items() {
		a.active.put(component.Copy(c))
	}
	a.toRemove = append(a.toRemove, other.toRemove...)
}

// InjectReferences points the actor property of every component at a.
func (a *Actor) InjectReferences() {
	for _, c := range a.Components() {
		a.inject(c)
	}
}

func (a *Actor) inject(c *component.Component) {
	c.SetProperty(component.PropActor, a)
}
