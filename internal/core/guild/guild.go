// Package guild is the process-wide store of actors: live members, actors
// waiting to join, actors waiting to be purged and the immutable templates
// new actors are instantiated from. It owns the per-frame actor lifecycle.
package guild

import (
	"errors"
	"fmt"
	"sort"

	"github.com/kamstrup/intmap"
	"go.uber.org/zap"

	"github.com/l1jgo/engine2d/internal/core/actor"
	"github.com/l1jgo/engine2d/internal/core/component"
	"github.com/l1jgo/engine2d/internal/data"
)

// ErrUnknownTemplate is returned when an actor names a template that was not loaded.
var ErrUnknownTemplate = errors.New("unknown actor template")

// Option configures a Guild.
type Option func(*Guild)

// WithDestroyCallbacks makes Destroy run the actor's OnDestroy callbacks
// before its components are disabled. Off by default.
func WithDestroyCallbacks(on bool) Option {
	return func(g *Guild) { g.destroyCallbacks = on }
}

// Guild is not safe for concurrent use; it belongs to the game loop.
type Guild struct {
	reg *component.Registry
	log *zap.Logger

	members        []*actor.Actor
	pendingAdd     []*actor.Actor
	pendingDestroy []int
	destroying     map[int]struct{}
	byID           *intmap.Map[int, *actor.Actor]

	templates map[string]*actor.Actor
	nextID    int

	destroyCallbacks bool
}

func New(reg *component.Registry, log *zap.Logger, opts ...Option) *Guild {
	g := &Guild{
		reg:        reg,
		log:        log,
		members:    make([]*actor.Actor, 0, 256),
		pendingAdd: make([]*actor.Actor, 0, 64),
		destroying: make(map[int]struct{}, 16),
		byID:       intmap.New[int, *actor.Actor](256),
		templates:  make(map[string]*actor.Actor, 16),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guild) newID() int {
	id := g.nextID
	g.nextID++
	return id
}

// LoadTemplates builds one prototype actor per template document, in name
// order. Templates consume ids from the same counter as live actors and
// never join the members list.
func (g *Guild) LoadTemplates(docs map[string]*data.Document) error {
	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		doc := docs[name]
		a := actor.New(g.newID(), g.reg)
		a.UpdateFromDocument(doc)
		if comps, ok := doc.Object("components"); ok {
			if err := a.LoadComponents(comps); err != nil {
				return fmt.Errorf("template %s: %w", name, err)
			}
		}
		g.templates[name] = a
	}
	g.log.Debug("actor templates loaded", zap.Int("count", len(g.templates)))
	return nil
}

// Template returns the prototype registered under name.
func (g *Guild) Template(name string) (*actor.Actor, bool) {
	a, ok := g.templates[name]
	return a, ok
}

func (g *Guild) TemplateCount() int { return len(g.templates) }

func (g *Guild) template(name string) (*actor.Actor, error) {
	t, ok := g.templates[name]
	if !ok {
		return nil, component.Fatal(fmt.Errorf("%w: %q", ErrUnknownTemplate, name))
	}
	return t, nil
}

// LoadActors stages every entry of the scene's "actors" array. An entry may
// inherit a template; its own name and components are applied on top.
func (g *Guild) LoadActors(scene *data.Document) error {
	entries, ok := scene.Array("actors")
	if !ok {
		return nil
	}
	for i, doc := range entries {
		if !doc.IsObject() {
			return component.Fatal(fmt.Errorf("%w: actor #%d is not an object", data.ErrMalformed, i))
		}
		a := actor.New(g.newID(), g.reg)
		if name := doc.String("template", ""); name != "" {
			t, err := g.template(name)
			if err != nil {
				return err
			}
			a.UpdateFromActor(t)
		}
		a.UpdateFromDocument(doc)
		if comps, ok := doc.Object("components"); ok {
			if err := a.LoadComponents(comps); err != nil {
				return fmt.Errorf("actor %q: %w", a.Name(), err)
			}
		}
		a.InjectReferences()
		g.stage(a)
	}
	return nil
}

// Instantiate stages a deep copy of the named template and returns it.
func (g *Guild) Instantiate(templateName string) (*actor.Actor, error) {
	t, err := g.template(templateName)
	if err != nil {
		return nil, err
	}
	a := actor.New(g.newID(), g.reg)
	a.UpdateFromActor(t)
	a.InjectReferences()
	g.stage(a)
	return a, nil
}

func (g *Guild) stage(a *actor.Actor) {
	g.pendingAdd = append(g.pendingAdd, a)
	g.byID.Put(a.ID(), a)
}

// Destroy stages every component of a for removal and queues a's id for
// the purge at the end of the next Update. a keeps running until then.
func (g *Guild) Destroy(a *actor.Actor) error {
	if a == nil {
		return nil
	}
	if g.destroyCallbacks {
		if err := a.OnDestroy(g.log); err != nil {
			return err
		}
	}
	for _, c := range a.Components() {
		a.RemoveComponent(c)
	}
	if _, ok := g.destroying[a.ID()]; !ok {
		g.destroying[a.ID()] = struct{}{}
		g.pendingDestroy = append(g.pendingDestroy, a.ID())
	}
	return nil
}

func (g *Guild) isDestroying(a *actor.Actor) bool {
	_, ok := g.destroying[a.ID()]
	return ok
}

// Find returns the first live actor named name, pending actors first, or
// nil. Actors queued for destruction are skipped.
func (g *Guild) Find(name string) *actor.Actor {
	for _, list := range [][]*actor.Actor{g.pendingAdd, g.members} {
		for _, a := range list {
			if a.Name() == name && !g.isDestroying(a) {
				return a
			}
		}
	}
	return nil
}

// FindAll returns every live actor named name, pending actors first.
func (g *Guild) FindAll(name string) []*actor.Actor {
	var out []*actor.Actor
	for _, list := range [][]*actor.Actor{g.pendingAdd, g.members} {
		for _, a := range list {
			if a.Name() == name && !g.isDestroying(a) {
				out = append(out, a)
			}
		}
	}
	return out
}

// Lookup resolves an id among members and pending actors.
func (g *Guild) Lookup(id int) (*actor.Actor, bool) {
	return g.byID.Get(id)
}

// Members returns a snapshot of the live actors.
func (g *Guild) Members() []*actor.Actor {
	out := make([]*actor.Actor, len(g.members))
	copy(out, g.members)
	return out
}

// Pending returns the number of actors waiting to join.
func (g *Guild) Pending() int { return len(g.pendingAdd) }

// Update runs one frame of the actor lifecycle. The steps always run in
// this order; a fatal callback error aborts the frame.
func (g *Guild) Update() error {
	g.promotePending()

	for _, a := range g.members {
		if err := a.Start(g.log); err != nil {
			return err
		}
	}
	for _, a := range g.members {
		a.PromoteAdded()
	}
	for _, a := range g.members {
		if err := a.Update(g.log); err != nil {
			return err
		}
	}
	for _, a := range g.members {
		if err := a.LateUpdate(g.log); err != nil {
			return err
		}
	}
	for _, a := range g.members {
		a.ReconcileRemovals()
	}

	g.purge()
	return nil
}

func (g *Guild) promotePending() {
	g.members = append(g.members, g.pendingAdd...)
	clear(g.pendingAdd)
	g.pendingAdd = g.pendingAdd[:0]
}

// purge drops every member queued for destruction. OnDestroy is not called
// here; see WithDestroyCallbacks.
func (g *Guild) purge() {
	if len(g.pendingDestroy) == 0 {
		return
	}
	kept := g.members[:0]
	for _, a := range g.members {
		if g.isDestroying(a) {
			g.byID.Del(a.ID())
			continue
		}
		kept = append(kept, a)
	}
	clear(g.members[len(kept):])
	g.members = kept

	// destroyed before ever joining
	pending := g.pendingAdd[:0]
	for _, a := range g.pendingAdd {
		if g.isDestroying(a) {
			g.byID.Del(a.ID())
			continue
		}
		pending = append(pending, a)
	}
	clear(g.pendingAdd[len(pending):])
	g.pendingAdd = pending

	g.pendingDestroy = g.pendingDestroy[:0]
	clear(g.destroying)
}

// Clear prepares for a scene change: pending actors join, every member not
// flagged DontDestroyOnLoad is destroyed and purged at once.
func (g *Guild) Clear() error {
	g.promotePending()
	for _, a := range g.Members() {
		if !a.DontDestroyOnLoad() {
			if err := g.Destroy(a); err != nil {
				return err
			}
		}
	}
	g.purge()
	return nil
}
