package actor

import (
	"fmt"

	"github.com/l1jgo/engine2d/internal/core/component"
	"github.com/l1jgo/engine2d/internal/data"
)

// LoadComponents applies a "components" object to the staged bucket. A name
// already staged (usually inherited from a template) has its properties
// overwritten in place; a new name is created from its "type" field. Every
// scalar member, "type" included, becomes a property.
func (a *Actor) LoadComponents(comps *data.Document) error {
	for _, m := range comps.Members() {
		if !m.Value.IsObject() {
			return component.Fatal(fmt.Errorf("%w: component %q is not an object", data.ErrMalformed, m.Key))
		}
		c, ok := a.justAdded.get(m.Key)
		if !ok {
			typ, ok := m.Value.OptString("type")
			if !ok {
				return component.Fatal(fmt.Errorf("%w: component %q has no type", data.ErrMalformed, m.Key))
			}
			var err error
			c, err = component.New(m.Key, typ, a.reg)
			if err != nil {
				return fmt.Errorf("component %q: %w", m.Key, err)
			}
			a.justAdded.put(c)
		}
		for _, prop := range m.Value.Members() {
			if v, ok := prop.Value.Scalar(); ok {
				c.SetProperty(prop.Key, v)
			}
		}
	}
	return nil
}
