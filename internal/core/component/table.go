package component

// Table is a string-keyed property table with a read-through base link.
// Local entries shadow whatever the base chain holds.
type Table struct {
	keys []string
	vals map[string]any
	base *Table

	// source is consulted after local entries and before base; it backs
	// definitions owned by another runtime.
	source func(key string) (any, bool)
}

func NewTable(base *Table) *Table {
	return &Table{
		vals: make(map[string]any, 8),
		base: base,
	}
}

// NewSourceTable creates a table whose unset keys are resolved by source
// at read time.
func NewSourceTable(source func(key string) (any, bool)) *Table {
	t := NewTable(nil)
	t.source = source
	return t
}

// Get resolves key locally first, then along the base chain.
func (t *Table) Get(key string) (any, bool) {
	for cur := t; cur != nil; cur = cur.base {
		if v, ok := cur.vals[key]; ok {
			return v, true
		}
		if cur.source != nil {
			if v, ok := cur.source(key); ok {
				return v, true
			}
		}
	}
	return nil, false
}

// Set stores v locally. A nil v drops the local entry so reads fall back
// to the base again.
func (t *Table) Set(key string, v any) {
	if v == nil {
		t.remove(key)
		return
	}
	if _, ok := t.vals[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.vals[key] = v
}

func (t *Table) remove(key string) {
	if _, ok := t.vals[key]; !ok {
		return
	}
	delete(t.vals, key)
	for i, k := range t.keys {
		if k == key {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}
}

// Keys lists local keys in insertion order.
func (t *Table) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

func (t *Table) Len() int { return len(t.keys) }
