package actor

import "github.com/l1jgo/engine2d/internal/core/component"

// componentSet is an insertion-ordered name -> component map. Replacing an
// existing name keeps its position.
type componentSet struct {
	order []*component.Component
	index map[string]int
}

func newComponentSet() *componentSet {
	return &componentSet{index: make(map[string]int, 8)}
}

func (s *componentSet) get(name string) (*component.Component, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.order[i], true
}

func (s *componentSet) put(c *component.Component) {
	if i, ok := s.index[c.Name()]; ok {
		s.order[i] = c
		return
	}
	s.index[c.Name()] = len(s.order)
	s.order = append(s.order, c)
}

func (s *componentSet) remove(name string) {
	i, ok := s.index[name]
	if !ok {
		return
	}
	s.order = append(s.order[:i], s.order[i+1:]...)
	delete(s.index, name)
	for j := i; j < len(s.order); j++ {
		s.index[s.order[j].Name()] = j
	}
}

// take removes the first n entries and returns them.
func (s *componentSet) take(n int) []*component.Component {
	if n > len(s.order) {
		n = len(s.order)
	}
	taken := make([]*component.Component, n)
	copy(taken, s.order[:n])
	rest := make([]*component.Component, len(s.order)-n)
	copy(rest, s.order[n:])
	s.order = rest
	s.index = make(map[string]int, len(rest)+8)
	for i, c := range rest {
		s.index[c.Name()] = i
	}
	return taken
}

func (s *componentSet) len() int { return len(s.order) }

func (s *componentSet) items() []*component.Component { return s.order }
