package data

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMalformed marks a document that cannot be parsed or has the wrong shape.
	ErrMalformed = errors.New("malformed document")
	// ErrMissing marks a required file, directory or field that is absent.
	ErrMissing = errors.New("missing")
)

// Document is a structured key/value document (YAML or JSON) with typed
// accessors that fall back to a default when a key is absent or mistyped.
type Document struct {
	node *yaml.Node
}

// Member is one key/value pair of an object, in document order.
type Member struct {
	Key   string
	Value *Document
}

// Parse decodes b into a Document. The root must be an object; an empty
// input yields an empty object.
func Parse(b []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(b, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return &Document{node: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}, nil
	}
	n := resolve(root.Content[0])
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: root is not an object", ErrMalformed)
	}
	return &Document{node: n}, nil
}

// LoadDocument reads and parses the document at path.
func LoadDocument(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissing, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func (d *Document) field(key string) *yaml.Node {
	if d == nil || d.node == nil || d.node.Kind != yaml.MappingNode {
		return nil
	}
	c := d.node.Content
	for i := 0; i+1 < len(c); i += 2 {
		if c[i].Value == key {
			return resolve(c[i+1])
		}
	}
	return nil
}

// Has reports whether key is present.
func (d *Document) Has(key string) bool {
	return d.field(key) != nil
}

// IsObject reports whether the document is a key/value object.
func (d *Document) IsObject() bool {
	return d != nil && d.node != nil && d.node.Kind == yaml.MappingNode
}

// Scalar decodes a scalar document into string, int, float64 or bool.
func (d *Document) Scalar() (any, bool) {
	if d == nil {
		return nil, false
	}
	return scalar(d.node)
}

func scalar(n *yaml.Node) (any, bool) {
	if n == nil || n.Kind != yaml.ScalarNode {
		return nil, false
	}
	switch n.ShortTag() {
	case "!!str":
		return n.Value, true
	case "!!int":
		var i int
		if err := n.Decode(&i); err == nil {
			return i, true
		}
	case "!!float":
		var f float64
		if err := n.Decode(&f); err == nil {
			return f, true
		}
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			return b, true
		}
	}
	return nil, false
}

func (d *Document) OptString(key string) (string, bool) {
	v, ok := scalar(d.field(key))
	s, isStr := v.(string)
	return s, ok && isStr
}

func (d *Document) OptInt(key string) (int, bool) {
	v, _ := scalar(d.field(key))
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	}
	return 0, false
}

func (d *Document) OptFloat(key string) (float64, bool) {
	v, _ := scalar(d.field(key))
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func (d *Document) OptBool(key string) (bool, bool) {
	v, _ := scalar(d.field(key))
	b, ok := v.(bool)
	return b, ok
}

// OptStrings returns a string array; any non-string element invalidates it.
func (d *Document) OptStrings(key string) ([]string, bool) {
	n := d.field(key)
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil, false
	}
	out := make([]string, 0, len(n.Content))
	for _, item := range n.Content {
		v, _ := scalar(resolve(item))
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func (d *Document) String(key, fallback string) string {
	if v, ok := d.OptString(key); ok {
		return v
	}
	return fallback
}

func (d *Document) Int(key string, fallback int) int {
	if v, ok := d.OptInt(key); ok {
		return v
	}
	return fallback
}

func (d *Document) Float(key string, fallback float64) float64 {
	if v, ok := d.OptFloat(key); ok {
		return v
	}
	return fallback
}

func (d *Document) Bool(key string, fallback bool) bool {
	if v, ok := d.OptBool(key); ok {
		return v
	}
	return fallback
}

func (d *Document) Strings(key string, fallback []string) []string {
	if v, ok := d.OptStrings(key); ok {
		return v
	}
	return fallback
}

// Object returns the nested object stored under key.
func (d *Document) Object(key string) (*Document, bool) {
	n := d.field(key)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil, false
	}
	return &Document{node: n}, true
}

// Array returns the elements of the array stored under key.
func (d *Document) Array(key string) ([]*Document, bool) {
	n := d.field(key)
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil, false
	}
	out := make([]*Document, len(n.Content))
	for i, item := range n.Content {
		out[i] = &Document{node: resolve(item)}
	}
	return out, true
}

// Members lists the object's entries in document order.
func (d *Document) Members() []Member {
	if !d.IsObject() {
		return nil
	}
	c := d.node.Content
	out := make([]Member, 0, len(c)/2)
	for i := 0; i+1 < len(c); i += 2 {
		out = append(out, Member{Key: c[i].Value, Value: &Document{node: resolve(c[i+1])}})
	}
	return out
}

// Merge deep-merges src into d. Nested objects merge recursively; any other
// conflict is won by src.
func (d *Document) Merge(src *Document) {
	if src == nil || src.node == nil {
		return
	}
	if d.node == nil {
		d.node = cloneNode(src.node)
		return
	}
	mergeNode(d.node, src.node)
}

func mergeNode(dst, src *yaml.Node) {
	if dst.Kind != yaml.MappingNode || src.Kind != yaml.MappingNode {
		*dst = *cloneNode(src)
		return
	}
	for i := 0; i+1 < len(src.Content); i += 2 {
		key, val := src.Content[i], resolve(src.Content[i+1])
		found := false
		for j := 0; j+1 < len(dst.Content); j += 2 {
			if dst.Content[j].Value != key.Value {
				continue
			}
			found = true
			existing := resolve(dst.Content[j+1])
			if existing.Kind == yaml.MappingNode && val.Kind == yaml.MappingNode {
				mergeNode(existing, val)
			} else {
				dst.Content[j+1] = cloneNode(val)
			}
			break
		}
		if !found {
			dst.Content = append(dst.Content, cloneNode(key), cloneNode(val))
		}
	}
}

func cloneNode(n *yaml.Node) *yaml.Node {
	n = resolve(n)
	if n == nil {
		return nil
	}
	cp := *n
	if len(n.Content) > 0 {
		cp.Content = make([]*yaml.Node, len(n.Content))
		for i, c := range n.Content {
			cp.Content[i] = cloneNode(c)
		}
	}
	return &cp
}
