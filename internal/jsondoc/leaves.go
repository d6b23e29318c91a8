package jsondoc

import (
	"encoding/json"
	"fmt"
)

// Leaf is a terminal value of a document at its nesting. Values are ready
// for encoding/json: numbers are json.Number, error markers carry their
// undecoded array and an empty object is an empty map.
type Leaf struct {
	Nesting Nesting
	Value   any
}

// Leaves flattens d in Walk order.
func (d *Document) Leaves() []Leaf {
	var out []Leaf
	for n := range d.Walk() {
		var v any
		switch {
		case n.Kind == Null:
		case n.Kind == Bool:
			v = n.Bool
		case n.Kind == Number:
			v = json.Number(fmt.Sprint(n.Number))
		case n.Kind == String && n.FromNumber:
			v = json.Number(n.String)
		case n.Kind == String:
			v = n.String
		case n.Kind.IsError():
			v = n.Raw
		case n.Kind == Map && len(n.Keys) == 0:
			v = map[string]any{}
		default:
			continue
		}
		out = append(out, Leaf{Nesting: n.Nesting, Value: v})
	}
	return out
}

// Assemble rebuilds a value from leaves. Missing list positions are filled
// with nil.
func Assemble(leaves []Leaf) (any, error) {
	var root any
	for _, leaf := range leaves {
		var err error
		root, err = insert(root, leaf.Nesting, leaf.Value)
		if err != nil {
			return nil, fmt.Errorf("assemble %s: %w", leaf.Nesting, err)
		}
	}
	return root, nil
}

func insert(node any, path Nesting, v any) (any, error) {
	if len(path) == 0 {
		return v, nil
	}
	step, rest := path[0], path[1:]
	switch step.Kind {
	case MapKey:
		if node == nil {
			node = map[string]any{}
		}
		m, ok := node.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("key %q under a %T", step.Key, node)
		}
		child, err := insert(m[step.Key], rest, v)
		if err != nil {
			return nil, err
		}
		m[step.Key] = child
		return m, nil
	case ListElement:
		if node == nil {
			node = []any{}
		}
		s, ok := node.([]any)
		if !ok {
			return nil, fmt.Errorf("index %d under a %T", step.Index, node)
		}
		if step.Index < 0 {
			return nil, fmt.Errorf("negative index %d", step.Index)
		}
		for len(s) <= step.Index {
			s = append(s, nil)
		}
		child, err := insert(s[step.Index], rest, v)
		if err != nil {
			return nil, err
		}
		s[step.Index] = child
		return s, nil
	}
	return nil, fmt.Errorf("unknown nest kind %d", step.Kind)
}
