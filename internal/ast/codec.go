package ast

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/funvibe/nodecore/internal/typesystem"
	"github.com/google/uuid"
)

var constructors = map[Kind]func() Node{
	FunctionCallKind:       func() Node { return &FunctionCall{} },
	FunctionReferenceKind:  func() Node { return &FunctionReference{} },
	ArgumentKind:           func() Node { return &Argument{} },
	StringLiteralKind:      func() Node { return &StringLiteral{} },
	NumberLiteralKind:      func() Node { return &NumberLiteral{} },
	NullLiteralKind:        func() Node { return &NullLiteral{} },
	ListLiteralKind:        func() Node { return &ListLiteral{} },
	StructLiteralKind:      func() Node { return &StructLiteral{} },
	StructLiteralFieldKind: func() Node { return &StructLiteralField{} },
	AssignmentKind:         func() Node { return &Assignment{} },
	ReassignmentKind:       func() Node { return &Reassignment{} },
	ReassignListIndexKind:  func() Node { return &ReassignListIndex{} },
	BlockKind:              func() Node { return &Block{} },
	AnonymousFunctionKind:  func() Node { return &AnonymousFunction{} },
	VariableReferenceKind:  func() Node { return &VariableReference{} },
	PlaceholderKind:        func() Node { return &Placeholder{} },
	ConditionalKind:        func() Node { return &Conditional{} },
	MatchKind:              func() Node { return &Match{} },
	ForLoopKind:            func() Node { return &ForLoop{} },
	WhileLoopKind:          func() Node { return &WhileLoop{} },
	StructFieldGetKind:     func() Node { return &StructFieldGet{} },
	ListIndexKind:          func() Node { return &ListIndex{} },
	EnumVariantLiteralKind: func() Node { return &EnumVariantLiteral{} },
	EarlyReturnKind:        func() Node { return &EarlyReturn{} },
	TryKind:                func() Node { return &Try{} },
}

var (
	nodeType      = reflect.TypeFor[Node]()
	nodeSliceType = reflect.TypeFor[[]Node]()
	nodeMapType   = reflect.TypeFor[map[ID]Node]()
)

// Marshal encodes a tree as nested JSON objects, one per node, each carrying
// a "type" tag next to its fields.
func Marshal(n Node) ([]byte, error) {
	v, err := encode(n)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// Unmarshal decodes a tree produced by Marshal.
func Unmarshal(data []byte) (Node, error) {
	return decode(data)
}

// Envelope lets a tree sit inside other JSON-encoded structs.
type Envelope struct {
	Node Node
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	return Marshal(e.Node)
}

func (e *Envelope) UnmarshalJSON(data []byte) error {
	n, err := decode(data)
	if err != nil {
		return err
	}
	e.Node = n
	return nil
}

func encode(n Node) (any, error) {
	if n == nil || reflect.ValueOf(n).IsNil() {
		return nil, nil
	}
	rv := reflect.ValueOf(n).Elem()
	rt := rv.Type()
	out := map[string]any{"type": string(n.Kind())}
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		name := jsonName(f)
		fv := rv.Field(i)
		switch f.Type {
		case nodeType:
			child, err := encodeValue(fv)
			if err != nil {
				return nil, err
			}
			out[name] = child
		case nodeSliceType:
			items := make([]any, fv.Len())
			for j := range items {
				child, err := encodeValue(fv.Index(j))
				if err != nil {
					return nil, err
				}
				items[j] = child
			}
			out[name] = items
		case nodeMapType:
			items := make(map[string]any, fv.Len())
			iter := fv.MapRange()
			for iter.Next() {
				child, err := encodeValue(iter.Value())
				if err != nil {
					return nil, err
				}
				items[iter.Key().Interface().(ID).String()] = child
			}
			out[name] = items
		default:
			out[name] = fv.Interface()
		}
	}
	return out, nil
}

func encodeValue(v reflect.Value) (any, error) {
	if v.IsNil() {
		return nil, nil
	}
	return encode(v.Interface().(Node))
}

func decode(data []byte) (Node, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	var kind string
	if err := json.Unmarshal(fields["type"], &kind); err != nil {
		return nil, fmt.Errorf("node without type tag: %w", err)
	}
	ctor, ok := constructors[Kind(kind)]
	if !ok {
		return nil, typesystem.NewUnknownKindError("node", kind)
	}
	n := ctor()
	rv := reflect.ValueOf(n).Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		raw, ok := fields[jsonName(f)]
		if !ok {
			continue
		}
		fv := rv.Field(i)
		switch f.Type {
		case nodeType:
			child, err := decode(raw)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", kind, f.Name, err)
			}
			if child != nil {
				fv.Set(reflect.ValueOf(child))
			}
		case nodeSliceType:
			var items []json.RawMessage
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", kind, f.Name, err)
			}
			children := make([]Node, len(items))
			for j, item := range items {
				child, err := decode(item)
				if err != nil {
					return nil, fmt.Errorf("%s.%s[%d]: %w", kind, f.Name, j, err)
				}
				children[j] = child
			}
			fv.Set(reflect.ValueOf(children))
		case nodeMapType:
			var items map[string]json.RawMessage
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", kind, f.Name, err)
			}
			children := make(map[ID]Node, len(items))
			for key, item := range items {
				id, err := uuid.Parse(key)
				if err != nil {
					return nil, fmt.Errorf("%s.%s key %q: %w", kind, f.Name, key, err)
				}
				child, err := decode(item)
				if err != nil {
					return nil, fmt.Errorf("%s.%s[%s]: %w", kind, f.Name, key, err)
				}
				children[id] = child
			}
			fv.Set(reflect.ValueOf(children))
		default:
			if err := json.Unmarshal(raw, fv.Addr().Interface()); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", kind, f.Name, err)
			}
		}
	}
	return n, nil
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name
	}
	return f.Name
}
