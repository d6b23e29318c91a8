// Package jsondoc classifies example JSON into a typed tree whose nodes
// know their path from the root. Floats are kept as text, and arrays that
// are empty or mix element shapes are marked instead of typed.
package jsondoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"strings"

	"github.com/funvibe/nodecore/internal/config"
	"github.com/funvibe/nodecore/internal/typesystem"
)

type Kind uint8

const (
	Null Kind = iota
	Bool
	String
	Number
	List
	Map
	// EmptyCantInfer marks an array with no element to infer a type from.
	EmptyCantInfer
	// NonHomogeneousCantParse marks an array whose elements differ in shape.
	NonHomogeneousCantParse
)

var kindNames = [...]string{
	Null:                    "Null",
	Bool:                    "Bool",
	String:                  "String",
	Number:                  "Number",
	List:                    "List",
	Map:                     "Map",
	EmptyCantInfer:          "EmptyCantInfer",
	NonHomogeneousCantParse: "NonHomogeneousCantParse",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

func (k Kind) IsScalar() bool { return k <= Number }

// IsError reports whether k is one of the two array markers.
func (k Kind) IsError() bool { return k == EmptyCantInfer || k == NonHomogeneousCantParse }

// Document is one classified JSON node.
type Document struct {
	Kind    Kind
	Nesting Nesting

	Bool   bool
	String string
	Number int64
	// FromNumber is set when String holds the literal of a JSON number that
	// is not an int64, such as 1.5 or 1e100.
	FromNumber bool

	Items  []*Document
	Fields map[string]*Document
	// Keys lists Fields in sorted order.
	Keys []string

	// Raw is the undecoded value behind an error marker.
	Raw any
}

// Parse decodes one JSON value and classifies it.
func Parse(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("parse json: trailing data after value")
	}
	return FromValue(v), nil
}

// FromValue classifies a value decoded by encoding/json. Numbers must have
// been decoded as json.Number.
func FromValue(v any) *Document {
	return classify(v, Nesting{})
}

func classify(v any, nesting Nesting) *Document {
	d := &Document{Nesting: nesting}
	switch v := v.(type) {
	case nil:
		d.Kind = Null
	case bool:
		d.Kind, d.Bool = Bool, v
	case string:
		d.Kind, d.String = String, v
	case json.Number:
		if n, err := v.Int64(); err == nil {
			d.Kind, d.Number = Number, n
		} else {
			d.Kind, d.String, d.FromNumber = String, v.String(), true
		}
	case float64:
		d.Kind, d.String, d.FromNumber = String, fmt.Sprint(v), true
	case []any:
		classifyList(d, v)
	case map[string]any:
		d.Kind = Map
		d.Fields = make(map[string]*Document, len(v))
		for key, item := range v {
			d.Keys = append(d.Keys, key)
			d.Fields[key] = classify(item, nesting.Child(Key(key)))
		}
		slices.Sort(d.Keys)
	default:
		panic(fmt.Sprintf("jsondoc: unexpected decoded type %T", v))
	}
	return d
}

func classifyList(d *Document, v []any) {
	items := make([]*Document, len(v))
	for i, item := range v {
		items[i] = classify(item, d.Nesting.Child(Elem(i)))
	}
	switch len(elementTypes(items)) {
	case 0:
		d.Kind, d.Raw = EmptyCantInfer, v
	case 1:
		d.Kind, d.Items = List, items
	default:
		d.Kind, d.Raw = NonHomogeneousCantParse, v
	}
}

// elementTypes returns the distinct shapes among items, ignoring empty
// arrays.
func elementTypes(items []*Document) []string {
	var out []string
	for _, item := range items {
		if item.Kind == EmptyCantInfer {
			continue
		}
		if t := item.DocType(); !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

// DocType is a structural signature: two documents have the same DocType
// when they have the same shape, regardless of values and key order.
func (d *Document) DocType() string {
	switch d.Kind {
	case List:
		types := elementTypes(d.Items)
		return "List<" + strings.Join(types, "|") + ">"
	case Map:
		parts := make([]string, len(d.Keys))
		for i, key := range d.Keys {
			parts[i] = fmt.Sprintf("%q:%s", key, d.Fields[key].DocType())
		}
		return "Map{" + strings.Join(parts, ",") + "}"
	}
	return d.Kind.String()
}

// Children returns list items in order, or map values in key order.
func (d *Document) Children() []*Document {
	switch d.Kind {
	case List:
		return d.Items
	case Map:
		out := make([]*Document, len(d.Keys))
		for i, key := range d.Keys {
			out[i] = d.Fields[key]
		}
		return out
	}
	return nil
}

// Walk yields d and every node below it in depth-first pre-order.
func (d *Document) Walk() iter.Seq[*Document] {
	return func(yield func(*Document) bool) {
		d.walk(yield)
	}
}

func (d *Document) walk(yield func(*Document) bool) bool {
	if !yield(d) {
		return false
	}
	for _, c := range d.Children() {
		if !c.walk(yield) {
			return false
		}
	}
	return true
}

// Find returns the node at nesting.
func (d *Document) Find(nesting Nesting) (*Document, bool) {
	cur := d
	for _, step := range nesting {
		switch {
		case step.Kind == MapKey && cur.Kind == Map:
			next, ok := cur.Fields[step.Key]
			if !ok {
				return nil, false
			}
			cur = next
		case step.Kind == ListElement && cur.Kind == List:
			if step.Index < 0 || step.Index >= len(cur.Items) {
				return nil, false
			}
			cur = cur.Items[step.Index]
		default:
			return nil, false
		}
	}
	return cur, true
}

// SelectableFields lists the scalar nodes a user can pick as typed fields.
// Lists contribute their first typed element only, and nothing under an
// error marker is offered.
func (d *Document) SelectableFields() []*Document {
	var out []*Document
	var visit func(*Document)
	visit = func(n *Document) {
		switch {
		case n.Kind.IsScalar():
			out = append(out, n)
		case n.Kind == Map:
			for _, key := range n.Keys {
				visit(n.Fields[key])
			}
		case n.Kind == List:
			for _, item := range n.Items {
				if item.Kind != EmptyCantInfer {
					visit(item)
					return
				}
			}
		}
	}
	visit(d)
	return out
}

// ScalarTypespecID is the builtin typespec a scalar node maps to. Calling
// it on anything else is a programming error: selection never offers
// composite or error nodes.
func (d *Document) ScalarTypespecID() typesystem.ID {
	switch d.Kind {
	case Null:
		return config.NullTypespecID
	case Bool:
		return config.BooleanTypespecID
	case String:
		return config.StringTypespecID
	case Number:
		return config.NumberTypespecID
	}
	panic(fmt.Sprintf("jsondoc: %s at %s has no scalar type", d.Kind, d.Nesting))
}
