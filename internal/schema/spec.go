// Package schema turns JSON paths picked from an example document into
// types: a transient ReturnTypeSpec tree is built from the selection, then
// lowered into a Type plus the struct typespecs it needs.
package schema

import (
	"fmt"
	"slices"
	"strings"

	"github.com/funvibe/nodecore/internal/config"
	"github.com/funvibe/nodecore/internal/jsondoc"
	"github.com/funvibe/nodecore/internal/typesystem"
)

type ID = typesystem.ID

// SelectedField is one JSON path chosen to appear in a generated type.
type SelectedField struct {
	Name       string
	Nesting    jsondoc.Nesting
	TypespecID ID
}

type SpecKind uint8

const (
	ScalarSpec SpecKind = iota
	ListSpec
	StructSpec
)

func (k SpecKind) String() string {
	switch k {
	case ScalarSpec:
		return "Scalar"
	case ListSpec:
		return "List"
	case StructSpec:
		return "Struct"
	}
	return fmt.Sprintf("SpecKind(%d)", k)
}

// ReturnTypeSpec is the mutable shape built while inserting selected paths.
// A Scalar that a deeper path passes through is rewritten in place into a
// Struct or a List.
type ReturnTypeSpec struct {
	Kind SpecKind
	// TypespecID is set for ScalarSpec.
	TypespecID ID
	// Elem is set for ListSpec.
	Elem *ReturnTypeSpec
	// Fields is set for StructSpec.
	Fields map[string]*ReturnTypeSpec
}

func Scalar(typespecID ID) *ReturnTypeSpec {
	return &ReturnTypeSpec{Kind: ScalarSpec, TypespecID: typespecID}
}

func ListOf(elem *ReturnTypeSpec) *ReturnTypeSpec {
	return &ReturnTypeSpec{Kind: ListSpec, Elem: elem}
}

func StructOf(fields map[string]*ReturnTypeSpec) *ReturnTypeSpec {
	if fields == nil {
		fields = map[string]*ReturnTypeSpec{}
	}
	return &ReturnTypeSpec{Kind: StructSpec, Fields: fields}
}

func placeholder() *ReturnTypeSpec {
	return Scalar(config.NullTypespecID)
}

// Keys returns the struct field names in sorted order.
func (s *ReturnTypeSpec) Keys() []string {
	keys := make([]string, 0, len(s.Fields))
	for k := range s.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (s *ReturnTypeSpec) Equal(other *ReturnTypeSpec) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.Kind != other.Kind {
		return false
	}
	switch s.Kind {
	case ScalarSpec:
		return s.TypespecID == other.TypespecID
	case ListSpec:
		return s.Elem.Equal(other.Elem)
	}
	if len(s.Fields) != len(other.Fields) {
		return false
	}
	for k, v := range s.Fields {
		if !v.Equal(other.Fields[k]) {
			return false
		}
	}
	return true
}

// String renders the shape with typespec ids shortened, for logs and test
// failures.
func (s *ReturnTypeSpec) String() string {
	switch s.Kind {
	case ScalarSpec:
		return s.TypespecID.String()[:8]
	case ListSpec:
		return "[" + s.Elem.String() + "]"
	}
	parts := make([]string, 0, len(s.Fields))
	for _, k := range s.Keys() {
		parts = append(parts, k+": "+s.Fields[k].String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (s *ReturnTypeSpec) becomeStruct() {
	if s.Kind != StructSpec {
		*s = *StructOf(nil)
	}
}

func (s *ReturnTypeSpec) becomeList() {
	if s.Kind != ListSpec {
		*s = *ListOf(placeholder())
	}
}

// BuildSpec inserts every selected path into one tree. A single field
// selected at the document root gives a bare Scalar; otherwise the root is
// a Struct.
//
// Walking a path, a MapKey step turns a placeholder into a Struct and a
// ListElement step turns any non-list node into a List. A MapKey step that
// meets a List drops its field, so between a list and a struct selected at
// the same path the list wins. The node reached at the end of a path takes
// the field's scalar type only while it is still a placeholder, so a field
// selected above a deeper one gives way to it. Neither rule depends on the
// selection order.
func BuildSpec(fields []SelectedField) *ReturnTypeSpec {
	if len(fields) == 1 && len(fields[0].Nesting) == 0 {
		return Scalar(fields[0].TypespecID)
	}
	root := StructOf(nil)
fields:
	for _, f := range fields {
		node := root
		for _, step := range f.Nesting {
			switch step.Kind {
			case jsondoc.MapKey:
				if node.Kind == ListSpec {
					continue fields
				}
				node.becomeStruct()
				child, ok := node.Fields[step.Key]
				if !ok {
					child = placeholder()
					node.Fields[step.Key] = child
				}
				node = child
			case jsondoc.ListElement:
				node.becomeList()
				node = node.Elem
			}
		}
		if node.Kind == ScalarSpec {
			node.TypespecID = f.TypespecID
		}
	}
	return root
}

// FromDocument derives the spec of a whole document: every scalar keeps
// its own type and lists take the shape of their first typed element. Map
// entries holding an array that can't be typed are left out.
func FromDocument(d *jsondoc.Document) (*ReturnTypeSpec, error) {
	switch {
	case d.Kind.IsScalar():
		return Scalar(d.ScalarTypespecID()), nil
	case d.Kind == jsondoc.List:
		for _, item := range d.Items {
			if item.Kind == jsondoc.EmptyCantInfer {
				continue
			}
			elem, err := FromDocument(item)
			if err != nil {
				return nil, err
			}
			return ListOf(elem), nil
		}
	case d.Kind == jsondoc.Map:
		fields := make(map[string]*ReturnTypeSpec, len(d.Keys))
		for _, key := range d.Keys {
			child := d.Fields[key]
			if child.Kind.IsError() {
				continue
			}
			spec, err := FromDocument(child)
			if err != nil {
				return nil, err
			}
			fields[key] = spec
		}
		return StructOf(fields), nil
	}
	return nil, fmt.Errorf("%s at %s has no type", d.Kind, d.Nesting)
}
