package jsondoc

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

type NestKind uint8

const (
	ListElement NestKind = iota
	MapKey
)

// Nest is one step from a document node to one of its children.
type Nest struct {
	Kind  NestKind
	Index int
	Key   string
}

func Elem(index int) Nest { return Nest{Kind: ListElement, Index: index} }
func Key(key string) Nest { return Nest{Kind: MapKey, Key: key} }

func (n Nest) String() string {
	if n.Kind == ListElement {
		return "[" + strconv.Itoa(n.Index) + "]"
	}
	return "." + n.Key
}

type nestWire struct {
	ListElement *int    `json:"ListElement,omitempty"`
	MapKey      *string `json:"MapKey,omitempty"`
}

func (n Nest) MarshalJSON() ([]byte, error) {
	if n.Kind == ListElement {
		return json.Marshal(nestWire{ListElement: &n.Index})
	}
	return json.Marshal(nestWire{MapKey: &n.Key})
}

func (n *Nest) UnmarshalJSON(data []byte) error {
	var w nestWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch {
	case w.ListElement != nil && w.MapKey == nil:
		*n = Elem(*w.ListElement)
	case w.MapKey != nil && w.ListElement == nil:
		*n = Key(*w.MapKey)
	default:
		return fmt.Errorf("nest step needs exactly one of ListElement or MapKey: %s", data)
	}
	return nil
}

// Nesting is the path from the document root to a node. The root has an
// empty nesting.
type Nesting []Nest

func (n Nesting) String() string {
	var sb strings.Builder
	sb.WriteString("$")
	for _, step := range n {
		sb.WriteString(step.String())
	}
	return sb.String()
}

func (n Nesting) Equal(other Nesting) bool {
	return slices.Equal(n, other)
}

// Child returns a new nesting one step deeper; n is not modified.
func (n Nesting) Child(step Nest) Nesting {
	out := make(Nesting, len(n), len(n)+1)
	copy(out, n)
	return append(out, step)
}

// ParseNesting reads the form produced by Nesting.String, such as
// "$.items[0].id". The leading "$" is optional. Keys can't contain "." or
// "[".
func ParseNesting(s string) (Nesting, error) {
	rest := strings.TrimPrefix(strings.TrimSpace(s), "$")
	out := Nesting{}
	for rest != "" {
		switch rest[0] {
		case '.':
			end := strings.IndexAny(rest[1:], ".[")
			if end < 0 {
				end = len(rest) - 1
			}
			key := rest[1 : end+1]
			if key == "" {
				return nil, fmt.Errorf("empty key in %q", s)
			}
			out = append(out, Key(key))
			rest = rest[end+1:]
		case '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, fmt.Errorf("unclosed index in %q", s)
			}
			i, err := strconv.Atoi(rest[1:end])
			if err != nil || i < 0 {
				return nil, fmt.Errorf("bad index %q in %q", rest[1:end], s)
			}
			out = append(out, Elem(i))
			rest = rest[end+1:]
		default:
			return nil, errors.New("path step must start with '.' or '[': " + s)
		}
	}
	return out, nil
}

// FieldName derives a field name from the map keys along the path, joined
// by "-". Paths without map keys give "".
func FieldName(n Nesting) string {
	var keys []string
	for _, step := range n {
		if step.Kind == MapKey {
			keys = append(keys, step.Key)
		}
	}
	return strings.Join(keys, "-")
}
