package typesystem

import (
	"fmt"
	"strings"

	"github.com/funvibe/nodecore/internal/config"
	"github.com/google/uuid"
)

// ID identifies every entity in a world: typespecs, functions, code nodes,
// struct fields, enum variants and argument definitions.
type ID = uuid.UUID

// NilID is the zero ID.
var NilID = uuid.Nil

func NewID() ID {
	return uuid.New()
}

// DeriveID returns a stable ID computed from name. Equal names give equal IDs.
func DeriveID(name string) ID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name))
}

// Type is a concrete instantiation of a TypeSpec, e.g. List<String>.
// Types are values: methods never mutate the receiver.
type Type struct {
	TypespecID ID     `json:"typespec_id"`
	Params     []Type `json:"params"`
}

// FromSpec builds a Type for spec. It panics when the number of params does
// not match the spec's arity.
func FromSpec(spec TypeSpec, params ...Type) Type {
	if len(params) != spec.NumParams() {
		panic(fmt.Sprintf("typespec %s takes %d params, got %d",
			spec.ReadableName(), spec.NumParams(), len(params)))
	}
	return Type{TypespecID: spec.ID(), Params: nonNil(params)}
}

// FromSpecID builds a Type without an arity check, for callers that only
// hold the typespec id.
func FromSpecID(id ID, params ...Type) Type {
	return Type{TypespecID: id, Params: nonNil(params)}
}

func ListOf(elem Type) Type {
	return FromSpec(List, elem)
}

func nonNil(params []Type) []Type {
	if params == nil {
		return []Type{}
	}
	return params
}

func (t Type) Equal(other Type) bool {
	if t.TypespecID != other.TypespecID || len(t.Params) != len(other.Params) {
		return false
	}
	for i := range t.Params {
		if !t.Params[i].Equal(other.Params[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy, so the result can be edited with SetParamAt
// without touching the original.
func (t Type) Clone() Type {
	params := make([]Type, len(t.Params))
	for i, p := range t.Params {
		params[i] = p.Clone()
	}
	return Type{TypespecID: t.TypespecID, Params: params}
}

// Hash is a name-based ID over the typespec id and the hashes of all params.
// Structurally equal types hash equally.
func (t Type) Hash() ID {
	parts := make([]string, 0, len(t.Params)+1)
	parts = append(parts, t.TypespecID.String())
	for _, p := range t.Params {
		parts = append(parts, p.Hash().String())
	}
	return DeriveID(strings.Join(parts, ":"))
}

// MatchesSpecID reports whether t is an instance of the typespec, treating
// Any on either side as a wildcard.
func (t Type) MatchesSpecID(id ID) bool {
	if t.TypespecID == config.AnyTypespecID || id == config.AnyTypespecID {
		return true
	}
	return t.TypespecID == id
}

// Matches compares two types structurally with Any as a wildcard at any depth.
func (t Type) Matches(other Type) bool {
	if t.TypespecID == config.AnyTypespecID || other.TypespecID == config.AnyTypespecID {
		return true
	}
	if t.TypespecID != other.TypespecID || len(t.Params) != len(other.Params) {
		return false
	}
	for i := range t.Params {
		if !t.Params[i].Matches(other.Params[i]) {
			return false
		}
	}
	return true
}

// ParamAt follows path through nested params. The empty path is t itself.
func (t Type) ParamAt(path []int) (Type, bool) {
	cur := t
	for _, i := range path {
		if i < 0 || i >= len(cur.Params) {
			return Type{}, false
		}
		cur = cur.Params[i]
	}
	return cur, true
}

// SetParamAt returns a copy of t with the param at path replaced.
func (t Type) SetParamAt(path []int, replacement Type) (Type, bool) {
	if len(path) == 0 {
		return replacement.Clone(), true
	}
	out := t.Clone()
	cur := &out
	for _, i := range path[:len(path)-1] {
		if i < 0 || i >= len(cur.Params) {
			return t, false
		}
		cur = &cur.Params[i]
	}
	last := path[len(path)-1]
	if last < 0 || last >= len(cur.Params) {
		return t, false
	}
	cur.Params[last] = replacement.Clone()
	return out, true
}

// PathsToParams lists the path of every node in the type tree, starting
// with the empty path for t itself, in pre-order.
func (t Type) PathsToParams() [][]int {
	var out [][]int
	var walk func(Type, []int)
	walk = func(cur Type, prefix []int) {
		path := make([]int, len(prefix))
		copy(path, prefix)
		out = append(out, path)
		for i, p := range cur.Params {
			walk(p, append(prefix, i))
		}
	}
	walk(t, []int{})
	return out
}

// FindTypespecIDPaths returns every path at which id occurs.
func (t Type) FindTypespecIDPaths(id ID) [][]int {
	var out [][]int
	for _, path := range t.PathsToParams() {
		if p, _ := t.ParamAt(path); p.TypespecID == id {
			out = append(out, path)
		}
	}
	return out
}

func (t Type) ContainsTypespecID(id ID) bool {
	return len(t.FindTypespecIDPaths(id)) > 0
}

// String renders the raw ids. Human-readable rendering needs the typespec
// registry and lives in the symbols package.
func (t Type) String() string {
	if len(t.Params) == 0 {
		return t.TypespecID.String()
	}
	params := make([]string, len(t.Params))
	for i, p := range t.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("%s<%s>", t.TypespecID, strings.Join(params, ","))
}
