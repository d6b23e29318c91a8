package schema

import (
	"slices"
	"strings"

	"github.com/funvibe/nodecore/internal/evaluator"
	"github.com/funvibe/nodecore/internal/symbols"
	"github.com/funvibe/nodecore/internal/typesystem"
	"github.com/zeebo/xxh3"
)

// RootName names the struct a response spec lowers to at its root.
const RootName = "Response"

const derivedFieldDoc = "Auto derived by JSON inspector"

// Result is a lowered spec: the type it denotes and the structs that have
// to be registered for that type to resolve.
type Result struct {
	Type       typesystem.Type
	NewStructs []*typesystem.Struct
}

// Register adds the new structs to env.
func (r Result) Register(env *evaluator.Environment) {
	for _, s := range r.NewStructs {
		env.AddTypeSpec(s)
	}
}

// ClientReturnType is the type a generated HTTP client produces for r:
// requests can always fail.
func (r Result) ClientReturnType() typesystem.Type {
	return typesystem.ResultOf(r.Type, typesystem.HTTPErrorType)
}

// StructIDs lists the ids of NewStructs.
func (r Result) StructIDs() []ID {
	ids := make([]ID, len(r.NewStructs))
	for i, s := range r.NewStructs {
		ids[i] = s.ID()
	}
	return ids
}

// Lower converts spec into concrete types bottom-up. A struct whose fields
// have the same names and types as a struct already in the table, or as
// one created earlier in this pass, reuses that struct's id.
func Lower(spec *ReturnTypeSpec, rootName string, table *symbols.Table) Result {
	l := &lowerer{index: newStructIndex()}
	for _, s := range table.ListStructs() {
		l.index.add(s)
	}
	typ := l.lower(spec, rootName)
	return Result{Type: typ, NewStructs: l.created}
}

type lowerer struct {
	index   *structIndex
	created []*typesystem.Struct
}

func (l *lowerer) lower(spec *ReturnTypeSpec, name string) typesystem.Type {
	switch spec.Kind {
	case ScalarSpec:
		return typesystem.FromSpecID(spec.TypespecID)
	case ListSpec:
		return typesystem.ListOf(l.lower(spec.Elem, name))
	}
	keys := spec.Keys()
	fields := make([]typesystem.StructField, len(keys))
	for i, key := range keys {
		fields[i] = typesystem.NewStructField(key, derivedFieldDoc, l.lower(spec.Fields[key], key))
	}
	if id, ok := l.index.find(fields); ok {
		return typesystem.FromSpecID(id)
	}
	s := typesystem.NewStruct(name, "", fields...)
	l.index.add(s)
	l.created = append(l.created, s)
	return typesystem.FromSpec(s)
}

// structIndex finds structs by their normalised field signature. Buckets
// are keyed by the xxh3 hash of the signature and hold the full signature
// to rule out collisions.
type structIndex struct {
	buckets map[uint64][]indexEntry
}

type indexEntry struct {
	signature string
	id        ID
}

func newStructIndex() *structIndex {
	return &structIndex{buckets: make(map[uint64][]indexEntry)}
}

func (x *structIndex) add(s *typesystem.Struct) {
	sig := signature(s.Fields)
	h := xxh3.HashString(sig)
	for _, e := range x.buckets[h] {
		if e.signature == sig {
			return
		}
	}
	x.buckets[h] = append(x.buckets[h], indexEntry{signature: sig, id: s.ID()})
}

func (x *structIndex) find(fields []typesystem.StructField) (ID, bool) {
	sig := signature(fields)
	for _, e := range x.buckets[xxh3.HashString(sig)] {
		if e.signature == sig {
			return e.id, true
		}
	}
	return ID{}, false
}

// signature is the sorted list of (field name, field type hash) pairs.
// Field ids, descriptions and order don't take part.
func signature(fields []typesystem.StructField) string {
	pairs := make([]string, len(fields))
	for i, f := range fields {
		pairs[i] = f.Name + "\x00" + f.FieldType.Hash().String()
	}
	slices.Sort(pairs)
	return strings.Join(pairs, "\n")
}
