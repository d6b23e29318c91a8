// symbols/symbol_table.go - read-only queries over a world's registries
//
// The package is split by concern:
// - symbol_table.go: Table, function and typespec lookups, listings
// - symbol_table_types.go: rendering types, searching typespecs, typing values
// - symbol_table_args.go: argument definitions and the blocks that can see them

package symbols

import (
	"github.com/funvibe/nodecore/internal/evaluator"
	"github.com/funvibe/nodecore/internal/typesystem"
	lru "github.com/hashicorp/golang-lru/v2"
)

type ID = typesystem.ID

// Table answers questions about the functions and typespecs registered in
// an environment. It never modifies the environment.
type Table struct {
	env  *evaluator.Environment
	args *lru.Cache[argKey, argEntry]
}

// NewTable wraps env. cacheSize bounds the memoised argument lookups; zero
// or less disables the cache.
func NewTable(env *evaluator.Environment, cacheSize int) *Table {
	t := &Table{env: env}
	if cacheSize > 0 {
		// New only fails for a non-positive size
		t.args, _ = lru.New[argKey, argEntry](cacheSize)
	}
	return t
}

func (t *Table) Env() *evaluator.Environment {
	return t.env
}

func (t *Table) FindFunction(id ID) (evaluator.Function, bool) {
	return t.env.Function(id)
}

// FindTypeSpec looks in the registry first, then among the generic params
// declared by function signatures.
func (t *Table) FindTypeSpec(id ID) (typesystem.TypeSpec, bool) {
	if spec, ok := t.env.TypeSpec(id); ok {
		return spec, true
	}
	for _, fn := range t.env.Functions() {
		for _, g := range fn.DefinesGenerics() {
			if g.ID() == id {
				return g, true
			}
		}
	}
	return nil, false
}

func (t *Table) FindStruct(id ID) (*typesystem.Struct, bool) {
	spec, ok := t.env.TypeSpec(id)
	if !ok {
		return nil, false
	}
	s, ok := spec.(*typesystem.Struct)
	return s, ok
}

func (t *Table) FindEnum(id ID) (*typesystem.Enum, bool) {
	spec, ok := t.env.TypeSpec(id)
	if !ok {
		return nil, false
	}
	e, ok := spec.(*typesystem.Enum)
	return e, ok
}

func (t *Table) FindStructField(structID, fieldID ID) (typesystem.StructField, bool) {
	s, ok := t.FindStruct(structID)
	if !ok {
		return typesystem.StructField{}, false
	}
	return s.Field(fieldID)
}

// FindEnumVariant searches every registered enum for the variant.
func (t *Table) FindEnumVariant(variantID ID) (*typesystem.Enum, typesystem.EnumVariant, bool) {
	for _, e := range t.ListEnums() {
		if v, ok := e.Variant(variantID); ok {
			return e, v, true
		}
	}
	return nil, typesystem.EnumVariant{}, false
}

func (t *Table) ListStructs() []*typesystem.Struct {
	return specsOf[*typesystem.Struct](t.env)
}

func (t *Table) ListEnums() []*typesystem.Enum {
	return specsOf[*typesystem.Enum](t.env)
}

func (t *Table) ListCodeFuncs() []*evaluator.CodeFunction {
	return functionsOf[*evaluator.CodeFunction](t.env)
}

func (t *Table) ListJSONHTTPClients() []*evaluator.JSONHTTPClient {
	return functionsOf[*evaluator.JSONHTTPClient](t.env)
}

func (t *Table) ListChatTriggers() []*evaluator.ChatTrigger {
	return functionsOf[*evaluator.ChatTrigger](t.env)
}

func specsOf[T typesystem.TypeSpec](env *evaluator.Environment) []T {
	var out []T
	for _, spec := range env.TypeSpecs() {
		if s, ok := spec.(T); ok {
			out = append(out, s)
		}
	}
	return out
}

func functionsOf[T evaluator.Function](env *evaluator.Environment) []T {
	var out []T
	for _, fn := range env.Functions() {
		if f, ok := fn.(T); ok {
			out = append(out, f)
		}
	}
	return out
}
