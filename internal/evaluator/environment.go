package evaluator

import (
	"bytes"
	"maps"
	"slices"

	"github.com/funvibe/nodecore/internal/typesystem"
)

// Environment holds the registries of one world: every function and
// typespec by id, plus the most recent value each code node produced. It is
// owned by a single evaluation loop and is not safe for concurrent use.
type Environment struct {
	functions  map[ID]Function
	typespecs  map[ID]typesystem.TypeSpec
	results    map[ID]Value
	generation uint64
}

// NewEnvironment returns an environment with the builtin typespecs and
// functions registered.
func NewEnvironment() *Environment {
	env := &Environment{
		functions: make(map[ID]Function),
		typespecs: make(map[ID]typesystem.TypeSpec),
		results:   make(map[ID]Value),
	}
	for _, spec := range typesystem.Builtins() {
		env.AddTypeSpec(spec)
	}
	for _, fn := range Builtins() {
		env.AddFunction(fn)
	}
	return env
}

// AddFunction registers f, replacing any function with the same id.
func (env *Environment) AddFunction(f Function) {
	env.functions[f.ID()] = f
	env.generation++
}

func (env *Environment) DeleteFunction(id ID) {
	delete(env.functions, id)
	env.generation++
}

// AddTypeSpec registers spec, replacing any typespec with the same id.
func (env *Environment) AddTypeSpec(spec typesystem.TypeSpec) {
	env.typespecs[spec.ID()] = spec
	env.generation++
}

func (env *Environment) DeleteTypeSpec(id ID) {
	delete(env.typespecs, id)
	env.generation++
}

func (env *Environment) Function(id ID) (Function, bool) {
	f, ok := env.functions[id]
	return f, ok
}

func (env *Environment) TypeSpec(id ID) (typesystem.TypeSpec, bool) {
	spec, ok := env.typespecs[id]
	return spec, ok
}

// Functions returns every registered function ordered by id.
func (env *Environment) Functions() []Function {
	return sortedByID(env.functions, Function.ID)
}

// TypeSpecs returns every registered typespec ordered by id.
func (env *Environment) TypeSpecs() []typesystem.TypeSpec {
	return sortedByID(env.typespecs, typesystem.TypeSpec.ID)
}

// Generation changes whenever a registry is modified. Caches keyed on it
// are invalidated by construction.
func (env *Environment) Generation() uint64 {
	return env.generation
}

// LastResult returns the value the node with id produced in the most
// recent evaluation that reached it.
func (env *Environment) LastResult(id ID) (Value, bool) {
	v, ok := env.results[id]
	return v, ok
}

func (env *Environment) recordResult(id ID, v Value) {
	env.results[id] = v
}

func sortedByID[T any](m map[ID]T, id func(T) ID) []T {
	out := slices.Collect(maps.Values(m))
	slices.SortFunc(out, func(a, b T) int {
		ia, ib := id(a), id(b)
		return bytes.Compare(ia[:], ib[:])
	})
	return out
}
