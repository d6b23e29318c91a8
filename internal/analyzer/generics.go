package analyzer

import (
	"github.com/funvibe/nodecore/internal/ast"
	"github.com/funvibe/nodecore/internal/evaluator"
	"github.com/funvibe/nodecore/internal/typesystem"
)

// Substitution is one concrete type found for a generic parameter, read
// from the argument passed for ArgID.
type Substitution struct {
	GenericID ID
	ArgID     ID
	Type      typesystem.Type
}

// ResolveReturnType specialises the callee's declared return type with the
// generic substitutions implied by the call's arguments.
func (g *Genie) ResolveReturnType(call *ast.FunctionCall) (typesystem.Type, bool) {
	return g.resolveReturnType(call, visitSet{})
}

// ResolveArgumentType specialises the declared type of one argument slot,
// which tells what may be passed there.
func (g *Genie) ResolveArgumentType(arg *ast.Argument) (typesystem.Type, bool) {
	return g.resolveArgumentType(arg, visitSet{})
}

func (g *Genie) resolveReturnType(call *ast.FunctionCall, visited visitSet) (typesystem.Type, bool) {
	fn, ok := g.table.FindFunction(call.FunctionID())
	if !ok {
		return typesystem.Type{}, false
	}
	return g.specialise(fn, call, fn.Returns(), visited), true
}

func (g *Genie) resolveArgumentType(arg *ast.Argument, visited visitSet) (typesystem.Type, bool) {
	call, ok := g.enclosingCall(arg)
	if !ok {
		declared, found := g.table.TypeForArg(arg.ArgumentDefinitionID)
		return declared, found
	}
	fn, ok := g.table.FindFunction(call.FunctionID())
	if !ok {
		return typesystem.Type{}, false
	}
	for _, def := range fn.TakesArgs() {
		if def.ID == arg.ArgumentDefinitionID {
			return g.specialise(fn, call, def.ArgType, visited), true
		}
	}
	return typesystem.Type{}, false
}

// specialise replaces every occurrence of each of fn's generics in target.
// Only the first argument that pins a generic down is used.
func (g *Genie) specialise(fn evaluator.Function, call *ast.FunctionCall, target typesystem.Type, visited visitSet) typesystem.Type {
	out := target.Clone()
	for _, generic := range fn.DefinesGenerics() {
		paths := target.FindTypespecIDPaths(generic.ID())
		if len(paths) == 0 {
			continue
		}
		subs := g.substitutions(fn, call, generic.ID(), visited, true)
		if len(subs) == 0 {
			continue
		}
		for _, path := range paths {
			out, _ = out.SetParamAt(path, subs[0].Type)
		}
	}
	return out
}

// substitutions guesses the passed argument of every slot declared with
// genericID and reads the concrete type at the generic's position.
func (g *Genie) substitutions(fn evaluator.Function, call *ast.FunctionCall, genericID ID, visited visitSet, firstOnly bool) []Substitution {
	passed := map[ID]*ast.Argument{}
	for _, a := range call.Arguments() {
		passed[a.ArgumentDefinitionID] = a
	}
	var out []Substitution
	for _, def := range fn.TakesArgs() {
		paths := def.ArgType.FindTypespecIDPaths(genericID)
		if len(paths) == 0 {
			continue
		}
		arg, ok := passed[def.ID]
		if !ok {
			continue
		}
		guessed, ok := g.guessTypeRec(arg.Expr, visited)
		if !ok {
			continue
		}
		for _, path := range paths {
			concrete, ok := guessed.ParamAt(path)
			if !ok || concrete.TypespecID == genericID {
				continue
			}
			out = append(out, Substitution{GenericID: genericID, ArgID: def.ID, Type: concrete})
			if firstOnly {
				return out
			}
			break
		}
	}
	return out
}

// GenericConflict reports a generic parameter that later arguments would
// resolve differently from the first one. Resolution itself still uses
// First.
type GenericConflict struct {
	First Substitution
	Other Substitution
}

// GenericConflicts lists disagreeing substitutions at a call site.
func (g *Genie) GenericConflicts(call *ast.FunctionCall) []GenericConflict {
	fn, ok := g.table.FindFunction(call.FunctionID())
	if !ok {
		return nil
	}
	var out []GenericConflict
	for _, generic := range fn.DefinesGenerics() {
		subs := g.substitutions(fn, call, generic.ID(), visitSet{}, false)
		for _, other := range subs[min(1, len(subs)):] {
			if !other.Type.Equal(subs[0].Type) {
				out = append(out, GenericConflict{First: subs[0], Other: other})
			}
		}
	}
	return out
}
