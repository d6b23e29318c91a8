package analyzer

import (
	"github.com/funvibe/nodecore/internal/ast"
	"github.com/funvibe/nodecore/internal/config"
	"github.com/funvibe/nodecore/internal/typesystem"
)

// visitSet holds the node ids on the current guessing path. Reaching one of
// them again means the type depends on itself and cannot be determined.
type visitSet map[ID]struct{}

func (v visitSet) enter(id ID) bool {
	if _, seen := v[id]; seen {
		return false
	}
	v[id] = struct{}{}
	return true
}

func (v visitSet) leave(id ID) { delete(v, id) }

// GuessType infers what n evaluates to from the structure of the tree
// alone. false means the type cannot be determined; callers usually fall
// back to a placeholder type.
func (g *Genie) GuessType(n ast.Node) (typesystem.Type, bool) {
	return g.guessTypeRec(n, visitSet{})
}

func (g *Genie) guessTypeRec(n ast.Node, visited visitSet) (typesystem.Type, bool) {
	if n == nil || !visited.enter(n.ID()) {
		return typesystem.Type{}, false
	}
	defer visited.leave(n.ID())

	typ, ok := g.guessNode(n, visited)
	if !ok {
		return typ, false
	}
	if spec, found := g.table.FindTypeSpec(typ.TypespecID); found && typesystem.IsGeneric(spec) {
		return g.resolveFromEnclosingArgs(n, typ.TypespecID, visited), true
	}
	return typ, true
}

func (g *Genie) guessNode(n ast.Node, visited visitSet) (typesystem.Type, bool) {
	switch n := n.(type) {
	case *ast.FunctionCall:
		if _, ok := g.table.FindFunction(n.FunctionID()); !ok {
			return typesystem.NullType, true
		}
		return g.resolveReturnType(n, visited)
	case *ast.FunctionReference:
		return typesystem.NullType, true
	case *ast.Argument:
		return g.resolveArgumentType(n, visited)
	case *ast.StringLiteral:
		return typesystem.StringType, true
	case *ast.NumberLiteral:
		return typesystem.NumberType, true
	case *ast.NullLiteral:
		return typesystem.NullType, true
	case *ast.ListLiteral:
		return typesystem.ListOf(n.ElementType), true
	case *ast.StructLiteral:
		if _, ok := g.table.FindStruct(n.StructID); !ok {
			return typesystem.Type{}, false
		}
		return typesystem.FromSpecID(n.StructID), true
	case *ast.StructLiteralField:
		lit, ok := g.parents[n.ID()].(*ast.StructLiteral)
		if !ok {
			return typesystem.Type{}, false
		}
		field, ok := g.table.FindStructField(lit.StructID, n.StructFieldID)
		return field.FieldType, ok
	case *ast.Assignment:
		return g.guessTypeRec(n.Expr, visited)
	case *ast.Reassignment:
		return g.guessTypeRec(n.Expr, visited)
	case *ast.ReassignListIndex:
		return typesystem.ResultOf(typesystem.NullType, typesystem.NumberType), true
	case *ast.Block:
		if len(n.Exprs) == 0 {
			return typesystem.NullType, true
		}
		return g.guessTypeRec(n.Exprs[len(n.Exprs)-1], visited)
	case *ast.AnonymousFunction:
		return n.Type(), true
	case *ast.VariableReference:
		a, ok := g.FindAntecedentForVariableReference(n)
		if !ok {
			return typesystem.Type{}, false
		}
		return g.antecedentType(a, visited)
	case *ast.Placeholder:
		return n.Type, true
	case *ast.Conditional:
		return g.guessTypeRec(n.TrueBranch, visited)
	case *ast.Match:
		ids := n.VariantIDs()
		if len(ids) == 0 {
			return typesystem.Type{}, false
		}
		return g.guessTypeRec(n.Branches[ids[0]], visited)
	case *ast.ForLoop, *ast.WhileLoop:
		return typesystem.NullType, true
	case *ast.StructFieldGet:
		return g.guessFieldGet(n, visited)
	case *ast.ListIndex:
		listType, ok := g.guessTypeRec(n.ListExpr, visited)
		if !ok {
			return typesystem.Type{}, false
		}
		elem, ok := listElemType(listType)
		if !ok {
			return typesystem.Type{}, false
		}
		return typesystem.ResultOf(elem, typesystem.NullType), true
	case *ast.EnumVariantLiteral:
		return n.Type, true
	case *ast.EarlyReturn:
		return g.guessTypeRec(n.Expr, visited)
	case *ast.Try:
		inner, ok := g.guessTypeRec(n.MaybeErrorExpr, visited)
		if !ok {
			return typesystem.Type{}, false
		}
		if t, ok := typesystem.OkTypeOf(inner); ok {
			return t, true
		}
		return typesystem.SomeTypeOf(inner)
	}
	return typesystem.Type{}, false
}

func (g *Genie) guessFieldGet(n *ast.StructFieldGet, visited visitSet) (typesystem.Type, bool) {
	if st, ok := g.guessTypeRec(n.StructExpr, visited); ok {
		if field, ok := g.table.FindStructField(st.TypespecID, n.StructFieldID); ok {
			return field.FieldType, true
		}
	}
	for _, s := range g.table.ListStructs() {
		if field, ok := s.Field(n.StructFieldID); ok {
			return field.FieldType, true
		}
	}
	return typesystem.Type{}, false
}

func listElemType(t typesystem.Type) (typesystem.Type, bool) {
	if t.TypespecID != config.ListTypespecID || len(t.Params) != 1 {
		return typesystem.Type{}, false
	}
	return t.Params[0], true
}

// antecedentType is the type of the value an antecedent binds.
func (g *Genie) antecedentType(a VariableAntecedent, visited visitSet) (typesystem.Type, bool) {
	switch a := a.(type) {
	case AssignmentAntecedent:
		return g.guessTypeRec(a.Assignment.Expr, visited)
	case ForLoopAntecedent:
		listType, ok := g.guessTypeRec(a.Loop.ListExpr, visited)
		if !ok {
			return typesystem.Type{}, false
		}
		return listElemType(listType)
	case AnonFuncArgument:
		return g.anonFuncArgType(a.Func, visited), true
	case FunctionArgument:
		return a.Arg.ArgType, true
	case MatchVariant:
		subject, ok := g.guessTypeRec(a.Match.Subject, visited)
		if !ok {
			return typesystem.Type{}, false
		}
		e, ok := g.table.FindEnum(subject.TypespecID)
		if !ok {
			return typesystem.Type{}, false
		}
		return e.VariantType(a.VariantID, subject.Params)
	}
	return typesystem.Type{}, false
}

// anonFuncArgType narrows a generic parameter type of an anonymous function
// passed as a call argument, e.g. the T of the mapper given to Map.
func (g *Genie) anonFuncArgType(fn *ast.AnonymousFunction, visited visitSet) typesystem.Type {
	declared := fn.TakesArg.ArgType
	if !g.isGeneric(declared) {
		return declared
	}
	arg, ok := g.parents[fn.ID()].(*ast.Argument)
	if !ok {
		return declared
	}
	slot, ok := g.resolveArgumentType(arg, visited)
	if !ok || slot.TypespecID != config.AnonFuncTypespecID || len(slot.Params) != 2 {
		return declared
	}
	if g.isGeneric(slot.Params[0]) {
		return declared
	}
	return slot.Params[0]
}

func (g *Genie) isGeneric(t typesystem.Type) bool {
	spec, ok := g.table.FindTypeSpec(t.TypespecID)
	return ok && typesystem.IsGeneric(spec)
}

// resolveFromEnclosingArgs looks for a concrete type for a bare generic
// parameter among the arguments of the calls enclosing n: the first slot
// declared as exactly that generic which the call's arguments specialise
// wins.
func (g *Genie) resolveFromEnclosingArgs(n ast.Node, genericID ID, visited visitSet) typesystem.Type {
	candidates := []ast.Node{n}
	for ancestor := range g.Ancestors(n.ID()) {
		candidates = append(candidates, ancestor)
	}
	for _, c := range candidates {
		arg, ok := c.(*ast.Argument)
		if !ok {
			continue
		}
		call, ok := g.enclosingCall(arg)
		if !ok {
			continue
		}
		for _, other := range call.Arguments() {
			declared, ok := g.table.TypeForArg(other.ArgumentDefinitionID)
			if !ok || declared.TypespecID != genericID {
				continue
			}
			resolved, ok := g.resolveArgumentType(other, visited)
			if ok && resolved.TypespecID != genericID {
				return resolved
			}
		}
	}
	return typesystem.FromSpecID(genericID)
}
