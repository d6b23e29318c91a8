package analyzer

import (
	"iter"

	"github.com/funvibe/nodecore/internal/ast"
	"github.com/funvibe/nodecore/internal/typesystem"
)

// SearchPosition marks where in the tree a scope query is made. With
// IsSearchInclusive an assignment at BeforeCodeID itself is visible.
type SearchPosition struct {
	BeforeCodeID      ID
	IsSearchInclusive bool
}

// VariableAntecedent is the construct that binds a variable. The set of
// implementations is closed.
type VariableAntecedent interface {
	// AssignmentID is the binding-site id VariableReference nodes point to.
	AssignmentID() ID
	antecedent()
}

type AssignmentAntecedent struct {
	Assignment *ast.Assignment
}

type ForLoopAntecedent struct {
	Loop *ast.ForLoop
}

type AnonFuncArgument struct {
	Func *ast.AnonymousFunction
}

type FunctionArgument struct {
	Arg ast.ArgumentDefinition
}

// MatchVariant is the payload bound inside one branch of a match.
type MatchVariant struct {
	Match     *ast.Match
	VariantID ID
}

func (a AssignmentAntecedent) AssignmentID() ID { return a.Assignment.ID() }
func (a ForLoopAntecedent) AssignmentID() ID    { return a.Loop.ID() }
func (a AnonFuncArgument) AssignmentID() ID     { return a.Func.TakesArg.ID }
func (a FunctionArgument) AssignmentID() ID     { return a.Arg.ID }
func (a MatchVariant) AssignmentID() ID         { return a.Match.VariableID(a.VariantID) }

func (AssignmentAntecedent) antecedent() {}
func (ForLoopAntecedent) antecedent()    {}
func (AnonFuncArgument) antecedent()     {}
func (FunctionArgument) antecedent()     {}
func (MatchVariant) antecedent()         {}

// VariablesInScope yields every antecedent visible at pos, in this order:
// assignments before pos (nearest block first), the arguments of the
// function owning the tree, parameters of enclosing anonymous functions,
// payloads of enclosing match branches and variables of enclosing for
// loops.
func (g *Genie) VariablesInScope(pos SearchPosition) iter.Seq[VariableAntecedent] {
	return func(yield func(VariableAntecedent) bool) {
		for a := range g.assignmentsBefore(pos.BeforeCodeID, pos.IsSearchInclusive) {
			if !yield(AssignmentAntecedent{Assignment: a}) {
				return
			}
		}
		for _, def := range g.table.CodeTakesArgs(g.root.ID()) {
			if !yield(FunctionArgument{Arg: def}) {
				return
			}
		}
		for ancestor := range g.Ancestors(pos.BeforeCodeID) {
			if fn, ok := ancestor.(*ast.AnonymousFunction); ok {
				if !yield(AnonFuncArgument{Func: fn}) {
					return
				}
			}
		}
		for ancestor, child := range g.ancestorsWithChild(pos.BeforeCodeID) {
			m, ok := ancestor.(*ast.Match)
			if !ok {
				continue
			}
			for _, variantID := range m.VariantIDs() {
				if m.Branches[variantID] == child {
					if !yield(MatchVariant{Match: m, VariantID: variantID}) {
						return
					}
				}
			}
		}
		for ancestor, child := range g.ancestorsWithChild(pos.BeforeCodeID) {
			if loop, ok := ancestor.(*ast.ForLoop); ok && loop.Body == child {
				if !yield(ForLoopAntecedent{Loop: loop}) {
					return
				}
			}
		}
	}
}

// assignmentsBefore walks outward from the block expression containing id,
// yielding the assignments that come before it in each enclosing block.
// inclusive only applies to the innermost block.
func (g *Genie) assignmentsBefore(id ID, inclusive bool) iter.Seq[*ast.Assignment] {
	return func(yield func(*ast.Assignment) bool) {
		for {
			expr, ok := g.ExpressionInBlockContaining(id)
			if !ok {
				return
			}
			block := g.parents[expr.ID()].(*ast.Block)
			pos, _ := block.Position(expr.ID())
			if inclusive {
				pos++
			}
			for _, e := range block.Exprs[:pos] {
				if a, ok := e.(*ast.Assignment); ok {
					if !yield(a) {
						return
					}
				}
			}
			id, inclusive = block.ID(), false
		}
	}
}

// FindAntecedentForVariableReference resolves the binding a reference
// points to, searching the scope visible at the reference.
func (g *Genie) FindAntecedentForVariableReference(vr *ast.VariableReference) (VariableAntecedent, bool) {
	pos := SearchPosition{BeforeCodeID: vr.ID()}
	for a := range g.VariablesInScope(pos) {
		if a.AssignmentID() == vr.AssignmentID {
			return a, true
		}
	}
	return nil, false
}

// Variable is a named, typed local visible at some position.
type Variable struct {
	Antecedent VariableAntecedent
	ID         ID
	Type       typesystem.Type
	Name       string
}

// Locals lists the variables visible at pos. Antecedents whose type cannot
// be guessed are reported with the Null type.
func (g *Genie) Locals(pos SearchPosition) []Variable {
	var out []Variable
	for a := range g.VariablesInScope(pos) {
		typ, ok := g.antecedentType(a, visitSet{})
		if !ok {
			typ = typesystem.NullType
		}
		out = append(out, Variable{
			Antecedent: a,
			ID:         a.AssignmentID(),
			Type:       typ,
			Name:       g.antecedentName(a),
		})
	}
	return out
}

func (g *Genie) antecedentName(a VariableAntecedent) string {
	switch a := a.(type) {
	case AssignmentAntecedent:
		return a.Assignment.Name
	case ForLoopAntecedent:
		return a.Loop.VariableName
	case AnonFuncArgument:
		return a.Func.TakesArg.ShortName
	case FunctionArgument:
		return a.Arg.ShortName
	case MatchVariant:
		if _, variant, ok := g.table.FindEnumVariant(a.VariantID); ok {
			return variant.Name
		}
	}
	return ""
}

// FindAllReferences returns every reference to the binding site
// assignmentID, in tree order.
func (g *Genie) FindAllReferences(assignmentID ID) []*ast.VariableReference {
	var out []*ast.VariableReference
	for n := range ast.AllChildren(g.root) {
		if vr, ok := n.(*ast.VariableReference); ok && vr.AssignmentID == assignmentID {
			out = append(out, vr)
		}
	}
	return out
}

func (g *Genie) AnyReferences(assignmentID ID) bool {
	for n := range ast.AllChildren(g.root) {
		if vr, ok := n.(*ast.VariableReference); ok && vr.AssignmentID == assignmentID {
			return true
		}
	}
	return false
}
