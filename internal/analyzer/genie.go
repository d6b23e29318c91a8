// analyzer/genie.go - structural queries over one code tree
//
// The package is split by concern:
// - genie.go: Genie, node and parent index, ancestor walks
// - scope.go: variable antecedents visible at a position, locals
// - guess.go: best-effort type guessing
// - generics.go: generic parameter substitution at call sites
// - validate.go: return type problems in registered functions and their fixes

package analyzer

import (
	"iter"

	"github.com/funvibe/nodecore/internal/ast"
	"github.com/funvibe/nodecore/internal/symbols"
	"github.com/funvibe/nodecore/internal/typesystem"
)

type ID = typesystem.ID

// Genie answers questions about one code tree: where a node sits, which
// variables it can see and what it evaluates to. The tree is indexed once;
// it must not change while the Genie is in use.
type Genie struct {
	root    ast.Node
	table   *symbols.Table
	nodes   map[ID]ast.Node
	parents map[ID]ast.Node
}

func NewGenie(root ast.Node, table *symbols.Table) *Genie {
	g := &Genie{
		root:    root,
		table:   table,
		nodes:   map[ID]ast.Node{},
		parents: map[ID]ast.Node{},
	}
	for n := range ast.SelfWithAllChildren(root) {
		g.nodes[n.ID()] = n
		for _, c := range n.Children() {
			if c != nil {
				g.parents[c.ID()] = n
			}
		}
	}
	return g
}

func (g *Genie) Root() ast.Node { return g.root }

func (g *Genie) Table() *symbols.Table { return g.table }

func (g *Genie) FindNode(id ID) (ast.Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// FindParent returns the direct parent of id. The root has none.
func (g *Genie) FindParent(id ID) (ast.Node, bool) {
	n, ok := g.parents[id]
	return n, ok
}

// Ancestors yields the parents of id, nearest first.
func (g *Genie) Ancestors(id ID) iter.Seq[ast.Node] {
	return func(yield func(ast.Node) bool) {
		for ancestor := range g.ancestorsWithChild(id) {
			if !yield(ancestor) {
				return
			}
		}
	}
}

// ancestorsWithChild yields each ancestor of id together with its child on
// the path down to id.
func (g *Genie) ancestorsWithChild(id ID) iter.Seq2[ast.Node, ast.Node] {
	return func(yield func(ast.Node, ast.Node) bool) {
		child, ok := g.nodes[id]
		if !ok {
			return
		}
		for {
			parent, ok := g.parents[child.ID()]
			if !ok {
				return
			}
			if !yield(parent, child) {
				return
			}
			child = parent
		}
	}
}

// ExpressionInBlockContaining returns the node that contains id (or is id)
// and sits directly inside a block.
func (g *Genie) ExpressionInBlockContaining(id ID) (ast.Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, false
	}
	if g.IsBlockExpression(id) {
		return n, true
	}
	for ancestor := range g.Ancestors(id) {
		if g.IsBlockExpression(ancestor.ID()) {
			return ancestor, true
		}
	}
	return nil, false
}

func (g *Genie) IsBlockExpression(id ID) bool {
	_, ok := g.parents[id].(*ast.Block)
	return ok
}

// enclosingCall returns the call an argument node belongs to.
func (g *Genie) enclosingCall(arg *ast.Argument) (*ast.FunctionCall, bool) {
	call, ok := g.parents[arg.ID()].(*ast.FunctionCall)
	return call, ok
}
