package ast

import (
	"bytes"
	"iter"
	"slices"
)

func sortedIDs(m map[ID]Node) []ID {
	ids := make([]ID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b ID) int { return bytes.Compare(a[:], b[:]) })
	return ids
}

// SelfWithAllChildren yields n and then every descendant in depth-first
// pre-order.
func SelfWithAllChildren(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		walk(n, yield)
	}
}

// AllChildren yields every descendant of n in depth-first pre-order, without n.
func AllChildren(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for _, c := range n.Children() {
			if !walk(c, yield) {
				return
			}
		}
	}
}

func walk(n Node, yield func(Node) bool) bool {
	if n == nil {
		return true
	}
	if !yield(n) {
		return false
	}
	for _, c := range n.Children() {
		if !walk(c, yield) {
			return false
		}
	}
	return true
}

// FindNode locates id inside root, root included.
func FindNode(root Node, id ID) (Node, bool) {
	for n := range SelfWithAllChildren(root) {
		if n.ID() == id {
			return n, true
		}
	}
	return nil, false
}

// FindParent returns the direct parent of id. The root has no parent.
func FindParent(root Node, id ID) (Node, bool) {
	for n := range SelfWithAllChildren(root) {
		for _, c := range n.Children() {
			if c != nil && c.ID() == id {
				return n, true
			}
		}
	}
	return nil, false
}

// PreviousChild returns the sibling before childID among parent's children.
func PreviousChild(parent Node, childID ID) (Node, bool) {
	children := parent.Children()
	for i, c := range children {
		if c.ID() == childID && i > 0 {
			return children[i-1], true
		}
	}
	return nil, false
}

func NextChild(parent Node, childID ID) (Node, bool) {
	children := parent.Children()
	for i, c := range children {
		if c.ID() == childID && i+1 < len(children) {
			return children[i+1], true
		}
	}
	return nil, false
}

// Replace returns a copy of root where the node with replacement's ID is
// swapped for replacement. Nodes off the path to the replaced node are
// shared with the original tree. The second result is false when the id is
// not found.
func Replace(root Node, replacement Node) (Node, bool) {
	return ReplaceID(root, replacement.ID(), replacement)
}

// ReplaceID is Replace for a replacement whose ID differs from the node it
// takes the place of.
func ReplaceID(root Node, id ID, replacement Node) (Node, bool) {
	if root == nil {
		return nil, false
	}
	if root.ID() == id {
		return replacement, true
	}
	children := root.Children()
	for i, c := range children {
		if newChild, ok := ReplaceID(c, id, replacement); ok {
			children[i] = newChild
			return withChildren(root, children), true
		}
	}
	return root, false
}

// withChildren returns a shallow copy of n with its children replaced, in
// Children() order.
func withChildren(n Node, c []Node) Node {
	switch n := n.(type) {
	case *FunctionCall:
		cp := *n
		cp.Function, cp.Args = c[0], slices.Clone(c[1:])
		return &cp
	case *Argument:
		cp := *n
		cp.Expr = c[0]
		return &cp
	case *ListLiteral:
		cp := *n
		cp.Elements = slices.Clone(c)
		return &cp
	case *StructLiteral:
		cp := *n
		cp.Fields = slices.Clone(c)
		return &cp
	case *StructLiteralField:
		cp := *n
		cp.Expr = c[0]
		return &cp
	case *Assignment:
		cp := *n
		cp.Expr = c[0]
		return &cp
	case *Reassignment:
		cp := *n
		cp.Expr = c[0]
		return &cp
	case *ReassignListIndex:
		cp := *n
		cp.IndexExpr, cp.SetToExpr = c[0], c[1]
		return &cp
	case *Block:
		cp := *n
		cp.Exprs = slices.Clone(c)
		return &cp
	case *AnonymousFunction:
		cp := *n
		cp.Body = c[0]
		return &cp
	case *Conditional:
		cp := *n
		cp.Condition, cp.TrueBranch = c[0], c[1]
		if len(c) > 2 {
			cp.ElseBranch = c[2]
		}
		return &cp
	case *Match:
		cp := *n
		cp.Subject = c[0]
		cp.Branches = make(map[ID]Node, len(n.Branches))
		for i, id := range n.VariantIDs() {
			cp.Branches[id] = c[i+1]
		}
		return &cp
	case *ForLoop:
		cp := *n
		cp.ListExpr, cp.Body = c[0], c[1]
		return &cp
	case *WhileLoop:
		cp := *n
		cp.Condition, cp.Body = c[0], c[1]
		return &cp
	case *StructFieldGet:
		cp := *n
		cp.StructExpr = c[0]
		return &cp
	case *ListIndex:
		cp := *n
		cp.ListExpr, cp.IndexExpr = c[0], c[1]
		return &cp
	case *EnumVariantLiteral:
		cp := *n
		cp.Payload = c[0]
		return &cp
	case *EarlyReturn:
		cp := *n
		cp.Expr = c[0]
		return &cp
	case *Try:
		cp := *n
		cp.MaybeErrorExpr, cp.OrElse = c[0], c[1]
		return &cp
	}
	// leaves have no children to replace
	return n
}

// AssignmentIDsReferenced lists the binding sites referenced anywhere
// under root.
func AssignmentIDsReferenced(root Node) []ID {
	var out []ID
	for n := range SelfWithAllChildren(root) {
		if vr, ok := n.(*VariableReference); ok {
			out = append(out, vr.AssignmentID)
		}
	}
	return out
}
