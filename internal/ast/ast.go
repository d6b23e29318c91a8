package ast

import (
	"fmt"

	"github.com/funvibe/nodecore/internal/typesystem"
)

type ID = typesystem.ID

// Kind tags each node variant. It doubles as the "type" member of the
// serialized tree.
type Kind string

const (
	FunctionCallKind       Kind = "FunctionCall"
	FunctionReferenceKind  Kind = "FunctionReference"
	ArgumentKind           Kind = "Argument"
	StringLiteralKind      Kind = "StringLiteral"
	NumberLiteralKind      Kind = "NumberLiteral"
	NullLiteralKind        Kind = "NullLiteral"
	ListLiteralKind        Kind = "ListLiteral"
	StructLiteralKind      Kind = "StructLiteral"
	StructLiteralFieldKind Kind = "StructLiteralField"
	AssignmentKind         Kind = "Assignment"
	ReassignmentKind       Kind = "Reassignment"
	ReassignListIndexKind  Kind = "ReassignListIndex"
	BlockKind              Kind = "Block"
	AnonymousFunctionKind  Kind = "AnonymousFunction"
	VariableReferenceKind  Kind = "VariableReference"
	PlaceholderKind        Kind = "Placeholder"
	ConditionalKind        Kind = "Conditional"
	MatchKind              Kind = "Match"
	ForLoopKind            Kind = "ForLoop"
	WhileLoopKind          Kind = "WhileLoop"
	StructFieldGetKind     Kind = "StructFieldGet"
	ListIndexKind          Kind = "ListIndex"
	EnumVariantLiteralKind Kind = "EnumVariantLiteral"
	EarlyReturnKind        Kind = "EarlyReturn"
	TryKind                Kind = "Try"
)

// Node is one construct of a code tree. Every node has a process-unique ID
// and exactly one parent. Trees are treated as immutable: edits produce a
// new tree through Replace.
type Node interface {
	ID() ID
	Kind() Kind
	// Children returns direct children in evaluation order.
	Children() []Node
	Describe() string
	node()
}

// ArgumentDefinition declares one parameter of a function or anonymous
// function. Its ID is the binding site referenced by Argument and
// VariableReference nodes.
type ArgumentDefinition struct {
	ID        ID              `json:"id"`
	ArgType   typesystem.Type `json:"arg_type"`
	ShortName string          `json:"short_name"`
}

func NewArgumentDefinition(argType typesystem.Type, shortName string) ArgumentDefinition {
	return ArgumentDefinition{ID: typesystem.NewID(), ArgType: argType, ShortName: shortName}
}

type FunctionCall struct {
	NodeID ID `json:"id"`
	// Function is always a *FunctionReference.
	Function Node   `json:"function_reference"`
	Args     []Node `json:"args"`
}

func (n *FunctionCall) ID() ID     { return n.NodeID }
func (n *FunctionCall) Kind() Kind { return FunctionCallKind }
func (n *FunctionCall) Children() []Node {
	return append([]Node{n.Function}, n.Args...)
}
func (n *FunctionCall) Describe() string { return fmt.Sprintf("Function call: %s", n.NodeID) }
func (*FunctionCall) node()              {}

// FunctionID returns the id of the called function.
func (n *FunctionCall) FunctionID() ID {
	if ref, ok := n.Function.(*FunctionReference); ok {
		return ref.FunctionID
	}
	return typesystem.NilID
}

// Arguments returns the Argument children, skipping anything else.
func (n *FunctionCall) Arguments() []*Argument {
	out := make([]*Argument, 0, len(n.Args))
	for _, a := range n.Args {
		if arg, ok := a.(*Argument); ok {
			out = append(out, arg)
		}
	}
	return out
}

type FunctionReference struct {
	NodeID     ID `json:"id"`
	FunctionID ID `json:"function_id"`
}

func (n *FunctionReference) ID() ID           { return n.NodeID }
func (n *FunctionReference) Kind() Kind       { return FunctionReferenceKind }
func (n *FunctionReference) Children() []Node { return nil }
func (n *FunctionReference) Describe() string {
	return fmt.Sprintf("Function reference: %s", n.FunctionID)
}
func (*FunctionReference) node() {}

type Argument struct {
	NodeID               ID   `json:"id"`
	ArgumentDefinitionID ID   `json:"argument_definition_id"`
	Expr                 Node `json:"expr"`
}

func (n *Argument) ID() ID           { return n.NodeID }
func (n *Argument) Kind() Kind       { return ArgumentKind }
func (n *Argument) Children() []Node { return []Node{n.Expr} }
func (n *Argument) Describe() string { return fmt.Sprintf("Argument: ID %s", n.NodeID) }
func (*Argument) node()              {}

type StringLiteral struct {
	NodeID ID     `json:"id"`
	Value  string `json:"value"`
}

func (n *StringLiteral) ID() ID           { return n.NodeID }
func (n *StringLiteral) Kind() Kind       { return StringLiteralKind }
func (n *StringLiteral) Children() []Node { return nil }
func (n *StringLiteral) Describe() string { return fmt.Sprintf("String literal: %s", n.Value) }
func (*StringLiteral) node()              {}

type NumberLiteral struct {
	NodeID ID    `json:"id"`
	Value  int64 `json:"value"`
}

func (n *NumberLiteral) ID() ID           { return n.NodeID }
func (n *NumberLiteral) Kind() Kind       { return NumberLiteralKind }
func (n *NumberLiteral) Children() []Node { return nil }
func (n *NumberLiteral) Describe() string { return fmt.Sprintf("Number literal: %d", n.Value) }
func (*NumberLiteral) node()              {}

type NullLiteral struct {
	NodeID ID `json:"id"`
}

func (n *NullLiteral) ID() ID           { return n.NodeID }
func (n *NullLiteral) Kind() Kind       { return NullLiteralKind }
func (n *NullLiteral) Children() []Node { return nil }
func (n *NullLiteral) Describe() string { return fmt.Sprintf("Null literal: ID %s", n.NodeID) }
func (*NullLiteral) node()              {}

type ListLiteral struct {
	NodeID      ID              `json:"id"`
	ElementType typesystem.Type `json:"element_type"`
	Elements    []Node          `json:"elements"`
}

func (n *ListLiteral) ID() ID           { return n.NodeID }
func (n *ListLiteral) Kind() Kind       { return ListLiteralKind }
func (n *ListLiteral) Children() []Node { return append([]Node(nil), n.Elements...) }
func (n *ListLiteral) Describe() string { return fmt.Sprintf("List literal: %s", n.NodeID) }
func (*ListLiteral) node()              {}

type StructLiteral struct {
	NodeID   ID `json:"id"`
	StructID ID `json:"struct_id"`
	// Fields holds *StructLiteralField nodes.
	Fields []Node `json:"fields"`
}

func (n *StructLiteral) ID() ID           { return n.NodeID }
func (n *StructLiteral) Kind() Kind       { return StructLiteralKind }
func (n *StructLiteral) Children() []Node { return append([]Node(nil), n.Fields...) }
func (n *StructLiteral) Describe() string { return fmt.Sprintf("Struct literal: %s", n.NodeID) }
func (*StructLiteral) node()              {}

type StructLiteralField struct {
	NodeID        ID   `json:"id"`
	StructFieldID ID   `json:"struct_field_id"`
	Expr          Node `json:"expr"`
}

func (n *StructLiteralField) ID() ID           { return n.NodeID }
func (n *StructLiteralField) Kind() Kind       { return StructLiteralFieldKind }
func (n *StructLiteralField) Children() []Node { return []Node{n.Expr} }
func (n *StructLiteralField) Describe() string {
	return fmt.Sprintf("Struct literal field: %s", n.NodeID)
}
func (*StructLiteralField) node() {}

// Assignment binds the value of Expr under the assignment's own ID.
type Assignment struct {
	NodeID ID     `json:"id"`
	Name   string `json:"name"`
	Expr   Node   `json:"expression"`
}

func (n *Assignment) ID() ID           { return n.NodeID }
func (n *Assignment) Kind() Kind       { return AssignmentKind }
func (n *Assignment) Children() []Node { return []Node{n.Expr} }
func (n *Assignment) Describe() string { return fmt.Sprintf("Assignment: %s", n.Name) }
func (*Assignment) node()              {}

type Reassignment struct {
	NodeID       ID   `json:"id"`
	AssignmentID ID   `json:"assignment_id"`
	Expr         Node `json:"expression"`
}

func (n *Reassignment) ID() ID           { return n.NodeID }
func (n *Reassignment) Kind() Kind       { return ReassignmentKind }
func (n *Reassignment) Children() []Node { return []Node{n.Expr} }
func (n *Reassignment) Describe() string { return fmt.Sprintf("Reassignment: %s", n.NodeID) }
func (*Reassignment) node()              {}

type ReassignListIndex struct {
	NodeID       ID   `json:"id"`
	AssignmentID ID   `json:"assignment_id"`
	IndexExpr    Node `json:"index_expr"`
	SetToExpr    Node `json:"set_to_expr"`
}

func (n *ReassignListIndex) ID() ID           { return n.NodeID }
func (n *ReassignListIndex) Kind() Kind       { return ReassignListIndexKind }
func (n *ReassignListIndex) Children() []Node { return []Node{n.IndexExpr, n.SetToExpr} }
func (n *ReassignListIndex) Describe() string {
	return fmt.Sprintf("Reassign list index: %s", n.NodeID)
}
func (*ReassignListIndex) node() {}

type Block struct {
	NodeID ID     `json:"id"`
	Exprs  []Node `json:"expressions"`
}

func NewBlock(exprs ...Node) *Block {
	if exprs == nil {
		exprs = []Node{}
	}
	return &Block{NodeID: typesystem.NewID(), Exprs: exprs}
}

func (n *Block) ID() ID           { return n.NodeID }
func (n *Block) Kind() Kind       { return BlockKind }
func (n *Block) Children() []Node { return append([]Node(nil), n.Exprs...) }
func (n *Block) Describe() string { return fmt.Sprintf("Code block: ID %s", n.NodeID) }
func (*Block) node()              {}

// Position returns the index of the expression with the given id.
func (n *Block) Position(id ID) (int, bool) {
	for i, e := range n.Exprs {
		if e.ID() == id {
			return i, true
		}
	}
	return 0, false
}

type AnonymousFunction struct {
	NodeID   ID                 `json:"id"`
	TakesArg ArgumentDefinition `json:"takes_arg"`
	Returns  typesystem.Type    `json:"returns"`
	// Body is always a *Block.
	Body Node `json:"block"`
}

func (n *AnonymousFunction) ID() ID           { return n.NodeID }
func (n *AnonymousFunction) Kind() Kind       { return AnonymousFunctionKind }
func (n *AnonymousFunction) Children() []Node { return []Node{n.Body} }
func (n *AnonymousFunction) Describe() string {
	return fmt.Sprintf("Anonymous function: %s", n.NodeID)
}
func (*AnonymousFunction) node() {}

// Type is Function<arg, return>.
func (n *AnonymousFunction) Type() typesystem.Type {
	return typesystem.AnonFuncOf(n.TakesArg.ArgType, n.Returns)
}

type VariableReference struct {
	NodeID       ID `json:"id"`
	AssignmentID ID `json:"assignment_id"`
}

func (n *VariableReference) ID() ID           { return n.NodeID }
func (n *VariableReference) Kind() Kind       { return VariableReferenceKind }
func (n *VariableReference) Children() []Node { return nil }
func (n *VariableReference) Describe() string {
	return fmt.Sprintf("Variable reference: Assignment ID %s", n.AssignmentID)
}
func (*VariableReference) node() {}

// Placeholder is a typed hole awaiting code.
type Placeholder struct {
	NodeID      ID              `json:"id"`
	Description string          `json:"description"`
	Type        typesystem.Type `json:"typ"`
}

func (n *Placeholder) ID() ID           { return n.NodeID }
func (n *Placeholder) Kind() Kind       { return PlaceholderKind }
func (n *Placeholder) Children() []Node { return nil }
func (n *Placeholder) Describe() string { return fmt.Sprintf("Placeholder: %s", n.Description) }
func (*Placeholder) node()              {}

type Conditional struct {
	NodeID     ID   `json:"id"`
	Condition  Node `json:"condition"`
	TrueBranch Node `json:"true_branch"`
	// ElseBranch may be nil.
	ElseBranch Node `json:"else_branch"`
}

func (n *Conditional) ID() ID     { return n.NodeID }
func (n *Conditional) Kind() Kind { return ConditionalKind }
func (n *Conditional) Children() []Node {
	if n.ElseBranch == nil {
		return []Node{n.Condition, n.TrueBranch}
	}
	return []Node{n.Condition, n.TrueBranch, n.ElseBranch}
}
func (n *Conditional) Describe() string { return fmt.Sprintf("Conditional: %s", n.NodeID) }
func (*Conditional) node()              {}

// Match branches on the variant of an enum value. Inside a branch the
// variant's payload is bound under VariableID(variantID).
type Match struct {
	NodeID   ID          `json:"id"`
	Subject  Node        `json:"match_expression"`
	Branches map[ID]Node `json:"branch_by_variant_id"`
}

func (n *Match) ID() ID     { return n.NodeID }
func (n *Match) Kind() Kind { return MatchKind }
func (n *Match) Children() []Node {
	out := []Node{n.Subject}
	for _, id := range n.VariantIDs() {
		out = append(out, n.Branches[id])
	}
	return out
}
func (n *Match) Describe() string { return fmt.Sprintf("Match: %s", n.NodeID) }
func (*Match) node()              {}

// VariantIDs returns the branch keys in a stable order.
func (n *Match) VariantIDs() []ID {
	return sortedIDs(n.Branches)
}

// VariableID is the binding-site id of the payload bound in the branch for
// variantID.
func (n *Match) VariableID(variantID ID) ID {
	return MatchVariableID(n.NodeID, variantID)
}

func MatchVariableID(matchID, variantID ID) ID {
	return typesystem.DeriveID(matchID.String() + ":" + variantID.String())
}

// ForLoop binds each element of ListExpr under the loop's own ID while
// evaluating Body.
type ForLoop struct {
	NodeID       ID     `json:"id"`
	VariableName string `json:"variable_name"`
	ListExpr     Node   `json:"list_expression"`
	Body         Node   `json:"body"`
}

func (n *ForLoop) ID() ID           { return n.NodeID }
func (n *ForLoop) Kind() Kind       { return ForLoopKind }
func (n *ForLoop) Children() []Node { return []Node{n.ListExpr, n.Body} }
func (n *ForLoop) Describe() string { return fmt.Sprintf("For loop: %s", n.NodeID) }
func (*ForLoop) node()              {}

type WhileLoop struct {
	NodeID    ID   `json:"id"`
	Condition Node `json:"condition"`
	Body      Node `json:"body"`
}

func (n *WhileLoop) ID() ID           { return n.NodeID }
func (n *WhileLoop) Kind() Kind       { return WhileLoopKind }
func (n *WhileLoop) Children() []Node { return []Node{n.Condition, n.Body} }
func (n *WhileLoop) Describe() string { return fmt.Sprintf("While loop: %s", n.NodeID) }
func (*WhileLoop) node()              {}

type StructFieldGet struct {
	NodeID        ID   `json:"id"`
	StructExpr    Node `json:"struct_expr"`
	StructFieldID ID   `json:"struct_field_id"`
}

func (n *StructFieldGet) ID() ID           { return n.NodeID }
func (n *StructFieldGet) Kind() Kind       { return StructFieldGetKind }
func (n *StructFieldGet) Children() []Node { return []Node{n.StructExpr} }
func (n *StructFieldGet) Describe() string { return fmt.Sprintf("Struct field get: %s", n.NodeID) }
func (*StructFieldGet) node()              {}

type ListIndex struct {
	NodeID    ID   `json:"id"`
	ListExpr  Node `json:"list_expr"`
	IndexExpr Node `json:"index_expr"`
}

func (n *ListIndex) ID() ID           { return n.NodeID }
func (n *ListIndex) Kind() Kind       { return ListIndexKind }
func (n *ListIndex) Children() []Node { return []Node{n.ListExpr, n.IndexExpr} }
func (n *ListIndex) Describe() string { return fmt.Sprintf("List index: %s", n.NodeID) }
func (*ListIndex) node()              {}

type EnumVariantLiteral struct {
	NodeID    ID              `json:"id"`
	Type      typesystem.Type `json:"typ"`
	VariantID ID              `json:"variant_id"`
	Payload   Node            `json:"variant_value_expr"`
}

func (n *EnumVariantLiteral) ID() ID           { return n.NodeID }
func (n *EnumVariantLiteral) Kind() Kind       { return EnumVariantLiteralKind }
func (n *EnumVariantLiteral) Children() []Node { return []Node{n.Payload} }
func (n *EnumVariantLiteral) Describe() string {
	return fmt.Sprintf("Enum variant literal: %s", n.NodeID)
}
func (*EnumVariantLiteral) node() {}

type EarlyReturn struct {
	NodeID ID   `json:"id"`
	Expr   Node `json:"code"`
}

func (n *EarlyReturn) ID() ID           { return n.NodeID }
func (n *EarlyReturn) Kind() Kind       { return EarlyReturnKind }
func (n *EarlyReturn) Children() []Node { return []Node{n.Expr} }
func (n *EarlyReturn) Describe() string { return fmt.Sprintf("Early return: %s", n.NodeID) }
func (*EarlyReturn) node()              {}

// Try unwraps an Ok or Some value, or returns OrElse from the enclosing
// function.
type Try struct {
	NodeID         ID   `json:"id"`
	MaybeErrorExpr Node `json:"maybe_error_expr"`
	OrElse         Node `json:"or_else_return_expr"`
}

func (n *Try) ID() ID           { return n.NodeID }
func (n *Try) Kind() Kind       { return TryKind }
func (n *Try) Children() []Node { return []Node{n.MaybeErrorExpr, n.OrElse} }
func (n *Try) Describe() string { return fmt.Sprintf("Try: %s", n.NodeID) }
func (*Try) node()              {}
