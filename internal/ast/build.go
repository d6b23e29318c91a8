package ast

import (
	"github.com/funvibe/nodecore/internal/typesystem"
)

// Constructors below assign fresh IDs.

func NewStringLiteral(value string) *StringLiteral {
	return &StringLiteral{NodeID: typesystem.NewID(), Value: value}
}

func NewNumberLiteral(value int64) *NumberLiteral {
	return &NumberLiteral{NodeID: typesystem.NewID(), Value: value}
}

func NewNullLiteral() *NullLiteral {
	return &NullLiteral{NodeID: typesystem.NewID()}
}

func NewListLiteral(elemType typesystem.Type, elems ...Node) *ListLiteral {
	if elems == nil {
		elems = []Node{}
	}
	return &ListLiteral{NodeID: typesystem.NewID(), ElementType: elemType, Elements: elems}
}

func NewStructLiteral(structID ID, fields ...*StructLiteralField) *StructLiteral {
	nodes := make([]Node, len(fields))
	for i, f := range fields {
		nodes[i] = f
	}
	return &StructLiteral{NodeID: typesystem.NewID(), StructID: structID, Fields: nodes}
}

func NewStructLiteralField(fieldID ID, expr Node) *StructLiteralField {
	return &StructLiteralField{NodeID: typesystem.NewID(), StructFieldID: fieldID, Expr: expr}
}

func NewAssignment(name string, expr Node) *Assignment {
	return &Assignment{NodeID: typesystem.NewID(), Name: name, Expr: expr}
}

func NewReassignment(assignmentID ID, expr Node) *Reassignment {
	return &Reassignment{NodeID: typesystem.NewID(), AssignmentID: assignmentID, Expr: expr}
}

func NewReassignListIndex(assignmentID ID, index, setTo Node) *ReassignListIndex {
	return &ReassignListIndex{
		NodeID:       typesystem.NewID(),
		AssignmentID: assignmentID,
		IndexExpr:    index,
		SetToExpr:    setTo,
	}
}

func NewVariableReference(assignmentID ID) *VariableReference {
	return &VariableReference{NodeID: typesystem.NewID(), AssignmentID: assignmentID}
}

func NewFunctionCall(functionID ID, args ...*Argument) *FunctionCall {
	nodes := make([]Node, len(args))
	for i, a := range args {
		nodes[i] = a
	}
	return &FunctionCall{
		NodeID:   typesystem.NewID(),
		Function: &FunctionReference{NodeID: typesystem.NewID(), FunctionID: functionID},
		Args:     nodes,
	}
}

func NewArgument(argDefID ID, expr Node) *Argument {
	return &Argument{NodeID: typesystem.NewID(), ArgumentDefinitionID: argDefID, Expr: expr}
}

func NewPlaceholder(description string, typ typesystem.Type) *Placeholder {
	return &Placeholder{NodeID: typesystem.NewID(), Description: description, Type: typ}
}

func NewAnonymousFunction(takesArg ArgumentDefinition, returns typesystem.Type, body *Block) *AnonymousFunction {
	return &AnonymousFunction{NodeID: typesystem.NewID(), TakesArg: takesArg, Returns: returns, Body: body}
}

func NewConditional(cond, then, otherwise Node) *Conditional {
	return &Conditional{NodeID: typesystem.NewID(), Condition: cond, TrueBranch: then, ElseBranch: otherwise}
}

func NewMatch(subject Node, branches map[ID]Node) *Match {
	if branches == nil {
		branches = map[ID]Node{}
	}
	return &Match{NodeID: typesystem.NewID(), Subject: subject, Branches: branches}
}

func NewForLoop(variableName string, list Node, body *Block) *ForLoop {
	return &ForLoop{NodeID: typesystem.NewID(), VariableName: variableName, ListExpr: list, Body: body}
}

func NewWhileLoop(cond Node, body *Block) *WhileLoop {
	return &WhileLoop{NodeID: typesystem.NewID(), Condition: cond, Body: body}
}

func NewStructFieldGet(structExpr Node, fieldID ID) *StructFieldGet {
	return &StructFieldGet{NodeID: typesystem.NewID(), StructExpr: structExpr, StructFieldID: fieldID}
}

func NewListIndex(list, index Node) *ListIndex {
	return &ListIndex{NodeID: typesystem.NewID(), ListExpr: list, IndexExpr: index}
}

func NewEnumVariantLiteral(typ typesystem.Type, variantID ID, payload Node) *EnumVariantLiteral {
	return &EnumVariantLiteral{NodeID: typesystem.NewID(), Type: typ, VariantID: variantID, Payload: payload}
}

func NewEarlyReturn(expr Node) *EarlyReturn {
	return &EarlyReturn{NodeID: typesystem.NewID(), Expr: expr}
}

func NewTry(maybeError, orElse Node) *Try {
	return &Try{NodeID: typesystem.NewID(), MaybeErrorExpr: maybeError, OrElse: orElse}
}
