package analyzer

import (
	"testing"

	"github.com/funvibe/nodecore/internal/ast"
	"github.com/funvibe/nodecore/internal/config"
	"github.com/funvibe/nodecore/internal/typesystem"
)

func TestResolveReturnType(t *testing.T) {
	table := newTable()
	str := func(s string) ast.Node { return ast.NewStringLiteral(s) }
	num := func(n int64) ast.Node { return ast.NewNumberLiteral(n) }
	mapper := ast.NewAnonymousFunction(
		ast.NewArgumentDefinition(typesystem.FromSpecID(config.ListMapFromID), "n"),
		typesystem.StringType, ast.NewBlock(str("s")))

	tests := []struct {
		name string
		call *ast.FunctionCall
		want typesystem.Type
	}{
		{"identity of a string",
			callOf(config.IdentityFuncID, ast.NewArgument(config.IdentityArgID, str("hello"))),
			typesystem.StringType},
		{"nested identity",
			callOf(config.IdentityFuncID, ast.NewArgument(config.IdentityArgID,
				callOf(config.IdentityFuncID, ast.NewArgument(config.IdentityArgID, num(5))))),
			typesystem.NumberType},
		{"identity without an argument keeps the generic",
			callOf(config.IdentityFuncID),
			typesystem.FromSpecID(config.IdentityGenericID)},
		{"append resolves from the list",
			callOf(config.ListAppendFuncID,
				ast.NewArgument(config.ListAppendListArgID, ast.NewListLiteral(typesystem.StringType)),
				ast.NewArgument(config.ListAppendElemArgID, ast.NewPlaceholder("item", typesystem.FromSpecID(config.ListAppendGenericID)))),
			typesystem.ListOf(typesystem.StringType)},
		{"map resolves the output from the mapper",
			callOf(config.ListMapFuncID,
				ast.NewArgument(config.ListMapListArgID, ast.NewListLiteral(typesystem.NumberType, num(1))),
				ast.NewArgument(config.ListMapMapperArgID, mapper)),
			typesystem.ListOf(typesystem.StringType)},
		{"non-generic return",
			callOf(config.EqualsFuncID,
				ast.NewArgument(config.EqualsLeftArgID, num(1)),
				ast.NewArgument(config.EqualsRightArgID, num(2))),
			typesystem.BooleanType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NewGenie(tt.call, table).ResolveReturnType(tt.call)
			if !ok {
				t.Fatal("ResolveReturnType() failed")
			}
			if !got.Equal(tt.want) {
				t.Errorf("ResolveReturnType() = %s, want %s", table.NameForType(got), table.NameForType(tt.want))
			}
		})
	}

	if _, ok := NewGenie(callOf(typesystem.NewID()), table).ResolveReturnType(callOf(typesystem.NewID())); ok {
		t.Error("ResolveReturnType() of an unknown function should fail")
	}
}

func TestResolveArgumentType(t *testing.T) {
	table := newTable()
	elem := ast.NewArgument(config.ListAppendElemArgID, ast.NewPlaceholder("item", typesystem.FromSpecID(config.ListAppendGenericID)))
	list := ast.NewArgument(config.ListAppendListArgID, ast.NewListLiteral(typesystem.NumberType))
	c := callOf(config.ListAppendFuncID, list, elem)
	g := NewGenie(c, table)

	got, ok := g.ResolveArgumentType(elem)
	if !ok || !got.Equal(typesystem.NumberType) {
		t.Errorf("ResolveArgumentType(item) = %s, %v, want Number", table.NameForType(got), ok)
	}
	got, ok = g.ResolveArgumentType(list)
	if !ok || !got.Equal(typesystem.ListOf(typesystem.NumberType)) {
		t.Errorf("ResolveArgumentType(list) = %s, %v, want List<Number>", table.NameForType(got), ok)
	}

	// a generic placeholder inside an argument takes its type from the call
	placeholder, _ := g.GuessType(elem.Expr)
	if !placeholder.Equal(typesystem.NumberType) {
		t.Errorf("GuessType(generic placeholder) = %s, want Number", table.NameForType(placeholder))
	}
}

func TestGenericConflicts(t *testing.T) {
	table := newTable()

	conflicting := callOf(config.EqualsFuncID,
		ast.NewArgument(config.EqualsLeftArgID, ast.NewNumberLiteral(1)),
		ast.NewArgument(config.EqualsRightArgID, ast.NewStringLiteral("x")))
	g := NewGenie(conflicting, table)
	conflicts := g.GenericConflicts(conflicting)
	if len(conflicts) != 1 {
		t.Fatalf("GenericConflicts() = %d, want 1", len(conflicts))
	}
	c := conflicts[0]
	if c.First.ArgID != config.EqualsLeftArgID || !c.First.Type.Equal(typesystem.NumberType) {
		t.Errorf("First = %+v, want Number from the left argument", c.First)
	}
	if c.Other.ArgID != config.EqualsRightArgID || !c.Other.Type.Equal(typesystem.StringType) {
		t.Errorf("Other = %+v, want String from the right argument", c.Other)
	}

	// first match wins for resolution
	right := conflicting.Arguments()[1]
	got, _ := g.ResolveArgumentType(right)
	if !got.Equal(typesystem.NumberType) {
		t.Errorf("ResolveArgumentType(right) = %s, want Number", table.NameForType(got))
	}

	agreeing := callOf(config.EqualsFuncID,
		ast.NewArgument(config.EqualsLeftArgID, ast.NewNumberLiteral(1)),
		ast.NewArgument(config.EqualsRightArgID, ast.NewNumberLiteral(2)))
	if got := NewGenie(agreeing, table).GenericConflicts(agreeing); len(got) != 0 {
		t.Errorf("GenericConflicts() = %+v, want none", got)
	}
}
