package analyzer

import (
	"slices"
	"testing"

	"github.com/funvibe/nodecore/internal/ast"
	"github.com/funvibe/nodecore/internal/config"
	"github.com/funvibe/nodecore/internal/evaluator"
	"github.com/funvibe/nodecore/internal/symbols"
	"github.com/funvibe/nodecore/internal/typesystem"
)

// world is a function body exercising every binding construct:
//
//	fn greet(name: String) {
//	  a = "x"
//	  for item in [1, 2] { b = item; item }
//	  c = 5
//	  match opt { Some => { some }, None => { null } }
//	  Map([1], fn(n) { n })
//	}
type world struct {
	env    *evaluator.Environment
	table  *symbols.Table
	genie  *Genie
	nameID ID
	nodes  map[string]ast.Node
}

func newWorld(t *testing.T) *world {
	t.Helper()
	env := evaluator.NewEnvironment()
	table := symbols.NewTable(env, 64)

	name := ast.NewArgumentDefinition(typesystem.StringType, "name")

	a := ast.NewAssignment("a", ast.NewStringLiteral("x"))
	loop := ast.NewForLoop("item",
		ast.NewListLiteral(typesystem.NumberType, ast.NewNumberLiteral(1), ast.NewNumberLiteral(2)),
		ast.NewBlock())
	b := ast.NewAssignment("b", ast.NewVariableReference(loop.ID()))
	inLoop := ast.NewVariableReference(loop.ID())
	loop.Body.(*ast.Block).Exprs = []ast.Node{b, inLoop}

	c := ast.NewAssignment("c", ast.NewNumberLiteral(5))

	someID := typesystem.OptionEnum.Variants[0].ID
	noneID := typesystem.OptionEnum.Variants[1].ID
	match := ast.NewMatch(ast.NewPlaceholder("opt", typesystem.OptionOf(typesystem.StringType)), nil)
	inSome := ast.NewVariableReference(match.VariableID(someID))
	match.Branches[someID] = ast.NewBlock(inSome)
	match.Branches[noneID] = ast.NewBlock(ast.NewNullLiteral())

	mapFrom := typesystem.FromSpecID(config.ListMapFromID)
	nArg := ast.NewArgumentDefinition(mapFrom, "n")
	inAnon := ast.NewVariableReference(nArg.ID)
	anon := ast.NewAnonymousFunction(nArg, typesystem.StringType, ast.NewBlock(inAnon))
	mapCall := ast.NewFunctionCall(config.ListMapFuncID,
		ast.NewArgument(config.ListMapListArgID, ast.NewListLiteral(typesystem.NumberType, ast.NewNumberLiteral(1))),
		ast.NewArgument(config.ListMapMapperArgID, anon))

	root := ast.NewBlock(a, loop, c, match, mapCall)
	fn := evaluator.NewCodeFunction("greet", typesystem.NullType)
	fn.Args = []ast.ArgumentDefinition{name}
	fn.Block = root
	env.AddFunction(fn)

	return &world{
		env:    env,
		table:  table,
		genie:  NewGenie(root, table),
		nameID: name.ID,
		nodes: map[string]ast.Node{
			"a": a, "b": b, "c": c, "loop": loop, "match": match, "anon": anon, "map": mapCall,
			"inLoop": inLoop, "inSome": inSome, "inAnon": inAnon,
		},
	}
}

func scopeIDs(g *Genie, pos SearchPosition) []ID {
	var ids []ID
	for a := range g.VariablesInScope(pos) {
		ids = append(ids, a.AssignmentID())
	}
	return ids
}

func TestVariablesInScope(t *testing.T) {
	w := newWorld(t)
	n := w.nodes
	someVar := n["match"].(*ast.Match).VariableID(typesystem.OptionEnum.Variants[0].ID)
	nArg := n["anon"].(*ast.AnonymousFunction).TakesArg.ID

	tests := []struct {
		name string
		pos  SearchPosition
		want []ID
	}{
		{
			name: "inside loop body",
			pos:  SearchPosition{BeforeCodeID: n["inLoop"].ID()},
			want: []ID{n["b"].ID(), n["a"].ID(), w.nameID, n["loop"].ID()},
		},
		{
			name: "inside match branch",
			pos:  SearchPosition{BeforeCodeID: n["inSome"].ID()},
			want: []ID{n["a"].ID(), n["c"].ID(), w.nameID, someVar},
		},
		{
			name: "inside anonymous function",
			pos:  SearchPosition{BeforeCodeID: n["inAnon"].ID()},
			want: []ID{n["a"].ID(), n["c"].ID(), w.nameID, nArg},
		},
		{
			name: "exclusive at assignment",
			pos:  SearchPosition{BeforeCodeID: n["c"].ID()},
			want: []ID{n["a"].ID(), w.nameID},
		},
		{
			name: "inclusive at assignment",
			pos:  SearchPosition{BeforeCodeID: n["c"].ID(), IsSearchInclusive: true},
			want: []ID{n["a"].ID(), n["c"].ID(), w.nameID},
		},
		{
			name: "loop list expression does not see the loop variable",
			pos:  SearchPosition{BeforeCodeID: n["loop"].(*ast.ForLoop).ListExpr.ID()},
			want: []ID{n["a"].ID(), w.nameID},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scopeIDs(w.genie, tt.pos)
			if !slices.Equal(got, tt.want) {
				t.Errorf("VariablesInScope() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindAntecedent(t *testing.T) {
	w := newWorld(t)

	a, ok := w.genie.FindAntecedentForVariableReference(w.nodes["inSome"].(*ast.VariableReference))
	if !ok {
		t.Fatal("match variable not found")
	}
	if mv, ok := a.(MatchVariant); !ok || mv.Match != w.nodes["match"] {
		t.Errorf("antecedent = %#v, want MatchVariant of the match", a)
	}

	a, ok = w.genie.FindAntecedentForVariableReference(w.nodes["inLoop"].(*ast.VariableReference))
	if _, isLoop := a.(ForLoopAntecedent); !ok || !isLoop {
		t.Errorf("antecedent = %#v, want ForLoopAntecedent", a)
	}

	// a reference to b from outside the loop is out of scope
	stray := ast.NewVariableReference(w.nodes["b"].ID())
	root := w.genie.Root().(*ast.Block)
	root.Exprs = append(root.Exprs, stray)
	g := NewGenie(root, w.table)
	if _, ok := g.FindAntecedentForVariableReference(stray); ok {
		t.Error("assignment inside a loop body leaked into the enclosing block")
	}
}

func TestLocals(t *testing.T) {
	w := newWorld(t)

	tests := []struct {
		at   string
		want map[string]typesystem.Type
	}{
		{"inLoop", map[string]typesystem.Type{
			"a": typesystem.StringType, "b": typesystem.NumberType,
			"name": typesystem.StringType, "item": typesystem.NumberType,
		}},
		{"inSome", map[string]typesystem.Type{
			"a": typesystem.StringType, "c": typesystem.NumberType,
			"name": typesystem.StringType, "Some": typesystem.StringType,
		}},
		{"inAnon", map[string]typesystem.Type{
			"a": typesystem.StringType, "c": typesystem.NumberType,
			"name": typesystem.StringType, "n": typesystem.NumberType,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.at, func(t *testing.T) {
			locals := w.genie.Locals(SearchPosition{BeforeCodeID: w.nodes[tt.at].ID()})
			if len(locals) != len(tt.want) {
				t.Fatalf("got %d locals, want %d: %+v", len(locals), len(tt.want), locals)
			}
			for _, v := range locals {
				want, ok := tt.want[v.Name]
				if !ok {
					t.Errorf("unexpected local %q", v.Name)
					continue
				}
				if !v.Type.Equal(want) {
					t.Errorf("local %q has type %s, want %s",
						v.Name, w.table.NameForType(v.Type), w.table.NameForType(want))
				}
			}
		})
	}
}

func TestReferences(t *testing.T) {
	w := newWorld(t)
	loopID := w.nodes["loop"].ID()

	refs := w.genie.FindAllReferences(loopID)
	if len(refs) != 2 {
		t.Errorf("FindAllReferences(loop) = %d refs, want 2", len(refs))
	}
	if !w.genie.AnyReferences(loopID) {
		t.Error("AnyReferences(loop) = false")
	}
	if w.genie.AnyReferences(w.nodes["c"].ID()) {
		t.Error("AnyReferences(c) = true, c is never read")
	}
}

func TestAncestry(t *testing.T) {
	w := newWorld(t)
	inLoop := w.nodes["inLoop"]

	expr, ok := w.genie.ExpressionInBlockContaining(inLoop.ID())
	if !ok || expr != inLoop {
		t.Errorf("ExpressionInBlockContaining(inLoop) = %v", expr)
	}
	lit := w.nodes["loop"].(*ast.ForLoop).ListExpr.(*ast.ListLiteral).Elements[0]
	expr, ok = w.genie.ExpressionInBlockContaining(lit.ID())
	if !ok || expr != w.nodes["loop"] {
		t.Errorf("ExpressionInBlockContaining(list element) = %v, want the loop", expr)
	}
	if _, ok := w.genie.ExpressionInBlockContaining(w.genie.Root().ID()); ok {
		t.Error("root block is not inside a block")
	}

	var kinds []ast.Kind
	for n := range w.genie.Ancestors(inLoop.ID()) {
		kinds = append(kinds, n.Kind())
	}
	want := []ast.Kind{ast.BlockKind, ast.ForLoopKind, ast.BlockKind}
	if !slices.Equal(kinds, want) {
		t.Errorf("Ancestors(inLoop) = %v, want %v", kinds, want)
	}
}
