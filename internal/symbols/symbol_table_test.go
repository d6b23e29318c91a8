package symbols

import (
	"testing"

	"github.com/funvibe/nodecore/internal/ast"
	"github.com/funvibe/nodecore/internal/config"
	"github.com/funvibe/nodecore/internal/evaluator"
	"github.com/funvibe/nodecore/internal/typesystem"
)

func TestTypeRendering(t *testing.T) {
	table := NewTable(evaluator.NewEnvironment(), 16)
	identity, _ := table.FindFunction(config.IdentityFuncID)

	tests := []struct {
		typ        typesystem.Type
		wantSymbol string
		wantName   string
	}{
		{typesystem.StringType, "str", "String"},
		{typesystem.ListOf(typesystem.NumberType), "list<num>", "List<Number>"},
		{typesystem.ResultOf(typesystem.ListOf(typesystem.StringType), typesystem.HTTPErrorType),
			"result<list<str>, struct>", "Result<List<String>, HTTP Error>"},
		{identity.Returns(), "T", "Any Type"},
		{typesystem.FromSpecID(typesystem.NewID()), "?", "?"},
	}
	for _, tt := range tests {
		if got := table.SymbolForType(tt.typ); got != tt.wantSymbol {
			t.Errorf("SymbolForType(%s) = %q, want %q", tt.typ, got, tt.wantSymbol)
		}
		if got := table.NameForType(tt.typ); got != tt.wantName {
			t.Errorf("NameForType(%s) = %q, want %q", tt.typ, got, tt.wantName)
		}
	}
	if got := table.TypeDisplay(typesystem.NumberType); got != "num Number" {
		t.Errorf("TypeDisplay(Number) = %q", got)
	}
}

func TestListings(t *testing.T) {
	env := evaluator.NewEnvironment()
	table := NewTable(env, 16)
	before := len(table.ListStructs())

	s := typesystem.NewStruct("Weather", "")
	env.AddTypeSpec(s)
	env.AddFunction(evaluator.NewCodeFunction("a", typesystem.NullType))
	env.AddFunction(evaluator.NewCodeFunction("b", typesystem.NullType))
	env.AddFunction(evaluator.NewJSONHTTPClient("client"))
	env.AddFunction(evaluator.NewChatTrigger("trigger", "!t"))

	if got := len(table.ListStructs()); got != before+1 {
		t.Errorf("ListStructs() has %d entries, want %d", got, before+1)
	}
	if got := len(table.ListEnums()); got != 2 {
		t.Errorf("ListEnums() has %d entries, want Result and Option", got)
	}
	if got := len(table.ListCodeFuncs()); got != 2 {
		t.Errorf("ListCodeFuncs() has %d entries, want 2", got)
	}
	if len(table.ListJSONHTTPClients()) != 1 || len(table.ListChatTriggers()) != 1 {
		t.Error("expected one client and one trigger")
	}
	if _, ok := table.FindStruct(s.ID()); !ok {
		t.Error("FindStruct did not find the new struct")
	}
	if _, ok := table.FindStruct(config.ResultEnumID); ok {
		t.Error("FindStruct should not return enums")
	}
	e, v, ok := table.FindEnumVariant(config.OptionNoneVariantID)
	if !ok || e.ID() != config.OptionEnumID || v.Name != "None" {
		t.Errorf("FindEnumVariant(None) = %v, %v, %v", e, v, ok)
	}
	if f, ok := table.FindStructField(config.HTTPErrorStructID, config.HTTPErrorStatusFieldID); !ok || f.Name != "status" {
		t.Errorf("FindStructField(status) = %v, %v", f, ok)
	}

	matches := table.FindTypesMatching("http")
	if len(matches) != 3 {
		t.Errorf("FindTypesMatching(http) = %d specs, want 3", len(matches))
	}
}

func TestArgLookups(t *testing.T) {
	env := evaluator.NewEnvironment()
	table := NewTable(env, 16)

	fn := evaluator.NewCodeFunction("greet", typesystem.StringType)
	name := ast.NewArgumentDefinition(typesystem.StringType, "name")
	fn.Args = append(fn.Args, name)
	env.AddFunction(fn)

	client := evaluator.NewJSONHTTPClient("weather")
	city := ast.NewArgumentDefinition(typesystem.StringType, "city")
	client.Args = append(client.Args, city)
	env.AddFunction(client)

	trigger := evaluator.NewChatTrigger("hi", "!hi")
	env.AddFunction(trigger)

	if def, ok := table.ArgDefinition(name.ID); !ok || def.ShortName != "name" {
		t.Errorf("ArgDefinition(name) = %v, %v", def, ok)
	}
	if owner, ok := table.FunctionContainingArg(city.ID); !ok || owner.ID() != client.ID() {
		t.Errorf("FunctionContainingArg(city) = %v, %v", owner, ok)
	}
	if typ, ok := table.TypeForArg(client.IntermediateArg.ID); !ok || !typ.Equal(typesystem.NullType) {
		t.Errorf("TypeForArg(intermediate) = %v, %v", typ, ok)
	}

	// a cached miss must not survive a registry change
	late := ast.NewArgumentDefinition(typesystem.NumberType, "late")
	if _, ok := table.ArgDefinition(late.ID); ok {
		t.Fatal("unexpected definition")
	}
	fn.Args = append(fn.Args, late)
	env.AddFunction(fn)
	if _, ok := table.ArgDefinition(late.ID); !ok {
		t.Error("ArgDefinition returned a stale cached miss")
	}

	tests := []struct {
		name string
		root ID
		want []ID
	}{
		{"code function", fn.Block.ID(), []ID{name.ID, late.ID}},
		{"client url", client.URL.ID(), []ID{city.ID}},
		{"client params", client.URLParams.ID(), []ID{city.ID}},
		{"client transform", client.Transform.ID(), []ID{client.IntermediateArg.ID}},
		{"chat trigger", trigger.Block.ID(), []ID{config.ChatTriggerMessageArgID}},
		{"unknown", typesystem.NewID(), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.CodeTakesArgs(tt.root)
			if len(got) != len(tt.want) {
				t.Fatalf("CodeTakesArgs() = %d args, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Errorf("arg %d = %s, want %s", i, got[i].ID, tt.want[i])
				}
			}
		})
	}
}

func TestGuessTypeOfValue(t *testing.T) {
	table := NewTable(evaluator.NewEnvironment(), 0)
	tests := []struct {
		name string
		v    evaluator.Value
		want typesystem.Type
	}{
		{"string", evaluator.NewString("x"), typesystem.StringType},
		{"list", evaluator.NewList(typesystem.NumberType), typesystem.ListOf(typesystem.NumberType)},
		{"struct", evaluator.NewHTTPError(1, ""), typesystem.HTTPErrorType},
		{"option", evaluator.Some(evaluator.NewNumber(1)), typesystem.OptionOf(typesystem.AnyType)},
		{"result", evaluator.OkResult(evaluator.NullValue), typesystem.ResultOf(typesystem.AnyType, typesystem.AnyType)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.GuessTypeOfValue(tt.v); !got.Equal(tt.want) {
				t.Errorf("GuessTypeOfValue() = %s, want %s", got, tt.want)
			}
		})
	}
}
