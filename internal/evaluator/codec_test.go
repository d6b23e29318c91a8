package evaluator

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/funvibe/nodecore/internal/ast"
	"github.com/funvibe/nodecore/internal/typesystem"
)

func TestFunctionCodec(t *testing.T) {
	code := NewCodeFunction("greet", typesystem.StringType)
	name := ast.NewArgumentDefinition(typesystem.StringType, "name")
	code.Args = append(code.Args, name)
	code.Block = ast.NewBlock(ast.NewVariableReference(name.ID))

	client := NewJSONHTTPClient("weather")
	client.URL = ast.NewBlock(ast.NewStringLiteral("https://api.test/weather"))

	trigger := NewChatTrigger("hello", "!hi")
	trigger.Block = ast.NewBlock(ast.NewStringLiteral("hi there"))

	for _, fn := range []Function{code, client, trigger} {
		t.Run(fn.Name(), func(t *testing.T) {
			data, err := MarshalFunction(fn)
			if err != nil {
				t.Fatalf("MarshalFunction() error = %v", err)
			}
			got, err := UnmarshalFunction(data)
			if err != nil {
				t.Fatalf("UnmarshalFunction() error = %v", err)
			}
			if !reflect.DeepEqual(got, fn) {
				t.Errorf("round trip mismatch\n got: %s", data)
			}
		})
	}

	if _, err := MarshalFunction(Builtins()[0]); err == nil {
		t.Error("builtins should not serialize")
	}
	var unknown *typesystem.UnknownKindError
	if _, err := UnmarshalFunction([]byte(`{"type":"Macro"}`)); !errors.As(err, &unknown) {
		t.Errorf("error = %v, want *UnknownKindError", err)
	}
}

func TestValueCodec(t *testing.T) {
	v := OkResult(NewList(typesystem.HTTPErrorType, NewHTTPError(404, "missing"), NewHTTPError(500, "")))
	data, err := MarshalValue(v)
	if err != nil {
		t.Fatalf("MarshalValue() error = %v", err)
	}
	got, err := UnmarshalValue(data)
	if err != nil {
		t.Fatalf("UnmarshalValue() error = %v", err)
	}
	if !Equal(got, v) {
		t.Errorf("round trip = %s, want %s", got.Inspect(), v.Inspect())
	}

	closure := &AnonFunc{Func: ast.NewAnonymousFunction(ast.NewArgumentDefinition(typesystem.NullType, "x"), typesystem.NullType, ast.NewBlock())}
	if _, err := MarshalValue(closure); err == nil {
		t.Error("closures should not serialize")
	}
}

func TestDecodeJSON(t *testing.T) {
	env := NewEnvironment()
	point := typesystem.NewStruct("Point", "",
		typesystem.NewStructField("x", "", typesystem.NumberType),
		typesystem.NewStructField("label", "", typesystem.StringType),
	)
	env.AddTypeSpec(point)
	pointType := typesystem.FromSpec(point)

	decode := func(src string, into typesystem.Type) (Value, error) {
		var raw any
		dec := json.NewDecoder(strings.NewReader(src))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			t.Fatalf("bad fixture %s: %v", src, err)
		}
		return DecodeJSON(raw, into, env)
	}

	tests := []struct {
		name    string
		src     string
		into    typesystem.Type
		want    Value
		wantErr bool
	}{
		{"string", `"hi"`, typesystem.StringType, NewString("hi"), false},
		{"float as string", `1.5`, typesystem.StringType, NewString("1.5"), false},
		{"integer", `42`, typesystem.NumberType, NewNumber(42), false},
		{"float as number", `1.5`, typesystem.NumberType, nil, true},
		{"boolean", `true`, typesystem.BooleanType, TRUE, false},
		{"null", `null`, typesystem.NullType, NullValue, false},
		{"list", `[1,2]`, typesystem.ListOf(typesystem.NumberType),
			NewList(typesystem.NumberType, NewNumber(1), NewNumber(2)), false},
		{"struct", `{"x":3,"label":"a","z":0}`, pointType, &Struct{StructID: point.ID(), Fields: map[ID]Value{
			point.Fields[0].ID: NewNumber(3),
			point.Fields[1].ID: NewString("a"),
		}}, false},
		{"struct missing field", `{"x":3}`, pointType, nil, true},
		{"unknown typespec", `{}`, typesystem.FromSpecID(typesystem.NewID()), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decode(tt.src, tt.into)
			if tt.wantErr {
				var derr *DecodeJSONError
				if !errors.As(err, &derr) {
					t.Errorf("error = %v, want *DecodeJSONError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeJSON() error = %v", err)
			}
			assertValue(t, got, tt.want)
		})
	}
}
