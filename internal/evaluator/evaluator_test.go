package evaluator

import (
	"bytes"
	"strings"
	"testing"

	"github.com/funvibe/nodecore/internal/ast"
	"github.com/funvibe/nodecore/internal/config"
	"github.com/funvibe/nodecore/internal/typesystem"
)

func newTestEvaluator(t *testing.T) (*Evaluator, *bytes.Buffer) {
	t.Helper()
	settings := config.DefaultSettings()
	settings.MaxEvalDepth = 200
	e := New(NewEnvironment(), settings)
	out := &bytes.Buffer{}
	e.Out = out
	e.Fetcher = &MockFetcher{}
	return e, out
}

func str(s string) ast.Node                { return ast.NewStringLiteral(s) }
func num(n int64) ast.Node                 { return ast.NewNumberLiteral(n) }
func ref(id ID) ast.Node                   { return ast.NewVariableReference(id) }
func arg1(id ID, n ast.Node) *ast.Argument { return ast.NewArgument(id, n) }

func printCall(n ast.Node) *ast.FunctionCall {
	return ast.NewFunctionCall(config.PrintFuncID, arg1(config.PrintArgID, n))
}

func assertValue(t *testing.T, got, want Value) {
	t.Helper()
	if got == nil || !Equal(got, want) {
		var inspect string
		if got != nil {
			inspect = got.Inspect()
		}
		t.Errorf("value = %s, want %s", inspect, want.Inspect())
	}
}

func assertErrorKind(t *testing.T, got Value, kind ErrorKind) {
	t.Helper()
	errv, ok := got.(*Error)
	if !ok {
		t.Fatalf("value = %s, want %s error", got.Inspect(), kind)
	}
	if errv.ErrKind != kind {
		t.Errorf("error kind = %s, want %s", errv.ErrKind, kind)
	}
}

func TestBlockAndAssignment(t *testing.T) {
	e, out := newTestEvaluator(t)

	x := ast.NewAssignment("x", str("hello"))
	root := ast.NewBlock(
		x,
		printCall(ref(x.ID())),
		ast.NewFunctionCall(config.CapitalizeFuncID, arg1(config.CapitalizeArgID, ref(x.ID()))),
	)
	got := e.Run(root)
	assertValue(t, got, NewString("HELLO"))
	if out.String() != "hello\n" {
		t.Errorf("console = %q, want %q", out.String(), "hello\n")
	}
	if v, ok := e.Env.LastResult(x.ID()); !ok || !Equal(v, NewString("hello")) {
		t.Errorf("LastResult(x) = %v, %v", v, ok)
	}

	assertValue(t, e.Run(ast.NewBlock()), NullValue)
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		name string
		node ast.Node
		want ErrorKind
	}{
		{"undefined function", ast.NewFunctionCall(typesystem.NewID()), UndefinedFunction},
		{"placeholder", ast.NewPlaceholder("fill me", typesystem.StringType), PlaceholderError},
		{"non boolean condition", ast.NewConditional(num(1), ast.NewBlock(), nil), ArgumentError},
		{"non boolean while", ast.NewWhileLoop(str("yes"), ast.NewBlock()), ArgumentError},
		{"for over non list", ast.NewForLoop("x", num(3), ast.NewBlock()), ArgumentError},
		{"wrong argument type", printCall(num(3)), ArgumentError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEvaluator(t)
			assertErrorKind(t, e.Run(tt.node), tt.want)
		})
	}
}

func TestUndefinedCallKeepsSiblings(t *testing.T) {
	e, out := newTestEvaluator(t)
	missing := ast.NewFunctionCall(typesystem.NewID())
	e.Run(ast.NewBlock(missing, printCall(str("after"))))

	if out.String() != "after\n" {
		t.Errorf("console = %q, want %q", out.String(), "after\n")
	}
	v, ok := e.Env.LastResult(missing.ID())
	if !ok {
		t.Fatal("no result recorded for the undefined call")
	}
	assertErrorKind(t, v, UndefinedFunction)
}

func TestUnboundVariablePanics(t *testing.T) {
	e, _ := newTestEvaluator(t)
	defer func() {
		r := recover()
		if _, ok := r.(*UnboundVariableError); !ok {
			t.Errorf("recovered %v, want *UnboundVariableError", r)
		}
	}()
	e.Run(ref(typesystem.NewID()))
	t.Error("expected a panic")
}

func TestConditional(t *testing.T) {
	e, _ := newTestEvaluator(t)
	eq := func(a, b int64) ast.Node {
		return ast.NewFunctionCall(config.EqualsFuncID,
			arg1(config.EqualsLeftArgID, num(a)), arg1(config.EqualsRightArgID, num(b)))
	}
	assertValue(t, e.Run(ast.NewConditional(eq(1, 1), ast.NewBlock(str("yes")), ast.NewBlock(str("no")))), NewString("yes"))
	assertValue(t, e.Run(ast.NewConditional(eq(1, 2), ast.NewBlock(str("yes")), ast.NewBlock(str("no")))), NewString("no"))
	assertValue(t, e.Run(ast.NewConditional(eq(1, 2), ast.NewBlock(str("yes")), nil)), NullValue)
}

func TestForLoopAccumulates(t *testing.T) {
	e, _ := newTestEvaluator(t)

	acc := ast.NewAssignment("acc", ast.NewListLiteral(typesystem.NumberType))
	loop := ast.NewForLoop("n", ast.NewListLiteral(typesystem.NumberType, num(1), num(2), num(3)), ast.NewBlock())
	loop.Body = ast.NewBlock(ast.NewReassignment(acc.ID(), ast.NewFunctionCall(config.ListAppendFuncID,
		arg1(config.ListAppendListArgID, ref(acc.ID())),
		arg1(config.ListAppendElemArgID, ref(loop.ID())),
	)))
	got := e.Run(ast.NewBlock(acc, loop, ref(acc.ID())))
	assertValue(t, got, NewList(typesystem.NumberType, NewNumber(1), NewNumber(2), NewNumber(3)))
}

func TestListIndexing(t *testing.T) {
	list := func() ast.Node { return ast.NewListLiteral(typesystem.StringType, str("a"), str("b")) }
	tests := []struct {
		name string
		node ast.Node
		want Value
	}{
		{"in range", ast.NewListIndex(list(), num(1)), OkResult(NewString("b"))},
		{"negative", ast.NewListIndex(list(), num(-1)), ErrResult(NullValue)},
		{"past end", ast.NewListIndex(list(), num(2)), ErrResult(NullValue)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEvaluator(t)
			assertValue(t, e.Run(tt.node), tt.want)
		})
	}
}

func TestReassignListIndex(t *testing.T) {
	e, _ := newTestEvaluator(t)
	xs := ast.NewAssignment("xs", ast.NewListLiteral(typesystem.NumberType, num(1), num(2)))
	set := ast.NewReassignListIndex(xs.ID(), num(0), num(9))
	outOfRange := ast.NewReassignListIndex(xs.ID(), num(5), num(9))
	original := ast.NewAssignment("snapshot", ref(xs.ID()))
	root := ast.NewBlock(xs, original, set, outOfRange, ref(xs.ID()))

	got := e.Run(root)
	assertValue(t, got, NewList(typesystem.NumberType, NewNumber(9), NewNumber(2)))
	if v, _ := e.Env.LastResult(set.ID()); !Equal(v, OkResult(NullValue)) {
		t.Errorf("in range result = %s", v.Inspect())
	}
	if v, _ := e.Env.LastResult(outOfRange.ID()); !Equal(v, ErrResult(NewNumber(5))) {
		t.Errorf("out of range result = %s", v.Inspect())
	}
	if v, _ := e.Env.LastResult(original.ID()); !Equal(v, NewList(typesystem.NumberType, NewNumber(1), NewNumber(2))) {
		t.Errorf("earlier binding was mutated: %s", v.Inspect())
	}
}

func TestTryEarlyReturn(t *testing.T) {
	for _, tt := range []struct {
		index int64
		want  Value
	}{
		{0, NewNumber(10)},
		{5, NewNumber(-1)},
	} {
		e, _ := newTestEvaluator(t)
		x := ast.NewAssignment("x", ast.NewTry(
			ast.NewListIndex(ast.NewListLiteral(typesystem.NumberType, num(10)), num(tt.index)),
			num(-1),
		))
		fn := NewCodeFunction("first", typesystem.NumberType)
		fn.Block = ast.NewBlock(x, ref(x.ID()))
		e.Env.AddFunction(fn)

		assertValue(t, e.Call(fn.ID(), nil), tt.want)
	}
}

func TestMatchBindsPayload(t *testing.T) {
	e, _ := newTestEvaluator(t)
	someID := typesystem.OptionEnum.Variants[0].ID
	noneID := typesystem.OptionEnum.Variants[1].ID

	build := func(variant ID, payload ast.Node) *ast.Match {
		subject := ast.NewEnumVariantLiteral(typesystem.OptionOf(typesystem.StringType), variant, payload)
		m := ast.NewMatch(subject, nil)
		m.Branches[someID] = ast.NewBlock(ref(m.VariableID(someID)))
		m.Branches[noneID] = ast.NewBlock(str("nothing"))
		return m
	}
	assertValue(t, e.Run(build(someID, str("hi"))), NewString("hi"))
	assertValue(t, e.Run(build(noneID, ast.NewNullLiteral())), NewString("nothing"))
}

func TestWhileLoop(t *testing.T) {
	e, _ := newTestEvaluator(t)
	equals := func(a, b ast.Node) ast.Node {
		return ast.NewFunctionCall(config.EqualsFuncID,
			arg1(config.EqualsLeftArgID, a), arg1(config.EqualsRightArgID, b))
	}
	xs := ast.NewAssignment("xs", ast.NewListLiteral(typesystem.StringType))
	length := func() ast.Node {
		return ast.NewFunctionCall(config.LengthFuncID, arg1(config.LengthArgID, ref(xs.ID())))
	}
	// while not Equals(Length(xs), 3)
	cond := ast.NewConditional(equals(length(), num(3)),
		ast.NewBlock(equals(num(0), num(1))),
		ast.NewBlock(equals(num(1), num(1))),
	)
	loop := ast.NewWhileLoop(cond, ast.NewBlock(
		ast.NewReassignment(xs.ID(), ast.NewFunctionCall(config.ListAppendFuncID,
			arg1(config.ListAppendListArgID, ref(xs.ID())),
			arg1(config.ListAppendElemArgID, str("x")),
		)),
	))

	assertValue(t, e.Run(ast.NewBlock(xs, loop, length())), NewNumber(3))
}

func TestMapCallsAnonymousFunction(t *testing.T) {
	e, _ := newTestEvaluator(t)
	param := ast.NewArgumentDefinition(typesystem.StringType, "s")
	upper := ast.NewAnonymousFunction(param, typesystem.StringType, ast.NewBlock(
		ast.NewFunctionCall(config.CapitalizeFuncID, arg1(config.CapitalizeArgID, ref(param.ID))),
	))
	call := ast.NewFunctionCall(config.ListMapFuncID,
		arg1(config.ListMapListArgID, ast.NewListLiteral(typesystem.StringType, str("a"), str("b"))),
		arg1(config.ListMapMapperArgID, upper),
	)
	assertValue(t, e.Run(call), NewList(typesystem.StringType, NewString("A"), NewString("B")))
}

func TestStructLiteralAndFieldGet(t *testing.T) {
	e, _ := newTestEvaluator(t)
	status := typesystem.HTTPErrorStruct.Fields[0].ID
	message := typesystem.HTTPErrorStruct.Fields[1].ID
	lit := ast.NewStructLiteral(typesystem.HTTPErrorStruct.ID(),
		ast.NewStructLiteralField(status, num(404)),
		ast.NewStructLiteralField(message, str("not found")),
	)
	assertValue(t, e.Run(lit), NewHTTPError(404, "not found"))
	assertValue(t, e.Run(ast.NewStructFieldGet(lit, message)), NewString("not found"))
	assertErrorKind(t, e.Run(ast.NewStructFieldGet(num(1), message)), ArgumentError)
}

func TestRecursionDepthLimit(t *testing.T) {
	e, _ := newTestEvaluator(t)
	fn := NewCodeFunction("forever", typesystem.NullType)
	fn.Block = ast.NewBlock(ast.NewFunctionCall(fn.ID()))
	e.Env.AddFunction(fn)

	assertErrorKind(t, e.Call(fn.ID(), nil), StackOverflow)
}

func TestChatTrigger(t *testing.T) {
	e, _ := newTestEvaluator(t)
	trigger := NewChatTrigger("weather", ".wz")
	trigger.Block = ast.NewBlock(ast.NewStructFieldGet(
		ref(config.ChatTriggerMessageArgID), config.MessageArgumentFieldID))
	e.Env.AddFunction(trigger)

	tests := []struct {
		text    string
		matched bool
		want    string
	}{
		{".wz sf", true, "sf"},
		{".WZ  oakland ", true, "oakland"},
		{".wz", true, ""},
		{".wzx", false, ""},
		{"hello .wz", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := trigger.TryTrigger(e, "ann", tt.text)
			if ok != tt.matched {
				t.Fatalf("TryTrigger(%q) matched = %v, want %v", tt.text, ok, tt.matched)
			}
			if ok {
				assertValue(t, got, NewString(tt.want))
			}
		})
	}
}

func TestHTTPRequestBuiltin(t *testing.T) {
	e, _ := newTestEvaluator(t)
	e.Fetcher = &MockFetcher{Responses: map[string]Response{
		"https://api.test/ping": {Status: 200, Body: "pong"},
	}}
	call := func(url string) ast.Node {
		return ast.NewFunctionCall(config.HTTPRequestFuncID,
			arg1(config.HTTPRequestMethodArgID, str("get")),
			arg1(config.HTTPRequestURLArgID, str(url)))
	}
	assertValue(t, e.Run(call("https://api.test/ping")), OkResult(NewHTTPResponse(200, "pong")))

	got := e.Run(call("https://api.test/missing"))
	res, ok := got.(*Enum)
	if !ok || res.VariantID != config.ResultErrVariantID {
		t.Fatalf("missing page = %s, want an Error result", got.Inspect())
	}

	// a future passed as an argument is resolved before the callee runs
	e2, out := newTestEvaluator(t)
	e2.Fetcher = e.Fetcher
	body := ast.NewStructFieldGet(
		ast.NewTry(call("https://api.test/ping"), ast.NewNullLiteral()),
		config.HTTPResponseBodyFieldID,
	)
	fn := NewCodeFunction("ping", typesystem.NullType)
	fn.Block = ast.NewBlock(printCall(body))
	e2.Env.AddFunction(fn)
	e2.Call(fn.ID(), nil)
	if out.String() != "pong\n" {
		t.Errorf("console = %q, want %q", out.String(), "pong\n")
	}
}

func newPersonClient(env *Environment) (*JSONHTTPClient, *typesystem.Struct) {
	person := typesystem.NewStruct("Person", "",
		typesystem.NewStructField("name", "", typesystem.StringType),
		typesystem.NewStructField("age", "", typesystem.NumberType),
	)
	env.AddTypeSpec(person)
	people := typesystem.ListOf(typesystem.FromSpec(person))

	c := NewJSONHTTPClient("people")
	c.URL = ast.NewBlock(str("https://api.test/people"))
	c.URLParams = ast.NewBlock(ast.NewListLiteral(typesystem.HTTPFormParamType,
		ast.NewStructLiteral(config.HTTPFormParamStructID,
			ast.NewStructLiteralField(config.HTTPFormParamKeyFieldID, str("q")),
			ast.NewStructLiteralField(config.HTTPFormParamValueFieldID, str("a b")),
		)))
	c.IntermediateArg = ast.NewArgumentDefinition(people, "people")
	c.ReturnType = people
	env.AddFunction(c)
	return c, person
}

func TestJSONHTTPClient(t *testing.T) {
	const endpoint = "https://api.test/people?q=a+b"

	t.Run("decodes response", func(t *testing.T) {
		e, _ := newTestEvaluator(t)
		c, person := newPersonClient(e.Env)
		e.Fetcher = &MockFetcher{Responses: map[string]Response{
			endpoint: {Status: 200, Body: `[{"name":"Ann","age":31,"extra":true}]`},
		}}
		want := OkResult(NewList(typesystem.FromSpec(person), &Struct{
			StructID: person.ID(),
			Fields: map[ID]Value{
				person.Fields[0].ID: NewString("Ann"),
				person.Fields[1].ID: NewNumber(31),
			},
		}))
		assertValue(t, e.Call(c.ID(), nil), want)
	})

	t.Run("transform", func(t *testing.T) {
		e, _ := newTestEvaluator(t)
		c, _ := newPersonClient(e.Env)
		c.Transform = ast.NewBlock(ast.NewFunctionCall(config.LengthFuncID,
			arg1(config.LengthArgID, ref(c.IntermediateArg.ID))))
		c.ReturnType = typesystem.NumberType
		e.Fetcher = &MockFetcher{Responses: map[string]Response{
			endpoint: {Status: 200, Body: `[{"name":"Ann","age":31},{"name":"Bo","age":4}]`},
		}}
		assertValue(t, e.Call(c.ID(), nil), OkResult(NewNumber(2)))
	})

	t.Run("server error", func(t *testing.T) {
		e, _ := newTestEvaluator(t)
		c, _ := newPersonClient(e.Env)
		e.Fetcher = &MockFetcher{Responses: map[string]Response{
			endpoint: {Status: 500, Body: "boom"},
		}}
		assertValue(t, e.Call(c.ID(), nil), ErrResult(NewHTTPError(500, "boom")))
	})

	t.Run("shape mismatch", func(t *testing.T) {
		e, _ := newTestEvaluator(t)
		c, _ := newPersonClient(e.Env)
		e.Fetcher = &MockFetcher{Responses: map[string]Response{
			endpoint: {Status: 200, Body: `[{"name":"Ann"}]`},
		}}
		got := e.Call(c.ID(), nil)
		res, ok := got.(*Enum)
		if !ok || res.VariantID != config.ResultErrVariantID {
			t.Fatalf("result = %s, want an Error result", got.Inspect())
		}
		msg := res.Payload.(*Struct).Fields[config.HTTPErrorMessageFieldID].(*String).Value
		if !strings.Contains(msg, ".age") {
			t.Errorf("message %q does not name the missing field", msg)
		}
	})

	t.Run("transform runs once per call", func(t *testing.T) {
		e, out := newTestEvaluator(t)
		c, _ := newPersonClient(e.Env)
		c.Transform = ast.NewBlock(
			printCall(str("transform ran")),
			ast.NewFunctionCall(config.LengthFuncID, arg1(config.LengthArgID, ref(c.IntermediateArg.ID))),
		)
		c.ReturnType = typesystem.NumberType
		e.Fetcher = &MockFetcher{Responses: map[string]Response{
			endpoint: {Status: 200, Body: `[{"name":"Ann","age":31},{"name":"Bo","age":4}]`},
		}}

		identity := func(n ast.Node) ast.Node {
			return ast.NewFunctionCall(config.IdentityFuncID, arg1(config.IdentityArgID, n))
		}
		x := ast.NewAssignment("x", ast.NewFunctionCall(c.ID()))
		got := e.Run(ast.NewBlock(x, identity(ref(x.ID())), identity(ref(x.ID())), identity(ref(x.ID()))))

		assertValue(t, got, OkResult(NewNumber(2)))
		if n := strings.Count(out.String(), "transform ran"); n != 1 {
			t.Errorf("transform ran %d times, want 1", n)
		}
	})

	if got := (&JSONHTTPClient{ReturnType: typesystem.StringType}).Returns(); !got.Equal(
		typesystem.ResultOf(typesystem.StringType, typesystem.HTTPErrorType)) {
		t.Errorf("Returns() = %s", got)
	}
}
