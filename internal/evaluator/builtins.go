package evaluator

import (
	"fmt"
	"strings"

	"github.com/funvibe/nodecore/internal/ast"
	"github.com/funvibe/nodecore/internal/config"
	"github.com/funvibe/nodecore/internal/typesystem"
)

var (
	resultOkID   = config.ResultOkVariantID
	resultErrID  = config.ResultErrVariantID
	optionSomeID = config.OptionSomeVariantID
	optionNoneID = config.OptionNoneVariantID
)

func init() {
	for _, b := range Builtins() {
		if b.Fn == nil {
			panic(fmt.Sprintf("builtin %q has no implementation", b.FuncName))
		}
	}
}

func arg(id ID, t typesystem.Type, name string) ast.ArgumentDefinition {
	return ast.ArgumentDefinition{ID: id, ArgType: t, ShortName: name}
}

func generic(id ID, name string) (*typesystem.GenericParam, typesystem.Type) {
	return typesystem.NewGenericParam(id, name), typesystem.FromSpecID(id)
}

// Builtins returns the functions every environment starts with.
func Builtins() []*Builtin {
	identityT, identityTType := generic(config.IdentityGenericID, "T")
	lengthT, lengthTType := generic(config.LengthGenericID, "T")
	appendT, appendTType := generic(config.ListAppendGenericID, "T")
	mapFrom, mapFromType := generic(config.ListMapFromID, "T")
	mapTo, mapToType := generic(config.ListMapToID, "U")
	equalsT, equalsTType := generic(config.EqualsGenericID, "T")

	return []*Builtin{
		{
			FuncID:     config.PrintFuncID,
			FuncName:   config.PrintFuncName,
			Doc:        "Writes text to the console",
			Args:       []ast.ArgumentDefinition{arg(config.PrintArgID, typesystem.StringType, "String")},
			ReturnType: typesystem.NullType,
			Fn:         builtinPrint,
		},
		{
			FuncID:     config.CapitalizeFuncID,
			FuncName:   config.CapitalizeFuncName,
			Doc:        "Converts text to upper case",
			Args:       []ast.ArgumentDefinition{arg(config.CapitalizeArgID, typesystem.StringType, "String")},
			ReturnType: typesystem.StringType,
			Fn:         builtinCapitalize,
		},
		{
			FuncID:     config.IdentityFuncID,
			FuncName:   config.IdentityFuncName,
			Doc:        "Returns its argument unchanged",
			Args:       []ast.ArgumentDefinition{arg(config.IdentityArgID, identityTType, "Value")},
			ReturnType: identityTType,
			Generics:   []*typesystem.GenericParam{identityT},
			Fn:         builtinIdentity,
		},
		{
			FuncID:     config.LengthFuncID,
			FuncName:   config.LengthFuncName,
			Doc:        "Number of items in a list",
			Args:       []ast.ArgumentDefinition{arg(config.LengthArgID, typesystem.ListOf(lengthTType), "List")},
			ReturnType: typesystem.NumberType,
			Generics:   []*typesystem.GenericParam{lengthT},
			Fn:         builtinLength,
		},
		{
			FuncID:   config.ConcatFuncID,
			FuncName: config.ConcatFuncName,
			Doc:      "Joins two pieces of text",
			Args: []ast.ArgumentDefinition{
				arg(config.ConcatLeftArgID, typesystem.StringType, "First"),
				arg(config.ConcatRightArgID, typesystem.StringType, "Second"),
			},
			ReturnType: typesystem.StringType,
			Fn:         builtinConcat,
		},
		{
			FuncID:   config.ListAppendFuncID,
			FuncName: config.ListAppendFuncName,
			Doc:      "Adds an item to the end of a list",
			Args: []ast.ArgumentDefinition{
				arg(config.ListAppendListArgID, typesystem.ListOf(appendTType), "List"),
				arg(config.ListAppendElemArgID, appendTType, "Item"),
			},
			ReturnType: typesystem.ListOf(appendTType),
			Generics:   []*typesystem.GenericParam{appendT},
			Fn:         builtinListAppend,
		},
		{
			FuncID:   config.ListMapFuncID,
			FuncName: config.ListMapFuncName,
			Doc:      "Runs a function on every item of a list",
			Args: []ast.ArgumentDefinition{
				arg(config.ListMapListArgID, typesystem.ListOf(mapFromType), "List"),
				arg(config.ListMapMapperArgID, typesystem.AnonFuncOf(mapFromType, mapToType), "Function"),
			},
			ReturnType: typesystem.ListOf(mapToType),
			Generics:   []*typesystem.GenericParam{mapFrom, mapTo},
			Fn:         builtinListMap,
		},
		{
			FuncID:   config.EqualsFuncID,
			FuncName: config.EqualsFuncName,
			Doc:      "Whether two values are the same",
			Args: []ast.ArgumentDefinition{
				arg(config.EqualsLeftArgID, equalsTType, "Left"),
				arg(config.EqualsRightArgID, equalsTType, "Right"),
			},
			ReturnType: typesystem.BooleanType,
			Generics:   []*typesystem.GenericParam{equalsT},
			Fn:         builtinEquals,
		},
		{
			FuncID:   config.HTTPRequestFuncID,
			FuncName: config.HTTPRequestFuncName,
			Doc:      "Sends an HTTP request and returns the response body and status",
			Args: []ast.ArgumentDefinition{
				arg(config.HTTPRequestMethodArgID, typesystem.StringType, "Method"),
				arg(config.HTTPRequestURLArgID, typesystem.StringType, "URL"),
			},
			ReturnType: typesystem.ResultOf(typesystem.FromSpec(typesystem.HTTPResponseStruct), typesystem.HTTPErrorType),
			Fn:         builtinHTTPRequest,
		},
	}
}

func stringArg(args map[ID]Value, id ID, fn string) (string, Value) {
	s, ok := args[id].(*String)
	if !ok {
		return "", newError(ArgumentError, "%s expects a String, got %s", fn, kindOf(args[id]))
	}
	return s.Value, nil
}

func listArg(args map[ID]Value, id ID, fn string) (*List, Value) {
	l, ok := args[id].(*List)
	if !ok {
		return nil, newError(ArgumentError, "%s expects a List, got %s", fn, kindOf(args[id]))
	}
	return l, nil
}

func kindOf(v Value) ValueKind {
	if v == nil {
		return "nothing"
	}
	return v.Kind()
}

func builtinPrint(e *Evaluator, args map[ID]Value) Value {
	s, errv := stringArg(args, config.PrintArgID, config.PrintFuncName)
	if errv != nil {
		return errv
	}
	fmt.Fprintln(e.Out, s)
	return NullValue
}

func builtinCapitalize(_ *Evaluator, args map[ID]Value) Value {
	s, errv := stringArg(args, config.CapitalizeArgID, config.CapitalizeFuncName)
	if errv != nil {
		return errv
	}
	return NewString(strings.ToUpper(s))
}

func builtinIdentity(_ *Evaluator, args map[ID]Value) Value {
	v, ok := args[config.IdentityArgID]
	if !ok {
		return newError(ArgumentError, "%s expects a value", config.IdentityFuncName)
	}
	return v
}

func builtinLength(_ *Evaluator, args map[ID]Value) Value {
	l, errv := listArg(args, config.LengthArgID, config.LengthFuncName)
	if errv != nil {
		return errv
	}
	return NewNumber(int64(len(l.Items)))
}

func builtinConcat(_ *Evaluator, args map[ID]Value) Value {
	left, errv := stringArg(args, config.ConcatLeftArgID, config.ConcatFuncName)
	if errv != nil {
		return errv
	}
	right, errv := stringArg(args, config.ConcatRightArgID, config.ConcatFuncName)
	if errv != nil {
		return errv
	}
	return NewString(left + right)
}

func builtinListAppend(_ *Evaluator, args map[ID]Value) Value {
	l, errv := listArg(args, config.ListAppendListArgID, config.ListAppendFuncName)
	if errv != nil {
		return errv
	}
	elem, ok := args[config.ListAppendElemArgID]
	if !ok {
		return newError(ArgumentError, "%s expects an item", config.ListAppendFuncName)
	}
	items := make([]Value, len(l.Items), len(l.Items)+1)
	copy(items, l.Items)
	return &List{ElemType: l.ElemType, Items: append(items, elem)}
}

func builtinListMap(e *Evaluator, args map[ID]Value) Value {
	l, errv := listArg(args, config.ListMapListArgID, config.ListMapFuncName)
	if errv != nil {
		return errv
	}
	fn, ok := args[config.ListMapMapperArgID].(*AnonFunc)
	if !ok {
		return newError(ArgumentError, "%s expects a function, got %s",
			config.ListMapFuncName, kindOf(args[config.ListMapMapperArgID]))
	}
	out := make([]Value, len(l.Items))
	for i, item := range l.Items {
		out[i] = e.CallAnonFunc(fn, item)
		if unwinds(out[i]) {
			return out[i]
		}
	}
	return e.force(&List{ElemType: fn.Func.Returns, Items: out})
}

func builtinEquals(_ *Evaluator, args map[ID]Value) Value {
	left, lok := args[config.EqualsLeftArgID]
	right, rok := args[config.EqualsRightArgID]
	if !lok || !rok {
		return newError(ArgumentError, "%s expects two values", config.EqualsFuncName)
	}
	return nativeBoolToBooleanValue(Equal(left, right))
}

// builtinHTTPRequest returns a future of Result<HTTP Response, HTTP Error>.
func builtinHTTPRequest(e *Evaluator, args map[ID]Value) Value {
	method, errv := stringArg(args, config.HTTPRequestMethodArgID, config.HTTPRequestFuncName)
	if errv != nil {
		return errv
	}
	endpoint, errv := stringArg(args, config.HTTPRequestURLArgID, config.HTTPRequestFuncName)
	if errv != nil {
		return errv
	}
	e.Logger.Debug("http request", "method", method, "url", endpoint)
	return NewFuture(fetchTask(e.Fetcher, strings.ToUpper(method), endpoint))
}
