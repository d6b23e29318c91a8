package evaluator

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/funvibe/nodecore/internal/ast"
	"github.com/funvibe/nodecore/internal/typesystem"
)

type ID = typesystem.ID

type ValueKind string

const (
	NULL_VALUE         = "NULL"
	BOOLEAN_VALUE      = "BOOLEAN"
	STRING_VALUE       = "STRING"
	NUMBER_VALUE       = "NUMBER"
	LIST_VALUE         = "LIST"
	STRUCT_VALUE       = "STRUCT"
	ENUM_VALUE         = "ENUM"
	ANON_FUNC_VALUE    = "ANON_FUNC"
	ERROR_VALUE        = "ERROR"
	FUTURE_VALUE       = "FUTURE"
	EARLY_RETURN_VALUE = "EARLY_RETURN" // control flow only, never stored
)

// Value is the result of evaluating a code node.
type Value interface {
	Kind() ValueKind
	Inspect() string
}

type Null struct{}

func (*Null) Kind() ValueKind { return NULL_VALUE }
func (*Null) Inspect() string { return "null" }

// NullValue is shared; Null carries no state.
var NullValue = &Null{}

type Boolean struct {
	Value bool
}

func (*Boolean) Kind() ValueKind   { return BOOLEAN_VALUE }
func (b *Boolean) Inspect() string { return strconv.FormatBool(b.Value) }

var (
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

func nativeBoolToBooleanValue(b bool) *Boolean {
	if b {
		return TRUE
	}
	return FALSE
}

type String struct {
	Value string
}

func (*String) Kind() ValueKind   { return STRING_VALUE }
func (s *String) Inspect() string { return s.Value }

type Number struct {
	Value int64
}

func (*Number) Kind() ValueKind   { return NUMBER_VALUE }
func (n *Number) Inspect() string { return strconv.FormatInt(n.Value, 10) }

type List struct {
	ElemType typesystem.Type
	Items    []Value
}

func (*List) Kind() ValueKind { return LIST_VALUE }
func (l *List) Inspect() string {
	parts := make([]string, len(l.Items))
	for i, item := range l.Items {
		parts[i] = item.Inspect()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

type Struct struct {
	StructID ID
	Fields   map[ID]Value
}

func (*Struct) Kind() ValueKind { return STRUCT_VALUE }
func (s *Struct) Inspect() string {
	ids := make([]ID, 0, len(s.Fields))
	for id := range s.Fields {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b ID) int { return strings.Compare(a.String(), b.String()) })
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%s: %s", id, s.Fields[id].Inspect())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

type Enum struct {
	VariantID ID
	Payload   Value
}

func (*Enum) Kind() ValueKind { return ENUM_VALUE }
func (e *Enum) Inspect() string {
	return fmt.Sprintf("%s(%s)", e.VariantID, e.Payload.Inspect())
}

// AnonFunc is a closure: the anonymous function node plus the scope it was
// created in.
type AnonFunc struct {
	Func  *ast.AnonymousFunction
	Scope *Scope
}

func (*AnonFunc) Kind() ValueKind   { return ANON_FUNC_VALUE }
func (f *AnonFunc) Inspect() string { return fmt.Sprintf("<anonymous function %s>", f.Func.ID()) }

type ErrorKind string

const (
	ArgumentError     ErrorKind = "ArgumentError"
	UndefinedFunction ErrorKind = "UndefinedFunctionError"
	PlaceholderError  ErrorKind = "PlaceholderError"
	StackOverflow     ErrorKind = "StackOverflowError"
	Cancelled         ErrorKind = "CancelledError"
	DecodeError       ErrorKind = "DecodeError"
	HTTPFailure       ErrorKind = "HTTPError"
)

// Error is a program error surfaced as an ordinary value.
type Error struct {
	ErrKind ErrorKind
	Message string
}

func (*Error) Kind() ValueKind { return ERROR_VALUE }
func (e *Error) Inspect() string {
	if e.Message == "" {
		return string(e.ErrKind)
	}
	return fmt.Sprintf("%s: %s", e.ErrKind, e.Message)
}

func newError(kind ErrorKind, format string, a ...any) *Error {
	return &Error{ErrKind: kind, Message: fmt.Sprintf(format, a...)}
}

// EarlyReturn unwinds blocks up to the enclosing function call.
type EarlyReturn struct {
	Value Value
}

func (*EarlyReturn) Kind() ValueKind   { return EARLY_RETURN_VALUE }
func (r *EarlyReturn) Inspect() string { return r.Value.Inspect() }

func isError(v Value) bool {
	return v != nil && v.Kind() == ERROR_VALUE
}

func NewString(s string) *String { return &String{Value: s} }
func NewNumber(n int64) *Number  { return &Number{Value: n} }

func NewList(elem typesystem.Type, items ...Value) *List {
	if items == nil {
		items = []Value{}
	}
	return &List{ElemType: elem, Items: items}
}

func OkResult(v Value) *Enum {
	return &Enum{VariantID: resultOkID, Payload: v}
}

func ErrResult(v Value) *Enum {
	return &Enum{VariantID: resultErrID, Payload: v}
}

func Some(v Value) *Enum {
	return &Enum{VariantID: optionSomeID, Payload: v}
}

func None() *Enum {
	return &Enum{VariantID: optionNoneID, Payload: NullValue}
}

// NewMessage builds the struct a chat trigger receives.
func NewMessage(sender, argumentText, fullText string) *Struct {
	return &Struct{StructID: typesystem.MessageStruct.ID(), Fields: map[ID]Value{
		typesystem.MessageStruct.Fields[0].ID: NewString(sender),
		typesystem.MessageStruct.Fields[1].ID: NewString(argumentText),
		typesystem.MessageStruct.Fields[2].ID: NewString(fullText),
	}}
}

// NewHTTPError builds an HTTP Error struct value.
func NewHTTPError(status int, message string) *Struct {
	return &Struct{StructID: typesystem.HTTPErrorStruct.ID(), Fields: map[ID]Value{
		typesystem.HTTPErrorStruct.Fields[0].ID: NewNumber(int64(status)),
		typesystem.HTTPErrorStruct.Fields[1].ID: NewString(message),
	}}
}

// NewHTTPResponse builds an HTTP Response struct value.
func NewHTTPResponse(status int, body string) *Struct {
	return &Struct{StructID: typesystem.HTTPResponseStruct.ID(), Fields: map[ID]Value{
		typesystem.HTTPResponseStruct.Fields[0].ID: NewString(body),
		typesystem.HTTPResponseStruct.Fields[1].ID: NewNumber(int64(status)),
	}}
}

// Equal compares two plain values structurally. Futures and closures are
// only equal to themselves.
func Equal(a, b Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a := a.(type) {
	case *Null:
		return true
	case *Boolean:
		return a.Value == b.(*Boolean).Value
	case *String:
		return a.Value == b.(*String).Value
	case *Number:
		return a.Value == b.(*Number).Value
	case *List:
		bl := b.(*List)
		return len(a.Items) == len(bl.Items) && slices.EqualFunc(a.Items, bl.Items, Equal)
	case *Struct:
		bs := b.(*Struct)
		if a.StructID != bs.StructID || len(a.Fields) != len(bs.Fields) {
			return false
		}
		for id, v := range a.Fields {
			other, ok := bs.Fields[id]
			if !ok || !Equal(v, other) {
				return false
			}
		}
		return true
	case *Enum:
		be := b.(*Enum)
		return a.VariantID == be.VariantID && Equal(a.Payload, be.Payload)
	case *Error:
		be := b.(*Error)
		return a.ErrKind == be.ErrKind && a.Message == be.Message
	}
	return a == b
}
