package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/funvibe/nodecore/internal/ast"
	"github.com/funvibe/nodecore/internal/config"
	"github.com/funvibe/nodecore/internal/typesystem"
)

// Function is anything a FunctionCall can dispatch to. The set is closed:
// CodeFunction, Builtin, JSONHTTPClient and ChatTrigger.
type Function interface {
	ID() ID
	Name() string
	Description() string
	TakesArgs() []ast.ArgumentDefinition
	Returns() typesystem.Type
	// DefinesGenerics lists the type parameters the signature refers to.
	DefinesGenerics() []*typesystem.GenericParam
	Call(e *Evaluator, args map[ID]Value) Value
	function()
}

// CodeFunction is a user function whose body is a single block.
type CodeFunction struct {
	FuncID     ID                         `json:"id"`
	FuncName   string                     `json:"name"`
	Doc        string                     `json:"description"`
	Args       []ast.ArgumentDefinition   `json:"args"`
	ReturnType typesystem.Type            `json:"return_type"`
	Block      *ast.Block                 `json:"-"`
	Generics   []*typesystem.GenericParam `json:"generics"`
}

func NewCodeFunction(name string, returns typesystem.Type) *CodeFunction {
	return &CodeFunction{
		FuncID:     typesystem.NewID(),
		FuncName:   name,
		Args:       []ast.ArgumentDefinition{},
		ReturnType: returns,
		Block:      ast.NewBlock(),
	}
}

func (f *CodeFunction) ID() ID                                      { return f.FuncID }
func (f *CodeFunction) Name() string                                { return f.FuncName }
func (f *CodeFunction) Description() string                         { return f.Doc }
func (f *CodeFunction) TakesArgs() []ast.ArgumentDefinition         { return f.Args }
func (f *CodeFunction) Returns() typesystem.Type                    { return f.ReturnType }
func (f *CodeFunction) DefinesGenerics() []*typesystem.GenericParam { return f.Generics }
func (*CodeFunction) function()                                     {}

func (f *CodeFunction) Call(e *Evaluator, args map[ID]Value) Value {
	return unwrapReturn(e.Eval(f.Block, bindArgs(args)))
}

// BuiltinFunction is the Go implementation behind a Builtin.
type BuiltinFunction func(e *Evaluator, args map[ID]Value) Value

type Builtin struct {
	FuncID     ID
	FuncName   string
	Doc        string
	Args       []ast.ArgumentDefinition
	ReturnType typesystem.Type
	Generics   []*typesystem.GenericParam
	Fn         BuiltinFunction
}

func (b *Builtin) ID() ID                                      { return b.FuncID }
func (b *Builtin) Name() string                                { return b.FuncName }
func (b *Builtin) Description() string                         { return b.Doc }
func (b *Builtin) TakesArgs() []ast.ArgumentDefinition         { return b.Args }
func (b *Builtin) Returns() typesystem.Type                    { return b.ReturnType }
func (b *Builtin) DefinesGenerics() []*typesystem.GenericParam { return b.Generics }
func (b *Builtin) Call(e *Evaluator, args map[ID]Value) Value  { return b.Fn(e, args) }
func (*Builtin) function()                                     {}

// JSONHTTPClient is a generated client: URL builds the endpoint, URLParams
// the query string (a List of HTTP Form Param), and the JSON response is
// decoded into the intermediate type. A non-empty Transform block then runs
// with the decoded value bound to IntermediateArg.
type JSONHTTPClient struct {
	FuncID          ID                       `json:"id"`
	FuncName        string                   `json:"name"`
	Doc             string                   `json:"description"`
	Args            []ast.ArgumentDefinition `json:"args"`
	URL             *ast.Block               `json:"-"`
	URLParams       *ast.Block               `json:"-"`
	Transform       *ast.Block               `json:"-"`
	IntermediateArg ast.ArgumentDefinition   `json:"intermediate_parse_argument"`
	// IntermediateStructs are the struct ids synthesized for the response
	// shape. They are replaced together whenever the shape is re-derived.
	IntermediateStructs []ID            `json:"intermediate_parse_schema"`
	ReturnType          typesystem.Type `json:"return_type"`
}

func NewJSONHTTPClient(name string) *JSONHTTPClient {
	return &JSONHTTPClient{
		FuncID:              typesystem.NewID(),
		FuncName:            name,
		Args:                []ast.ArgumentDefinition{},
		URL:                 ast.NewBlock(),
		URLParams:           ast.NewBlock(),
		Transform:           ast.NewBlock(),
		IntermediateArg:     ast.NewArgumentDefinition(typesystem.NullType, "response"),
		IntermediateStructs: []ID{},
		ReturnType:          typesystem.NullType,
	}
}

func (c *JSONHTTPClient) ID() ID                                    { return c.FuncID }
func (c *JSONHTTPClient) Name() string                              { return c.FuncName }
func (c *JSONHTTPClient) Description() string                       { return c.Doc }
func (c *JSONHTTPClient) TakesArgs() []ast.ArgumentDefinition       { return c.Args }
func (*JSONHTTPClient) DefinesGenerics() []*typesystem.GenericParam { return nil }
func (*JSONHTTPClient) function()                                   {}

// Returns is Result<T, HTTP Error> where T is the transform's output type.
func (c *JSONHTTPClient) Returns() typesystem.Type {
	return typesystem.ResultOf(c.ReturnType, typesystem.HTTPErrorType)
}

// IntermediateType is the type the JSON body decodes into.
func (c *JSONHTTPClient) IntermediateType() typesystem.Type {
	return c.IntermediateArg.ArgType
}

func (c *JSONHTTPClient) Call(e *Evaluator, args map[ID]Value) Value {
	scope := bindArgs(args)
	endpoint, errv := c.buildURL(e, scope)
	if errv != nil {
		return errv
	}
	e.Logger.Debug("json client request", "client", c.FuncName, "url", endpoint)

	fetch := fetchTask(e.Fetcher, http.MethodGet, endpoint)
	return NewFuture(fetch).Then(func(v Value) Value {
		resp, ok := v.(*Enum)
		if !ok || resp.VariantID != resultOkID {
			return v
		}
		body := resp.Payload.(*Struct).Fields[config.HTTPResponseBodyFieldID].(*String).Value
		var raw any
		dec := json.NewDecoder(strings.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return ErrResult(NewHTTPError(0, fmt.Sprintf("invalid JSON: %v", err)))
		}
		decoded, err := DecodeJSON(raw, c.IntermediateType(), e.Env)
		if err != nil {
			return ErrResult(NewHTTPError(0, err.Error()))
		}
		if c.Transform == nil || len(c.Transform.Exprs) == 0 {
			return OkResult(decoded)
		}
		inner := NewScope()
		inner.Set(c.IntermediateArg.ID, decoded)
		out := e.force(unwrapReturn(e.Eval(c.Transform, inner)))
		return OkResult(out)
	})
}

func (c *JSONHTTPClient) buildURL(e *Evaluator, scope *Scope) (string, Value) {
	base, ok := e.force(e.Eval(c.URL, scope)).(*String)
	if !ok {
		return "", newError(ArgumentError, "URL code of %s must produce a String", c.FuncName)
	}
	u, err := url.Parse(base.Value)
	if err != nil {
		return "", newError(ArgumentError, "bad URL %q: %v", base.Value, err)
	}
	if c.URLParams == nil || len(c.URLParams.Exprs) == 0 {
		return u.String(), nil
	}
	params, ok := e.force(e.Eval(c.URLParams, scope)).(*List)
	if !ok {
		return "", newError(ArgumentError, "URL params code of %s must produce a List", c.FuncName)
	}
	query := u.Query()
	for _, item := range params.Items {
		s, ok := item.(*Struct)
		if !ok {
			return "", newError(ArgumentError, "URL param must be an HTTP Form Param, got %s", item.Kind())
		}
		key, _ := s.Fields[config.HTTPFormParamKeyFieldID].(*String)
		val, _ := s.Fields[config.HTTPFormParamValueFieldID].(*String)
		if key == nil || val == nil {
			return "", newError(ArgumentError, "URL param is missing key or value")
		}
		query.Add(key.Value, val.Value)
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// ChatTrigger runs its block when a chat message starts with Prefix.
type ChatTrigger struct {
	FuncID   ID         `json:"id"`
	FuncName string     `json:"name"`
	Prefix   string     `json:"prefix"`
	Block    *ast.Block `json:"-"`
}

func NewChatTrigger(name, prefix string) *ChatTrigger {
	return &ChatTrigger{FuncID: typesystem.NewID(), FuncName: name, Prefix: prefix, Block: ast.NewBlock()}
}

func (t *ChatTrigger) ID() ID                                    { return t.FuncID }
func (t *ChatTrigger) Name() string                              { return t.FuncName }
func (*ChatTrigger) Description() string                         { return "" }
func (*ChatTrigger) Returns() typesystem.Type                    { return typesystem.NullType }
func (*ChatTrigger) DefinesGenerics() []*typesystem.GenericParam { return nil }
func (*ChatTrigger) function()                                   {}

func (*ChatTrigger) TakesArgs() []ast.ArgumentDefinition {
	return []ast.ArgumentDefinition{{
		ID:        config.ChatTriggerMessageArgID,
		ArgType:   typesystem.MessageType,
		ShortName: "Message",
	}}
}

func (t *ChatTrigger) Call(e *Evaluator, args map[ID]Value) Value {
	return unwrapReturn(e.Eval(t.Block, bindArgs(args)))
}

// prefixPattern matches Prefix case-insensitively at the start of a message,
// ending on a word boundary or the end of the text.
func (t *ChatTrigger) prefixPattern() *regexp.Regexp {
	return regexp.MustCompile(`^(?i)` + regexp.QuoteMeta(t.Prefix) + `(?:\b|$)`)
}

// TryTrigger calls the trigger if text starts with its prefix. The message
// passed in carries the text with the prefix cut off as argument_text.
func (t *ChatTrigger) TryTrigger(e *Evaluator, sender, text string) (Value, bool) {
	re := t.prefixPattern()
	if !re.MatchString(text) {
		return nil, false
	}
	argument := strings.TrimSpace(re.ReplaceAllString(text, ""))
	msg := NewMessage(sender, argument, text)
	return e.force(t.Call(e, map[ID]Value{config.ChatTriggerMessageArgID: msg})), true
}

// CodeBlocks returns the editable blocks of f, in display order.
func CodeBlocks(f Function) []*ast.Block {
	switch f := f.(type) {
	case *CodeFunction:
		return []*ast.Block{f.Block}
	case *JSONHTTPClient:
		return []*ast.Block{f.URL, f.URLParams, f.Transform}
	case *ChatTrigger:
		return []*ast.Block{f.Block}
	}
	return nil
}

func bindArgs(args map[ID]Value) *Scope {
	scope := NewScope()
	for id, v := range args {
		scope.Set(id, v)
	}
	return scope
}

func unwrapReturn(v Value) Value {
	if r, ok := v.(*EarlyReturn); ok {
		return r.Value
	}
	return v
}

// fetchTask performs one request through f. It never touches evaluator
// state, so it is safe to run on the driver's worker goroutines.
func fetchTask(f Fetcher, method, endpoint string) func(ctx context.Context) Value {
	return func(ctx context.Context) Value {
		resp, err := f.Fetch(ctx, method, endpoint)
		if err != nil {
			return ErrResult(NewHTTPError(0, err.Error()))
		}
		if resp.Status >= http.StatusBadRequest {
			return ErrResult(NewHTTPError(resp.Status, resp.Body))
		}
		return OkResult(NewHTTPResponse(resp.Status, resp.Body))
	}
}
