package evaluator

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/funvibe/nodecore/internal/ast"
	"github.com/funvibe/nodecore/internal/config"
)

type Evaluator struct {
	// Context for cancellation
	Context context.Context

	Env *Environment
	Out io.Writer

	// Driver resolves futures whenever a value is consumed by further
	// evaluation.
	Driver  *Driver
	Fetcher Fetcher
	Logger  *slog.Logger

	// MaxDepth bounds the nesting of Eval calls; deeper evaluation yields a
	// StackOverflow error value.
	MaxDepth int

	evalDepth int
}

func New(env *Environment, settings config.Settings) *Evaluator {
	logger := slog.Default()
	return &Evaluator{
		Context:  context.Background(),
		Env:      env,
		Out:      os.Stdout,
		Driver:   NewDriver(logger),
		Fetcher:  NewHTTPFetcher(settings.HTTPTimeout, settings.UserAgent),
		Logger:   logger,
		MaxDepth: settings.MaxEvalDepth,
	}
}

// WithLogger replaces the logger of e and its driver.
func (e *Evaluator) WithLogger(logger *slog.Logger) *Evaluator {
	e.Logger = logger
	e.Driver.Logger = logger
	return e
}

func (e *Evaluator) ctx() context.Context {
	if e.Context == nil {
		return context.Background()
	}
	return e.Context
}

// force hands v to the driver and returns it with every future resolved.
func (e *Evaluator) force(v Value) Value {
	if !containsFuture(v) {
		return v
	}
	return e.Driver.Resolve(e.ctx(), v)
}

// Run evaluates node in a fresh scope and resolves the result completely.
func (e *Evaluator) Run(node ast.Node) Value {
	return e.force(unwrapReturn(e.Eval(node, NewScope())))
}

// Call invokes the function with id after resolving args. It is the entry
// point for running a world function from outside a code tree.
func (e *Evaluator) Call(id ID, args map[ID]Value) Value {
	fn, ok := e.Env.Function(id)
	if !ok {
		e.Logger.Warn("undefined function", "id", id)
		return newError(UndefinedFunction, "no function with id %s", id)
	}
	return e.force(fn.Call(e, args))
}

func (e *Evaluator) Eval(node ast.Node, scope *Scope) Value {
	e.evalDepth++
	defer func() { e.evalDepth-- }()
	if e.MaxDepth > 0 && e.evalDepth > e.MaxDepth {
		return newError(StackOverflow, "maximum evaluation depth %d exceeded", e.MaxDepth)
	}

	if e.Context != nil {
		select {
		case <-e.Context.Done():
			return newError(Cancelled, "execution cancelled: %v", e.Context.Err())
		default:
		}
	}

	v := e.evalCore(node, scope)
	e.Env.recordResult(node.ID(), v)
	return v
}

func (e *Evaluator) evalCore(node ast.Node, scope *Scope) Value {
	switch node := node.(type) {
	case *ast.Block:
		return e.evalBlock(node, scope)
	case *ast.StringLiteral:
		return NewString(node.Value)
	case *ast.NumberLiteral:
		return NewNumber(node.Value)
	case *ast.NullLiteral:
		return NullValue
	case *ast.ListLiteral:
		return e.evalListLiteral(node, scope)
	case *ast.StructLiteral:
		return e.evalStructLiteral(node, scope)
	case *ast.StructLiteralField:
		return e.Eval(node.Expr, scope)
	case *ast.Assignment:
		v := e.Eval(node.Expr, scope)
		if unwinds(v) {
			return v
		}
		return scope.Set(node.ID(), v)
	case *ast.Reassignment:
		v := e.Eval(node.Expr, scope)
		if unwinds(v) {
			return v
		}
		if !scope.Update(node.AssignmentID, v) {
			panic(&UnboundVariableError{ReferenceID: node.ID(), AssignmentID: node.AssignmentID})
		}
		return v
	case *ast.ReassignListIndex:
		return e.evalReassignListIndex(node, scope)
	case *ast.VariableReference:
		v, ok := scope.Get(node.AssignmentID)
		if !ok {
			panic(&UnboundVariableError{ReferenceID: node.ID(), AssignmentID: node.AssignmentID})
		}
		return v
	case *ast.FunctionCall:
		return e.evalFunctionCall(node, scope)
	case *ast.FunctionReference:
		return NullValue
	case *ast.Argument:
		return e.Eval(node.Expr, scope)
	case *ast.AnonymousFunction:
		return &AnonFunc{Func: node, Scope: scope}
	case *ast.Placeholder:
		return newError(PlaceholderError, "%s", node.Description)
	case *ast.Conditional:
		return e.evalConditional(node, scope)
	case *ast.Match:
		return e.evalMatch(node, scope)
	case *ast.ForLoop:
		return e.evalForLoop(node, scope)
	case *ast.WhileLoop:
		return e.evalWhileLoop(node, scope)
	case *ast.StructFieldGet:
		return e.evalStructFieldGet(node, scope)
	case *ast.ListIndex:
		return e.evalListIndex(node, scope)
	case *ast.EnumVariantLiteral:
		var payload Value = NullValue
		if node.Payload != nil {
			payload = e.Eval(node.Payload, scope)
			if unwinds(payload) {
				return payload
			}
		}
		return &Enum{VariantID: node.VariantID, Payload: payload}
	case *ast.EarlyReturn:
		v := e.Eval(node.Expr, scope)
		if unwinds(v) {
			return v
		}
		return &EarlyReturn{Value: v}
	case *ast.Try:
		return e.evalTry(node, scope)
	}
	return newError(ArgumentError, "cannot evaluate %s", node.Describe())
}

// unwinds reports whether v must stop the enclosing evaluation: an early
// return on its way to the function boundary, or an error that aborts the
// whole run.
func unwinds(v Value) bool {
	switch v := v.(type) {
	case *EarlyReturn:
		return true
	case *Error:
		return v.ErrKind == StackOverflow || v.ErrKind == Cancelled
	}
	return false
}

// operand evaluates a node whose value is consumed right away, so any
// future in it is resolved first.
func (e *Evaluator) operand(node ast.Node, scope *Scope) Value {
	v := e.Eval(node, scope)
	if unwinds(v) {
		return v
	}
	return e.force(v)
}

func (e *Evaluator) evalBlock(block *ast.Block, scope *Scope) Value {
	inner := NewEnclosedScope(scope)
	var result Value = NullValue
	for _, expr := range block.Exprs {
		result = e.Eval(expr, inner)
		if unwinds(result) {
			return result
		}
	}
	return result
}

func (e *Evaluator) evalListLiteral(node *ast.ListLiteral, scope *Scope) Value {
	items := make([]Value, 0, len(node.Elements))
	for _, el := range node.Elements {
		v := e.Eval(el, scope)
		if unwinds(v) {
			return v
		}
		items = append(items, v)
	}
	return NewList(node.ElementType, items...)
}

func (e *Evaluator) evalStructLiteral(node *ast.StructLiteral, scope *Scope) Value {
	fields := make(map[ID]Value, len(node.Fields))
	for _, f := range node.Fields {
		field, ok := f.(*ast.StructLiteralField)
		if !ok {
			continue
		}
		v := e.Eval(field.Expr, scope)
		if unwinds(v) {
			return v
		}
		fields[field.StructFieldID] = v
	}
	return &Struct{StructID: node.StructID, Fields: fields}
}

func (e *Evaluator) evalFunctionCall(call *ast.FunctionCall, scope *Scope) Value {
	id := call.FunctionID()
	fn, ok := e.Env.Function(id)
	if !ok {
		e.Logger.Warn("undefined function", "id", id, "call", call.ID())
		return newError(UndefinedFunction, "no function with id %s", id)
	}

	args := call.Arguments()
	values := make([]Value, len(args))
	for i, arg := range args {
		v := e.Eval(arg, scope)
		if unwinds(v) {
			return v
		}
		values[i] = v
	}
	// arguments are awaited together
	values = e.force(&List{Items: values}).(*List).Items

	bound := make(map[ID]Value, len(args))
	for i, arg := range args {
		bound[arg.ArgumentDefinitionID] = values[i]
	}
	e.Logger.Debug("call", "function", fn.Name(), "id", id)
	return fn.Call(e, bound)
}

// CallAnonFunc applies a closure to one argument.
func (e *Evaluator) CallAnonFunc(f *AnonFunc, arg Value) Value {
	inner := NewEnclosedScope(f.Scope)
	inner.Set(f.Func.TakesArg.ID, arg)
	return unwrapReturn(e.Eval(f.Func.Body, inner))
}

func (e *Evaluator) evalConditional(node *ast.Conditional, scope *Scope) Value {
	cond := e.operand(node.Condition, scope)
	if unwinds(cond) {
		return cond
	}
	b, ok := cond.(*Boolean)
	if !ok {
		return newError(ArgumentError, "condition must be a Boolean, got %s", cond.Kind())
	}
	if b.Value {
		return e.Eval(node.TrueBranch, scope)
	}
	if node.ElseBranch != nil {
		return e.Eval(node.ElseBranch, scope)
	}
	return NullValue
}

func (e *Evaluator) evalMatch(node *ast.Match, scope *Scope) Value {
	subject := e.operand(node.Subject, scope)
	if unwinds(subject) {
		return subject
	}
	en, ok := subject.(*Enum)
	if !ok {
		return newError(ArgumentError, "match needs an enum value, got %s", subject.Kind())
	}
	branch, ok := node.Branches[en.VariantID]
	if !ok {
		return newError(ArgumentError, "match has no branch for variant %s", en.VariantID)
	}
	inner := NewEnclosedScope(scope)
	inner.Set(node.VariableID(en.VariantID), en.Payload)
	return e.Eval(branch, inner)
}

func (e *Evaluator) evalForLoop(node *ast.ForLoop, scope *Scope) Value {
	v := e.operand(node.ListExpr, scope)
	if unwinds(v) {
		return v
	}
	list, ok := v.(*List)
	if !ok {
		return newError(ArgumentError, "for loop needs a List, got %s", v.Kind())
	}
	for _, item := range list.Items {
		inner := NewEnclosedScope(scope)
		inner.Set(node.ID(), item)
		if r := e.Eval(node.Body, inner); unwinds(r) {
			return r
		}
	}
	return NullValue
}

func (e *Evaluator) evalWhileLoop(node *ast.WhileLoop, scope *Scope) Value {
	for {
		cond := e.operand(node.Condition, scope)
		if unwinds(cond) {
			return cond
		}
		b, ok := cond.(*Boolean)
		if !ok {
			return newError(ArgumentError, "while condition must be a Boolean, got %s", cond.Kind())
		}
		if !b.Value {
			return NullValue
		}
		if r := e.Eval(node.Body, scope); unwinds(r) {
			return r
		}
	}
}

func (e *Evaluator) evalStructFieldGet(node *ast.StructFieldGet, scope *Scope) Value {
	v := e.operand(node.StructExpr, scope)
	if unwinds(v) {
		return v
	}
	s, ok := v.(*Struct)
	if !ok {
		return newError(ArgumentError, "field access needs a struct, got %s", v.Kind())
	}
	field, ok := s.Fields[node.StructFieldID]
	if !ok {
		return newError(ArgumentError, "struct %s has no field %s", s.StructID, node.StructFieldID)
	}
	return field
}

func (e *Evaluator) listAndIndex(listExpr, indexExpr ast.Node, scope *Scope) (*List, int64, Value) {
	lv := e.operand(listExpr, scope)
	if unwinds(lv) {
		return nil, 0, lv
	}
	list, ok := lv.(*List)
	if !ok {
		return nil, 0, newError(ArgumentError, "index needs a List, got %s", lv.Kind())
	}
	iv := e.operand(indexExpr, scope)
	if unwinds(iv) {
		return nil, 0, iv
	}
	idx, ok := iv.(*Number)
	if !ok {
		return nil, 0, newError(ArgumentError, "index must be a Number, got %s", iv.Kind())
	}
	return list, idx.Value, nil
}

// evalListIndex yields Ok(item) or, out of range, Error(null).
func (e *Evaluator) evalListIndex(node *ast.ListIndex, scope *Scope) Value {
	list, idx, errv := e.listAndIndex(node.ListExpr, node.IndexExpr, scope)
	if errv != nil {
		return errv
	}
	if idx < 0 || idx >= int64(len(list.Items)) {
		return ErrResult(NullValue)
	}
	return OkResult(list.Items[idx])
}

// evalReassignListIndex yields Ok(null) or, out of range, Error(index).
// Lists are values: the variable is rebound to an updated copy.
func (e *Evaluator) evalReassignListIndex(node *ast.ReassignListIndex, scope *Scope) Value {
	ref := &ast.VariableReference{NodeID: node.ID(), AssignmentID: node.AssignmentID}
	list, idx, errv := e.listAndIndex(ref, node.IndexExpr, scope)
	if errv != nil {
		return errv
	}
	setTo := e.operand(node.SetToExpr, scope)
	if unwinds(setTo) {
		return setTo
	}
	if idx < 0 || idx >= int64(len(list.Items)) {
		return ErrResult(NewNumber(idx))
	}
	items := slices.Clone(list.Items)
	items[idx] = setTo
	scope.Update(node.AssignmentID, &List{ElemType: list.ElemType, Items: items})
	return OkResult(NullValue)
}

func (e *Evaluator) evalTry(node *ast.Try, scope *Scope) Value {
	v := e.operand(node.MaybeErrorExpr, scope)
	if unwinds(v) {
		return v
	}
	en, ok := v.(*Enum)
	if !ok {
		return newError(ArgumentError, "try needs a Result or Option, got %s", v.Kind())
	}
	if en.VariantID == resultOkID || en.VariantID == optionSomeID {
		return en.Payload
	}
	orElse := e.Eval(node.OrElse, scope)
	if unwinds(orElse) {
		return orElse
	}
	return &EarlyReturn{Value: orElse}
}
