package analyzer

import (
	"log/slog"

	"github.com/funvibe/nodecore/internal/ast"
	"github.com/funvibe/nodecore/internal/evaluator"
	"github.com/funvibe/nodecore/internal/symbols"
	"github.com/funvibe/nodecore/internal/typesystem"
)

// BlockPart names which block of a function a Location refers to.
type BlockPart string

const (
	FunctionBody BlockPart = "body"
	ClientURL    BlockPart = "url"
	ClientParams BlockPart = "url_params"
)

const returnValueDoc = "Return value"

// Location identifies one top-level block of a registered function.
type Location struct {
	FunctionID ID
	Part       BlockPart
}

// Problem is a block whose last expression does not produce the type its
// location requires.
type Problem struct {
	Location Location
	Block    *ast.Block
	Required typesystem.Type
	Got      typesystem.Type
}

type locatedBlock struct {
	loc   Location
	block *ast.Block
}

// Validator finds return type problems in a world and repairs them by
// appending an expression of the required type.
type Validator struct {
	env    *evaluator.Environment
	table  *symbols.Table
	logger *slog.Logger
}

func NewValidator(env *evaluator.Environment, table *symbols.Table, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{env: env, table: table, logger: logger}
}

func (v *Validator) allCode() []locatedBlock {
	var out []locatedBlock
	for _, fn := range v.table.ListCodeFuncs() {
		out = append(out, locatedBlock{Location{fn.ID(), FunctionBody}, fn.Block})
	}
	for _, c := range v.table.ListJSONHTTPClients() {
		out = append(out,
			locatedBlock{Location{c.ID(), ClientParams}, c.URLParams},
			locatedBlock{Location{c.ID(), ClientURL}, c.URL})
	}
	return out
}

// RequiredReturnType is the type the block at loc must evaluate to.
func (v *Validator) RequiredReturnType(loc Location) (typesystem.Type, bool) {
	switch loc.Part {
	case FunctionBody:
		fn, ok := v.table.FindFunction(loc.FunctionID)
		if !ok {
			return typesystem.Type{}, false
		}
		return fn.Returns(), true
	case ClientURL:
		return typesystem.StringType, true
	case ClientParams:
		return typesystem.ListOf(typesystem.HTTPFormParamType), true
	}
	return typesystem.Type{}, false
}

// FindProblems checks every code function body and every client's URL and
// URL params blocks. Blocks whose type cannot be guessed are not reported.
func (v *Validator) FindProblems() []Problem {
	var out []Problem
	for _, lb := range v.allCode() {
		if lb.block == nil {
			continue
		}
		required, ok := v.RequiredReturnType(lb.loc)
		if !ok {
			continue
		}
		got, ok := NewGenie(lb.block, v.table).GuessType(lb.block)
		if !ok || required.Matches(got) {
			continue
		}
		out = append(out, Problem{Location: lb.loc, Block: lb.block, Required: required, Got: got})
	}
	return out
}

// ValidateAndFix repairs every problem found and returns them.
func (v *Validator) ValidateAndFix() []Problem {
	problems := v.FindProblems()
	for _, p := range problems {
		v.Fix(p)
	}
	return problems
}

// Fix replaces the problem block with a repaired one and re-registers the
// owning function.
func (v *Validator) Fix(p Problem) {
	fixed := FixReturnType(p.Block, p.Required)
	fn, ok := v.env.Function(p.Location.FunctionID)
	if !ok {
		return
	}
	switch fn := fn.(type) {
	case *evaluator.CodeFunction:
		cp := *fn
		cp.Block = fixed
		v.env.AddFunction(&cp)
	case *evaluator.JSONHTTPClient:
		cp := *fn
		if p.Location.Part == ClientURL {
			cp.URL = fixed
		} else {
			cp.URLParams = fixed
		}
		v.env.AddFunction(&cp)
	default:
		return
	}
	v.logger.Info("fixed return type",
		"function", fn.Name(),
		"part", p.Location.Part,
		"required", v.table.NameForType(p.Required),
		"got", v.table.NameForType(p.Got))
}

// FixReturnType returns a copy of block ending in an expression of the
// required type. A list type gets an empty list literal; anything else
// gets a placeholder, replacing a trailing placeholder if there is one.
func FixReturnType(block *ast.Block, required typesystem.Type) *ast.Block {
	cp := *block
	cp.Exprs = append([]ast.Node(nil), block.Exprs...)
	if elem, ok := listElemType(required); ok {
		cp.Exprs = append(cp.Exprs, ast.NewListLiteral(elem))
		return &cp
	}
	if n := len(cp.Exprs); n > 0 {
		if _, ok := cp.Exprs[n-1].(*ast.Placeholder); ok {
			cp.Exprs = cp.Exprs[:n-1]
		}
	}
	cp.Exprs = append(cp.Exprs, ast.NewPlaceholder(returnValueDoc, required))
	return &cp
}
