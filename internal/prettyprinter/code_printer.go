// Package prettyprinter renders code trees as readable source-like text.
// Names are resolved through a symbol table, so the output reflects the
// current names of functions, arguments, fields and variants.
package prettyprinter

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/funvibe/nodecore/internal/ast"
	"github.com/funvibe/nodecore/internal/evaluator"
	"github.com/funvibe/nodecore/internal/symbols"
	"github.com/funvibe/nodecore/internal/typesystem"
)

type ID = typesystem.ID

const unresolved = "?"

type CodePrinter struct {
	buf       bytes.Buffer
	indent    int
	lineWidth int // max line width (0 = unlimited)
	column    int // current column position

	table *symbols.Table
	vars  map[ID]string // binding id -> name it was introduced with
}

func NewCodePrinter(table *symbols.Table) *CodePrinter {
	return &CodePrinter{lineWidth: 100, table: table, vars: make(map[ID]string)}
}

func NewCodePrinterWithWidth(table *symbols.Table, width int) *CodePrinter {
	p := NewCodePrinter(table)
	p.lineWidth = width
	return p
}

func (p *CodePrinter) SetLineWidth(width int) {
	p.lineWidth = width
}

func (p *CodePrinter) String() string {
	return p.buf.String()
}

func (p *CodePrinter) write(s string) {
	p.buf.WriteString(s)
	if idx := strings.LastIndex(s, "\n"); idx != -1 {
		p.column = len(s) - idx - 1
	} else {
		p.column += len(s)
	}
}

func (p *CodePrinter) writeln() {
	p.buf.WriteString("\n")
	p.column = 0
}

func (p *CodePrinter) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("    ")
	}
	p.column = p.indent * 4
}

// fits reports whether s can be written on the current line.
func (p *CodePrinter) fits(s string) bool {
	return p.lineWidth == 0 || (!strings.Contains(s, "\n") && p.column+len(s) <= p.lineWidth)
}

// inline renders n on a scratch printer sharing p's names.
func (p *CodePrinter) inline(n ast.Node) string {
	sub := &CodePrinter{table: p.table, vars: p.vars, indent: p.indent}
	sub.printNode(n)
	return sub.String()
}

func (p *CodePrinter) typeName(t typesystem.Type) string {
	return p.table.NameForType(t)
}

func (p *CodePrinter) printArgDefs(defs []ast.ArgumentDefinition) {
	p.write("(")
	for i, def := range defs {
		if i > 0 {
			p.write(", ")
		}
		p.vars[def.ID] = def.ShortName
		p.write(def.ShortName + ": " + p.typeName(def.ArgType))
	}
	p.write(")")
}

// PrintFunction renders a function header followed by each of its blocks.
func (p *CodePrinter) PrintFunction(fn evaluator.Function) {
	switch fn := fn.(type) {
	case *evaluator.CodeFunction:
		p.write("fn " + fn.Name())
		p.printArgDefs(fn.Args)
		p.write(" -> " + p.typeName(fn.ReturnType) + " ")
		p.PrintBlock(fn.Block)
	case *evaluator.JSONHTTPClient:
		p.write("http " + fn.Name())
		p.printArgDefs(fn.Args)
		p.write(" -> " + p.typeName(fn.Returns()) + " {")
		p.writeln()
		p.indent++
		p.printSection("url", fn.URL)
		p.printSection("params", fn.URLParams)
		p.vars[fn.IntermediateArg.ID] = fn.IntermediateArg.ShortName
		p.printSection(fmt.Sprintf("transform(%s: %s)", fn.IntermediateArg.ShortName, p.typeName(fn.IntermediateType())), fn.Transform)
		p.indent--
		p.write("}")
	case *evaluator.ChatTrigger:
		p.write("on " + strconv.Quote(fn.Prefix) + " ")
		p.printArgDefs(fn.TakesArgs())
		p.write(" ")
		p.PrintBlock(fn.Block)
	default:
		p.write("builtin " + fn.Name())
		p.printArgDefs(fn.TakesArgs())
		p.write(" -> " + p.typeName(fn.Returns()))
	}
	p.writeln()
}

func (p *CodePrinter) printSection(label string, b *ast.Block) {
	if b == nil || len(b.Exprs) == 0 {
		return
	}
	p.writeIndent()
	p.write(label + " ")
	p.PrintBlock(b)
	p.writeln()
}

// PrintBlock renders b in braces, one expression per line.
func (p *CodePrinter) PrintBlock(b *ast.Block) {
	if b == nil || len(b.Exprs) == 0 {
		p.write("{}")
		return
	}
	p.write("{")
	p.writeln()
	p.indent++
	for _, e := range b.Exprs {
		p.writeIndent()
		p.printNode(e)
		p.writeln()
	}
	p.indent--
	p.writeIndent()
	p.write("}")
}

// printBody prints a block node, or any other node wrapped as if it were one.
func (p *CodePrinter) printBody(n ast.Node) {
	if b, ok := n.(*ast.Block); ok {
		p.PrintBlock(b)
		return
	}
	p.PrintBlock(ast.NewBlock(n))
}

func (p *CodePrinter) printNode(n ast.Node) {
	if n == nil {
		p.write("<???>")
		return
	}
	switch n := n.(type) {
	case *ast.Block:
		p.PrintBlock(n)
	case *ast.StringLiteral:
		p.write(strconv.Quote(n.Value))
	case *ast.NumberLiteral:
		p.write(strconv.FormatInt(n.Value, 10))
	case *ast.NullLiteral:
		p.write("null")
	case *ast.ListLiteral:
		p.printList(n)
	case *ast.StructLiteral:
		p.printStructLiteral(n)
	case *ast.StructLiteralField:
		p.write(p.fieldName(n.StructFieldID) + ": ")
		p.printNode(n.Expr)
	case *ast.Assignment:
		p.vars[n.NodeID] = n.Name
		p.write(n.Name + " = ")
		p.printNode(n.Expr)
	case *ast.Reassignment:
		p.write(p.varName(n.AssignmentID) + " = ")
		p.printNode(n.Expr)
	case *ast.ReassignListIndex:
		p.write(p.varName(n.AssignmentID) + "[")
		p.printNode(n.IndexExpr)
		p.write("] = ")
		p.printNode(n.SetToExpr)
	case *ast.FunctionCall:
		p.printCall(n)
	case *ast.FunctionReference:
		p.write(p.functionName(n.FunctionID))
	case *ast.Argument:
		p.write(p.argName(n.ArgumentDefinitionID) + ": ")
		p.printNode(n.Expr)
	case *ast.AnonymousFunction:
		p.write("fn")
		p.printArgDefs([]ast.ArgumentDefinition{n.TakesArg})
		p.write(" -> " + p.typeName(n.Returns) + " ")
		p.printBody(n.Body)
	case *ast.VariableReference:
		p.write(p.varName(n.AssignmentID))
	case *ast.Placeholder:
		p.write("<" + n.Description + ": " + p.typeName(n.Type) + ">")
	case *ast.Conditional:
		p.write("if ")
		p.printNode(n.Condition)
		p.write(" ")
		p.printBody(n.TrueBranch)
		if n.ElseBranch != nil {
			p.write(" else ")
			p.printBody(n.ElseBranch)
		}
	case *ast.Match:
		p.printMatch(n)
	case *ast.ForLoop:
		p.vars[n.NodeID] = n.VariableName
		p.write("for " + n.VariableName + " in ")
		p.printNode(n.ListExpr)
		p.write(" ")
		p.printBody(n.Body)
	case *ast.WhileLoop:
		p.write("while ")
		p.printNode(n.Condition)
		p.write(" ")
		p.printBody(n.Body)
	case *ast.StructFieldGet:
		p.printNode(n.StructExpr)
		p.write("." + p.fieldName(n.StructFieldID))
	case *ast.ListIndex:
		p.printNode(n.ListExpr)
		p.write("[")
		p.printNode(n.IndexExpr)
		p.write("]")
	case *ast.EnumVariantLiteral:
		p.write(p.variantName(n.VariantID))
		if n.Payload != nil {
			p.write("(")
			p.printNode(n.Payload)
			p.write(")")
		}
	case *ast.EarlyReturn:
		p.write("return ")
		p.printNode(n.Expr)
	case *ast.Try:
		p.write("try ")
		p.printNode(n.MaybeErrorExpr)
		p.write(" else ")
		p.printNode(n.OrElse)
	default:
		p.write(n.Describe())
	}
}

// printItems writes items between open and close on one line when they
// fit, otherwise one per line.
func (p *CodePrinter) printItems(open, close string, items []ast.Node) {
	rendered := make([]string, len(items))
	for i, item := range items {
		rendered[i] = p.inline(item)
	}
	oneLine := open + strings.Join(rendered, ", ") + close
	if p.fits(oneLine) {
		p.write(oneLine)
		return
	}
	p.write(open)
	p.writeln()
	p.indent++
	for _, item := range items {
		p.writeIndent()
		p.printNode(item)
		p.write(",")
		p.writeln()
	}
	p.indent--
	p.writeIndent()
	p.write(close)
}

func (p *CodePrinter) printList(n *ast.ListLiteral) {
	if len(n.Elements) == 0 {
		p.write(p.typeName(typesystem.ListOf(n.ElementType)) + "[]")
		return
	}
	p.printItems("[", "]", n.Elements)
}

func (p *CodePrinter) printStructLiteral(n *ast.StructLiteral) {
	name := unresolved
	if s, ok := p.table.FindStruct(n.StructID); ok {
		name = s.Name
	}
	if len(n.Fields) == 0 {
		p.write(name + " {}")
		return
	}
	p.printItems(name+" { ", " }", n.Fields)
}

func (p *CodePrinter) printCall(n *ast.FunctionCall) {
	p.printNode(n.Function)
	p.printItems("(", ")", n.Args)
}

func (p *CodePrinter) printMatch(n *ast.Match) {
	p.write("match ")
	p.printNode(n.Subject)
	p.write(" {")
	p.writeln()
	p.indent++
	for _, variantID := range n.VariantIDs() {
		name := p.variantName(variantID)
		p.vars[n.VariableID(variantID)] = strings.ToLower(name)
		p.writeIndent()
		p.write(name + " => ")
		p.printNode(n.Branches[variantID])
		p.writeln()
	}
	p.indent--
	p.writeIndent()
	p.write("}")
}

func (p *CodePrinter) varName(id ID) string {
	if name, ok := p.vars[id]; ok {
		return name
	}
	return p.argName(id)
}

func (p *CodePrinter) argName(id ID) string {
	if def, ok := p.table.ArgDefinition(id); ok {
		return def.ShortName
	}
	if name, ok := p.vars[id]; ok {
		return name
	}
	return unresolved
}

func (p *CodePrinter) functionName(id ID) string {
	if fn, ok := p.table.FindFunction(id); ok {
		return fn.Name()
	}
	return unresolved
}

func (p *CodePrinter) fieldName(id ID) string {
	for _, s := range p.table.ListStructs() {
		if f, ok := s.Field(id); ok {
			return f.Name
		}
	}
	return unresolved
}

func (p *CodePrinter) variantName(id ID) string {
	if _, v, ok := p.table.FindEnumVariant(id); ok {
		return v.Name
	}
	return unresolved
}

// PrintCode renders a single node.
func PrintCode(table *symbols.Table, n ast.Node) string {
	p := NewCodePrinter(table)
	p.printNode(n)
	return p.String()
}

// PrintFunction renders fn with all its blocks.
func PrintFunction(table *symbols.Table, fn evaluator.Function) string {
	p := NewCodePrinter(table)
	p.PrintFunction(fn)
	return p.String()
}
