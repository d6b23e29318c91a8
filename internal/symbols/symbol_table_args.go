package symbols

import (
	"github.com/funvibe/nodecore/internal/ast"
	"github.com/funvibe/nodecore/internal/evaluator"
	"github.com/funvibe/nodecore/internal/typesystem"
)

type argKey struct {
	generation uint64
	id         ID
}

type argEntry struct {
	def   ast.ArgumentDefinition
	owner ID
	found bool
}

// declaredArgs lists every argument f binds in any of its blocks.
func declaredArgs(f evaluator.Function) []ast.ArgumentDefinition {
	args := f.TakesArgs()
	if c, ok := f.(*evaluator.JSONHTTPClient); ok {
		args = append(args[:len(args):len(args)], c.IntermediateArg)
	}
	return args
}

func (t *Table) lookupArg(id ID) argEntry {
	key := argKey{generation: t.env.Generation(), id: id}
	if t.args != nil {
		if entry, ok := t.args.Get(key); ok {
			return entry
		}
	}
	var entry argEntry
scan:
	for _, fn := range t.env.Functions() {
		for _, def := range declaredArgs(fn) {
			if def.ID == id {
				entry = argEntry{def: def, owner: fn.ID(), found: true}
				break scan
			}
		}
	}
	if t.args != nil {
		t.args.Add(key, entry)
	}
	return entry
}

// ArgDefinition finds the argument definition with id among all function
// signatures.
func (t *Table) ArgDefinition(id ID) (ast.ArgumentDefinition, bool) {
	entry := t.lookupArg(id)
	return entry.def, entry.found
}

func (t *Table) TypeForArg(id ID) (typesystem.Type, bool) {
	entry := t.lookupArg(id)
	return entry.def.ArgType, entry.found
}

// FunctionContainingArg returns the function whose signature declares id.
func (t *Table) FunctionContainingArg(id ID) (evaluator.Function, bool) {
	entry := t.lookupArg(id)
	if !entry.found {
		return nil, false
	}
	return t.env.Function(entry.owner)
}

// CodeTakesArgs returns the arguments visible inside the top-level block
// rootID. For a JSON client the URL and URL params blocks see the client's
// arguments and the transform block sees the decoded response.
func (t *Table) CodeTakesArgs(rootID ID) []ast.ArgumentDefinition {
	if rootID == typesystem.NilID {
		return nil
	}
	for _, fn := range t.env.Functions() {
		switch fn := fn.(type) {
		case *evaluator.JSONHTTPClient:
			switch rootID {
			case blockID(fn.URL), blockID(fn.URLParams):
				return fn.Args
			case blockID(fn.Transform):
				return []ast.ArgumentDefinition{fn.IntermediateArg}
			}
		default:
			for _, block := range evaluator.CodeBlocks(fn) {
				if blockID(block) == rootID {
					return fn.TakesArgs()
				}
			}
		}
	}
	return nil
}

func blockID(b *ast.Block) ID {
	if b == nil {
		return typesystem.NilID
	}
	return b.ID()
}
