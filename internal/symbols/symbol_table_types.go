package symbols

import (
	"strings"

	"github.com/funvibe/nodecore/internal/evaluator"
	"github.com/funvibe/nodecore/internal/typesystem"
)

const unknownSymbol = "?"

// SymbolForType renders t with typespec symbols, e.g. list<str>.
func (t *Table) SymbolForType(typ typesystem.Type) string {
	return t.renderType(typ, typesystem.TypeSpec.Symbol)
}

// NameForType renders t with readable names, e.g. List<String>.
func (t *Table) NameForType(typ typesystem.Type) string {
	return t.renderType(typ, typesystem.TypeSpec.ReadableName)
}

// TypeDisplay is the symbol followed by the readable name.
func (t *Table) TypeDisplay(typ typesystem.Type) string {
	return t.SymbolForType(typ) + " " + t.NameForType(typ)
}

func (t *Table) renderType(typ typesystem.Type, label func(typesystem.TypeSpec) string) string {
	var sb strings.Builder
	spec, ok := t.FindTypeSpec(typ.TypespecID)
	if ok {
		sb.WriteString(label(spec))
	} else {
		sb.WriteString(unknownSymbol)
	}
	if len(typ.Params) == 0 {
		return sb.String()
	}
	sb.WriteByte('<')
	for i, p := range typ.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.renderType(p, label))
	}
	sb.WriteByte('>')
	return sb.String()
}

// FindTypesMatching returns registered typespecs whose name contains text,
// ignoring case. An empty text matches everything.
func (t *Table) FindTypesMatching(text string) []typesystem.TypeSpec {
	needle := strings.ToLower(text)
	var out []typesystem.TypeSpec
	for _, spec := range t.env.TypeSpecs() {
		if strings.Contains(strings.ToLower(spec.ReadableName()), needle) {
			out = append(out, spec)
		}
	}
	return out
}

// GuessTypeOfValue derives a type from a runtime value. Information a value
// does not carry, like the params of an enum, becomes Any.
func (t *Table) GuessTypeOfValue(v evaluator.Value) typesystem.Type {
	switch v := v.(type) {
	case *evaluator.Null:
		return typesystem.NullType
	case *evaluator.Boolean:
		return typesystem.BooleanType
	case *evaluator.String:
		return typesystem.StringType
	case *evaluator.Number:
		return typesystem.NumberType
	case *evaluator.List:
		return typesystem.ListOf(v.ElemType)
	case *evaluator.Struct:
		return typesystem.FromSpecID(v.StructID)
	case *evaluator.Enum:
		e, _, ok := t.FindEnumVariant(v.VariantID)
		if !ok {
			return typesystem.AnyType
		}
		params := make([]typesystem.Type, e.NumParams())
		for i := range params {
			params[i] = typesystem.AnyType
		}
		return typesystem.FromSpec(e, params...)
	case *evaluator.AnonFunc:
		return v.Func.Type()
	case *evaluator.Error:
		return typesystem.ErrorType
	}
	return typesystem.AnyType
}
