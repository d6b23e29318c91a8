package prettyprinter

import (
	"slices"
	"strconv"
	"strings"

	"github.com/funvibe/nodecore/internal/evaluator"
	"github.com/funvibe/nodecore/internal/symbols"
)

// PrintValue renders a runtime value using the names table resolves for
// its types. A top-level string is written as is; strings nested
// in lists, structs or payloads are quoted.
func PrintValue(table *symbols.Table, v evaluator.Value) string {
	if s, ok := v.(*evaluator.String); ok {
		return s.Value
	}
	var b strings.Builder
	writeValue(&b, table, v)
	return b.String()
}

func writeValue(b *strings.Builder, table *symbols.Table, v evaluator.Value) {
	switch v := v.(type) {
	case nil:
		b.WriteString("<nil>")
	case *evaluator.String:
		b.WriteString(strconv.Quote(v.Value))
	case *evaluator.List:
		b.WriteString("[")
		for i, item := range v.Items {
			if i > 0 {
				b.WriteString(", ")
			}
			writeValue(b, table, item)
		}
		b.WriteString("]")
	case *evaluator.Struct:
		writeStruct(b, table, v)
	case *evaluator.Enum:
		name := unresolved
		if _, variant, ok := table.FindEnumVariant(v.VariantID); ok {
			name = variant.Name
		}
		b.WriteString(name)
		if _, null := v.Payload.(*evaluator.Null); null || v.Payload == nil {
			return
		}
		b.WriteString("(")
		writeValue(b, table, v.Payload)
		b.WriteString(")")
	default:
		b.WriteString(v.Inspect())
	}
}

// writeStruct follows the declared field order. Fields the struct type
// does not know are appended by id.
func writeStruct(b *strings.Builder, table *symbols.Table, v *evaluator.Struct) {
	s, ok := table.FindStruct(v.StructID)
	if !ok {
		b.WriteString(v.Inspect())
		return
	}
	b.WriteString(s.Name + " {")
	written := 0
	field := func(name string, fv evaluator.Value) {
		if written > 0 {
			b.WriteString(",")
		}
		b.WriteString(" " + name + ": ")
		writeValue(b, table, fv)
		written++
	}
	seen := make(map[ID]bool, len(s.Fields))
	for _, f := range s.Fields {
		if fv, ok := v.Fields[f.ID]; ok {
			field(f.Name, fv)
			seen[f.ID] = true
		}
	}
	var extra []ID
	for id := range v.Fields {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	slices.SortFunc(extra, func(a, b ID) int { return strings.Compare(a.String(), b.String()) })
	for _, id := range extra {
		field(id.String(), v.Fields[id])
	}
	if written > 0 {
		b.WriteString(" ")
	}
	b.WriteString("}")
}
