package evaluator

import (
	"encoding/json"
	"fmt"

	"github.com/funvibe/nodecore/internal/config"
	"github.com/funvibe/nodecore/internal/typesystem"
)

// DecodeJSONError reports JSON data that does not fit the requested type.
type DecodeJSONError struct {
	Path string
	Want typesystem.Type
	Got  any
}

func (e *DecodeJSONError) Error() string {
	path := e.Path
	if path == "" {
		path = "$"
	}
	return fmt.Sprintf("couldn't decode %v at %s into %s", e.Got, path, e.Want)
}

// DecodeJSON converts data produced by encoding/json (decoded with
// UseNumber) into a Value of type into. Structs are looked up in env and
// filled by field name; every field must be present. Numbers decode into
// String fields as their literal text.
func DecodeJSON(raw any, into typesystem.Type, env *Environment) (Value, error) {
	return decodeJSON(raw, into, env, "")
}

func decodeJSON(raw any, into typesystem.Type, env *Environment, path string) (Value, error) {
	fail := func() (Value, error) {
		return nil, &DecodeJSONError{Path: path, Want: into, Got: raw}
	}
	switch into.TypespecID {
	case config.StringTypespecID:
		switch raw := raw.(type) {
		case string:
			return NewString(raw), nil
		case json.Number:
			return NewString(raw.String()), nil
		}
		return fail()
	case config.NumberTypespecID:
		if n, ok := raw.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				return NewNumber(i), nil
			}
		}
		return fail()
	case config.BooleanTypespecID:
		if b, ok := raw.(bool); ok {
			return nativeBoolToBooleanValue(b), nil
		}
		return fail()
	case config.NullTypespecID:
		if raw == nil {
			return NullValue, nil
		}
		return fail()
	case config.ListTypespecID:
		items, ok := raw.([]any)
		if !ok || len(into.Params) != 1 {
			return fail()
		}
		elem := into.Params[0]
		out := make([]Value, len(items))
		for i, item := range items {
			v, err := decodeJSON(item, elem, env, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return NewList(elem, out...), nil
	}

	spec, ok := env.TypeSpec(into.TypespecID)
	if !ok {
		return fail()
	}
	strukt, ok := spec.(*typesystem.Struct)
	if !ok {
		return fail()
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return fail()
	}
	fields := make(map[ID]Value, len(strukt.Fields))
	for _, f := range strukt.Fields {
		member, ok := obj[f.Name]
		if !ok {
			return nil, &DecodeJSONError{Path: path + "." + f.Name, Want: f.FieldType, Got: nil}
		}
		v, err := decodeJSON(member, f.FieldType, env, path+"."+f.Name)
		if err != nil {
			return nil, err
		}
		fields[f.ID] = v
	}
	return &Struct{StructID: strukt.ID(), Fields: fields}, nil
}
