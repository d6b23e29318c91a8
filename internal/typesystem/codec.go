package typesystem

import (
	"encoding/json"
	"fmt"
)

// Kind tags used in serialized typespecs.
const (
	KindBuiltin      = "Builtin"
	KindAny          = "Any"
	KindGenericParam = "GenericParam"
	KindStruct       = "Struct"
	KindEnum         = "Enum"
)

// UnknownKindError is returned when a serialized value carries a type tag
// this build does not know.
type UnknownKindError struct {
	What string
	Kind string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown %s kind %q", e.What, e.Kind)
}

func NewUnknownKindError(what, kind string) *UnknownKindError {
	return &UnknownKindError{What: what, Kind: kind}
}

func KindOf(spec TypeSpec) string {
	switch spec.(type) {
	case *BuiltinTypeSpec:
		return KindBuiltin
	case AnyTypeSpec, *AnyTypeSpec:
		return KindAny
	case *GenericParam:
		return KindGenericParam
	case *Struct:
		return KindStruct
	case *Enum:
		return KindEnum
	}
	panic(fmt.Sprintf("unhandled typespec %T", spec))
}

// MarshalTypeSpec encodes spec as one JSON object with a "type" tag next to
// its fields.
func MarshalTypeSpec(spec TypeSpec) ([]byte, error) {
	return MarshalTagged(KindOf(spec), spec)
}

func UnmarshalTypeSpec(data []byte) (TypeSpec, error) {
	kind, err := ReadTag(data)
	if err != nil {
		return nil, err
	}
	var spec TypeSpec
	switch kind {
	case KindBuiltin:
		spec = &BuiltinTypeSpec{}
	case KindAny:
		return Any, nil
	case KindGenericParam:
		spec = &GenericParam{}
	case KindStruct:
		spec = &Struct{}
	case KindEnum:
		spec = &Enum{}
	default:
		return nil, NewUnknownKindError("typespec", kind)
	}
	if err := json.Unmarshal(data, spec); err != nil {
		return nil, fmt.Errorf("decoding %s typespec: %w", kind, err)
	}
	return spec, nil
}

// MarshalTagged encodes v and inserts a "type" member holding kind.
func MarshalTagged(kind string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if string(body) != "{}" && string(body) != "null" {
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, fmt.Errorf("%s does not encode to an object: %w", kind, err)
		}
	}
	tag, _ := json.Marshal(kind)
	fields["type"] = tag
	return json.Marshal(fields)
}

// ReadTag returns the "type" member of a tagged object.
func ReadTag(data []byte) (string, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return "", err
	}
	if head.Type == "" {
		return "", fmt.Errorf("missing type tag in %s", truncate(data))
	}
	return head.Type, nil
}

func truncate(data []byte) string {
	const limit = 64
	if len(data) > limit {
		return string(data[:limit]) + "..."
	}
	return string(data)
}
