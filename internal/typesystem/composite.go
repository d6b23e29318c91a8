package typesystem

import (
	"fmt"

	"github.com/funvibe/nodecore/internal/config"
)

const compositeSymbol = "struct"

type StructField struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	FieldType   Type   `json:"field_type"`
}

func NewStructField(name, description string, fieldType Type) StructField {
	return StructField{ID: NewID(), Name: name, Description: description, FieldType: fieldType}
}

// Struct is a user-defined record type. Field order is significant for
// display only; lookups go through field ids.
type Struct struct {
	SpecID ID            `json:"id"`
	Name   string        `json:"name"`
	Doc    string        `json:"description"`
	Sym    string        `json:"symbol"`
	Fields []StructField `json:"fields"`
}

func NewStruct(name, description string, fields ...StructField) *Struct {
	if fields == nil {
		fields = []StructField{}
	}
	return &Struct{SpecID: NewID(), Name: name, Doc: description, Sym: compositeSymbol, Fields: fields}
}

func (s *Struct) ID() ID               { return s.SpecID }
func (s *Struct) Symbol() string       { return s.Sym }
func (s *Struct) ReadableName() string { return s.Name }
func (s *Struct) Description() string  { return s.Doc }
func (s *Struct) NumParams() int       { return 0 }
func (s *Struct) Matches(id ID) bool   { return id == config.AnyTypespecID || id == s.SpecID }
func (*Struct) typeSpec()              {}

func (s *Struct) Field(id ID) (StructField, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return StructField{}, false
}

func (s *Struct) FieldByName(name string) (StructField, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return StructField{}, false
}

// EnumVariant carries an optional payload type. A variant without one is
// parameterized: its payload type is supplied by the enum's type params.
type EnumVariant struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	VariantType *Type  `json:"variant_type"`
}

func (v EnumVariant) IsParameterized() bool {
	return v.VariantType == nil
}

type Enum struct {
	SpecID   ID            `json:"id"`
	Name     string        `json:"name"`
	Doc      string        `json:"description"`
	Sym      string        `json:"symbol"`
	Variants []EnumVariant `json:"variants"`
}

func (e *Enum) ID() ID               { return e.SpecID }
func (e *Enum) Symbol() string       { return e.Sym }
func (e *Enum) ReadableName() string { return e.Name }
func (e *Enum) Description() string  { return e.Doc }
func (e *Enum) Matches(id ID) bool   { return id == config.AnyTypespecID || id == e.SpecID }
func (*Enum) typeSpec()              {}

func (e *Enum) NumParams() int {
	n := 0
	for _, v := range e.Variants {
		if v.IsParameterized() {
			n++
		}
	}
	return n
}

func (e *Enum) Variant(id ID) (EnumVariant, bool) {
	for _, v := range e.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return EnumVariant{}, false
}

// VariantWithType pairs a variant with its concrete payload type.
type VariantWithType struct {
	Variant EnumVariant
	Type    Type
}

// VariantTypes fills parameterized variants from params in declaration
// order. It panics if len(params) differs from NumParams.
func (e *Enum) VariantTypes(params []Type) []VariantWithType {
	if len(params) != e.NumParams() {
		panic(fmt.Sprintf("enum %s takes %d params, got %d", e.Name, e.NumParams(), len(params)))
	}
	out := make([]VariantWithType, 0, len(e.Variants))
	next := 0
	for _, v := range e.Variants {
		var t Type
		if v.VariantType != nil {
			t = *v.VariantType
		} else {
			t = params[next]
			next++
		}
		out = append(out, VariantWithType{Variant: v, Type: t})
	}
	return out
}

// VariantType returns the payload type of one variant for an instantiated
// enum type.
func (e *Enum) VariantType(variantID ID, params []Type) (Type, bool) {
	if len(params) != e.NumParams() {
		return Type{}, false
	}
	for _, vt := range e.VariantTypes(params) {
		if vt.Variant.ID == variantID {
			return vt.Type, true
		}
	}
	return Type{}, false
}

var (
	// ResultEnum is Result<Ok, Err>.
	ResultEnum = &Enum{
		SpecID: config.ResultEnumID,
		Name:   config.ResultTypeName,
		Doc:    "Either a successful value or an error",
		Sym:    "result",
		Variants: []EnumVariant{
			{ID: config.ResultOkVariantID, Name: "Ok"},
			{ID: config.ResultErrVariantID, Name: "Error"},
		},
	}
	// OptionEnum is Option<T>.
	OptionEnum = &Enum{
		SpecID: config.OptionEnumID,
		Name:   config.OptionTypeName,
		Doc:    "Either some value or nothing",
		Sym:    "option",
		Variants: []EnumVariant{
			{ID: config.OptionSomeVariantID, Name: "Some"},
			{ID: config.OptionNoneVariantID, Name: "None", VariantType: &NullType},
		},
	}
)

func ResultOf(ok, err Type) Type {
	return FromSpec(ResultEnum, ok, err)
}

func OptionOf(t Type) Type {
	return FromSpec(OptionEnum, t)
}

// OkTypeOf returns the Ok payload of a Result type.
func OkTypeOf(t Type) (Type, bool) {
	if t.TypespecID != config.ResultEnumID || len(t.Params) != 2 {
		return Type{}, false
	}
	return t.Params[0], true
}

// SomeTypeOf returns the Some payload of an Option type.
func SomeTypeOf(t Type) (Type, bool) {
	if t.TypespecID != config.OptionEnumID || len(t.Params) != 1 {
		return Type{}, false
	}
	return t.Params[0], true
}

var (
	HTTPErrorStruct = &Struct{
		SpecID: config.HTTPErrorStructID,
		Name:   "HTTP Error",
		Doc:    "An HTTP request failed",
		Sym:    compositeSymbol,
		Fields: []StructField{
			{ID: config.HTTPErrorStatusFieldID, Name: "status", FieldType: NumberType},
			{ID: config.HTTPErrorMessageFieldID, Name: "message", FieldType: StringType},
		},
	}
	HTTPResponseStruct = &Struct{
		SpecID: config.HTTPResponseStructID,
		Name:   "HTTP Response",
		Doc:    "Body and status of an HTTP response",
		Sym:    compositeSymbol,
		Fields: []StructField{
			{ID: config.HTTPResponseBodyFieldID, Name: "body", FieldType: StringType},
			{ID: config.HTTPResponseStatusFieldID, Name: "status_code", FieldType: NumberType},
		},
	}
	HTTPFormParamStruct = &Struct{
		SpecID: config.HTTPFormParamStructID,
		Name:   "HTTP Form Param",
		Doc:    "One key=value pair of a query string",
		Sym:    compositeSymbol,
		Fields: []StructField{
			{ID: config.HTTPFormParamKeyFieldID, Name: "key", FieldType: StringType},
			{ID: config.HTTPFormParamValueFieldID, Name: "value", FieldType: StringType},
		},
	}
	MessageStruct = &Struct{
		SpecID: config.MessageStructID,
		Name:   "Chat Message",
		Doc:    "A message that fired a chat trigger",
		Sym:    compositeSymbol,
		Fields: []StructField{
			{ID: config.MessageSenderFieldID, Name: "sender", FieldType: StringType},
			{ID: config.MessageArgumentFieldID, Name: "argument_text", FieldType: StringType},
			{ID: config.MessageFullTextFieldID, Name: "full_text", FieldType: StringType},
		},
	}
)

var (
	HTTPErrorType     = FromSpec(HTTPErrorStruct)
	HTTPFormParamType = FromSpec(HTTPFormParamStruct)
	MessageType       = FromSpec(MessageStruct)
)
