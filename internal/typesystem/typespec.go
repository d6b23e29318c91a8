package typesystem

import (
	"github.com/funvibe/nodecore/internal/config"
)

// TypeSpec describes a named, possibly parametric type. The set of
// implementations is closed: BuiltinTypeSpec, AnyTypeSpec, GenericParam,
// Struct and Enum.
type TypeSpec interface {
	ID() ID
	Symbol() string
	ReadableName() string
	Description() string
	NumParams() int
	// Matches reports whether a value of typespec id can be used where this
	// typespec is expected.
	Matches(id ID) bool
	typeSpec()
}

// BuiltinTypeSpec covers the primitives, List, Error and the anonymous
// function type.
type BuiltinTypeSpec struct {
	SpecID ID     `json:"id"`
	Name   string `json:"readable_name"`
	Doc    string `json:"description"`
	Sym    string `json:"symbol"`
	Arity  int    `json:"num_params"`
}

func (b *BuiltinTypeSpec) ID() ID               { return b.SpecID }
func (b *BuiltinTypeSpec) Symbol() string       { return b.Sym }
func (b *BuiltinTypeSpec) ReadableName() string { return b.Name }
func (b *BuiltinTypeSpec) Description() string  { return b.Doc }
func (b *BuiltinTypeSpec) NumParams() int       { return b.Arity }
func (b *BuiltinTypeSpec) Matches(id ID) bool   { return id == config.AnyTypespecID || id == b.SpecID }
func (*BuiltinTypeSpec) typeSpec()              {}

// AnyTypeSpec matches every type.
type AnyTypeSpec struct{}

func (AnyTypeSpec) ID() ID               { return config.AnyTypespecID }
func (AnyTypeSpec) Symbol() string       { return "any" }
func (AnyTypeSpec) ReadableName() string { return config.AnyTypeName }
func (AnyTypeSpec) Description() string  { return "Any type can be used here" }
func (AnyTypeSpec) NumParams() int       { return 0 }
func (AnyTypeSpec) Matches(ID) bool      { return true }
func (AnyTypeSpec) typeSpec()            {}

// GenericParam is a type parameter introduced by a function, such as the T
// of Identity<T>. It is resolved per call site.
type GenericParam struct {
	SpecID ID     `json:"id"`
	Name   string `json:"name"`
}

func NewGenericParam(id ID, name string) *GenericParam {
	return &GenericParam{SpecID: id, Name: name}
}

func (g *GenericParam) ID() ID { return g.SpecID }
func (g *GenericParam) Symbol() string {
	if g.Name == "" {
		return "T"
	}
	return g.Name
}
func (g *GenericParam) ReadableName() string { return "Any Type" }
func (g *GenericParam) Description() string  { return "Any type can be used here" }
func (g *GenericParam) NumParams() int       { return 0 }
func (g *GenericParam) Matches(ID) bool      { return true }
func (*GenericParam) typeSpec()              {}

// IsGeneric reports whether spec is a generic type parameter.
func IsGeneric(spec TypeSpec) bool {
	_, ok := spec.(*GenericParam)
	return ok
}

var (
	Null = &BuiltinTypeSpec{
		SpecID: config.NullTypespecID,
		Name:   config.NullTypeName,
		Doc:    "Null: Represents nothing",
		Sym:    "null",
	}
	Boolean = &BuiltinTypeSpec{
		SpecID: config.BooleanTypespecID,
		Name:   config.BooleanTypeName,
		Doc:    "Either true or false",
		Sym:    "bool",
	}
	String = &BuiltinTypeSpec{
		SpecID: config.StringTypespecID,
		Name:   config.StringTypeName,
		Doc:    "Plain text",
		Sym:    "str",
	}
	Number = &BuiltinTypeSpec{
		SpecID: config.NumberTypespecID,
		Name:   config.NumberTypeName,
		Doc:    "A whole number, for example 1, -1 or 42",
		Sym:    "num",
	}
	List = &BuiltinTypeSpec{
		SpecID: config.ListTypespecID,
		Name:   config.ListTypeName,
		Doc:    "A collection of one or more items",
		Sym:    "list",
		Arity:  1,
	}
	Error = &BuiltinTypeSpec{
		SpecID: config.ErrorTypespecID,
		Name:   config.ErrorTypeName,
		Doc:    "Means there was an error",
		Sym:    "err",
	}
	// AnonFunc takes the argument type then the return type.
	AnonFunc = &BuiltinTypeSpec{
		SpecID: config.AnonFuncTypespecID,
		Name:   config.AnonFuncTypeName,
		Doc:    "Callback code that can be run",
		Sym:    "fn",
		Arity:  2,
	}
	Any = AnyTypeSpec{}
)

// Frequently used concrete types.
var (
	NullType    = FromSpec(Null)
	BooleanType = FromSpec(Boolean)
	StringType  = FromSpec(String)
	NumberType  = FromSpec(Number)
	ErrorType   = FromSpec(Error)
	AnyType     = FromSpec(Any)
)

func AnonFuncOf(arg, ret Type) Type {
	return FromSpec(AnonFunc, arg, ret)
}

// Builtins returns every typespec a fresh environment starts with.
func Builtins() []TypeSpec {
	return []TypeSpec{
		Null, Boolean, String, Number, List, Error, AnonFunc, Any,
		ResultEnum, OptionEnum,
		HTTPErrorStruct, HTTPResponseStruct, HTTPFormParamStruct, MessageStruct,
	}
}
