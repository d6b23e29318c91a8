package config

import "github.com/google/uuid"

// WorldFileExt is the extension of serialized world files.
const WorldFileExt = ".world.json"

// Built-in typespec IDs. These are persisted inside saved code trees, so they
// must never change.
var (
	NullTypespecID     = uuid.MustParse("daa07233-b887-4512-b06e-d6a53d415213")
	BooleanTypespecID  = uuid.MustParse("d00d688f-0c9e-43af-a19f-ab02e46b4c2c")
	StringTypespecID   = uuid.MustParse("e0e8271e-5f94-4d00-bad9-46a2ce4d6568")
	NumberTypespecID   = uuid.MustParse("6dbe9096-4ff5-42f1-b2ff-36eacc3ced59")
	ListTypespecID     = uuid.MustParse("4c726a5e-d9c2-481b-bbe8-ca5319176aad")
	ErrorTypespecID    = uuid.MustParse("a6ad92ed-1b21-44fe-9ad0-e08326acd6f6")
	AnonFuncTypespecID = uuid.MustParse("92fe8555-2f8c-4ae5-aca6-42353f6dc888")
	AnyTypespecID      = uuid.MustParse("8b83b98f-2b2c-42c3-b819-bb6b29972320")
)

// Result<Ok, Err>
var (
	ResultEnumID       = uuid.MustParse("ffd15538-175e-4f60-8acd-c24222ddd664")
	ResultOkVariantID  = uuid.MustParse("3c43e645-009c-430a-bc9a-086ab454e808")
	ResultErrVariantID = uuid.MustParse("9528182f-b1d2-4092-ad07-57f3c7564383")
)

// Option<T>
var (
	OptionEnumID        = uuid.MustParse("949192e6-9f33-4e5b-bfed-68ba2f669786")
	OptionSomeVariantID = uuid.MustParse("1802bfdc-d27a-43d1-8cc3-48c026bcbd9b")
	OptionNoneVariantID = uuid.MustParse("c5b7da9e-fe6f-4d7e-931e-5c96e7180057")
)

// Built-in structs
var (
	HTTPErrorStructID       = uuid.MustParse("5e9e5cec-415f-4949-b178-7793fba5ad5c")
	HTTPErrorStatusFieldID  = uuid.MustParse("74395118-1344-4da1-845b-bbe22091225e")
	HTTPErrorMessageFieldID = uuid.MustParse("38e985f9-c932-41e3-8bdf-d75e9fe31df1")

	HTTPResponseStructID      = uuid.MustParse("31d96c85-5966-4866-a90a-e6db3707b140")
	HTTPResponseBodyFieldID   = uuid.MustParse("34268b4f-e617-4e94-adbe-f5f0c9357865")
	HTTPResponseStatusFieldID = uuid.MustParse("5e6cd734-fe98-47d2-9182-601a5a62e4d2")

	HTTPFormParamStructID     = uuid.MustParse("c54a9594-589e-4b26-a700-957d6363e099")
	HTTPFormParamKeyFieldID   = uuid.MustParse("886a86df-1211-47c5-83c0-f9a410a6fdc8")
	HTTPFormParamValueFieldID = uuid.MustParse("57607724-a63a-458e-9253-1e3efeb4de63")

	MessageStructID        = uuid.MustParse("0135fe19-108d-421f-a08e-02694a3086d6")
	MessageSenderFieldID   = uuid.MustParse("725e37e4-44a0-4c06-aa9c-c021207c36ef")
	MessageArgumentFieldID = uuid.MustParse("da44b49c-f6a1-408a-8643-344132559244")
	MessageFullTextFieldID = uuid.MustParse("090e88c8-9d6d-49a4-ba4d-76fc32b6c858")
)

// ChatTriggerMessageArgID is the argument every chat trigger receives.
var ChatTriggerMessageArgID = uuid.MustParse("159dc4f3-3f37-44da-b979-d4a41a9273cf")

// Built-in function IDs and their argument IDs
var (
	PrintFuncID = uuid.MustParse("b5c18d63-f9a0-4f08-8ee7-e35b3db9122d")
	PrintArgID  = uuid.MustParse("feff08f0-7319-4b47-964e-1f470eca81df")

	CapitalizeFuncID = uuid.MustParse("86ae2a51-5538-436f-b48e-3aa6c873b189")
	CapitalizeArgID  = uuid.MustParse("94e81ddc-843b-426d-847e-a215125c9593")

	IdentityFuncID    = uuid.MustParse("a13a9981-ea7e-4ad0-9778-a764639e1678")
	IdentityGenericID = uuid.MustParse("66336958-cbd8-4537-9c6c-679bf19ff5a4")
	IdentityArgID     = uuid.MustParse("31d74f46-6dda-49d1-a6c7-8950fed4029f")

	LengthFuncID    = uuid.MustParse("98c0e20e-ebb5-4c50-be98-b9765637b20d")
	LengthGenericID = uuid.MustParse("3d286f72-fd83-447b-8d47-af9461a823b2")
	LengthArgID     = uuid.MustParse("f73e4c81-b286-4520-b9fc-3aa961e831f8")

	ConcatFuncID     = uuid.MustParse("6f2e6e65-e390-4e8c-b59e-bc58bb74398b")
	ConcatLeftArgID  = uuid.MustParse("4e530353-a12d-4cec-a409-a82768165735")
	ConcatRightArgID = uuid.MustParse("48a2c582-1203-49d4-b801-3ea7e69a7e10")

	ListAppendFuncID    = uuid.MustParse("a29a7d3a-6881-41bd-95c6-75f80b02860a")
	ListAppendGenericID = uuid.MustParse("db4f2f3a-941b-4d68-b30a-7bc73732c74c")
	ListAppendListArgID = uuid.MustParse("54689deb-77fe-461e-9f84-ffb9739a97cc")
	ListAppendElemArgID = uuid.MustParse("f155075a-60ed-4105-a4fa-da21a79ab278")

	ListMapFuncID      = uuid.MustParse("3b4031b9-ab88-4b28-95c4-263a62b69e11")
	ListMapFromID      = uuid.MustParse("da2bfb54-0276-4f8b-83f4-ad319ff71e67")
	ListMapToID        = uuid.MustParse("3baf3eca-f780-41cc-b8af-7413af1f7876")
	ListMapListArgID   = uuid.MustParse("27f1cd1a-f3fd-4ed5-8882-ac3dff4d2194")
	ListMapMapperArgID = uuid.MustParse("3efc1077-4fe8-4748-9271-594fa96c84fa")

	EqualsFuncID     = uuid.MustParse("a69b29da-e862-4c02-8f62-3a0c6cf0d8df")
	EqualsGenericID  = uuid.MustParse("7d2a9b42-47a4-401f-8d3a-0b37148b2d26")
	EqualsLeftArgID  = uuid.MustParse("fa0aaed9-01af-4c66-b228-f91ae78a262d")
	EqualsRightArgID = uuid.MustParse("31908a3c-d6d0-493f-81df-fd2a927ca4cb")

	HTTPRequestFuncID      = uuid.MustParse("2903760d-921a-4d32-aef8-78516499b467")
	HTTPRequestMethodArgID = uuid.MustParse("6934f70d-d007-46e4-8c9e-a1a97ab3be30")
	HTTPRequestURLArgID    = uuid.MustParse("a8907c89-cf6a-4e0a-938f-f08446d6d09e")
)

// Built-in typespec names
const (
	NullTypeName     = "Null"
	BooleanTypeName  = "Boolean"
	StringTypeName   = "String"
	NumberTypeName   = "Number"
	ListTypeName     = "List"
	ErrorTypeName    = "Error"
	AnonFuncTypeName = "Function"
	AnyTypeName      = "Any"
	ResultTypeName   = "Result"
	OptionTypeName   = "Option"
)

// Built-in function names
const (
	PrintFuncName       = "Print"
	CapitalizeFuncName  = "Capitalize"
	IdentityFuncName    = "Identity"
	LengthFuncName      = "Length"
	ConcatFuncName      = "Concat"
	ListAppendFuncName  = "Append"
	ListMapFuncName     = "Map"
	EqualsFuncName      = "Equals"
	HTTPRequestFuncName = "HTTP Request"
)

// AutoDerivedStructDescription is attached to structs produced by the
// schema synthesizer.
const AutoDerivedStructDescription = "Auto derived by JSON inspector"

// RootStructName names the top-level struct of a synthesized response.
const RootStructName = "Response"
