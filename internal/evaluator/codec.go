package evaluator

import (
	"encoding/json"
	"fmt"

	"github.com/funvibe/nodecore/internal/ast"
	"github.com/funvibe/nodecore/internal/typesystem"
	"github.com/google/uuid"
)

// Kind tags of serialized functions.
const (
	KindCodeFunction   = "CodeFunction"
	KindJSONHTTPClient = "JSONHTTPClient"
	KindChatTrigger    = "ChatTrigger"
)

type codeFunctionWire struct {
	*CodeFunction
	Block ast.Envelope `json:"block"`
}

type jsonHTTPClientWire struct {
	*JSONHTTPClient
	URL       ast.Envelope `json:"gen_url"`
	URLParams ast.Envelope `json:"gen_url_params"`
	Transform ast.Envelope `json:"transform_code"`
}

type chatTriggerWire struct {
	*ChatTrigger
	Block ast.Envelope `json:"code"`
}

// MarshalFunction encodes a user-defined function as a tagged JSON object.
// Builtins are part of every environment and are never serialized.
func MarshalFunction(f Function) ([]byte, error) {
	switch f := f.(type) {
	case *CodeFunction:
		return typesystem.MarshalTagged(KindCodeFunction,
			codeFunctionWire{CodeFunction: f, Block: ast.Envelope{Node: f.Block}})
	case *JSONHTTPClient:
		return typesystem.MarshalTagged(KindJSONHTTPClient, jsonHTTPClientWire{
			JSONHTTPClient: f,
			URL:            ast.Envelope{Node: f.URL},
			URLParams:      ast.Envelope{Node: f.URLParams},
			Transform:      ast.Envelope{Node: f.Transform},
		})
	case *ChatTrigger:
		return typesystem.MarshalTagged(KindChatTrigger,
			chatTriggerWire{ChatTrigger: f, Block: ast.Envelope{Node: f.Block}})
	}
	return nil, fmt.Errorf("function %s (%T) cannot be serialized", f.Name(), f)
}

func UnmarshalFunction(data []byte) (Function, error) {
	kind, err := typesystem.ReadTag(data)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindCodeFunction:
		w := codeFunctionWire{CodeFunction: &CodeFunction{}}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", kind, err)
		}
		block, err := asBlock(w.Block)
		if err != nil {
			return nil, err
		}
		w.CodeFunction.Block = block
		return w.CodeFunction, nil
	case KindJSONHTTPClient:
		w := jsonHTTPClientWire{JSONHTTPClient: &JSONHTTPClient{}}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", kind, err)
		}
		c := w.JSONHTTPClient
		if c.URL, err = asBlock(w.URL); err != nil {
			return nil, err
		}
		if c.URLParams, err = asBlock(w.URLParams); err != nil {
			return nil, err
		}
		if c.Transform, err = asBlock(w.Transform); err != nil {
			return nil, err
		}
		return c, nil
	case KindChatTrigger:
		w := chatTriggerWire{ChatTrigger: &ChatTrigger{}}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", kind, err)
		}
		block, err := asBlock(w.Block)
		if err != nil {
			return nil, err
		}
		w.ChatTrigger.Block = block
		return w.ChatTrigger, nil
	}
	return nil, typesystem.NewUnknownKindError("function", kind)
}

func asBlock(env ast.Envelope) (*ast.Block, error) {
	if env.Node == nil {
		return ast.NewBlock(), nil
	}
	block, ok := env.Node.(*ast.Block)
	if !ok {
		return nil, fmt.Errorf("expected a Block, got %s", env.Node.Kind())
	}
	return block, nil
}

type valueWire struct {
	Type      ValueKind            `json:"type"`
	Value     json.RawMessage      `json:"value,omitempty"`
	ElemType  *typesystem.Type     `json:"elem_type,omitempty"`
	Items     []valueWire          `json:"items,omitempty"`
	StructID  *ID                  `json:"struct_id,omitempty"`
	Fields    map[string]valueWire `json:"fields,omitempty"`
	VariantID *ID                  `json:"variant_id,omitempty"`
	Payload   *valueWire           `json:"payload,omitempty"`
	ErrKind   ErrorKind            `json:"kind,omitempty"`
	Message   string               `json:"message,omitempty"`
}

// MarshalValue encodes a plain value tree. Closures and futures have no
// serialized form.
func MarshalValue(v Value) ([]byte, error) {
	w, err := toWire(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func UnmarshalValue(data []byte) (Value, error) {
	var w valueWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	return fromWire(w)
}

func toWire(v Value) (valueWire, error) {
	w := valueWire{Type: v.Kind()}
	var err error
	switch v := v.(type) {
	case *Null:
	case *Boolean:
		w.Value, err = json.Marshal(v.Value)
	case *String:
		w.Value, err = json.Marshal(v.Value)
	case *Number:
		w.Value, err = json.Marshal(v.Value)
	case *List:
		elem := v.ElemType
		w.ElemType = &elem
		w.Items = make([]valueWire, len(v.Items))
		for i, item := range v.Items {
			if w.Items[i], err = toWire(item); err != nil {
				return w, err
			}
		}
	case *Struct:
		id := v.StructID
		w.StructID = &id
		w.Fields = make(map[string]valueWire, len(v.Fields))
		for fid, field := range v.Fields {
			fw, err := toWire(field)
			if err != nil {
				return w, err
			}
			w.Fields[fid.String()] = fw
		}
	case *Enum:
		id := v.VariantID
		w.VariantID = &id
		pw, err := toWire(v.Payload)
		if err != nil {
			return w, err
		}
		w.Payload = &pw
	case *Error:
		w.ErrKind = v.ErrKind
		w.Message = v.Message
	default:
		return w, fmt.Errorf("%s values cannot be serialized", v.Kind())
	}
	return w, err
}

func fromWire(w valueWire) (Value, error) {
	switch w.Type {
	case NULL_VALUE:
		return NullValue, nil
	case BOOLEAN_VALUE:
		var b bool
		err := json.Unmarshal(w.Value, &b)
		return nativeBoolToBooleanValue(b), err
	case STRING_VALUE:
		var s string
		err := json.Unmarshal(w.Value, &s)
		return NewString(s), err
	case NUMBER_VALUE:
		var n int64
		err := json.Unmarshal(w.Value, &n)
		return NewNumber(n), err
	case LIST_VALUE:
		items := make([]Value, len(w.Items))
		for i, iw := range w.Items {
			item, err := fromWire(iw)
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		var elem typesystem.Type
		if w.ElemType != nil {
			elem = *w.ElemType
		}
		return NewList(elem, items...), nil
	case STRUCT_VALUE:
		if w.StructID == nil {
			return nil, fmt.Errorf("struct value without struct_id")
		}
		fields := make(map[ID]Value, len(w.Fields))
		for key, fw := range w.Fields {
			id, err := uuid.Parse(key)
			if err != nil {
				return nil, fmt.Errorf("struct field key %q: %w", key, err)
			}
			if fields[id], err = fromWire(fw); err != nil {
				return nil, err
			}
		}
		return &Struct{StructID: *w.StructID, Fields: fields}, nil
	case ENUM_VALUE:
		if w.VariantID == nil || w.Payload == nil {
			return nil, fmt.Errorf("enum value without variant_id or payload")
		}
		payload, err := fromWire(*w.Payload)
		if err != nil {
			return nil, err
		}
		return &Enum{VariantID: *w.VariantID, Payload: payload}, nil
	case ERROR_VALUE:
		return &Error{ErrKind: w.ErrKind, Message: w.Message}, nil
	}
	return nil, typesystem.NewUnknownKindError("value", string(w.Type))
}
