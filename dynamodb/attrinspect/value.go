package attrinspect

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Kind identifies which representation a Value carries.
type Kind uint8

const (
	// KindPrimitive is a number, boolean or null.
	KindPrimitive Kind = iota
	// KindText is a string, possibly base64 encoded.
	KindText
	// KindBytes is a raw byte sequence.
	KindBytes
	// KindBuffer is any value exposing its underlying bytes through Bytes().
	KindBuffer
	// KindStructured is a map, list or set that is displayed as JSON.
	KindStructured
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindText:
		return "text"
	case KindBytes:
		return "bytes"
	case KindBuffer:
		return "buffer"
	case KindStructured:
		return "structured"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// BufferLike is satisfied by types that expose an underlying byte buffer,
// such as *bytes.Buffer.
type BufferLike interface {
	Bytes() []byte
}

// Value is an attribute value as received from the store layer.
// The zero Value is the primitive null.
type Value struct {
	kind   Kind
	text   string
	bytes  []byte
	buffer BufferLike
	any    any
}

// Text returns a text value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Bytes returns a byte sequence value. The slice is not copied until
// normalization, so callers must not mutate it while inspecting.
func Bytes(b []byte) Value { return Value{kind: KindBytes, bytes: b} }

// Buffer returns a value backed by a buffer-like object.
func Buffer(b BufferLike) Value { return Value{kind: KindBuffer, buffer: b} }

// Structured returns an already structured value (map, slice, struct).
func Structured(v any) Value { return Value{kind: KindStructured, any: v} }

// Primitive returns a number, boolean or nil value.
func Primitive(v any) Value { return Value{kind: KindPrimitive, any: v} }

// Kind reports the representation of v.
func (v Value) Kind() Kind { return v.kind }

// Interface returns the underlying Go value.
func (v Value) Interface() any {
	switch v.kind {
	case KindText:
		return v.text
	case KindBytes:
		return v.bytes
	case KindBuffer:
		return v.buffer
	default:
		return v.any
	}
}

// FromAny classifies a dynamically typed value, such as one decoded from
// JSON or unmarshalled with attributevalue into an interface{}.
func FromAny(x any) Value {
	switch t := x.(type) {
	case nil:
		return Primitive(nil)
	case Value:
		return t
	case string:
		return Text(t)
	case []byte:
		return Bytes(t)
	case BufferLike:
		return Buffer(t)
	case types.AttributeValue:
		return FromAttributeValue(t)
	case bool, json.Number, attributevalue.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return Primitive(t)
	}

	switch reflect.ValueOf(x).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Pointer:
		return Structured(x)
	default:
		return Primitive(x)
	}
}

// FromAttributeValue maps a DynamoDB wire value onto a Value.
// S is text, B is bytes, N, BOOL and NULL are primitives, and documents and
// sets are structured.
func FromAttributeValue(av types.AttributeValue) Value {
	switch v := av.(type) {
	case nil:
		return Primitive(nil)
	case *types.AttributeValueMemberS:
		return Text(v.Value)
	case *types.AttributeValueMemberB:
		return Bytes(v.Value)
	case *types.AttributeValueMemberN:
		return Primitive(json.Number(v.Value))
	case *types.AttributeValueMemberBOOL:
		return Primitive(v.Value)
	case *types.AttributeValueMemberNULL:
		return Primitive(nil)
	default:
		doc, err := Plain(av)
		if err != nil {
			return Structured(fmt.Sprintf("%T", av))
		}
		return Structured(doc)
	}
}

// Plain decodes av into plain Go values: string, json.Number, bool, nil,
// []byte, []any, map[string]any and typed set slices. Numbers keep their
// exact literal.
func Plain(av types.AttributeValue) (any, error) {
	var doc any
	err := attributevalue.UnmarshalWithOptions(av, &doc, func(o *attributevalue.DecoderOptions) {
		o.UseNumber = true
	})
	if err != nil {
		return nil, err
	}
	return jsonNumbers(doc), nil
}

func jsonNumbers(x any) any {
	switch t := x.(type) {
	case attributevalue.Number:
		return json.Number(t)
	case []attributevalue.Number:
		out := make([]json.Number, len(t))
		for i, n := range t {
			out[i] = json.Number(n)
		}
		return out
	case []any:
		for i, v := range t {
			t[i] = jsonNumbers(v)
		}
		return t
	case map[string]any:
		for k, v := range t {
			t[k] = jsonNumbers(v)
		}
		return t
	default:
		return x
	}
}

// stringify renders a primitive the way it reads in JSON.
func stringify(x any) string {
	switch t := x.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case attributevalue.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	default:
		return fmt.Sprint(t)
	}
}
