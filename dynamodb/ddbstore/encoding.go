package ddbstore

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"math"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/table"
)

// Key layout in BadgerDB:
//
//	items:  'i' 0x00 tableName 0x00 partitionKey 0x00 sortKey
//	tables: 'm' 0x00 tableName
//
// Key values are escaped so 0x00 only ever appears as a separator, and are
// encoded so byte order matches DynamoDB key order for S, N and B.

const (
	keySeparator byte = 0x00

	namespaceItem  byte = 'i'
	namespaceTable byte = 'm'
)

const (
	keyTypeString byte = 'S'
	keyTypeNumber byte = 'N'
	keyTypeBinary byte = 'B'
)

// keyEncoder encodes primary keys of a single table.
type keyEncoder struct {
	tableName string
	keyDefs   table.PrimaryKeyDefinition
}

func (e keyEncoder) tablePrefix() []byte {
	return itemPrefix(e.tableName)
}

func (e keyEncoder) encodeKey(pk table.PrimaryKey) ([]byte, error) {
	buf := bytes.NewBuffer(e.tablePrefix())

	pkBytes, err := encodeKeyValue(pk.Values.PartitionKey, pk.Definition.PartitionKey.Kind)
	if err != nil {
		return nil, fmt.Errorf("encode partition key: %w", err)
	}
	buf.Write(pkBytes)
	buf.WriteByte(keySeparator)

	if pk.Definition.SortKey.Name != "" {
		skBytes, err := encodeKeyValue(pk.Values.SortKey, pk.Definition.SortKey.Kind)
		if err != nil {
			return nil, fmt.Errorf("encode sort key: %w", err)
		}
		buf.Write(skBytes)
	}

	return buf.Bytes(), nil
}

func (e keyEncoder) encodeItemKey(item map[string]types.AttributeValue) ([]byte, error) {
	pk, err := e.keyDefs.ExtractPrimaryKey(item)
	if err != nil {
		return nil, err
	}
	return e.encodeKey(pk)
}

func itemPrefix(tableName string) []byte {
	b := make([]byte, 0, len(tableName)+3)
	b = append(b, namespaceItem, keySeparator)
	b = append(b, tableName...)
	return append(b, keySeparator)
}

func tableMetaKey(tableName string) []byte {
	b := make([]byte, 0, len(tableName)+2)
	b = append(b, namespaceTable, keySeparator)
	return append(b, tableName...)
}

func tableMetaPrefix() []byte {
	return []byte{namespaceTable, keySeparator}
}

func encodeKeyValue(value any, kind table.KeyKind) ([]byte, error) {
	var buf bytes.Buffer

	switch kind {
	case table.KeyKindS:
		buf.WriteByte(keyTypeString)
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected string for S key, got %T", value)
		}
		buf.Write(escapeBytes([]byte(s)))

	case table.KeyKindN:
		buf.WriteByte(keyTypeNumber)
		numStr, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected number literal for N key, got %T", value)
		}
		encoded, err := encodeNumber(numStr)
		if err != nil {
			return nil, err
		}
		buf.Write(encoded)

	case table.KeyKindB:
		buf.WriteByte(keyTypeBinary)
		b, ok := value.([]byte)
		if !ok {
			return nil, fmt.Errorf("expected binary for B key, got %T", value)
		}
		buf.Write(escapeBytes(b))

	default:
		return nil, fmt.Errorf("unsupported key kind: %s", kind)
	}

	return buf.Bytes(), nil
}

// encodeNumber encodes a number literal so that byte order equals numeric
// order. Positive numbers (and zero) get the sign bit flipped; negative
// numbers get every bit inverted.
func encodeNumber(numStr string) ([]byte, error) {
	f, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return nil, fmt.Errorf("parse number %q: %w", numStr, err)
	}

	bits := math.Float64bits(f)
	buf := make([]byte, 9)

	if f >= 0 {
		buf[0] = 0x80
		bits ^= 1 << 63
	} else {
		buf[0] = 0x7F
		bits = ^bits
	}

	binary.BigEndian.PutUint64(buf[1:], bits)
	return buf, nil
}

// escapeBytes writes 0x00 as 0x01 0x01 and 0x01 as 0x01 0x02.
func escapeBytes(b []byte) []byte {
	var buf bytes.Buffer
	for _, c := range b {
		switch c {
		case 0x00:
			buf.WriteByte(0x01)
			buf.WriteByte(0x01)
		case 0x01:
			buf.WriteByte(0x01)
			buf.WriteByte(0x02)
		default:
			buf.WriteByte(c)
		}
	}
	return buf.Bytes()
}

// SerializeItem serializes a DynamoDB item to bytes for storage.
func SerializeItem(item map[string]types.AttributeValue) ([]byte, error) {
	serializable := make(map[string]serializableAV, len(item))
	for k, v := range item {
		sav, err := toSerializable(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		serializable[k] = sav
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(serializable); err != nil {
		return nil, fmt.Errorf("encode item: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeItem deserializes bytes back to a DynamoDB item.
func DeserializeItem(data []byte) (map[string]types.AttributeValue, error) {
	var serializable map[string]serializableAV
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&serializable); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}

	result := make(map[string]types.AttributeValue, len(serializable))
	for k, v := range serializable {
		av, err := fromSerializable(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		result[k] = av
	}
	return result, nil
}

// serializableAV is a gob-encodable representation of AttributeValue.
type serializableAV struct {
	Type  string
	Value any
}

func init() {
	gob.Register(map[string]serializableAV{})
	gob.Register([]serializableAV{})
	gob.Register([]string{})
	gob.Register([][]byte{})
}

func toSerializable(av types.AttributeValue) (serializableAV, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return serializableAV{Type: "S", Value: v.Value}, nil
	case *types.AttributeValueMemberN:
		return serializableAV{Type: "N", Value: v.Value}, nil
	case *types.AttributeValueMemberB:
		return serializableAV{Type: "B", Value: v.Value}, nil
	case *types.AttributeValueMemberBOOL:
		return serializableAV{Type: "BOOL", Value: v.Value}, nil
	case *types.AttributeValueMemberNULL:
		return serializableAV{Type: "NULL", Value: v.Value}, nil
	case *types.AttributeValueMemberSS:
		return serializableAV{Type: "SS", Value: v.Value}, nil
	case *types.AttributeValueMemberNS:
		return serializableAV{Type: "NS", Value: v.Value}, nil
	case *types.AttributeValueMemberBS:
		return serializableAV{Type: "BS", Value: v.Value}, nil
	case *types.AttributeValueMemberM:
		m := make(map[string]serializableAV, len(v.Value))
		for k, val := range v.Value {
			sav, err := toSerializable(val)
			if err != nil {
				return serializableAV{}, err
			}
			m[k] = sav
		}
		return serializableAV{Type: "M", Value: m}, nil
	case *types.AttributeValueMemberL:
		l := make([]serializableAV, len(v.Value))
		for i, val := range v.Value {
			sav, err := toSerializable(val)
			if err != nil {
				return serializableAV{}, err
			}
			l[i] = sav
		}
		return serializableAV{Type: "L", Value: l}, nil
	default:
		return serializableAV{}, fmt.Errorf("unsupported attribute value type: %T", av)
	}
}

// fromSerializable tolerates missing values: gob omits zero-valued fields.
func fromSerializable(sav serializableAV) (types.AttributeValue, error) {
	switch sav.Type {
	case "S":
		v, _ := sav.Value.(string)
		return &types.AttributeValueMemberS{Value: v}, nil
	case "N":
		v, _ := sav.Value.(string)
		return &types.AttributeValueMemberN{Value: v}, nil
	case "B":
		v, _ := sav.Value.([]byte)
		return &types.AttributeValueMemberB{Value: v}, nil
	case "BOOL":
		v, _ := sav.Value.(bool)
		return &types.AttributeValueMemberBOOL{Value: v}, nil
	case "NULL":
		v, _ := sav.Value.(bool)
		return &types.AttributeValueMemberNULL{Value: v}, nil
	case "SS":
		v, _ := sav.Value.([]string)
		return &types.AttributeValueMemberSS{Value: v}, nil
	case "NS":
		v, _ := sav.Value.([]string)
		return &types.AttributeValueMemberNS{Value: v}, nil
	case "BS":
		v, _ := sav.Value.([][]byte)
		return &types.AttributeValueMemberBS{Value: v}, nil
	case "M":
		src, _ := sav.Value.(map[string]serializableAV)
		m := make(map[string]types.AttributeValue, len(src))
		for k, v := range src {
			av, err := fromSerializable(v)
			if err != nil {
				return nil, err
			}
			m[k] = av
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	case "L":
		src, _ := sav.Value.([]serializableAV)
		l := make([]types.AttributeValue, len(src))
		for i, v := range src {
			av, err := fromSerializable(v)
			if err != nil {
				return nil, err
			}
			l[i] = av
		}
		return &types.AttributeValueMemberL{Value: l}, nil
	default:
		return nil, fmt.Errorf("unsupported serializable type: %s", sav.Type)
	}
}
