package table

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type PrimaryKeyDefinition struct {
	PartitionKey KeyDef `yaml:"partitionKey" json:"partitionKey"`
	// SortKey is the zero KeyDef for tables without a sort key.
	SortKey KeyDef `yaml:"sortKey,omitempty" json:"sortKey,omitzero"`
}

// Names returns the key attribute names, partition key first.
func (k PrimaryKeyDefinition) Names() []string {
	if k.SortKey.Name == "" {
		return []string{k.PartitionKey.Name}
	}
	return []string{k.PartitionKey.Name, k.SortKey.Name}
}

// Attributes picks the key attributes out of item.
func (k PrimaryKeyDefinition) Attributes(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	result := make(map[string]types.AttributeValue, 2)
	for _, name := range k.Names() {
		if v, ok := item[name]; ok {
			result[name] = v
		}
	}
	return result
}

type KeyDef struct {
	Name string  `yaml:"name" json:"name"`
	Kind KeyKind `yaml:"kind" json:"kind"`
}

type KeyKind string

const (
	KeyKindS KeyKind = "S"
	KeyKindN KeyKind = "N"
	KeyKindB KeyKind = "B"
)

func (k KeyKind) Validate() error {
	switch k {
	case KeyKindS, KeyKindN, KeyKindB:
		return nil
	default:
		return fmt.Errorf("unsupported key kind %q, want S, N or B", string(k))
	}
}

type PrimaryKeyValues struct {
	PartitionKey any
	SortKey      any
}

type PrimaryKey struct {
	Definition PrimaryKeyDefinition
	Values     PrimaryKeyValues
}

func attributeMatchesDefinition(want KeyKind, v types.AttributeValue) error {
	var got KeyKind
	switch v.(type) {
	case *types.AttributeValueMemberS:
		got = KeyKindS
	case *types.AttributeValueMemberN:
		got = KeyKindN
	case *types.AttributeValueMemberB:
		got = KeyKindB
	default:
		return fmt.Errorf("unexpected key attribute type %T", v)
	}
	if got != want {
		return fmt.Errorf("got KeyKind %q want %q", got, want)
	}
	return nil
}
