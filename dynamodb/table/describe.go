package table

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// FromDescription builds a TableDefinition from DescribeTable output.
func FromDescription(desc *types.TableDescription) (TableDefinition, error) {
	if desc == nil {
		return TableDefinition{}, fmt.Errorf("table description is required")
	}
	def := TableDefinition{Name: aws.ToString(desc.TableName)}

	kinds := make(map[string]KeyKind, len(desc.AttributeDefinitions))
	for _, ad := range desc.AttributeDefinitions {
		kinds[aws.ToString(ad.AttributeName)] = KeyKind(ad.AttributeType)
	}

	for _, ks := range desc.KeySchema {
		name := aws.ToString(ks.AttributeName)
		kind, ok := kinds[name]
		if !ok {
			return TableDefinition{}, fmt.Errorf("table %q: no attribute definition for key %q", def.Name, name)
		}
		switch ks.KeyType {
		case types.KeyTypeHash:
			def.KeyDefinitions.PartitionKey = KeyDef{Name: name, Kind: kind}
		case types.KeyTypeRange:
			def.KeyDefinitions.SortKey = KeyDef{Name: name, Kind: kind}
		}
	}

	if err := def.Validate(); err != nil {
		return TableDefinition{}, err
	}
	return def, nil
}

// Description is the inverse of FromDescription, used by local stores to
// answer DescribeTable.
func (t TableDefinition) Description(itemCount int64) *types.TableDescription {
	desc := &types.TableDescription{
		TableName:   aws.String(t.Name),
		TableStatus: types.TableStatusActive,
		ItemCount:   aws.Int64(itemCount),
	}
	for i, kd := range []KeyDef{t.KeyDefinitions.PartitionKey, t.KeyDefinitions.SortKey} {
		if kd.Name == "" {
			continue
		}
		keyType := types.KeyTypeHash
		if i == 1 {
			keyType = types.KeyTypeRange
		}
		desc.KeySchema = append(desc.KeySchema, types.KeySchemaElement{
			AttributeName: aws.String(kd.Name),
			KeyType:       keyType,
		})
		desc.AttributeDefinitions = append(desc.AttributeDefinitions, types.AttributeDefinition{
			AttributeName: aws.String(kd.Name),
			AttributeType: types.ScalarAttributeType(kd.Kind),
		})
	}
	return desc
}
