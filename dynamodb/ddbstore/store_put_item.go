package ddbstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dgraph-io/badger/v4"
)

// PutItem creates or replaces an item. Condition expressions are not
// supported by the local store and are rejected.
func (s *Store) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if params == nil {
		return nil, fmt.Errorf("params is required")
	}
	if params.ConditionExpression != nil {
		return nil, fmt.Errorf("put item: condition expressions are not supported")
	}

	enc, err := s.keyEncoder(params.TableName)
	if err != nil {
		return nil, err
	}

	key, err := enc.encodeItemKey(params.Item)
	if err != nil {
		return nil, fmt.Errorf("encode key: %w", err)
	}

	itemBytes, err := SerializeItem(params.Item)
	if err != nil {
		return nil, fmt.Errorf("serialize item: %w", err)
	}

	var oldItem map[string]types.AttributeValue
	err = s.db.Update(func(txn *badger.Txn) error {
		if params.ReturnValues == types.ReturnValueAllOld {
			existing, err := txn.Get(key)
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
			case err != nil:
				return err
			default:
				if err := existing.Value(func(val []byte) error {
					oldItem, err = DeserializeItem(val)
					return err
				}); err != nil {
					return err
				}
			}
		}
		return txn.Set(key, itemBytes)
	})
	if err != nil {
		return nil, err
	}

	out := &dynamodb.PutItemOutput{}
	if oldItem != nil {
		out.Attributes = oldItem
	}
	return out, nil
}
