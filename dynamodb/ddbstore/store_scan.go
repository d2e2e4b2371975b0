package ddbstore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dgraph-io/badger/v4"
)

// Scan reads items of a table in key order. Limit, ExclusiveStartKey and
// top-level ProjectionExpression are honored; filter expressions and
// secondary indexes are not supported.
func (s *Store) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	if params == nil {
		return nil, fmt.Errorf("params is required")
	}
	if params.FilterExpression != nil {
		return nil, fmt.Errorf("scan: filter expressions are not supported")
	}
	if params.IndexName != nil {
		return nil, fmt.Errorf("scan: secondary indexes are not supported")
	}

	enc, err := s.keyEncoder(params.TableName)
	if err != nil {
		return nil, err
	}
	attrs, err := parseProjection(params.ProjectionExpression, params.ExpressionAttributeNames)
	if err != nil {
		return nil, err
	}

	limit := 0
	if params.Limit != nil {
		limit = int(*params.Limit)
	}

	var items []map[string]types.AttributeValue
	var lastKey map[string]types.AttributeValue
	prefix := enc.tablePrefix()

	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		if params.ExclusiveStartKey != nil {
			startKey, err := enc.encodeItemKey(params.ExclusiveStartKey)
			if err != nil {
				return fmt.Errorf("encode start key: %w", err)
			}
			it.Seek(startKey)
			if it.Valid() && bytes.Equal(it.Item().Key(), startKey) {
				it.Next()
			}
		} else {
			it.Rewind()
		}

		for ; it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if limit > 0 && len(items) == limit {
				lastKey = enc.keyDefs.Attributes(items[len(items)-1])
				break
			}

			var item map[string]types.AttributeValue
			if err := it.Item().Value(func(val []byte) error {
				var err error
				item, err = DeserializeItem(val)
				return err
			}); err != nil {
				return err
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	count := int32(len(items))
	for i, item := range items {
		items[i] = project(item, attrs)
	}
	return &dynamodb.ScanOutput{
		Items:            items,
		Count:            count,
		ScannedCount:     count,
		LastEvaluatedKey: lastKey,
	}, nil
}
