package ddbstore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// ListTables returns table names in ascending order, paginated like
// DynamoDB: at most Limit names after ExclusiveStartTableName.
func (s *Store) ListTables(ctx context.Context, params *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error) {
	if params == nil {
		params = &dynamodb.ListTablesInput{}
	}
	limit := 100
	if params.Limit != nil {
		if *params.Limit < 1 || *params.Limit > 100 {
			return nil, fmt.Errorf("list tables: limit must be between 1 and 100, got %d", *params.Limit)
		}
		limit = int(*params.Limit)
	}

	out := &dynamodb.ListTablesOutput{}
	for _, def := range s.Tables() {
		if params.ExclusiveStartTableName != nil && def.Name <= *params.ExclusiveStartTableName {
			continue
		}
		if len(out.TableNames) == limit {
			last := out.TableNames[len(out.TableNames)-1]
			out.LastEvaluatedTableName = &last
			break
		}
		out.TableNames = append(out.TableNames, def.Name)
	}
	return out, nil
}
