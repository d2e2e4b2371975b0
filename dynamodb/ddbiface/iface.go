// Package ddbiface defines the client surface the browser needs. It is
// satisfied by both the AWS SDK v2 *dynamodb.Client and ddbstore.Store, so
// the same code can browse real DynamoDB or a local BadgerDB snapshot.
package ddbiface

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// TableReader lists, describes and scans tables.
type TableReader interface {
	ListTables(ctx context.Context, params *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// ItemWriter stores whole items.
type ItemWriter interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Client is the union of TableReader and ItemWriter.
type Client interface {
	TableReader
	ItemWriter
}

var _ Client = (*dynamodb.Client)(nil)
