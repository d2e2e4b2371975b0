// Package ddbbrowse reads tables for display: it lists collections, scans a
// bounded number of records, and turns attribute values into searchable,
// truncated cell text.
package ddbbrowse

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/exp/constraints"

	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/attrinspect"
	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/ddbiface"
	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/table"
)

const (
	// DefaultScanLimit is the number of records fetched when no limit is given.
	DefaultScanLimit = 50
	// MaxScanLimit caps a single browse request.
	MaxScanLimit = 1000
)

// Item is one record as returned by DynamoDB.
type Item = map[string]types.AttributeValue

// Collection describes a table.
type Collection struct {
	Name      string                     `json:"name"`
	Keys      table.PrimaryKeyDefinition `json:"keys"`
	ItemCount int64                      `json:"itemCount"`
	Status    string                     `json:"status,omitempty"`
}

// Page is the result of one browse scan.
type Page struct {
	Items []Item
	// LastKey is set when the table holds more records than were returned.
	LastKey Item
	// Scanned sums the ScannedCount of every request.
	Scanned int
}

// ScanOptions bounds a scan.
type ScanOptions struct {
	// Limit is clamped to [1, MaxScanLimit]; zero means the browser default.
	Limit int
	// Attributes projects the scan onto these top-level attributes.
	Attributes []string
	// StartKey resumes after a previous Page.LastKey.
	StartKey Item
}

// Browser reads tables through a ddbiface.TableReader.
type Browser struct {
	client       ddbiface.TableReader
	logger       *slog.Logger
	inspector    *attrinspect.Inspector
	defaultLimit int
}

// Option configures a Browser.
type Option func(*Browser)

func WithLogger(l *slog.Logger) Option {
	return func(b *Browser) { b.logger = l }
}

func WithInspector(in *attrinspect.Inspector) Option {
	return func(b *Browser) { b.inspector = in }
}

// WithDefaultLimit changes the limit used when a scan does not name one.
func WithDefaultLimit(n int) Option {
	return func(b *Browser) { b.defaultLimit = clamp(n, 1, MaxScanLimit) }
}

// New creates a Browser over client.
func New(client ddbiface.TableReader, opts ...Option) *Browser {
	b := &Browser{
		client:       client,
		defaultLimit: DefaultScanLimit,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	if b.inspector == nil {
		b.inspector = attrinspect.New(attrinspect.WithLogger(b.logger))
	}
	return b
}

// ListCollections returns every table name, following pagination.
func (b *Browser) ListCollections(ctx context.Context) ([]string, error) {
	var names []string
	p := dynamodb.NewListTablesPaginator(b.client, &dynamodb.ListTablesInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
		names = append(names, page.TableNames...)
	}
	b.logger.DebugContext(ctx, "listed collections", "count", len(names))
	return names, nil
}

// Describe returns the key schema and approximate size of a table.
func (b *Browser) Describe(ctx context.Context, name string) (Collection, error) {
	out, err := b.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)})
	if err != nil {
		return Collection{}, fmt.Errorf("describe table %s: %w", name, err)
	}
	def, err := table.FromDescription(out.Table)
	if err != nil {
		return Collection{}, err
	}
	return Collection{
		Name:      def.Name,
		Keys:      def.KeyDefinitions,
		ItemCount: aws.ToInt64(out.Table.ItemCount),
		Status:    string(out.Table.TableStatus),
	}, nil
}

// ScanCollection returns up to limit records of a table. A limit of zero or
// less uses the browser default.
func (b *Browser) ScanCollection(ctx context.Context, name string, limit int) ([]Item, error) {
	page, err := b.Scan(ctx, name, ScanOptions{Limit: limit})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// Scan reads one page of records. DynamoDB may stop short of the limit at
// its 1 MB response cap, so Scan keeps reading until the limit is reached
// or the table is exhausted.
func (b *Browser) Scan(ctx context.Context, name string, opts ScanOptions) (Page, error) {
	limit := b.defaultLimit
	if opts.Limit > 0 {
		limit = clamp(opts.Limit, 1, MaxScanLimit)
	}

	input := &dynamodb.ScanInput{
		TableName:         aws.String(name),
		ExclusiveStartKey: opts.StartKey,
	}
	if len(opts.Attributes) > 0 {
		expr, err := projection(opts.Attributes)
		if err != nil {
			return Page{}, err
		}
		input.ProjectionExpression = expr.Projection()
		input.ExpressionAttributeNames = expr.Names()
	}

	var page Page
	for {
		input.Limit = aws.Int32(int32(limit - len(page.Items)))
		out, err := b.client.Scan(ctx, input)
		if err != nil {
			return Page{}, fmt.Errorf("scan %s: %w", name, err)
		}
		page.Items = append(page.Items, out.Items...)
		page.Scanned += int(out.ScannedCount)
		page.LastKey = out.LastEvaluatedKey

		if len(out.LastEvaluatedKey) == 0 || len(page.Items) >= limit {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	b.logger.DebugContext(ctx, "scanned collection",
		"table", name, "limit", limit, "items", len(page.Items), "more", page.LastKey != nil)
	return page, nil
}

// InspectAttribute runs the decompression and classification pipeline over
// one attribute of item. ok is false when the attribute is absent.
func (b *Browser) InspectAttribute(ctx context.Context, item Item, name string) (res attrinspect.Result, ok bool) {
	av, ok := item[name]
	if !ok {
		return attrinspect.Result{}, false
	}
	return b.inspector.InspectNamed(ctx, name, attrinspect.FromAttributeValue(av)), true
}

func projection(attrs []string) (expression.Expression, error) {
	names := make([]expression.NameBuilder, len(attrs))
	for i, a := range attrs {
		names[i] = expression.Name(a)
	}
	proj := expression.NamesList(names[0], names[1:]...)
	expr, err := expression.NewBuilder().WithProjection(proj).Build()
	if err != nil {
		return expression.Expression{}, fmt.Errorf("build projection: %w", err)
	}
	return expr, nil
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	return min(max(v, lo), hi)
}
