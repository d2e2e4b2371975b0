package ddbstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putN(t *testing.T, store *Store, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := store.PutItem(context.Background(), &dynamodb.PutItemInput{
			TableName: &singleTableDesign.Name,
			Item: map[string]types.AttributeValue{
				"pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("pk#%02d", i)},
				"sk": &types.AttributeValueMemberS{Value: "sk"},
			},
		})
		require.NoError(t, err)
	}
}

func TestStore_Scan(t *testing.T) {
	t.Run("scan all items", func(t *testing.T) {
		store := newTestStore(t, singleTableDesign)
		putN(t, store, 5)

		result, err := store.Scan(context.Background(), &dynamodb.ScanInput{
			TableName: &singleTableDesign.Name,
		})
		require.NoError(t, err)
		assert.Len(t, result.Items, 5)
		assert.Equal(t, int32(5), result.Count)
		assert.Nil(t, result.LastEvaluatedKey)
	})

	t.Run("scan with limit and pagination", func(t *testing.T) {
		store := newTestStore(t, singleTableDesign)
		ctx := context.Background()
		putN(t, store, 10)

		limit := int32(3)
		result1, err := store.Scan(ctx, &dynamodb.ScanInput{
			TableName: &singleTableDesign.Name,
			Limit:     &limit,
		})
		require.NoError(t, err)
		assert.Len(t, result1.Items, 3)
		require.NotNil(t, result1.LastEvaluatedKey)
		assert.Equal(t, &types.AttributeValueMemberS{Value: "pk#02"}, result1.LastEvaluatedKey["pk"])

		result2, err := store.Scan(ctx, &dynamodb.ScanInput{
			TableName:         &singleTableDesign.Name,
			Limit:             &limit,
			ExclusiveStartKey: result1.LastEvaluatedKey,
		})
		require.NoError(t, err)
		require.Len(t, result2.Items, 3)
		assert.Equal(t, &types.AttributeValueMemberS{Value: "pk#03"}, result2.Items[0]["pk"])
	})

	t.Run("paginator visits every item once", func(t *testing.T) {
		store := newTestStore(t, singleTableDesign)
		putN(t, store, 7)

		seen := map[string]bool{}
		p := dynamodb.NewScanPaginator(store, &dynamodb.ScanInput{
			TableName: &singleTableDesign.Name,
			Limit:     ptrInt32(2),
		})
		for p.HasMorePages() {
			page, err := p.NextPage(context.Background())
			require.NoError(t, err)
			for _, item := range page.Items {
				pk := item["pk"].(*types.AttributeValueMemberS).Value
				assert.False(t, seen[pk], "duplicate %s", pk)
				seen[pk] = true
			}
		}
		assert.Len(t, seen, 7)
	})

	t.Run("exact limit has no continuation", func(t *testing.T) {
		store := newTestStore(t, singleTableDesign)
		putN(t, store, 3)

		result, err := store.Scan(context.Background(), &dynamodb.ScanInput{
			TableName: &singleTableDesign.Name,
			Limit:     ptrInt32(3),
		})
		require.NoError(t, err)
		assert.Len(t, result.Items, 3)
		assert.Nil(t, result.LastEvaluatedKey)
	})

	t.Run("tables do not bleed into each other", func(t *testing.T) {
		store := newTestStore(t, singleTableDesign, noSortKeyTable)
		putN(t, store, 2)

		result, err := store.Scan(context.Background(), &dynamodb.ScanInput{TableName: &noSortKeyTable.Name})
		require.NoError(t, err)
		assert.Empty(t, result.Items)
	})

	t.Run("unsupported inputs", func(t *testing.T) {
		store := newTestStore(t, singleTableDesign)
		ctx := context.Background()

		_, err := store.Scan(ctx, &dynamodb.ScanInput{TableName: &singleTableDesign.Name, FilterExpression: ptrStr("a = :a")})
		assert.Error(t, err)
		_, err = store.Scan(ctx, &dynamodb.ScanInput{TableName: &singleTableDesign.Name, IndexName: ptrStr("gsi1")})
		assert.Error(t, err)
		_, err = store.Scan(ctx, &dynamodb.ScanInput{TableName: ptrStr("missing")})
		assert.ErrorIs(t, err, ErrTableNotFound)
	})
}

func TestStore_ScanOrdering(t *testing.T) {
	t.Run("numbers", func(t *testing.T) {
		store := newTestStore(t, numericSortKeyTable)
		ctx := context.Background()

		values := []string{"-100", "-10", "-1", "0", "1", "10", "100", "1000"}
		for _, i := range []int{4, 0, 7, 2, 6, 1, 5, 3} {
			_, err := store.PutItem(ctx, &dynamodb.PutItemInput{
				TableName: &numericSortKeyTable.Name,
				Item: map[string]types.AttributeValue{
					"pk": &types.AttributeValueMemberS{Value: "test"},
					"sk": &types.AttributeValueMemberN{Value: values[i]},
				},
			})
			require.NoError(t, err)
		}

		items := scanAll(t, store, numericSortKeyTable.Name)
		require.Len(t, items, len(values))
		for i, item := range items {
			assert.Equal(t, values[i], item["sk"].(*types.AttributeValueMemberN).Value)
		}
	})

	t.Run("strings", func(t *testing.T) {
		store := newTestStore(t, singleTableDesign)
		ctx := context.Background()

		values := []string{"a", "aa", "ab", "b", "ba", "bb"}
		for _, i := range []int{5, 3, 1, 0, 4, 2} {
			_, err := store.PutItem(ctx, &dynamodb.PutItemInput{
				TableName: &singleTableDesign.Name,
				Item: map[string]types.AttributeValue{
					"pk": &types.AttributeValueMemberS{Value: "test"},
					"sk": &types.AttributeValueMemberS{Value: values[i]},
				},
			})
			require.NoError(t, err)
		}

		items := scanAll(t, store, singleTableDesign.Name)
		require.Len(t, items, len(values))
		for i, item := range items {
			assert.Equal(t, values[i], item["sk"].(*types.AttributeValueMemberS).Value)
		}
	})
}

func TestStore_Scan_ProjectionExpression(t *testing.T) {
	store := newTestStore(t, singleTableDesign)
	ctx := context.Background()

	items := []map[string]types.AttributeValue{
		{
			"pk":     &types.AttributeValueMemberS{Value: "a"},
			"sk":     &types.AttributeValueMemberS{Value: "1"},
			"field1": &types.AttributeValueMemberS{Value: "value1"},
			"field2": &types.AttributeValueMemberS{Value: "value2"},
		},
		{
			"pk":     &types.AttributeValueMemberS{Value: "b"},
			"sk":     &types.AttributeValueMemberS{Value: "2"},
			"field1": &types.AttributeValueMemberS{Value: "value3"},
		},
	}
	for _, item := range items {
		_, err := store.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: &singleTableDesign.Name,
			Item:      item,
		})
		require.NoError(t, err)
	}

	t.Run("plain names", func(t *testing.T) {
		result, err := store.Scan(ctx, &dynamodb.ScanInput{
			TableName:            &singleTableDesign.Name,
			ProjectionExpression: ptrStr("pk, field1"),
		})
		require.NoError(t, err)
		require.Len(t, result.Items, 2)

		for _, item := range result.Items {
			assert.Len(t, item, 2)
			assert.Contains(t, item, "pk")
			assert.Contains(t, item, "field1")
		}
	})

	t.Run("built with the expression package", func(t *testing.T) {
		expr, err := expression.NewBuilder().
			WithProjection(expression.NamesList(expression.Name("field2"), expression.Name("sk"))).
			Build()
		require.NoError(t, err)

		result, err := store.Scan(ctx, &dynamodb.ScanInput{
			TableName:                &singleTableDesign.Name,
			ProjectionExpression:     expr.Projection(),
			ExpressionAttributeNames: expr.Names(),
		})
		require.NoError(t, err)
		require.Len(t, result.Items, 2)
		assert.Len(t, result.Items[0], 2)
		assert.Len(t, result.Items[1], 1, "missing attributes are omitted")
	})

	t.Run("pagination keys survive projection", func(t *testing.T) {
		result, err := store.Scan(ctx, &dynamodb.ScanInput{
			TableName:            &singleTableDesign.Name,
			ProjectionExpression: ptrStr("field1"),
			Limit:                ptrInt32(1),
		})
		require.NoError(t, err)
		require.NotNil(t, result.LastEvaluatedKey)
		assert.Contains(t, result.LastEvaluatedKey, "pk")
		assert.Contains(t, result.LastEvaluatedKey, "sk")
	})

	t.Run("nested paths are rejected", func(t *testing.T) {
		_, err := store.Scan(ctx, &dynamodb.ScanInput{
			TableName:            &singleTableDesign.Name,
			ProjectionExpression: ptrStr("map.nested"),
		})
		assert.Error(t, err)
	})

	t.Run("undefined placeholder", func(t *testing.T) {
		_, err := store.Scan(ctx, &dynamodb.ScanInput{
			TableName:            &singleTableDesign.Name,
			ProjectionExpression: ptrStr("#missing"),
		})
		assert.Error(t, err)
	})
}
