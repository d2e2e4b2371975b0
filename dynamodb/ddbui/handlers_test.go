package ddbui

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/ddbbrowse"
	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/ddbconn"
	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/ddbstore"
	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/table"
)

var eventsTable = table.TableDefinition{
	Name: "events",
	KeyDefinitions: table.PrimaryKeyDefinition{
		PartitionKey: table.KeyDef{Name: "stream", Kind: table.KeyKindS},
		SortKey:      table.KeyDef{Name: "seq", Kind: table.KeyKindN},
	},
}

func newTestServer(t *testing.T, events int, opts ...Option) *httptest.Server {
	t.Helper()
	store, err := ddbstore.New(ddbstore.StoreOptions{InMemory: true}, eventsTable)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	for i := 0; i < events; i++ {
		_, err := store.PutItem(context.Background(), &dynamodb.PutItemInput{
			TableName: &eventsTable.Name,
			Item: map[string]types.AttributeValue{
				"stream": &types.AttributeValueMemberS{Value: "orders"},
				"seq":    &types.AttributeValueMemberN{Value: fmt.Sprint(i)},
				"kind":   &types.AttributeValueMemberS{Value: []string{"Created", "paid", "shipped"}[i%3]},
				"payload": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
					"note": &types.AttributeValueMemberS{Value: strings.Repeat("x", 60)},
				}},
			},
		})
		require.NoError(t, err)
	}

	srv := NewServer(ServerConfig{ScanLimit: 10}, ddbbrowse.New(store), opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, ts *httptest.Server, path string, out any) int {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body any, out any) int {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type itemsResponse struct {
	Items   []map[string]any   `json:"items"`
	Rows    [][]ddbbrowse.Cell `json:"rows"`
	Columns []string           `json:"columns"`
	Count   int                `json:"count"`
	Scanned int                `json:"scanned"`
	LastKey string             `json:"lastKey"`
	Error   string             `json:"error"`
}

func TestAPI_Health(t *testing.T) {
	ts := newTestServer(t, 0)
	var body map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, ts, "/healthz", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestAPI_ListTables(t *testing.T) {
	ts := newTestServer(t, 0)
	var body struct {
		Tables []string `json:"tables"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, ts, "/api/tables", &body))
	assert.Equal(t, []string{"events"}, body.Tables)
}

func TestAPI_GetTable(t *testing.T) {
	ts := newTestServer(t, 4)

	var c ddbbrowse.Collection
	assert.Equal(t, http.StatusOK, getJSON(t, ts, "/api/tables/events", &c))
	assert.Equal(t, "events", c.Name)
	assert.Equal(t, "stream", c.Keys.PartitionKey.Name)
	assert.Equal(t, "seq", c.Keys.SortKey.Name)
	assert.EqualValues(t, 4, c.ItemCount)

	var errBody map[string]string
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts, "/api/tables/missing", &errBody))
	assert.Contains(t, errBody["error"], "missing")
}

func TestAPI_ScanItems(t *testing.T) {
	ts := newTestServer(t, 5)

	var body itemsResponse
	require.Equal(t, http.StatusOK, getJSON(t, ts, "/api/tables/events/items", &body))
	assert.Equal(t, 5, body.Count)
	assert.Equal(t, 5, body.Scanned)
	assert.Empty(t, body.LastKey)
	assert.Equal(t, []string{"stream", "seq", "kind", "payload"}, body.Columns)

	require.Len(t, body.Items, 5)
	assert.Equal(t, "orders", body.Items[0]["stream"])
	assert.EqualValues(t, 0, body.Items[0]["seq"])

	require.Len(t, body.Rows, 5)
	payload := body.Rows[0][3]
	assert.Equal(t, "payload", payload.Column)
	assert.True(t, payload.Truncated)
	assert.Len(t, payload.Text, ddbbrowse.CellWidth)
	assert.True(t, strings.HasSuffix(payload.Text, "..."))
}

func TestAPI_ScanItems_Pagination(t *testing.T) {
	ts := newTestServer(t, 25)

	var seen []any
	path := "/api/tables/events/items?limit=10"
	for pages := 0; ; pages++ {
		require.Less(t, pages, 5, "pagination did not terminate")

		var body itemsResponse
		require.Equal(t, http.StatusOK, getJSON(t, ts, path, &body))
		for _, item := range body.Items {
			seen = append(seen, item["seq"])
		}
		if body.LastKey == "" {
			break
		}
		assert.Len(t, body.Items, 10)
		path = "/api/tables/events/items?limit=10&lastKey=" + url.QueryEscape(body.LastKey)
	}

	require.Len(t, seen, 25)
	for i, seq := range seen {
		assert.EqualValues(t, i, seq)
	}
}

func TestAPI_ScanItems_DefaultLimit(t *testing.T) {
	ts := newTestServer(t, 15)

	var body itemsResponse
	require.Equal(t, http.StatusOK, getJSON(t, ts, "/api/tables/events/items", &body))
	assert.Equal(t, 10, body.Scanned)
	assert.NotEmpty(t, body.LastKey)
}

func TestAPI_ScanItems_Filters(t *testing.T) {
	ts := newTestServer(t, 9)

	t.Run("search is case insensitive", func(t *testing.T) {
		var body itemsResponse
		require.Equal(t, http.StatusOK, getJSON(t, ts, "/api/tables/events/items?search=CREATED", &body))
		assert.Equal(t, 3, body.Count)
		assert.Equal(t, 9, body.Scanned)
		for _, item := range body.Items {
			assert.Equal(t, "Created", item["kind"])
		}
	})

	t.Run("column filter", func(t *testing.T) {
		var body itemsResponse
		require.Equal(t, http.StatusOK, getJSON(t, ts, "/api/tables/events/items?filter.kind=pai", &body))
		assert.Equal(t, 3, body.Count)
		assert.Len(t, body.Rows, 3)
	})

	t.Run("filters combine", func(t *testing.T) {
		var body itemsResponse
		require.Equal(t, http.StatusOK, getJSON(t, ts, "/api/tables/events/items?filter.kind=shipped&filter.seq=8", &body))
		assert.Equal(t, 1, body.Count)
	})

	t.Run("no match keeps columns", func(t *testing.T) {
		var body itemsResponse
		require.Equal(t, http.StatusOK, getJSON(t, ts, "/api/tables/events/items?search=nothing-like-this", &body))
		assert.Equal(t, 0, body.Count)
		assert.Empty(t, body.Items)
		assert.NotEmpty(t, body.Columns)
	})
}

func TestAPI_ScanItems_Projection(t *testing.T) {
	ts := newTestServer(t, 3)

	var body itemsResponse
	require.Equal(t, http.StatusOK, getJSON(t, ts, "/api/tables/events/items?attributes=seq,%20kind", &body))
	assert.Equal(t, []string{"seq", "kind"}, body.Columns)
	for _, item := range body.Items {
		assert.Len(t, item, 2)
	}
}

func TestAPI_ScanItems_Errors(t *testing.T) {
	ts := newTestServer(t, 1)

	var body itemsResponse
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts, "/api/tables/events/items?lastKey=!!!", &body))
	assert.Contains(t, body.Error, "lastKey")

	body = itemsResponse{}
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts, "/api/tables/missing/items", &body))
	assert.NotEmpty(t, body.Error)
}

func TestAPI_Inspect(t *testing.T) {
	ts := newTestServer(t, 0)

	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	_, err := w.Write([]byte(`{"order":42}`))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	tests := []struct {
		name      string
		req       map[string]any
		wantTitle string
		want      string
	}{
		{
			name:      "binary gzip",
			req:       map[string]any{"value": base64.StdEncoding.EncodeToString(gz.Bytes()), "binary": true},
			wantTitle: "Decompressed JSON Content",
			want:      "{\n  \"order\": 42\n}",
		},
		{
			name:      "base64 text gzip",
			req:       map[string]any{"value": base64.StdEncoding.EncodeToString(gz.Bytes())},
			wantTitle: "Decompressed JSON Content",
			want:      "{\n  \"order\": 42\n}",
		},
		{
			name:      "structured value",
			req:       map[string]any{"value": map[string]any{"a": 1.5}},
			wantTitle: "JSON Content",
			want:      "{\n  \"a\": 1.5\n}",
		},
		{
			name:      "plain text with title",
			req:       map[string]any{"value": "hello", "title": "greeting"},
			wantTitle: "greeting",
			want:      "hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var res struct {
				Title        string `json:"title"`
				Content      string `json:"content"`
				IsStructured bool   `json:"isStructured"`
			}
			require.Equal(t, http.StatusOK, postJSON(t, ts, "/api/inspect", tt.req, &res))
			assert.Equal(t, tt.wantTitle, res.Title)
			assert.Equal(t, tt.want, res.Content)
		})
	}
}

func TestAPI_Inspect_BadRequests(t *testing.T) {
	ts := newTestServer(t, 0)

	for name, req := range map[string]any{
		"missing value":     map[string]any{"title": "x"},
		"binary not string": map[string]any{"value": 12, "binary": true},
		"binary not base64": map[string]any{"value": "***", "binary": true},
	} {
		t.Run(name, func(t *testing.T) {
			var body map[string]string
			assert.Equal(t, http.StatusBadRequest, postJSON(t, ts, "/api/inspect", req, &body))
			assert.NotEmpty(t, body["error"])
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/api/inspect", "application/json", strings.NewReader("{"))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAPI_Regions(t *testing.T) {
	ts := newTestServer(t, 0)
	var body struct {
		Regions []ddbconn.Region `json:"regions"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, ts, "/api/regions", &body))
	assert.Len(t, body.Regions, len(ddbconn.Regions()))
	assert.Equal(t, ddbconn.DefaultRegion, body.Regions[0].Code)
}

func TestAPI_WhoAmI(t *testing.T) {
	t.Run("local store has no identity", func(t *testing.T) {
		ts := newTestServer(t, 0)
		var body map[string]string
		assert.Equal(t, http.StatusNotFound, getJSON(t, ts, "/api/whoami", &body))
	})

	t.Run("identity", func(t *testing.T) {
		ts := newTestServer(t, 0, WithIdentity(func(context.Context) (ddbconn.Identity, error) {
			return ddbconn.Identity{Account: "123456789012", ARN: "arn:aws:iam::123456789012:user/dev"}, nil
		}))
		var id ddbconn.Identity
		require.Equal(t, http.StatusOK, getJSON(t, ts, "/api/whoami", &id))
		assert.Equal(t, "123456789012", id.Account)
	})

	t.Run("identity error", func(t *testing.T) {
		ts := newTestServer(t, 0, WithIdentity(func(context.Context) (ddbconn.Identity, error) {
			return ddbconn.Identity{}, errors.New("expired token")
		}))
		var body map[string]string
		assert.Equal(t, http.StatusBadGateway, getJSON(t, ts, "/api/whoami", &body))
		assert.Contains(t, body["error"], "expired token")
	})
}

func TestAPI_CORSPreflight(t *testing.T) {
	ts := newTestServer(t, 0)
	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/tables", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestLastKeyRoundTrip(t *testing.T) {
	key := map[string]types.AttributeValue{
		"stream": &types.AttributeValueMemberS{Value: "a/b?c"},
		"seq":    &types.AttributeValueMemberN{Value: "-1.5"},
		"blob":   &types.AttributeValueMemberB{Value: []byte{0, 1, 2}},
	}
	encoded, err := encodeLastKey(key)
	require.NoError(t, err)
	assert.NotContains(t, encoded, "/")
	assert.NotContains(t, encoded, "+")

	decoded, err := decodeLastKey(encoded)
	require.NoError(t, err)
	assert.Equal(t, key, decoded)

	_, err = encodeLastKey(map[string]types.AttributeValue{"x": &types.AttributeValueMemberBOOL{Value: true}})
	assert.Error(t, err)

	bad := base64.RawURLEncoding.EncodeToString([]byte(`{"x":{"S":"a","N":"1"}}`))
	_, err = decodeLastKey(bad)
	assert.Error(t, err)
}

func TestServer_ServeShutsDownOnCancel(t *testing.T) {
	store, err := ddbstore.New(ddbstore.StoreOptions{InMemory: true}, eventsTable)
	require.NoError(t, err)
	defer store.Close()

	srv := NewServer(ServerConfig{}, ddbbrowse.New(store))
	ln := httptest.NewUnstartedServer(nil).Listener
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	assert.NoError(t, <-done)
}

func TestServer_PrintBanner(t *testing.T) {
	var buf bytes.Buffer
	NewServer(ServerConfig{Port: 8123, Source: "eu-west-1"}, nil).PrintBanner(&buf)
	assert.Contains(t, buf.String(), "http://localhost:8123")
	assert.Contains(t, buf.String(), "eu-west-1")
}
