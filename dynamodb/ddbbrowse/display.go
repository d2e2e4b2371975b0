package ddbbrowse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/attrinspect"
	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/table"
)

// CellWidth is the maximum number of characters shown in a cell.
const CellWidth = 50

const ellipsis = "..."

// Document converts an item into plain Go values: strings, json.Number,
// bools, nil, []byte, slices and maps.
func Document(item Item) (map[string]any, error) {
	doc := make(map[string]any, len(item))
	for name, av := range item {
		v, err := attrinspect.Plain(av)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		doc[name] = v
	}
	return doc, nil
}

// DisplayString renders a value the way a table cell shows it: scalars as
// their text, everything else as compact JSON.
func DisplayString(av types.AttributeValue) string {
	switch v := av.(type) {
	case nil:
		return ""
	case *types.AttributeValueMemberS:
		return v.Value
	case *types.AttributeValueMemberN:
		return v.Value
	case *types.AttributeValueMemberBOOL:
		if v.Value {
			return "true"
		}
		return "false"
	case *types.AttributeValueMemberNULL:
		return "null"
	}

	doc, err := attrinspect.Plain(av)
	if err != nil {
		return ""
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return ""
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}

// Truncate shortens s to at most width characters, replacing the tail with
// "...".
func Truncate(s string, width int) string {
	if width <= len(ellipsis) || utf8.RuneCountInString(s) <= width {
		return s
	}
	keep := width - len(ellipsis)
	for i := range s {
		if keep == 0 {
			return s[:i] + ellipsis
		}
		keep--
	}
	return s
}

// Cell is one displayed value.
type Cell struct {
	Column    string `json:"column"`
	Text      string `json:"text"`
	Truncated bool   `json:"truncated,omitempty"`
}

// Cells renders item along columns. Missing attributes become empty cells.
func Cells(item Item, columns []string) []Cell {
	cells := make([]Cell, len(columns))
	for i, col := range columns {
		full := DisplayString(item[col])
		text := Truncate(full, CellWidth)
		cells[i] = Cell{Column: col, Text: text, Truncated: text != full}
	}
	return cells
}

// Columns lists every attribute name present in items. Key attributes come
// first, partition key before sort key; the rest are sorted.
func Columns(items []Item, keys table.PrimaryKeyDefinition) []string {
	seen := make(map[string]bool)
	var rest []string
	for _, item := range items {
		for name := range item {
			if !seen[name] {
				seen[name] = true
				rest = append(rest, name)
			}
		}
	}

	var columns []string
	for _, k := range []string{keys.PartitionKey.Name, keys.SortKey.Name} {
		if k != "" && seen[k] {
			columns = append(columns, k)
			delete(seen, k)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		if seen[name] {
			columns = append(columns, name)
		}
	}
	return columns
}
