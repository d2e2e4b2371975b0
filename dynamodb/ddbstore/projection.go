package ddbstore

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// parseProjection resolves a projection expression into top-level
// attribute names. Nested paths (a.b, a[0]) are rejected.
func parseProjection(expr *string, names map[string]string) ([]string, error) {
	if expr == nil || strings.TrimSpace(*expr) == "" {
		return nil, nil
	}

	var attrs []string
	for _, part := range strings.Split(*expr, ",") {
		path := strings.TrimSpace(part)
		if path == "" {
			return nil, fmt.Errorf("projection expression %q: empty path", *expr)
		}
		if strings.ContainsAny(path, ".[]") {
			return nil, fmt.Errorf("projection expression %q: nested paths are not supported", *expr)
		}
		if strings.HasPrefix(path, "#") {
			name, ok := names[path]
			if !ok {
				return nil, fmt.Errorf("projection expression %q: undefined attribute name %s", *expr, path)
			}
			path = name
		}
		attrs = append(attrs, path)
	}
	return attrs, nil
}

func project(item map[string]types.AttributeValue, attrs []string) map[string]types.AttributeValue {
	if attrs == nil {
		return item
	}
	out := make(map[string]types.AttributeValue, len(attrs))
	for _, a := range attrs {
		if v, ok := item[a]; ok {
			out[a] = v
		}
	}
	return out
}
