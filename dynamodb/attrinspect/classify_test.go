package attrinspect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		want       string
		structured bool
	}{
		{name: "object is indented", text: `{"a":1}`, want: "{\n  \"a\": 1\n}", structured: true},
		{name: "key order is preserved", text: `{"b":1,"a":2}`, want: "{\n  \"b\": 1,\n  \"a\": 2\n}", structured: true},
		{name: "whitespace is canonicalized", text: "  {\n\"a\" :\t[1,  2]}\n", want: "{\n  \"a\": [\n    1,\n    2\n  ]\n}", structured: true},
		{name: "empty containers", text: `{"a":[],"b":{}}`, want: "{\n  \"a\": [],\n  \"b\": {}\n}", structured: true},
		{name: "html is not escaped", text: `{"h":"<b>&</b>"}`, want: "{\n  \"h\": \"<b>&</b>\"\n}", structured: true},
		{name: "bare number is json", text: "123", want: "123", structured: true},
		{name: "bare string is json", text: `"quoted"`, want: `"quoted"`, structured: true},
		{name: "plain text", text: "hello world", want: "hello world", structured: false},
		{name: "invalid json is returned unchanged", text: `{"a":}`, want: `{"a":}`, structured: false},
		{name: "empty", text: "", want: "", structured: false},
		{name: "whitespace only", text: "  \n", want: "  \n", structured: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.text)
			assert.Equal(t, tt.structured, got.IsStructured)
			assert.Equal(t, tt.want, got.Content)
		})
	}
}

func TestClassifyStructured(t *testing.T) {
	got := ClassifyStructured(map[string]any{"x": []int{1, 2, 3}})
	assert.True(t, got.IsStructured)
	assert.Equal(t, "{\n  \"x\": [\n    1,\n    2,\n    3\n  ]\n}", got.Content)

	t.Run("unencodable value falls back to text", func(t *testing.T) {
		got := ClassifyStructured(map[string]any{"ch": make(chan int)})
		assert.False(t, got.IsStructured)
		assert.NotEmpty(t, got.Content)
	})
}

func TestClassify_Idempotent(t *testing.T) {
	values := []any{
		map[string]any{"x": []any{1, 2, 3}},
		map[string]any{"nested": map[string]any{"b": true, "a": nil}, "s": "<tag>"},
		[]any{"a", 1.5, map[string]any{}},
	}

	for _, v := range values {
		direct := ClassifyStructured(v)
		reparsed := Classify(direct.Content)
		assert.True(t, direct.IsStructured)
		assert.True(t, reparsed.IsStructured)
		assert.Equal(t, direct.Content, reparsed.Content)

		again := Classify(reparsed.Content)
		assert.Equal(t, reparsed.Content, again.Content)
	}
}
