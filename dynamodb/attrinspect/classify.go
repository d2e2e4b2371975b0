package attrinspect

import (
	"bytes"
	"encoding/json"
)

const indent = "  "

// Classified is content paired with whether it parsed as JSON.
type Classified struct {
	Content      string
	IsStructured bool
}

// Classify reports whether text is JSON. JSON text is re-indented with two
// spaces, preserving key order and number literals; anything else is
// returned unchanged as plain text.
func Classify(text string) Classified {
	src := bytes.TrimSpace([]byte(text))
	if len(src) == 0 || !json.Valid(src) {
		return Classified{Content: text}
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, src, "", indent); err != nil {
		return Classified{Content: text}
	}
	return Classified{Content: buf.String(), IsStructured: true}
}

// ClassifyStructured renders an already structured value as indented JSON.
// Values that cannot be encoded fall back to their default text form.
func ClassifyStructured(v any) Classified {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return Classified{Content: stringify(v)}
	}
	return Classified{Content: string(bytes.TrimRight(buf.Bytes(), "\n")), IsStructured: true}
}
