package ddbbrowse

import "strings"

// Filter narrows scanned records. Matching is case-insensitive substring
// matching on the cell text before truncation.
type Filter struct {
	// Search must appear in at least one attribute.
	Search string
	// Columns maps an attribute name to text that must appear in it. Empty
	// values are ignored.
	Columns map[string]string
}

// Empty reports whether the filter lets every record through.
func (f Filter) Empty() bool {
	if f.Search != "" {
		return false
	}
	for _, v := range f.Columns {
		if v != "" {
			return false
		}
	}
	return true
}

// Match reports whether item passes the filter.
func (f Filter) Match(item Item) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		found := false
		for _, av := range item {
			if strings.Contains(strings.ToLower(DisplayString(av)), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	for col, want := range f.Columns {
		if want == "" {
			continue
		}
		cell := strings.ToLower(DisplayString(item[col]))
		if !strings.Contains(cell, strings.ToLower(want)) {
			return false
		}
	}
	return true
}

// Apply returns the items that pass f, in order. The input is not modified.
func (f Filter) Apply(items []Item) []Item {
	if f.Empty() {
		return items
	}
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if f.Match(item) {
			out = append(out, item)
		}
	}
	return out
}
