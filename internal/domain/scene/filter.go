package scene

import (
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// Criterion is a single filter term in the media server's vocabulary:
// the field to test, the match modifier, and the value to match against.
type Criterion struct {
	Field    string `json:"field"`
	Modifier string `json:"modifier,omitempty"`
	Value    any    `json:"value,omitempty"`
}

// Filter is a listing restriction. The zero value selects everything.
type Filter struct {
	Query    string      `json:"query,omitempty"`
	Criteria []Criterion `json:"criteria,omitempty"`
}

// IsZero reports whether the filter restricts nothing.
func (f Filter) IsZero() bool {
	return f.Query == "" && len(f.Criteria) == 0
}

// Key returns the canonical identity of the configuration. Two filters
// with the same terms share a key regardless of term order.
func (f Filter) Key() FilterKey {
	if f.IsZero() {
		return ""
	}

	terms := make([]string, 0, len(f.Criteria)+1)
	if f.Query != "" {
		terms = append(terms, "q="+f.Query)
	}
	for _, c := range f.Criteria {
		raw, err := json.Marshal(c.Value)
		if err != nil {
			raw = []byte(`"?"`)
		}
		terms = append(terms, c.Field+":"+c.Modifier+":"+string(raw))
	}
	sort.Strings(terms)

	return FilterKey(strings.Join(terms, "&"))
}
