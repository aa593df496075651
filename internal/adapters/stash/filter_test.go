package stash

import (
	"errors"
	"net/url"
	"testing"
)

func TestParseFilter(t *testing.T) {
	values := url.Values{
		"q": []string{"  beach  "},
		"criterion": []string{
			`{"field":"studios","modifier":"INCLUDES","value":["42"]}`,
			`not json`,
			`{"modifier":"GREATER_THAN","value":3}`,
			`{"field":"performers","modifier":"INCLUDES_ALL","value":["7","9"]}`,
		},
	}

	f, skipped := ParseFilter(values)

	if f.Query != "beach" {
		t.Fatalf("query = %q, want trimmed %q", f.Query, "beach")
	}
	if len(f.Criteria) != 2 {
		t.Fatalf("criteria = %d, want the 2 well-formed ones", len(f.Criteria))
	}
	if f.Criteria[0].Field != "studios" || f.Criteria[1].Field != "performers" {
		t.Fatalf("criteria fields = %q, %q", f.Criteria[0].Field, f.Criteria[1].Field)
	}

	if len(skipped) != 2 {
		t.Fatalf("skipped = %d, want 2", len(skipped))
	}
	if !errors.Is(skipped[1], ErrMissingField) {
		t.Fatalf("skipped[1] = %v, want ErrMissingField", skipped[1])
	}
}

func TestParseFilter_Empty(t *testing.T) {
	f, skipped := ParseFilter(url.Values{})
	if !f.IsZero() {
		t.Fatalf("filter = %+v, want zero", f)
	}
	if !f.Key().IsZero() {
		t.Fatalf("key = %q, want zero", f.Key())
	}
	if skipped != nil {
		t.Fatalf("skipped = %v, want none", skipped)
	}
}
