package stash

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/dtt-git/stash-battle/internal/domain/scene"
)

// ParseFilter translates URL-encoded filter parameters into a gateway
// filter. The free-text term arrives as `q`; every `criterion` parameter
// holds one JSON-encoded criterion object. Malformed criteria are
// skipped and reported back so the caller can log them; the rest of the
// filter still applies.
func ParseFilter(values url.Values) (scene.Filter, []error) {
	f := scene.Filter{Query: strings.TrimSpace(values.Get("q"))}

	var skipped []error
	for _, raw := range values["criterion"] {
		var c scene.Criterion
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			skipped = append(skipped, fmt.Errorf("criterion %q: %w", raw, err))
			continue
		}
		if c.Field == "" {
			skipped = append(skipped, fmt.Errorf("criterion %q: %w", raw, ErrMissingField))
			continue
		}
		f.Criteria = append(f.Criteria, c)
	}

	return f, skipped
}
