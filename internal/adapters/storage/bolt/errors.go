package bolt

import (
	"errors"
)

// ErrNotFound reports an absent bucket or key.
var ErrNotFound = errors.New("not found")
