package match

import (
	"errors"
)

// Sentinel kinds for match errors.
var (
	ErrNoPair      = errors.New("no pair on display")
	ErrInvalidSide = errors.New("invalid winner side")
)
