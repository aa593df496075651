package stash

import "errors"

var (
	// ErrNoScene means the server answered an update without a scene.
	ErrNoScene = errors.New("no scene in response")

	// ErrMissingField marks a criterion that names no field.
	ErrMissingField = errors.New("criterion missing field")
)
