package config

import "errors"

// ErrNotFound is returned when a named connection is not configured.
var ErrNotFound = errors.New("not found")
