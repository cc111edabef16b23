package config

import "errors"

// ErrUnknownBackend indicates a backend name other than sqlite or postgres.
var ErrUnknownBackend = errors.New("unknown store backend")
