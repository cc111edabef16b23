package sqlite

import "errors"

// ErrStorePathRequired indicates Open was called with an empty path.
var ErrStorePathRequired = errors.New("store path is required")

// ErrOpenFailed indicates the database could not be opened or pinged.
var ErrOpenFailed = errors.New("opening sqlite store failed")
