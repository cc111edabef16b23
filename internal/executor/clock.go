package executor

import "time"

// Clock supplies the current time in unix milliseconds, used for the
// last_migrated_at column. Injected so tests control timestamps.
type Clock interface {
	NowMilli() int64
}

type systemClock struct{}

func (systemClock) NowMilli() int64 { return time.Now().UnixMilli() }

// SystemClock returns a Clock backed by the wall clock.
func SystemClock() Clock { return systemClock{} }
