package clock

import "time"

// NowFunc returns current time. Override in tests for determinism; pending
// approval expiry is always computed against this clock.
var NowFunc = time.Now

// Now is a thin wrapper around NowFunc.
func Now() time.Time { return NowFunc() }
