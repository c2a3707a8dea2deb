package transcript

import "time"

// SetNow replaces the package clock for tests and returns a restore
// function.
func SetNow(fn func() time.Time) func() {
	old := timeNow
	timeNow = fn
	return func() { timeNow = old }
}
