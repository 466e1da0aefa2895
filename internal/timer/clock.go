// Package timer implements the timing pieces of the browser: the debounce
// gate for free-text search and the background bootstrap refresher.
package timer

import "time"

// Clock schedules callbacks. AfterFunc returns a stop function that
// reports whether the callback was still pending.
type Clock interface {
	AfterFunc(d time.Duration, f func()) func() bool
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}
