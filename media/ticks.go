// Package media defines the domain models shared by the playback engine, the session controller and the server client.
package media

import "time"

// TicksPerMillisecond is the number of server ticks (100ns units) in one millisecond.
const TicksPerMillisecond = 10_000

// Ticks converts a duration to server ticks.
func Ticks(d time.Duration) int64 {
	return int64(d / 100)
}

// FromTicks converts server ticks to a duration.
func FromTicks(t int64) time.Duration {
	return time.Duration(t) * 100
}
