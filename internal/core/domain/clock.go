package domain

import "time"

// Now returns the current UTC time at millisecond precision, the finest
// resolution every store keeps.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
