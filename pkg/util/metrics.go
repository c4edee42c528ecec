package util

import "time"

// TimeOperationMicroseconds runs op and returns how long it took, for
// playback-duration metrics.
func TimeOperationMicroseconds(op func()) int64 {
	start := time.Now()
	op()
	return time.Since(start).Microseconds()
}
