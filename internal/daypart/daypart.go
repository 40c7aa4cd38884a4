// Package daypart classifies the hour of day into the four buckets used for
// prediction matching.
package daypart

import "fmt"

// Bucket is one of four fixed day segments used to coarsen time-of-day.
type Bucket string

const (
	Dawn      Bucket = "dawn"      // [5, 8)
	Morning   Bucket = "morning"   // [8, 12)
	Afternoon Bucket = "afternoon" // [12, 17)
	Evening   Bucket = "evening"   // everything else
)

// Buckets lists all buckets in day order.
func Buckets() []Bucket {
	return []Bucket{Dawn, Morning, Afternoon, Evening}
}

// ForHour maps an hour of day (0-23) to its bucket. Boundaries are half-open
// and fixed.
func ForHour(hour int) Bucket {
	switch {
	case hour >= 5 && hour < 8:
		return Dawn
	case hour >= 8 && hour < 12:
		return Morning
	case hour >= 12 && hour < 17:
		return Afternoon
	default:
		return Evening
	}
}

// Parse converts a string to a Bucket, rejecting unknown values.
func Parse(s string) (Bucket, error) {
	switch Bucket(s) {
	case Dawn, Morning, Afternoon, Evening:
		return Bucket(s), nil
	default:
		return "", fmt.Errorf("unknown hour bucket: %q", s)
	}
}

// String implements fmt.Stringer.
func (b Bucket) String() string {
	return string(b)
}
