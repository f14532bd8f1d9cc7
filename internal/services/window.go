package services

import (
	"time"
)

// WithinWindow reports whether an entity created at createdAt may
// still be mutated at now, given the configured window. The boundary
// is inclusive: a mutation at exactly createdAt+window is allowed.
func WithinWindow(createdAt, now time.Time, window time.Duration) bool {
	return now.Sub(createdAt) <= window
}
