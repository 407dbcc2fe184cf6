package usecase

import (
	"time"

	"TimeTracker/internal/ports"
)

// SystemClock reads the wall clock in a fixed zone.
type SystemClock struct {
	Location *time.Location
}

var _ ports.Clock = SystemClock{}

// Now returns the current instant in the configured zone.
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}
