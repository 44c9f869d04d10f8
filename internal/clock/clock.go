// Package clock abstracts wall-clock time so handlers stay testable.
package clock

import (
	"time"

	"go.uber.org/fx"
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// NewSystemClock returns a Clock backed by the system wall clock.
func NewSystemClock() Clock {
	return systemClock{}
}

// Module provides the system clock to the application graph.
var Module = fx.Module("clock",
	fx.Provide(NewSystemClock),
)
