package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock abstracts the current instant so stores and lifecycles can be tested
// against a fixed point in time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// NewSystem returns the wall clock in UTC.
func NewSystem() Clock {
	return systemClock{}
}

var Module = fx.Module("clock",
	fx.Provide(NewSystem),
)
