// Package clock abstracts wall-clock time so expiry checks stay testable.
package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock returns the current time. Grant expiry is evaluated lazily against
// Clock.Now at query time; there is no background sweep.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// NewSystemClock returns a Clock backed by the system time in UTC.
func NewSystemClock() Clock { return systemClock{} }

var Module = fx.Module("clock",
	fx.Provide(NewSystemClock),
)
