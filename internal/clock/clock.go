package clock

import "time"

// Clock provides the current time in the civil timezone the whole system
// operates in. Registration timestamps, date validation and the reminder
// schedule all go through a Clock so tests can pin time.
type Clock interface {
	Now() time.Time
}

// Events are run by the Quito campus; the backend uses its fixed UTC-5
// offset everywhere instead of the server's local zone.
var quitoZone = time.FixedZone("America/Guayaquil", -5*60*60)

type quitoClock struct{}

func (quitoClock) Now() time.Time {
	return time.Now().In(quitoZone)
}

func Quito() Clock {
	return quitoClock{}
}

// Zone returns the fixed UTC-5 location used by Quito().
func Zone() *time.Location {
	return quitoZone
}

type fixedClock struct {
	t time.Time
}

func (f fixedClock) Now() time.Time {
	return f.t
}

// Fixed returns a Clock frozen at t, for deterministic tests.
func Fixed(t time.Time) Clock {
	return fixedClock{t: t.In(quitoZone)}
}
