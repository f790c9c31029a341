package clock

import "time"

// Clock supplies the timestamp the ledger compares deadlines against.
// Injecting it keeps expiry/deadline boundaries testable to the second.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// System returns the wall clock in UTC.
func System() Clock { return systemClock{} }

// Fixed is a Clock pinned to a settable instant. Tests move it forward to
// cross expiry and repayment boundaries deterministically.
type Fixed struct{ T time.Time }

func (f *Fixed) Now() time.Time { return f.T }

// Advance moves the fixed clock forward by d.
func (f *Fixed) Advance(d time.Duration) { f.T = f.T.Add(d) }
