package clock

import (
	"testing"
	"time"
)

func TestSystem_UTC(t *testing.T) {
	now := System().Now()
	if now.Location() != time.UTC {
		t.Fatalf("system clock must be UTC, got %v", now.Location())
	}
	if d := time.Since(now); d < 0 || d > 2*time.Second {
		t.Fatalf("system clock too far from now: %v", d)
	}
}

func TestFixed_Advance(t *testing.T) {
	base := time.Unix(1_700_000_000, 0).UTC()
	f := &Fixed{T: base}

	if !f.Now().Equal(base) {
		t.Fatalf("Now = %v, want %v", f.Now(), base)
	}
	f.Advance(time.Second)
	if !f.Now().Equal(base.Add(time.Second)) {
		t.Fatalf("Now after advance = %v", f.Now())
	}
	// stays put between reads
	if !f.Now().Equal(f.Now()) {
		t.Fatalf("fixed clock drifted")
	}
}
