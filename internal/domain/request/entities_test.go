package request

import "testing"

func TestFundingWindowBoundary(t *testing.T) {
	r := &Request{CreatedAt: 5000, Status: StatusActive}
	deadline := int64(5000) + ExpirySeconds

	if !r.Fundable(deadline) {
		t.Error("funding at exactly the window boundary must succeed")
	}
	if r.Expirable(deadline) {
		t.Error("expiry at exactly the window boundary must be illegal")
	}
	if r.Fundable(deadline + 1) {
		t.Error("funding one second past the window must be rejected")
	}
	if !r.Expirable(deadline + 1) {
		t.Error("expiry one second past the window must be legal")
	}
}

func TestExpiryConstant(t *testing.T) {
	if ExpirySeconds != 172800 {
		t.Fatalf("funding window must be 2 days, got %d", ExpirySeconds)
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusActive.Terminal() {
		t.Error("active is the only non-terminal state")
	}
	for _, s := range []Status{StatusFunded, StatusCancelled, StatusExpired} {
		if !s.Terminal() {
			t.Errorf("%s must be terminal", s)
		}
	}
	if Status("pending").Valid() {
		t.Error("unknown status must be invalid")
	}
}
