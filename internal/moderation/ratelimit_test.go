package moderation

import (
	"testing"
	"time"
)

// fakeClock lets tests advance time deterministically.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(maxCalls int, period time.Duration) (*RateLimiter, *fakeClock) {
	rl := NewRateLimiter(maxCalls, period)
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiter_BurstThenDeny(t *testing.T) {
	rl, _ := newTestLimiter(2, 3*time.Second)

	got := []bool{rl.Allow("alice"), rl.Allow("alice"), rl.Allow("alice")}
	want := []bool{true, true, false}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("call %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRateLimiter_AllowsAfterWindow(t *testing.T) {
	rl, clock := newTestLimiter(2, 3*time.Second)

	rl.Allow("alice")
	rl.Allow("alice")
	if rl.Allow("alice") {
		t.Fatal("third call inside window should be denied")
	}

	clock.advance(3*time.Second + time.Millisecond)
	if !rl.Allow("alice") {
		t.Fatal("call after window elapsed should be allowed")
	}
}

func TestRateLimiter_KeysIndependent(t *testing.T) {
	rl, _ := newTestLimiter(1, time.Minute)

	if !rl.Allow("alice") {
		t.Fatal("first call for alice should pass")
	}
	if !rl.Allow("bob") {
		t.Fatal("bob has his own window")
	}
	if rl.Allow("alice") {
		t.Fatal("second call for alice should be denied")
	}
}

func TestRateLimiter_Reset(t *testing.T) {
	rl, _ := newTestLimiter(1, time.Minute)

	rl.Allow("alice")
	if rl.Allow("alice") {
		t.Fatal("should be limited before reset")
	}
	rl.Reset("alice")
	if !rl.Allow("alice") {
		t.Fatal("reset should clear the window")
	}
}

func TestRateLimiter_DeniedCallRecordsNothing(t *testing.T) {
	rl, clock := newTestLimiter(1, 10*time.Second)

	rl.Allow("alice")
	for i := 0; i < 5; i++ {
		clock.advance(time.Second)
		rl.Allow("alice") // all denied; must not extend the window
	}
	clock.advance(5*time.Second + time.Millisecond) // 10s past the single recorded call
	if !rl.Allow("alice") {
		t.Fatal("denied calls must not refresh the window")
	}
}
