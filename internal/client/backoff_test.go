package client

import (
	"math/rand"
	"testing"
	"time"
)

func TestBackoffFirstAttemptUsesInitialDelay(t *testing.T) {
	b := Backoff{InitialDelay: 100 * time.Millisecond, Multiplier: 2, MaxDelay: time.Second}
	if got := b.Delay(1, nil); got != 100*time.Millisecond {
		t.Fatalf("attempt 1 delay = %v, want 100ms", got)
	}
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	b := Backoff{InitialDelay: 100 * time.Millisecond, Multiplier: 2, MaxDelay: 300 * time.Millisecond}
	if got := b.Delay(2, nil); got != 200*time.Millisecond {
		t.Fatalf("attempt 2 delay = %v, want 200ms", got)
	}
	if got := b.Delay(5, nil); got != 300*time.Millisecond {
		t.Fatalf("attempt 5 delay = %v, want max 300ms", got)
	}
}

func TestBackoffJitterStaysInRange(t *testing.T) {
	b := Backoff{InitialDelay: 100 * time.Millisecond, Multiplier: 2, MaxDelay: time.Second, Jitter: true}
	rng := rand.New(rand.NewSource(7))
	base := 200 * time.Millisecond
	for i := 0; i < 100; i++ {
		got := b.Delay(2, rng)
		if got < base/2 || got > base*3/2 {
			t.Fatalf("jittered delay %v outside [%v, %v]", got, base/2, base*3/2)
		}
	}
}

func TestBackoffZeroInitialDelay(t *testing.T) {
	b := Backoff{Multiplier: 2}
	if got := b.Delay(3, nil); got != 0 {
		t.Fatalf("delay with zero initial = %v, want 0", got)
	}
}
