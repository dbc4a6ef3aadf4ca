package domain

import (
	"testing"
	"time"
)

func TestEpochClockStrictlyIncreasing(t *testing.T) {
	clock := NewEpochClock()

	prev := clock.Next()
	for i := 0; i < 1000; i++ {
		next := clock.Next()
		if next <= prev {
			t.Fatalf("epoch %d not greater than previous %d", next, prev)
		}
		prev = next
	}
}

func TestEpochClockFrozenWallClock(t *testing.T) {
	frozen := time.UnixMilli(1700000000000)
	clock := &EpochClock{now: func() time.Time { return frozen }}

	first := clock.Next()
	second := clock.Next()
	third := clock.Next()

	if first != 1700000000000 {
		t.Errorf("expected first epoch to be the wall clock, got %d", first)
	}
	if second != first+1 || third != second+1 {
		t.Errorf("expected clamped increments, got %d %d %d", first, second, third)
	}
}

func TestEpochClockBackwardsWallClock(t *testing.T) {
	current := time.UnixMilli(2000)
	clock := &EpochClock{now: func() time.Time { return current }}

	first := clock.Next()
	current = time.UnixMilli(1000)
	second := clock.Next()

	if second <= first {
		t.Errorf("epoch went backwards with the wall clock: %d then %d", first, second)
	}
}
