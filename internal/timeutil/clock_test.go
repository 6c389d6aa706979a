package timeutil

import (
	"sync"
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", now, before, after)
	}
}

func TestRealClock_Since(t *testing.T) {
	clock := RealClock{}
	past := time.Now().Add(-time.Second)
	d := clock.Since(past)

	if d < time.Second {
		t.Errorf("Since() returned %v, expected >= 1s", d)
	}
}

func TestMockClock_SetAndAdvance(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	if got := clock.Now(); !got.Equal(start) {
		t.Errorf("Now() = %v, want %v", got, start)
	}
	if got := clock.Now(); !got.Equal(start) {
		t.Errorf("Now() without step moved to %v", got)
	}

	clock.Advance(90 * time.Second)
	if d := clock.Since(start); d != 90*time.Second {
		t.Errorf("Since() = %v, want 1m30s", d)
	}

	later := start.Add(time.Hour)
	clock.Set(later)
	if got := clock.Now(); !got.Equal(later) {
		t.Errorf("Now() after Set = %v, want %v", got, later)
	}
}

func TestSteppingClock(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	clock := NewSteppingClock(start, time.Minute)

	for i := 0; i < 3; i++ {
		want := start.Add(time.Duration(i) * time.Minute)
		if got := clock.Now(); !got.Equal(want) {
			t.Errorf("Now() #%d = %v, want %v", i, got, want)
		}
	}
	if d := clock.Since(start); d != 3*time.Minute {
		t.Errorf("Since() = %v, want 3m", d)
	}
}

func TestMockClock_Concurrent(t *testing.T) {
	clock := NewSteppingClock(time.Unix(0, 0), time.Nanosecond)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				clock.Now()
			}
		}()
	}
	wg.Wait()
	if d := clock.Since(time.Unix(0, 0)); d != 800*time.Nanosecond {
		t.Errorf("Since() = %v, want 800ns", d)
	}
}
