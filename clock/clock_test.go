package clock

import (
	"math"
	"testing"
	"time"
)

func TestManualAdvance(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m := NewManual(start)

	if got := m.Now(); !got.Equal(start) {
		t.Errorf("Now() = %v, want %v", got, start)
	}
	m.Advance(1500 * time.Millisecond)
	if got, want := m.Now(), start.Add(1500*time.Millisecond); !got.Equal(want) {
		t.Errorf("after Advance, Now() = %v, want %v", got, want)
	}
}

func TestManualZeroValue(t *testing.T) {
	var m Manual
	if got := m.Now(); !got.Equal(time.Unix(0, 0)) {
		t.Errorf("zero Manual Now() = %v, want Unix epoch", got)
	}
	m.Advance(time.Second)
	if got := Millis(m.Now()); got != 1000 {
		t.Errorf("Millis after 1s = %v, want 1000", got)
	}
}

func TestMillisRoundTrip(t *testing.T) {
	ms := 1700000000123.5
	got := Millis(FromMillis(ms))
	if math.Abs(got-ms) > 1e-3 {
		t.Errorf("Millis(FromMillis(%v)) = %v", ms, got)
	}
}

func TestSystemMonotonicEnough(t *testing.T) {
	var s System
	a := s.Now()
	b := s.Now()
	if b.Before(a) {
		t.Errorf("System clock went backwards: %v then %v", a, b)
	}
}
