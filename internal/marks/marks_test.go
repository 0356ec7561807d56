package marks

import (
	"testing"
	"time"
)

func TestSetInThenOut(t *testing.T) {
	s := NewSession()
	s.SetIn(10 * time.Second)
	s.SetOut(20 * time.Second)

	in, out, err := s.Range()
	if err != nil {
		t.Fatal(err)
	}
	if in != 10*time.Second || out != 20*time.Second {
		t.Errorf("range = %v..%v", in, out)
	}
}

func TestRangeUnset(t *testing.T) {
	s := NewSession()
	if _, _, err := s.Range(); err != ErrRangeUnset {
		t.Errorf("expected ErrRangeUnset, got %v", err)
	}

	s.SetIn(5 * time.Second)
	if _, _, err := s.Range(); err != ErrRangeUnset {
		t.Errorf("expected ErrRangeUnset with only IN set, got %v", err)
	}
}

func TestSetInDropsEarlierOut(t *testing.T) {
	s := NewSession()
	s.SetIn(5 * time.Second)
	s.SetOut(10 * time.Second)

	// moving IN past OUT invalidates OUT
	snap := s.SetIn(15 * time.Second)
	if snap.OutSet {
		t.Error("OUT should be dropped when IN moves past it")
	}
	if !snap.InSet || snap.In != 15*time.Second {
		t.Errorf("IN = %v set=%v", snap.In, snap.InSet)
	}
}

func TestSetOutWithoutIn(t *testing.T) {
	s := NewSession()
	snap := s.SetOut(8 * time.Second)
	if !snap.InSet || snap.In != 0 {
		t.Errorf("IN should default to 0, got %v set=%v", snap.In, snap.InSet)
	}
	if snap.Out != 8*time.Second {
		t.Errorf("OUT = %v", snap.Out)
	}
}

func TestSetOutBeforeInIsBumped(t *testing.T) {
	s := NewSession()
	s.SetIn(10 * time.Second)
	snap := s.SetOut(3 * time.Second)
	if snap.Out <= snap.In {
		t.Errorf("OUT %v should be bumped past IN %v", snap.Out, snap.In)
	}
}

func TestSetOutClampedToDuration(t *testing.T) {
	s := NewSession()
	s.SetDuration(60 * time.Second)
	s.SetIn(10 * time.Second)
	snap := s.SetOut(90 * time.Second)
	if snap.Out != 60*time.Second {
		t.Errorf("OUT = %v, want clamp to 60s", snap.Out)
	}
}

func TestSetOutRefusedWithInAtDuration(t *testing.T) {
	s := NewSession()
	s.SetDuration(60 * time.Second)
	s.SetIn(60 * time.Second)

	// the bump past IN cannot fit under the duration; OUT must stay
	// unset rather than land on IN
	snap := s.SetOut(90 * time.Second)
	if snap.OutSet {
		t.Errorf("OUT = %v set, want refused", snap.Out)
	}
	if _, _, err := s.Range(); err != ErrRangeUnset {
		t.Errorf("expected ErrRangeUnset, got %v", err)
	}
}

func TestNegativeInClamped(t *testing.T) {
	s := NewSession()
	snap := s.SetIn(-3 * time.Second)
	if snap.In != 0 {
		t.Errorf("IN = %v, want 0", snap.In)
	}
}

func TestClear(t *testing.T) {
	s := NewSession()
	s.SetIn(1 * time.Second)
	s.SetOut(2 * time.Second)
	s.Clear()

	snap := s.Snapshot()
	if snap.InSet || snap.OutSet {
		t.Error("marks should be cleared")
	}
}

func TestOnChange(t *testing.T) {
	s := NewSession()
	var seen []Snapshot
	s.OnChange(func(snap Snapshot) {
		seen = append(seen, snap)
	})

	s.SetIn(1 * time.Second)
	s.SetOut(2 * time.Second)
	s.Clear()

	if len(seen) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(seen))
	}
	if !seen[0].InSet || seen[0].OutSet {
		t.Error("first notification should carry IN only")
	}
	if seen[2].InSet || seen[2].OutSet {
		t.Error("last notification should be cleared")
	}
}
