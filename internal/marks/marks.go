// Package marks holds the IN/OUT marks for the currently loaded video.
package marks

import (
	"errors"
	"sync"
	"time"
)

// ErrRangeUnset is returned when a snapshot is requested before both
// marks are set.
var ErrRangeUnset = errors.New("marks: in and out must both be set")

// Snapshot is an immutable view of the session handed to listeners and
// to export-request construction.
type Snapshot struct {
	In     time.Duration
	Out    time.Duration
	InSet  bool
	OutSet bool
}

// Session tracks the IN/OUT marks and the source duration for one
// loaded video. Marks are cleared when a new source is loaded.
type Session struct {
	mu        sync.Mutex
	in, out   time.Duration
	inSet     bool
	outSet    bool
	duration  time.Duration
	listeners []func(Snapshot)
}

func NewSession() *Session {
	return &Session{}
}

// OnChange registers a listener invoked after every mark mutation.
func (s *Session) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// SetDuration records the source duration used to clamp marks.
func (s *Session) SetDuration(d time.Duration) {
	s.mu.Lock()
	s.duration = d
	s.mu.Unlock()
}

// Duration returns the recorded source duration (0 if unknown).
func (s *Session) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

// SetIn marks the segment start at pos. An OUT mark at or before the
// new IN is dropped.
func (s *Session) SetIn(pos time.Duration) Snapshot {
	s.mu.Lock()
	if pos < 0 {
		pos = 0
	}
	if s.outSet && pos >= s.out {
		s.outSet = false
	}
	s.in = pos
	s.inSet = true
	snap, fns := s.snapshotLocked()
	s.mu.Unlock()
	notify(fns, snap)
	return snap
}

// SetOut marks the segment end at pos. With no IN mark the segment
// starts at zero; an OUT at or before IN is bumped just past it. When
// IN sits at the source duration no valid OUT exists and the mark is
// refused.
func (s *Session) SetOut(pos time.Duration) Snapshot {
	s.mu.Lock()
	if !s.inSet {
		s.in = 0
		s.inSet = true
	}
	if pos <= s.in {
		pos = s.in + time.Millisecond
	}
	if s.duration > 0 && pos > s.duration {
		pos = s.duration
	}
	if pos <= s.in {
		// IN sits at the end of the source; no valid OUT fits
		snap, fns := s.snapshotLocked()
		s.mu.Unlock()
		notify(fns, snap)
		return snap
	}
	s.out = pos
	s.outSet = true
	snap, fns := s.snapshotLocked()
	s.mu.Unlock()
	notify(fns, snap)
	return snap
}

// Clear drops both marks.
func (s *Session) Clear() {
	s.mu.Lock()
	s.inSet = false
	s.outSet = false
	snap, fns := s.snapshotLocked()
	s.mu.Unlock()
	notify(fns, snap)
}

// Snapshot returns the current marks.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, _ := s.snapshotLocked()
	return snap
}

// Range returns the marked segment, or ErrRangeUnset if either mark is
// missing.
func (s *Session) Range() (in, out time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inSet || !s.outSet {
		return 0, 0, ErrRangeUnset
	}
	return s.in, s.out, nil
}

func (s *Session) snapshotLocked() (Snapshot, []func(Snapshot)) {
	snap := Snapshot{InSet: s.inSet, OutSet: s.outSet}
	if s.inSet {
		snap.In = s.in
	}
	if s.outSet {
		snap.Out = s.out
	}
	return snap, s.listeners
}

func notify(fns []func(Snapshot), snap Snapshot) {
	for _, fn := range fns {
		fn(snap)
	}
}
