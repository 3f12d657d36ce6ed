// Package timing contains the run-timer state machine: the Run definition and
// the Timer that tracks an attempt through it.
//
// The Timer is shared by reference between overlay instances and is mutated
// from hotkey and media-transport callbacks while the render thread reads it,
// so every mutable field is guarded by an RWMutex. Mutations take the write
// lock; Snapshot and the other read accessors take the read lock and copy out
// a consistent view. Calls that make no sense in the current phase (pausing an
// ended timer, splitting before the start) are absorbed silently.
package timing

import (
	"errors"
	"sync"
	"time"
)

// Phase is the coarse state of a timer.
type Phase int

const (
	PhaseNotRunning Phase = iota
	PhaseRunning
	PhaseEnded
	PhasePaused
)

// String returns the lowercase phase name.
func (p Phase) String() string {
	switch p {
	case PhaseNotRunning:
		return "not_running"
	case PhaseRunning:
		return "running"
	case PhaseEnded:
		return "ended"
	case PhasePaused:
		return "paused"
	}
	return "unknown"
}

// Method is the timing basis an attempt is measured in.
type Method int

const (
	MethodRealTime Method = iota
	MethodGameTime
)

// String returns the lowercase method name.
func (m Method) String() string {
	if m == MethodGameTime {
		return "game_time"
	}
	return "real_time"
}

// Comparisons a timer can cycle through. The active comparison only affects
// what the layout displays next to each split.
var comparisons = []string{"Personal Best", "Best Segments", "None"}

// ErrEmptyRun is returned by NewTimer when the run has no segments.
var ErrEmptyRun = errors.New("run has no segments")

// skipped marks a split slot that was advanced past without recording a time.
const skipped = time.Duration(-1)

// Timer tracks one attempt through a run.
type Timer struct {
	mu sync.RWMutex

	run          *Run
	phase        Phase
	currentSplit int
	splits       []time.Duration // cumulative times per completed segment; skipped = no time

	startedAt   time.Time
	pausedAt    time.Time
	pausedTotal time.Duration
	finalTime   time.Duration

	comparison int
	method     Method

	now func() time.Time // swapped out by tests
}

// NewTimer builds a NotRunning timer for the given run. The run is cloned so
// later attempts cannot corrupt the caller's copy.
func NewTimer(run *Run) (*Timer, error) {
	if run == nil || len(run.Segments) == 0 {
		return nil, ErrEmptyRun
	}
	return &Timer{run: run.Clone(), now: time.Now}, nil
}

// Phase returns the current phase.
func (t *Timer) Phase() Phase {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.phase
}

// CurrentMethod returns the active timing method.
func (t *Timer) CurrentMethod() Method {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.method
}

// CurrentComparison returns the name of the active comparison.
func (t *Timer) CurrentComparison() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return comparisons[t.comparison]
}

// CurrentTime returns the elapsed attempt time: zero before the start, frozen
// while paused, and the final time once the attempt has ended.
func (t *Timer) CurrentTime() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.currentTimeLocked()
}

func (t *Timer) currentTimeLocked() time.Duration {
	switch t.phase {
	case PhaseRunning:
		return t.now().Sub(t.startedAt) - t.pausedTotal
	case PhasePaused:
		return t.pausedAt.Sub(t.startedAt) - t.pausedTotal
	case PhaseEnded:
		return t.finalTime
	}
	return 0
}

// Start begins a new attempt. No-op unless the timer is NotRunning.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startLocked()
}

func (t *Timer) startLocked() {
	if t.phase != PhaseNotRunning {
		return
	}
	t.startedAt = t.now()
	t.pausedTotal = 0
	t.splits = t.splits[:0]
	t.currentSplit = 0
	t.finalTime = 0
	t.run.AttemptCount++
	t.phase = PhaseRunning
}

// Split records the current time against the current segment. Splitting the
// final segment ends the attempt. No-op unless Running.
func (t *Timer) Split() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.splitLocked()
}

func (t *Timer) splitLocked() {
	if t.phase != PhaseRunning {
		return
	}
	elapsed := t.currentTimeLocked()
	t.splits = append(t.splits, elapsed)
	t.currentSplit++
	if t.currentSplit == len(t.run.Segments) {
		t.finalTime = elapsed
		t.phase = PhaseEnded
	}
}

// SplitOrStart starts a NotRunning timer and splits a Running one.
func (t *Timer) SplitOrStart() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phase == PhaseNotRunning {
		t.startLocked()
	} else {
		t.splitLocked()
	}
}

// UndoSplit removes the last recorded split, stepping an Ended attempt back to
// Running. No-op when nothing has been split yet.
func (t *Timer) UndoSplit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.currentSplit == 0 || t.phase == PhaseNotRunning {
		return
	}
	t.splits = t.splits[:len(t.splits)-1]
	t.currentSplit--
	if t.phase == PhaseEnded {
		t.finalTime = 0
		t.phase = PhaseRunning
	}
}

// SkipSplit advances past the current segment without recording a time. The
// final segment cannot be skipped.
func (t *Timer) SkipSplit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phase != PhaseRunning || t.currentSplit >= len(t.run.Segments)-1 {
		return
	}
	t.splits = append(t.splits, skipped)
	t.currentSplit++
}

// Pause freezes a Running timer.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pauseLocked()
}

func (t *Timer) pauseLocked() {
	if t.phase != PhaseRunning {
		return
	}
	t.pausedAt = t.now()
	t.phase = PhasePaused
}

// Resume continues a Paused timer.
func (t *Timer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resumeLocked()
}

func (t *Timer) resumeLocked() {
	if t.phase != PhasePaused {
		return
	}
	t.pausedTotal += t.now().Sub(t.pausedAt)
	t.phase = PhaseRunning
}

// TogglePauseOrStart pauses a Running timer, resumes a Paused one and starts a
// NotRunning one. Ended timers are left alone.
func (t *Timer) TogglePauseOrStart() {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.phase {
	case PhaseRunning:
		t.pauseLocked()
	case PhasePaused:
		t.resumeLocked()
	case PhaseNotRunning:
		t.startLocked()
	}
}

// UndoAllPauses folds accumulated pause time back into the running clock.
func (t *Timer) UndoAllPauses() {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.phase {
	case PhaseRunning:
		t.pausedTotal = 0
	case PhasePaused:
		t.pausedTotal = 0
		t.pausedAt = t.now()
	}
}

// Reset ends the attempt and returns to NotRunning. When save is true, split
// times from the attempt that beat the stored bests are folded into the run,
// which is what a later save-splits write persists.
func (t *Timer) Reset(save bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked(save)
}

func (t *Timer) resetLocked(save bool) {
	if save {
		t.updateBestsLocked()
	}
	t.phase = PhaseNotRunning
	t.splits = t.splits[:0]
	t.currentSplit = 0
	t.pausedTotal = 0
	t.finalTime = 0
}

func (t *Timer) updateBestsLocked() {
	prev := time.Duration(0)
	for i, split := range t.splits {
		if split == skipped {
			continue
		}
		seg := &t.run.Segments[i]
		if seg.PersonalBest == 0 || split < seg.PersonalBest {
			seg.PersonalBest = split
		}
		if length := split - prev; length > 0 && (seg.BestSegment == 0 || length < seg.BestSegment) {
			seg.BestSegment = length
		}
		prev = split
	}
}

// Restart force-resets the attempt and immediately starts a new one,
// regardless of the current phase.
func (t *Timer) Restart() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked(true)
	t.startLocked()
}

// PlayPause maps a media-transport play/pause event onto the phase machine:
// play starts a NotRunning timer and resumes a Paused one, pause pauses a
// Running one. Ended timers absorb the event.
func (t *Timer) PlayPause(pause bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.phase {
	case PhaseNotRunning:
		if !pause {
			t.startLocked()
		}
	case PhaseRunning:
		if pause {
			t.pauseLocked()
		}
	case PhasePaused:
		if !pause {
			t.resumeLocked()
		}
	}
}

// SwitchToNextComparison cycles the active comparison forward.
func (t *Timer) SwitchToNextComparison() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.comparison = (t.comparison + 1) % len(comparisons)
}

// SwitchToPreviousComparison cycles the active comparison backward.
func (t *Timer) SwitchToPreviousComparison() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.comparison = (t.comparison + len(comparisons) - 1) % len(comparisons)
}

// ToggleTimingMethod swaps between real time and game time.
func (t *Timer) ToggleTimingMethod() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.method == MethodRealTime {
		t.method = MethodGameTime
	} else {
		t.method = MethodRealTime
	}
}

// TargetDuration returns the personal-best time of the final segment, the
// total duration a completed attempt is measured against. Zero when no
// personal best exists.
func (t *Timer) TargetDuration() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.run.Segments[len(t.run.Segments)-1].PersonalBest
}

// RunSnapshot returns a copy of the run, including any bests folded in by
// Reset(save). Used by the splits saver.
func (t *Timer) RunSnapshot() *Run {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.run.Clone()
}
