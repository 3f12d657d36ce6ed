package timing

import (
	"errors"
	"testing"
	"time"
)

// testClock gives tests a manual clock to advance.
type testClock struct {
	now time.Time
}

func (c *testClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestTimer(t *testing.T, run *Run) (*Timer, *testClock) {
	t.Helper()
	tm, err := NewTimer(run)
	if err != nil {
		t.Fatalf("NewTimer: %v", err)
	}
	clock := &testClock{now: time.Unix(1000, 0)}
	tm.now = func() time.Time { return clock.now }
	return tm, clock
}

func threeSegmentRun() *Run {
	return &Run{
		GameName:     "Game",
		CategoryName: "Any%",
		Segments:     []Segment{{Name: "one"}, {Name: "two"}, {Name: "three"}},
	}
}

func TestNewTimer_empty_run(t *testing.T) {
	if _, err := NewTimer(&Run{}); !errors.Is(err, ErrEmptyRun) {
		t.Errorf("expected ErrEmptyRun, got %v", err)
	}
	if _, err := NewTimer(nil); !errors.Is(err, ErrEmptyRun) {
		t.Errorf("expected ErrEmptyRun for nil run, got %v", err)
	}
}

func TestTimer_phase_machine(t *testing.T) {
	tm, clock := newTestTimer(t, threeSegmentRun())

	if got := tm.Phase(); got != PhaseNotRunning {
		t.Fatalf("initial phase = %v", got)
	}
	if got := tm.CurrentTime(); got != 0 {
		t.Errorf("CurrentTime before start = %v", got)
	}

	tm.Start()
	if got := tm.Phase(); got != PhaseRunning {
		t.Fatalf("phase after Start = %v", got)
	}

	clock.advance(10 * time.Second)
	if got := tm.CurrentTime(); got != 10*time.Second {
		t.Errorf("CurrentTime = %v, want 10s", got)
	}

	tm.Split()
	clock.advance(5 * time.Second)
	tm.Split()
	clock.advance(5 * time.Second)
	tm.Split()
	if got := tm.Phase(); got != PhaseEnded {
		t.Fatalf("phase after final split = %v", got)
	}
	if got := tm.CurrentTime(); got != 20*time.Second {
		t.Errorf("final time = %v, want 20s", got)
	}

	// Ended absorbs further splits and pauses.
	tm.Split()
	tm.Pause()
	if got := tm.Phase(); got != PhaseEnded {
		t.Errorf("Ended timer changed phase to %v", got)
	}

	tm.Reset(false)
	if got := tm.Phase(); got != PhaseNotRunning {
		t.Errorf("phase after Reset = %v", got)
	}
}

func TestTimer_start_twice_absorbed(t *testing.T) {
	tm, clock := newTestTimer(t, threeSegmentRun())
	tm.Start()
	clock.advance(3 * time.Second)
	tm.Start()
	if got := tm.CurrentTime(); got != 3*time.Second {
		t.Errorf("second Start restarted the clock: %v", got)
	}
}

func TestTimer_pause_resume(t *testing.T) {
	tm, clock := newTestTimer(t, threeSegmentRun())
	tm.Start()
	clock.advance(4 * time.Second)
	tm.Pause()
	if got := tm.Phase(); got != PhasePaused {
		t.Fatalf("phase = %v", got)
	}

	clock.advance(100 * time.Second)
	if got := tm.CurrentTime(); got != 4*time.Second {
		t.Errorf("paused time moved: %v", got)
	}

	tm.Resume()
	clock.advance(6 * time.Second)
	if got := tm.CurrentTime(); got != 10*time.Second {
		t.Errorf("CurrentTime after resume = %v, want 10s", got)
	}

	t.Run("undo_all_pauses", func(t *testing.T) {
		tm.UndoAllPauses()
		if got := tm.CurrentTime(); got != 110*time.Second {
			t.Errorf("CurrentTime after UndoAllPauses = %v, want 110s", got)
		}
	})
}

func TestTimer_toggle_pause_or_start(t *testing.T) {
	tm, _ := newTestTimer(t, threeSegmentRun())

	tm.TogglePauseOrStart()
	if got := tm.Phase(); got != PhaseRunning {
		t.Fatalf("toggle from NotRunning = %v", got)
	}
	tm.TogglePauseOrStart()
	if got := tm.Phase(); got != PhasePaused {
		t.Fatalf("toggle from Running = %v", got)
	}
	tm.TogglePauseOrStart()
	if got := tm.Phase(); got != PhaseRunning {
		t.Fatalf("toggle from Paused = %v", got)
	}
}

func TestTimer_undo_and_skip(t *testing.T) {
	tm, clock := newTestTimer(t, threeSegmentRun())
	tm.Start()
	clock.advance(time.Second)
	tm.Split()
	tm.SkipSplit()

	snap := tm.Snapshot()
	if !snap.Segments[1].Skipped {
		t.Error("segment 1 should be skipped")
	}
	if snap.CurrentSplit != 2 {
		t.Errorf("CurrentSplit = %d, want 2", snap.CurrentSplit)
	}

	// Final segment cannot be skipped.
	tm.SkipSplit()
	if got := tm.Snapshot().CurrentSplit; got != 2 {
		t.Errorf("final segment skipped, CurrentSplit = %d", got)
	}

	tm.Split()
	if got := tm.Phase(); got != PhaseEnded {
		t.Fatalf("phase = %v", got)
	}

	// Undo steps Ended back to Running.
	tm.UndoSplit()
	if got := tm.Phase(); got != PhaseRunning {
		t.Errorf("phase after undo = %v", got)
	}
	tm.UndoSplit()
	tm.UndoSplit()
	if got := tm.Snapshot().CurrentSplit; got != 0 {
		t.Errorf("CurrentSplit after undoing everything = %d", got)
	}
	// Nothing left to undo.
	tm.UndoSplit()
	if got := tm.Phase(); got != PhaseRunning {
		t.Errorf("phase = %v", got)
	}
}

func TestTimer_reset_save_updates_bests(t *testing.T) {
	run := threeSegmentRun()
	run.Segments[0].PersonalBest = 30 * time.Second

	tm, clock := newTestTimer(t, run)
	tm.Start()
	clock.advance(10 * time.Second)
	tm.Split()
	clock.advance(10 * time.Second)
	tm.Split()
	clock.advance(10 * time.Second)
	tm.Split()
	tm.Reset(true)

	got := tm.RunSnapshot()
	if got.Segments[0].PersonalBest != 10*time.Second {
		t.Errorf("segment 0 PB = %v, want 10s", got.Segments[0].PersonalBest)
	}
	if got.Segments[2].PersonalBest != 30*time.Second {
		t.Errorf("segment 2 PB = %v, want 30s", got.Segments[2].PersonalBest)
	}
	if got.Segments[1].BestSegment != 10*time.Second {
		t.Errorf("segment 1 best segment = %v, want 10s", got.Segments[1].BestSegment)
	}
	if tm.TargetDuration() != 30*time.Second {
		t.Errorf("TargetDuration = %v, want 30s", tm.TargetDuration())
	}

	t.Run("reset_without_save_keeps_bests", func(t *testing.T) {
		tm.Start()
		clock.advance(time.Second)
		tm.Split()
		tm.Reset(false)
		if pb := tm.RunSnapshot().Segments[0].PersonalBest; pb != 10*time.Second {
			t.Errorf("PB changed on unsaved reset: %v", pb)
		}
	})
}

func TestTimer_play_pause_matrix(t *testing.T) {
	t.Run("play_on_not_running_starts", func(t *testing.T) {
		tm, _ := newTestTimer(t, threeSegmentRun())
		tm.PlayPause(false)
		if got := tm.Phase(); got != PhaseRunning {
			t.Errorf("phase = %v", got)
		}
	})

	t.Run("pause_on_not_running_absorbed", func(t *testing.T) {
		tm, _ := newTestTimer(t, threeSegmentRun())
		tm.PlayPause(true)
		if got := tm.Phase(); got != PhaseNotRunning {
			t.Errorf("phase = %v", got)
		}
	})

	t.Run("pause_on_running_pauses", func(t *testing.T) {
		tm, _ := newTestTimer(t, threeSegmentRun())
		tm.Start()
		tm.PlayPause(true)
		if got := tm.Phase(); got != PhasePaused {
			t.Errorf("phase = %v", got)
		}
	})

	t.Run("play_on_paused_resumes", func(t *testing.T) {
		tm, _ := newTestTimer(t, threeSegmentRun())
		tm.Start()
		tm.Pause()
		tm.PlayPause(false)
		if got := tm.Phase(); got != PhaseRunning {
			t.Errorf("phase = %v", got)
		}
	})

	t.Run("play_on_ended_absorbed", func(t *testing.T) {
		tm, _ := newTestTimer(t, &Run{Segments: []Segment{{Name: "only"}}})
		tm.Start()
		tm.Split()
		tm.PlayPause(false)
		if got := tm.Phase(); got != PhaseEnded {
			t.Errorf("phase = %v", got)
		}
	})
}

func TestTimer_restart(t *testing.T) {
	tm, clock := newTestTimer(t, &Run{Segments: []Segment{{Name: "only"}}})
	tm.Start()
	clock.advance(time.Second)
	tm.Split()
	if got := tm.Phase(); got != PhaseEnded {
		t.Fatalf("phase = %v", got)
	}

	tm.Restart()
	if got := tm.Phase(); got != PhaseRunning {
		t.Errorf("phase after Restart = %v", got)
	}
	if got := tm.CurrentTime(); got != 0 {
		t.Errorf("CurrentTime after Restart = %v", got)
	}
}

func TestTimer_comparisons_and_method(t *testing.T) {
	tm, _ := newTestTimer(t, threeSegmentRun())

	if got := tm.CurrentComparison(); got != "Personal Best" {
		t.Fatalf("initial comparison = %q", got)
	}
	tm.SwitchToNextComparison()
	if got := tm.CurrentComparison(); got != "Best Segments" {
		t.Errorf("comparison = %q", got)
	}
	tm.SwitchToPreviousComparison()
	tm.SwitchToPreviousComparison()
	if got := tm.CurrentComparison(); got != "None" {
		t.Errorf("comparison after wrap = %q", got)
	}

	phase := tm.Phase()
	tm.ToggleTimingMethod()
	if got := tm.CurrentMethod(); got != MethodGameTime {
		t.Errorf("method = %v", got)
	}
	if tm.Phase() != phase {
		t.Error("ToggleTimingMethod changed the phase")
	}
	tm.ToggleTimingMethod()
	if got := tm.CurrentMethod(); got != MethodRealTime {
		t.Errorf("method = %v", got)
	}
}

func TestTimer_attempt_count(t *testing.T) {
	tm, _ := newTestTimer(t, threeSegmentRun())
	tm.Start()
	tm.Reset(false)
	tm.Start()
	if got := tm.Snapshot().AttemptCount; got != 2 {
		t.Errorf("AttemptCount = %d, want 2", got)
	}
}

func TestSnapshot_consistency(t *testing.T) {
	tm, clock := newTestTimer(t, threeSegmentRun())
	tm.Start()
	clock.advance(7 * time.Second)
	tm.Split()

	snap := tm.Snapshot()
	if snap.Phase != PhaseRunning || snap.CurrentSplit != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if !snap.Segments[0].Done || snap.Segments[0].Split != 7*time.Second {
		t.Errorf("segment 0 view = %+v", snap.Segments[0])
	}
	if !snap.Segments[1].Current {
		t.Error("segment 1 should be current")
	}
	if snap.Segments[2].Done || snap.Segments[2].Current {
		t.Errorf("segment 2 view = %+v", snap.Segments[2])
	}
}
