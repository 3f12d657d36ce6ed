package timing

import "time"

// SplitView is the per-segment slice of a Snapshot.
type SplitView struct {
	Name         string
	Split        time.Duration // recorded cumulative time; zero until Done
	Done         bool
	Skipped      bool
	Current      bool
	PersonalBest time.Duration
	BestSegment  time.Duration
}

// Snapshot is a consistent read-only view of a timer, taken under the read
// lock. The render step derives all visual state from it and never touches
// the timer again for the rest of the frame.
type Snapshot struct {
	GameName     string
	CategoryName string
	AttemptCount int
	Phase        Phase
	Method       Method
	Comparison   string
	CurrentSplit int
	Elapsed      time.Duration
	Segments     []SplitView
}

// Snapshot copies out the state a single frame needs.
func (t *Timer) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := Snapshot{
		GameName:     t.run.GameName,
		CategoryName: t.run.CategoryName,
		AttemptCount: t.run.AttemptCount,
		Phase:        t.phase,
		Method:       t.method,
		Comparison:   comparisons[t.comparison],
		CurrentSplit: t.currentSplit,
		Elapsed:      t.currentTimeLocked(),
		Segments:     make([]SplitView, len(t.run.Segments)),
	}
	for i, seg := range t.run.Segments {
		view := SplitView{
			Name:         seg.Name,
			PersonalBest: seg.PersonalBest,
			BestSegment:  seg.BestSegment,
			Current:      t.phase != PhaseNotRunning && i == t.currentSplit,
		}
		if i < len(t.splits) {
			if t.splits[i] == skipped {
				view.Skipped = true
			} else {
				view.Split = t.splits[i]
			}
			view.Done = true
		}
		snap.Segments[i] = view
	}
	return snap
}
