package timing

import "time"

// Segment is one named section of a run. A zero PersonalBest or BestSegment
// means no time has been recorded yet.
type Segment struct {
	Name         string
	PersonalBest time.Duration // cumulative split time at the end of this segment
	BestSegment  time.Duration // shortest time ever spent inside this segment
}

// Run is the static definition a timer is constructed from: the game being
// timed and the ordered list of segments to split through.
type Run struct {
	GameName     string
	CategoryName string
	AttemptCount int
	Segments     []Segment
}

// Clone returns a deep copy of the run.
func (r *Run) Clone() *Run {
	cp := *r
	cp.Segments = make([]Segment, len(r.Segments))
	copy(cp.Segments, r.Segments)
	return &cp
}

// DefaultRun returns the single-segment run used whenever a splits source
// cannot be parsed. Timers built from it are never eligible for save-back.
func DefaultRun() *Run {
	return &Run{Segments: []Segment{{Name: "Time"}}}
}
