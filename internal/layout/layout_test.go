package layout

import (
	"image/color"
	"testing"
	"time"

	"timer-overlay/internal/timing"
)

func snapshotFor(t *testing.T, names ...string) timing.Snapshot {
	t.Helper()
	run := &timing.Run{GameName: "Game", CategoryName: "Any%"}
	for _, n := range names {
		run.Segments = append(run.Segments, timing.Segment{Name: n})
	}
	tm, err := timing.NewTimer(run)
	if err != nil {
		t.Fatal(err)
	}
	return tm.Snapshot()
}

func TestParse(t *testing.T) {
	l, err := Parse(`{"components":["splits","timer"],"visible_splits":3,"background":"#102030","text_color":"#aabbccdd"}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(l.components) != 2 || l.visibleSplits != 3 {
		t.Errorf("layout = %+v", l)
	}
	if l.background != (color.RGBA{0x10, 0x20, 0x30, 0xff}) {
		t.Errorf("background = %+v", l.background)
	}
	if l.text != (color.RGBA{0xaa, 0xbb, 0xcc, 0xdd}) {
		t.Errorf("text = %+v", l.text)
	}

	t.Run("invalid_json", func(t *testing.T) {
		if _, err := Parse("nope"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("unknown_component", func(t *testing.T) {
		if _, err := Parse(`{"components":["sparkline"]}`); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("empty_settings_keep_defaults", func(t *testing.T) {
		l, err := Parse("{}")
		if err != nil {
			t.Fatal(err)
		}
		def := Default()
		if len(l.components) != len(def.components) || l.visibleSplits != def.visibleSplits {
			t.Errorf("layout = %+v", l)
		}
	})
}

func TestUpdateState_rows(t *testing.T) {
	l := Default()
	snap := snapshotFor(t, "one", "two", "three")

	var st State
	l.UpdateState(snap, &st)

	// Two title rows, three split rows, one timer row.
	if len(st.Rows) != 6 {
		t.Fatalf("rows = %d: %+v", len(st.Rows), st.Rows)
	}
	if st.Rows[0].Left != "Game" || st.Rows[0].Right != "Any%" {
		t.Errorf("title row = %+v", st.Rows[0])
	}
	if st.Rows[2].Left != "one" || st.Rows[3].Left != "two" {
		t.Errorf("split rows = %+v", st.Rows[2:5])
	}
	if !st.Rows[5].Emphasis {
		t.Errorf("timer row = %+v", st.Rows[5])
	}
	if st.Rows[5].Left != "0:00.0" {
		t.Errorf("timer text = %q", st.Rows[5].Left)
	}
}

func TestScroll_clamping(t *testing.T) {
	l := Default() // 5 visible splits
	snap := snapshotFor(t, "a", "b", "c", "d", "e", "f", "g")

	var st State
	l.UpdateState(snap, &st)

	// 7 segments, 5 visible: max scroll is 2.
	for i := 0; i < 10; i++ {
		l.ScrollDown()
	}
	if got := l.Scroll(); got != 2 {
		t.Errorf("scroll after overshoot down = %d, want 2", got)
	}

	l.UpdateState(snap, &st)
	if st.Rows[2].Left != "c" {
		t.Errorf("first visible split = %q, want c", st.Rows[2].Left)
	}

	for i := 0; i < 10; i++ {
		l.ScrollUp()
	}
	if got := l.Scroll(); got != 0 {
		t.Errorf("scroll after overshoot up = %d, want 0", got)
	}

	t.Run("shrinking_run_reclamps", func(t *testing.T) {
		l.ScrollDown()
		l.ScrollDown()
		short := snapshotFor(t, "a", "b")
		l.UpdateState(short, &st)
		if got := l.Scroll(); got != 0 {
			t.Errorf("scroll after shrink = %d, want 0", got)
		}
	})
}

func TestUpdateState_comparison_column(t *testing.T) {
	run := &timing.Run{Segments: []timing.Segment{
		{Name: "one", PersonalBest: 65 * time.Second, BestSegment: time.Minute},
	}}
	tm, err := timing.NewTimer(run)
	if err != nil {
		t.Fatal(err)
	}

	l := Default()
	var st State

	l.UpdateState(tm.Snapshot(), &st)
	if got := st.Rows[2].Right; got != "1:05.0" {
		t.Errorf("PB column = %q", got)
	}

	tm.SwitchToNextComparison() // Best Segments
	l.UpdateState(tm.Snapshot(), &st)
	if got := st.Rows[2].Right; got != "1:00.0" {
		t.Errorf("best-segments column = %q", got)
	}

	tm.SwitchToNextComparison() // None
	l.UpdateState(tm.Snapshot(), &st)
	if got := st.Rows[2].Right; got != "-" {
		t.Errorf("none column = %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00.0"},
		{-time.Second, "0:00.0"},
		{9*time.Second + 900*time.Millisecond, "0:09.9"},
		{75 * time.Second, "1:15.0"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03.0"},
	}
	for _, c := range cases {
		if got := FormatDuration(c.in); got != c.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}
