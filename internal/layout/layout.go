// Package layout turns a timer snapshot into the visual state a frame is
// rasterized from: a list of text rows plus colors. Layouts are configured by
// a small JSON settings file; a documented default is used when no file is
// given or it cannot be parsed.
package layout

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"time"

	"timer-overlay/internal/timing"
)

// Component names accepted in a settings file.
const (
	ComponentTitle  = "title"
	ComponentSplits = "splits"
	ComponentTimer  = "timer"
)

// Settings is the JSON shape of a layout file.
type Settings struct {
	Components    []string `json:"components"`
	VisibleSplits int      `json:"visible_splits"`
	Background    string   `json:"background"`
	TextColor     string   `json:"text_color"`
}

// Layout is one instance's layout configuration plus its scroll position.
// It is instance-local and never shared; the owning instance serializes
// access to it.
type Layout struct {
	components    []string
	visibleSplits int
	background    color.RGBA
	text          color.RGBA
	scroll        int
	maxScroll     int
}

// Default returns the built-in layout: title, splits and timer components,
// five visible split rows, dark background.
func Default() *Layout {
	return &Layout{
		components:    []string{ComponentTitle, ComponentSplits, ComponentTimer},
		visibleSplits: 5,
		background:    color.RGBA{0x1e, 0x1e, 0x1e, 0xe6},
		text:          color.RGBA{0xff, 0xff, 0xff, 0xff},
	}
}

// Parse builds a layout from JSON settings text. Missing fields keep their
// defaults; unknown component names are an error.
func Parse(text string) (*Layout, error) {
	var s Settings
	if err := json.Unmarshal([]byte(text), &s); err != nil {
		return nil, err
	}
	l := Default()
	if len(s.Components) > 0 {
		for _, c := range s.Components {
			if c != ComponentTitle && c != ComponentSplits && c != ComponentTimer {
				return nil, fmt.Errorf("unknown layout component %q", c)
			}
		}
		l.components = s.Components
	}
	if s.VisibleSplits > 0 {
		l.visibleSplits = s.VisibleSplits
	}
	if c, ok := parseColor(s.Background); ok {
		l.background = c
	}
	if c, ok := parseColor(s.TextColor); ok {
		l.text = c
	}
	return l, nil
}

// Load reads and parses the layout file at path.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// parseColor reads "#rrggbb" or "#rrggbbaa".
func parseColor(s string) (color.RGBA, bool) {
	var r, g, b, a uint8
	a = 0xff
	switch len(s) {
	case 7:
		if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
			return color.RGBA{}, false
		}
	case 9:
		if _, err := fmt.Sscanf(s, "#%02x%02x%02x%02x", &r, &g, &b, &a); err != nil {
			return color.RGBA{}, false
		}
	default:
		return color.RGBA{}, false
	}
	return color.RGBA{r, g, b, a}, true
}

// ScrollDown moves the split window toward later segments.
func (l *Layout) ScrollDown() {
	if l.scroll < l.maxScroll {
		l.scroll++
	}
}

// ScrollUp moves the split window toward earlier segments.
func (l *Layout) ScrollUp() {
	if l.scroll > 0 {
		l.scroll--
	}
}

// Scroll returns the current split-window offset.
func (l *Layout) Scroll() int {
	return l.scroll
}

// Row is one line of the rendered overlay.
type Row struct {
	Left     string
	Right    string
	Emphasis bool // the row the renderer highlights (current split, main timer)
}

// State is the visual state cache one frame is rasterized from. It has no
// identity beyond "last derived frame" and is rebuilt in place every frame.
type State struct {
	Background color.RGBA
	Text       color.RGBA
	Rows       []Row
}

// UpdateState derives the visual state for one frame from a timer snapshot.
func (l *Layout) UpdateState(snap timing.Snapshot, st *State) {
	l.maxScroll = len(snap.Segments) - l.visibleSplits
	if l.maxScroll < 0 {
		l.maxScroll = 0
	}
	if l.scroll > l.maxScroll {
		l.scroll = l.maxScroll
	}

	st.Background = l.background
	st.Text = l.text
	st.Rows = st.Rows[:0]

	for _, comp := range l.components {
		switch comp {
		case ComponentTitle:
			st.Rows = append(st.Rows,
				Row{Left: snap.GameName, Right: snap.CategoryName},
				Row{Left: "Attempts", Right: fmt.Sprintf("%d", snap.AttemptCount)},
			)
		case ComponentSplits:
			end := l.scroll + l.visibleSplits
			if end > len(snap.Segments) {
				end = len(snap.Segments)
			}
			for i := l.scroll; i < end; i++ {
				st.Rows = append(st.Rows, splitRow(snap, i))
			}
		case ComponentTimer:
			st.Rows = append(st.Rows, Row{
				Left:     FormatDuration(snap.Elapsed),
				Right:    snap.Method.String(),
				Emphasis: true,
			})
		}
	}
}

func splitRow(snap timing.Snapshot, i int) Row {
	seg := snap.Segments[i]
	row := Row{Left: seg.Name, Emphasis: seg.Current}
	switch {
	case seg.Skipped:
		row.Right = "-"
	case seg.Done:
		row.Right = FormatDuration(seg.Split)
	default:
		row.Right = comparisonTime(snap.Comparison, seg)
	}
	return row
}

func comparisonTime(comparison string, seg timing.SplitView) string {
	switch comparison {
	case "Personal Best":
		if seg.PersonalBest != 0 {
			return FormatDuration(seg.PersonalBest)
		}
	case "Best Segments":
		if seg.BestSegment != 0 {
			return FormatDuration(seg.BestSegment)
		}
	}
	return "-"
}

// FormatDuration renders a time the way the overlay displays it: tenths of a
// second, hours only when present.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	tenths := (d - s*time.Second) / (100 * time.Millisecond)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d.%d", h, m, s, tenths)
	}
	return fmt.Sprintf("%d:%02d.%d", m, s, tenths)
}
