// Package splits reads and writes the persisted splits formats. LiveSplit
// .lss files round-trip and are eligible for save-back; anything else falls
// back to a plain-text reading (one segment name per line) that cannot be
// written back.
package splits

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"timer-overlay/internal/timing"
)

// ErrNoSegments is returned when a splits source parses but defines no
// segments, or is empty.
var ErrNoSegments = errors.New("splits source has no segments")

type lssSplitTime struct {
	Name     string `xml:"name,attr"`
	RealTime string `xml:"RealTime"`
}

type lssSegment struct {
	Name        string         `xml:"Name"`
	SplitTimes  []lssSplitTime `xml:"SplitTimes>SplitTime"`
	BestSegment string         `xml:"BestSegmentTime>RealTime"`
}

type lssRun struct {
	XMLName      xml.Name     `xml:"Run"`
	Version      string       `xml:"version,attr"`
	GameName     string       `xml:"GameName"`
	CategoryName string       `xml:"CategoryName"`
	AttemptCount int          `xml:"AttemptCount"`
	Segments     []lssSegment `xml:"Segments>Segment"`
}

// Parse decodes a splits payload. canSave reports whether the source was a
// LiveSplit .lss file, the only format the saver can write back.
func Parse(data []byte) (run *timing.Run, canSave bool, err error) {
	if run, err := parseLSS(data); err == nil {
		return run, true, nil
	}
	run, err = parseText(data)
	return run, false, err
}

// Load reads and parses the splits file at path.
func Load(path string) (run *timing.Run, canSave bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	return Parse(data)
}

func parseLSS(data []byte) (*timing.Run, error) {
	var doc lssRun
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Segments) == 0 {
		return nil, ErrNoSegments
	}
	run := &timing.Run{
		GameName:     doc.GameName,
		CategoryName: doc.CategoryName,
		AttemptCount: doc.AttemptCount,
		Segments:     make([]timing.Segment, len(doc.Segments)),
	}
	for i, seg := range doc.Segments {
		out := timing.Segment{Name: seg.Name}
		for _, st := range seg.SplitTimes {
			if st.Name == "Personal Best" {
				out.PersonalBest = parseLSSTime(st.RealTime)
			}
		}
		out.BestSegment = parseLSSTime(seg.BestSegment)
		run.Segments[i] = out
	}
	return run, nil
}

func parseText(data []byte) (*timing.Run, error) {
	var run timing.Run
	for _, line := range strings.Split(string(data), "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		run.Segments = append(run.Segments, timing.Segment{Name: name})
	}
	if len(run.Segments) == 0 {
		return nil, ErrNoSegments
	}
	return &run, nil
}

// parseLSSTime reads the "HH:MM:SS.fffffff" form used by .lss files. Malformed
// or empty values read as zero (no recorded time).
func parseLSSTime(s string) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0
	}
	var h, m int
	var sec float64
	if _, err := fmt.Sscanf(parts[0], "%d", &h); err != nil {
		return 0
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &m); err != nil {
		return 0
	}
	if _, err := fmt.Sscanf(parts[2], "%f", &sec); err != nil {
		return 0
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(sec*float64(time.Second))
}

func formatLSSTime(d time.Duration) string {
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	return fmt.Sprintf("%02d:%02d:%010.7f", h, m, d.Seconds())
}

// Save writes the run back to path in .lss form.
func Save(run *timing.Run, path string) error {
	doc := lssRun{
		Version:      "1.7.0",
		GameName:     run.GameName,
		CategoryName: run.CategoryName,
		AttemptCount: run.AttemptCount,
		Segments:     make([]lssSegment, len(run.Segments)),
	}
	for i, seg := range run.Segments {
		out := lssSegment{Name: seg.Name}
		if seg.PersonalBest != 0 {
			out.SplitTimes = []lssSplitTime{{Name: "Personal Best", RealTime: formatLSSTime(seg.PersonalBest)}}
		}
		if seg.BestSegment != 0 {
			out.BestSegment = formatLSSTime(seg.BestSegment)
		}
		doc.Segments[i] = out
	}
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append([]byte(xml.Header), data...), 0o644)
}
