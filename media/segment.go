package media

import (
	"fmt"
	"time"
)

// SegmentType classifies a timeline interval.
type SegmentType string

const (
	SegmentIntro      SegmentType = "Intro"
	SegmentOutro      SegmentType = "Outro"
	SegmentRecap      SegmentType = "Recap"
	SegmentPreview    SegmentType = "Preview"
	SegmentCommercial SegmentType = "Commercial"
	SegmentUnknown    SegmentType = "Unknown"
)

// Segment is a half-open interval [Start, End) of the timeline.
type Segment struct {
	Type  SegmentType   `json:"type"`
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
}

// Contains reports whether position lies inside the segment.
func (s Segment) Contains(position time.Duration) bool {
	return position >= s.Start && position < s.End
}

// Valid reports whether the segment spans a positive interval.
func (s Segment) Valid() bool {
	return s.End > s.Start && s.Start >= 0
}

func (s Segment) String() string {
	return fmt.Sprintf("%s [%s, %s)", s.Type, s.Start, s.End)
}

// SegmentAction is what the player does when playback reaches a segment.
type SegmentAction int

const (
	SegmentIgnore SegmentAction = iota
	SegmentAskToSkip
	SegmentSkip
)

// ParseSegmentAction maps the configuration spelling of an action.
func ParseSegmentAction(s string) SegmentAction {
	switch s {
	case "skip":
		return SegmentSkip
	case "ask":
		return SegmentAskToSkip
	default:
		return SegmentIgnore
	}
}
