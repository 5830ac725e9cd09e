package composer

import (
	"strconv"

	"github.com/amankumarsingh77/shorts-assembler/internal/models"
)

// ClipSegment is a [Start, End) window over one source clip plus the frame
// transforms queued for it. Segments are values: every operation returns a
// new segment and never touches the receiver's transform list.
type ClipSegment struct {
	Source     models.RawClip
	Start      float64
	End        float64
	Width      int
	Height     int
	transforms []Transform
}

func newSegment(clip models.RawClip, start, end float64) ClipSegment {
	return ClipSegment{
		Source: clip,
		Start:  start,
		End:    end,
		Width:  clip.Width,
		Height: clip.Height,
	}
}

func (s ClipSegment) Duration() float64 {
	return s.End - s.Start
}

func (s ClipSegment) Transforms() []Transform {
	return append([]Transform(nil), s.transforms...)
}

// Trim keeps the first d seconds of the segment.
func (s ClipSegment) Trim(d float64) ClipSegment {
	out := s
	out.transforms = s.Transforms()
	if d < s.Duration() {
		out.End = s.Start + d
	}
	return out
}

func (s ClipSegment) with(t Transform) ClipSegment {
	out := s
	out.transforms = append(s.Transforms(), t)
	return out
}

// ff formats seconds and factors for ffmpeg arguments.
func ff(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
