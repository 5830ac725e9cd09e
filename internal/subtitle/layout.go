package subtitle

import (
	"math"
	"path/filepath"
	"strings"

	"github.com/amankumarsingh77/shorts-assembler/internal/models"
)

const (
	maxWidthRatio = 0.9
	edgeMargin    = 10.0
)

type Style struct {
	FontFile       string
	FontSize       int
	ForeColor      string
	StrokeColor    string
	StrokeWidth    float64
	Background     models.TextBackground
	Position       models.SubtitlePosition
	CustomPosition float64
}

func StyleFromParams(p models.VideoParams, fontDir string) Style {
	return Style{
		FontFile:       filepath.Join(fontDir, p.FontName),
		FontSize:       p.FontSize,
		ForeColor:      p.TextForeColor,
		StrokeColor:    p.StrokeColor,
		StrokeWidth:    p.StrokeWidth,
		Background:     p.TextBackgroundColor,
		Position:       p.SubtitlePosition,
		CustomPosition: p.CustomPosition,
	}
}

// Overlay is one timed text block, visible over [Start, End).
type Overlay struct {
	Text   string
	Start  float64
	End    float64
	Y      float64
	Height int
}

// Position returns the top edge of a text block of blockHeight pixels inside a
// frame frameHeight pixels tall.
func Position(pos models.SubtitlePosition, customPct float64, blockHeight, frameHeight int) float64 {
	H, h := float64(frameHeight), float64(blockHeight)
	switch pos {
	case models.PositionBottom:
		return H*0.95 - h
	case models.PositionTop:
		return H * 0.05
	case models.PositionCustom:
		y := (H - h) * customPct / 100
		return math.Max(edgeMargin, math.Min(y, H-h-edgeMargin))
	default:
		return (H - h) / 2
	}
}

// Layout wraps and positions every entry for a frame. Blocks are centered
// horizontally and never wider than 90% of the frame.
func Layout(entries []models.SubtitleEntry, frame models.Resolution, style Style, m Measurer) []Overlay {
	maxWidth := int(float64(frame.Width) * maxWidthRatio)
	overlays := make([]Overlay, 0, len(entries))
	for _, e := range entries {
		text := strings.TrimSpace(e.Text)
		if text == "" || e.End <= e.Start {
			continue
		}
		wrapped, h := WrapText(text, maxWidth, m)
		overlays = append(overlays, Overlay{
			Text:   wrapped,
			Start:  e.Start,
			End:    e.End,
			Y:      Position(style.Position, style.CustomPosition, h, frame.Height),
			Height: h,
		})
	}
	return overlays
}
