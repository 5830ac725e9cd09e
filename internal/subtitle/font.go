package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

// FontMeasurer measures text with the glyph metrics of a TrueType/OpenType
// font. Font collections (.ttc) use their first face.
type FontMeasurer struct {
	mu   sync.Mutex
	face font.Face
}

func NewFontMeasurer(path string, size float64) (*FontMeasurer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font %s: %w", path, err)
	}

	var f *opentype.Font
	if strings.EqualFold(filepath.Ext(path), ".ttc") {
		coll, err := opentype.ParseCollection(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse font collection: %w", err)
		}
		f, err = coll.Font(0)
		if err != nil {
			return nil, fmt.Errorf("failed to load font from collection: %w", err)
		}
	} else {
		f, err = opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse font: %w", err)
		}
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return &FontMeasurer{face: face}, nil
}

// Measure returns the ink width of text and the face's line height, so every
// line of a block is the same height whatever glyphs it holds.
func (m *FontMeasurer) Measure(text string) (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bounds, _ := font.BoundString(m.face, text)
	return (bounds.Max.X - bounds.Min.X).Ceil(), m.face.Metrics().Height.Ceil()
}

func (m *FontMeasurer) Close() error {
	return m.face.Close()
}
