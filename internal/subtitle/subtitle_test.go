package subtitle

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/amankumarsingh77/shorts-assembler/internal/models"
)

// runeMeasurer is 10px per rune and 20px tall.
type runeMeasurer struct{}

func (runeMeasurer) Measure(text string) (int, int) {
	return 10 * len([]rune(text)), 20
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		maxWidth   int
		wantText   string
		wantHeight int
	}{
		{name: "fits", text: "hello", maxWidth: 100, wantText: "hello", wantHeight: 20},
		{name: "word wrap", text: "hello world foo", maxWidth: 110, wantText: "hello world\nfoo", wantHeight: 40},
		{name: "single long token", text: "abcdefghijklmnop", maxWidth: 50, wantText: "abcde\nfghij\nklmno\np", wantHeight: 80},
		{name: "long token mid text", text: "hi abcdefghijkl", maxWidth: 50, wantText: "hi ab\ncdefg\nhijkl", wantHeight: 60},
		{name: "cjk", text: "你好世界你好", maxWidth: 40, wantText: "你好世界\n你好", wantHeight: 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, h := WrapText(tt.text, tt.maxWidth, runeMeasurer{})
			if got != tt.wantText || h != tt.wantHeight {
				t.Fatalf("WrapText() = (%q, %d), want (%q, %d)", got, h, tt.wantText, tt.wantHeight)
			}
			for _, line := range strings.Split(got, "\n") {
				if w, _ := (runeMeasurer{}).Measure(line); w > tt.maxWidth {
					t.Fatalf("line %q is %dpx, over %d", line, w, tt.maxWidth)
				}
			}
		})
	}
}

func TestPosition(t *testing.T) {
	tests := []struct {
		name   string
		pos    models.SubtitlePosition
		custom float64
		want   float64
	}{
		{name: "bottom", pos: models.PositionBottom, want: 1784},
		{name: "top", pos: models.PositionTop, want: 96},
		{name: "center", pos: models.PositionCenter, want: 940},
		{name: "custom", pos: models.PositionCustom, custom: 70, want: 1316},
		{name: "custom clamps low", pos: models.PositionCustom, custom: 0, want: 10},
		{name: "custom clamps high", pos: models.PositionCustom, custom: 100, want: 1870},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Position(tt.pos, tt.custom, 40, 1920); math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("Position() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLayout(t *testing.T) {
	style := Style{Position: models.PositionTop}
	entries := []models.SubtitleEntry{
		{Start: 0, End: 2, Text: strings.Repeat("word ", 30)},
		{Start: 2, End: 2, Text: "zero length"},
		{Start: 3, End: 4, Text: "   "},
		{Start: 4, End: 5, Text: "short"},
	}
	overlays := Layout(entries, models.Resolution{Width: 1080, Height: 1920}, style, runeMeasurer{})
	if len(overlays) != 2 {
		t.Fatalf("len(overlays) = %d, want 2", len(overlays))
	}
	for _, o := range overlays {
		for _, line := range strings.Split(o.Text, "\n") {
			if w, _ := (runeMeasurer{}).Measure(line); w > 972 {
				t.Fatalf("line %q wider than 90%% of frame", line)
			}
		}
		if o.Y != 96 {
			t.Fatalf("Y = %v, want 96", o.Y)
		}
	}
	if overlays[0].Height != 40 || overlays[1].Text != "short" {
		t.Fatalf("overlays = %+v", overlays)
	}
}

func TestParseSRT(t *testing.T) {
	data := "1\r\n00:00:00,000 --> 00:00:01,500\r\nHello\r\nworld\r\n\r\n2\r\n00:00:01,500 --> 00:01:03,250\r\nSecond\r\n"
	entries, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := []models.SubtitleEntry{
		{Start: 0, End: 1.5, Text: "Hello world"},
		{Start: 1.5, End: 63.25, Text: "Second"},
	}
	assertEntries(t, entries, want)
}

func TestParseVTT(t *testing.T) {
	data := "WEBVTT\n\n00:00:00.100 --> 00:00:02.000 align:start\nHi\n\n00:02.000 --> 00:03.500\nthere\n"
	entries, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	assertEntries(t, entries, []models.SubtitleEntry{
		{Start: 0.1, End: 2, Text: "Hi"},
		{Start: 2, End: 3.5, Text: "there"},
	})
}

func TestParseRejectsBadTimestamp(t *testing.T) {
	if _, err := Parse("1\n00:00:xx,000 --> 00:00:01,000\nbad\n"); err == nil {
		t.Fatalf("Parse() accepted a bad timestamp")
	}
}

func TestFormatAndWriteFile(t *testing.T) {
	entries := []models.SubtitleEntry{{Start: 0, End: 1.5, Text: "a"}, {Start: 3661.25, End: 3662, Text: "b"}}
	want := "1\n00:00:00,000 --> 00:00:01,500\na\n\n2\n01:01:01,250 --> 01:01:02,000\nb\n\n"
	if got := Format(entries); got != want {
		t.Fatalf("Format() =\n%q\nwant\n%q", got, want)
	}

	path := filepath.Join(t.TempDir(), "subtitle.srt")
	if err := WriteFile(path, entries); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	back, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	assertEntries(t, back, entries)
}

func TestSanitize(t *testing.T) {
	got := Sanitize([]models.SubtitleEntry{
		{Start: 2, End: 3, Text: "b"},
		{Start: 0, End: 2.5, Text: " a "},
		{Start: 1, End: 1, Text: "x"},
		{Start: 4, End: 5, Text: "  "},
		{Start: -1, End: 0.5, Text: "neg"},
	})
	assertEntries(t, got, []models.SubtitleEntry{
		{Start: 0, End: 2, Text: "a"},
		{Start: 2, End: 3, Text: "b"},
	})
}

func TestFontMeasurer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goregular.ttf")
	if err := os.WriteFile(path, goregular.TTF, 0644); err != nil {
		t.Fatal(err)
	}
	m, err := NewFontMeasurer(path, 60)
	if err != nil {
		t.Fatalf("NewFontMeasurer() error = %v", err)
	}
	defer m.Close()

	w1, h1 := m.Measure("a")
	w2, _ := m.Measure("aaaa")
	if w1 <= 0 || h1 <= 0 {
		t.Fatalf("Measure(a) = (%d, %d)", w1, h1)
	}
	if w2 <= w1 {
		t.Fatalf("Measure(aaaa) width %d not wider than %d", w2, w1)
	}
	if _, h := m.Measure("Hgy"); h != h1 || h1 < 60 {
		t.Fatalf("line height = %d for tall glyphs and %d for short ones, want one height of at least the font size", h, h1)
	}

	text, block := WrapText("aaaa aaaa", w2+1, m)
	if text != "aaaa\naaaa" || block != 2*h1 {
		t.Fatalf("WrapText() = %q, %d, want two lines of height %d", text, block, h1)
	}

	if _, err := NewFontMeasurer(filepath.Join(t.TempDir(), "missing.ttf"), 60); err == nil {
		t.Fatalf("NewFontMeasurer() on missing file succeeded")
	}
}

func assertEntries(t *testing.T, got, want []models.SubtitleEntry) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d entries %+v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if math.Abs(got[i].Start-want[i].Start) > 1e-6 || math.Abs(got[i].End-want[i].End) > 1e-6 || got[i].Text != want[i].Text {
			t.Fatalf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
