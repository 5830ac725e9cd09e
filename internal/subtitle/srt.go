package subtitle

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/amankumarsingh77/shorts-assembler/internal/models"
)

// Parse reads SRT or WebVTT cues. Multi-line cue text is joined with spaces.
func Parse(data string) ([]models.SubtitleEntry, error) {
	var entries []models.SubtitleEntry
	scanner := bufio.NewScanner(strings.NewReader(strings.ReplaceAll(data, "\r\n", "\n")))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		current *models.SubtitleEntry
		text    []string
	)
	flush := func() {
		if current != nil {
			current.Text = strings.Join(text, " ")
			entries = append(entries, *current)
		}
		current, text = nil, nil
	}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			flush()
		case strings.Contains(line, "-->"):
			flush()
			start, end, err := parseCueTiming(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			current = &models.SubtitleEntry{Start: start, End: end}
		case current != nil:
			text = append(text, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return entries, nil
}

func ParseFile(path string) ([]models.SubtitleEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

func parseCueTiming(line string) (float64, float64, error) {
	parts := strings.SplitN(line, "-->", 2)
	start, err := parseTimestamp(parts[0])
	if err != nil {
		return 0, 0, err
	}
	// WebVTT may carry cue settings after the end time.
	endField := strings.Fields(parts[1])
	if len(endField) == 0 {
		return 0, 0, fmt.Errorf("missing end time in %q", line)
	}
	end, err := parseTimestamp(endField[0])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func parseTimestamp(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	var total float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp %q", s)
		}
		total = total*60 + v
	}
	return total, nil
}

func formatTimestamp(sec float64) string {
	ms := int64(math.Round(sec * 1000))
	h := ms / 3600000
	ms -= h * 3600000
	m := ms / 60000
	ms -= m * 60000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func Format(entries []models.SubtitleEntry) string {
	var b strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, formatTimestamp(e.Start), formatTimestamp(e.End), e.Text)
	}
	return b.String()
}

func WriteFile(path string, entries []models.SubtitleEntry) error {
	return os.WriteFile(path, []byte(Format(entries)), 0644)
}

// Sanitize orders entries by start time, drops empty or inverted ones and
// cuts overlaps so every entry ends before the next one starts.
func Sanitize(entries []models.SubtitleEntry) []models.SubtitleEntry {
	sorted := make([]models.SubtitleEntry, 0, len(entries))
	for _, e := range entries {
		e.Text = strings.TrimSpace(e.Text)
		if e.Text == "" || e.End <= e.Start || e.Start < 0 {
			continue
		}
		sorted = append(sorted, e)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	out := make([]models.SubtitleEntry, 0, len(sorted))
	for _, e := range sorted {
		if n := len(out); n > 0 && e.Start < out[n-1].End {
			out[n-1].End = e.Start
			if out[n-1].End <= out[n-1].Start {
				out = out[:n-1]
			}
		}
		out = append(out, e)
	}
	return out
}
