package subtitle

import (
	"strings"
)

// Measurer reports the rendered pixel size of a single line of text.
type Measurer interface {
	Measure(text string) (width, height int)
}

// WrapText breaks text into lines no wider than maxWidth and returns the
// wrapped text with the height of the whole block. Lines break on spaces; if a
// single word cannot fit on a line by itself the whole text is wrapped
// character by character instead.
func WrapText(text string, maxWidth int, m Measurer) (string, int) {
	width, height := m.Measure(text)
	if width <= maxWidth {
		return text, height
	}

	if lines, ok := wrapWords(text, maxWidth, m); ok {
		return strings.Join(lines, "\n"), height * len(lines)
	}
	lines := wrapChars(text, maxWidth, m)
	return strings.Join(lines, "\n"), height * len(lines)
}

func wrapWords(text string, maxWidth int, m Measurer) ([]string, bool) {
	var (
		lines []string
		line  string
	)
	for _, word := range strings.Split(text, " ") {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if w, _ := m.Measure(strings.TrimSpace(candidate)); w <= maxWidth {
			line = candidate
			continue
		}
		if strings.TrimSpace(line) == "" {
			return nil, false
		}
		lines = append(lines, strings.TrimSpace(line))
		if w, _ := m.Measure(strings.TrimSpace(word)); w > maxWidth {
			return nil, false
		}
		line = word
	}
	if strings.TrimSpace(line) != "" {
		lines = append(lines, strings.TrimSpace(line))
	}
	return lines, true
}

func wrapChars(text string, maxWidth int, m Measurer) []string {
	var (
		lines []string
		line  []rune
	)
	flush := func() {
		if s := strings.TrimSpace(string(line)); s != "" {
			lines = append(lines, s)
		}
	}
	for _, r := range text {
		candidate := string(line) + string(r)
		if w, _ := m.Measure(candidate); w > maxWidth && len(line) > 0 {
			flush()
			line = []rune{r}
			continue
		}
		line = append(line, r)
	}
	flush()
	return lines
}
