package models

// RawClip is a source clip file with its probed metadata.
type RawClip struct {
	Path     string  `json:"path"`
	Duration float64 `json:"duration"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
}

type SubtitleEntry struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// SpeechResult is what a voice synthesizer hands back: the audio file, its
// length in seconds and any sentence timings the engine reported.
type SpeechResult struct {
	AudioFile string          `json:"audio_file"`
	Duration  float64         `json:"duration"`
	Timings   []SubtitleEntry `json:"timings,omitempty"`
}
