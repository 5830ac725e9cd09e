package models

import (
	"encoding/json"
	"strings"
)

type VideoAspect string

const (
	AspectLandscape VideoAspect = "16:9"
	AspectPortrait  VideoAspect = "9:16"
	AspectSquare    VideoAspect = "1:1"
)

type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (a VideoAspect) Resolution() Resolution {
	switch a {
	case AspectLandscape:
		return Resolution{Width: 1920, Height: 1080}
	case AspectSquare:
		return Resolution{Width: 1080, Height: 1080}
	default:
		return Resolution{Width: 1080, Height: 1920}
	}
}

type ConcatMode string

const (
	ConcatRandom     ConcatMode = "random"
	ConcatSequential ConcatMode = "sequential"
)

type TransitionMode string

const (
	TransitionNone     TransitionMode = ""
	TransitionShuffle  TransitionMode = "Shuffle"
	TransitionFadeIn   TransitionMode = "FadeIn"
	TransitionFadeOut  TransitionMode = "FadeOut"
	TransitionSlideIn  TransitionMode = "SlideIn"
	TransitionSlideOut TransitionMode = "SlideOut"
)

type SubtitlePosition string

const (
	PositionBottom SubtitlePosition = "bottom"
	PositionTop    SubtitlePosition = "top"
	PositionCenter SubtitlePosition = "center"
	PositionCustom SubtitlePosition = "custom"
)

const (
	SourceLocal = "local"
	SourceS3    = "s3"
)

const (
	BgmRandom = "random"
	BgmNone   = "none"
)

type MaterialInfo struct {
	Provider string `json:"provider" validate:"omitempty"`
	URL      string `json:"url" validate:"required"`
	Duration int    `json:"duration" validate:"gte=0"`
}

// Terms accepts either a JSON list or a comma separated string.
type Terms []string

func (t *Terms) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = cleanTerms(list)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = cleanTerms(strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '，' }))
	return nil
}

func cleanTerms(in []string) Terms {
	out := make(Terms, 0, len(in))
	for _, term := range in {
		if term = strings.TrimSpace(term); term != "" {
			out = append(out, term)
		}
	}
	return out
}

// TextBackground is either a boolean or a colour in requests.
type TextBackground string

func (b *TextBackground) UnmarshalJSON(data []byte) error {
	var on bool
	if err := json.Unmarshal(data, &on); err == nil {
		if on {
			*b = "true"
		} else {
			*b = "false"
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*b = TextBackground(s)
	return nil
}

// BoxColor reports the subtitle box colour and whether a box is drawn at all.
func (b TextBackground) BoxColor() (string, bool) {
	switch strings.ToLower(string(b)) {
	case "", "false", "transparent", "none":
		return "", false
	case "true":
		return "black@0.5", true
	default:
		return string(b), true
	}
}

type VideoParams struct {
	Subject         string         `json:"video_subject" validate:"required_without=Script,lte=500"`
	Script          string         `json:"video_script" validate:"omitempty"`
	Terms           Terms          `json:"video_terms" validate:"omitempty"`
	Aspect          VideoAspect    `json:"video_aspect" validate:"omitempty,oneof=16:9 9:16 1:1"`
	ConcatMode      ConcatMode     `json:"video_concat_mode" validate:"omitempty,oneof=random sequential"`
	TransitionMode  TransitionMode `json:"video_transition_mode" validate:"omitempty,oneof=Shuffle FadeIn FadeOut SlideIn SlideOut"`
	ClipDuration    float64        `json:"video_clip_duration" validate:"gte=0,lte=60"`
	Count           int            `json:"video_count" validate:"gte=0,lte=10"`
	Source          string         `json:"video_source" validate:"omitempty,oneof=local s3"`
	Materials       []MaterialInfo `json:"video_materials" validate:"omitempty,dive"`
	Language        string         `json:"video_language" validate:"omitempty"`
	VoiceName       string         `json:"voice_name" validate:"omitempty"`
	VoiceVolume     float64        `json:"voice_volume" validate:"gte=0,lte=5"`
	VoiceRate       float64        `json:"voice_rate" validate:"gte=0,lte=3"`
	BgmType         string         `json:"bgm_type" validate:"omitempty"`
	BgmFile         string         `json:"bgm_file" validate:"omitempty"`
	BgmVolume       float64        `json:"bgm_volume" validate:"gte=0,lte=5"`
	SubtitleEnabled *bool          `json:"subtitle_enabled"`
	// SubtitlePosition is one of bottom, top, center or custom.
	SubtitlePosition    SubtitlePosition `json:"subtitle_position" validate:"omitempty,oneof=bottom top center custom"`
	CustomPosition      float64          `json:"custom_position" validate:"gte=0,lte=100"`
	FontName            string           `json:"font_name" validate:"omitempty"`
	TextForeColor       string           `json:"text_fore_color" validate:"omitempty"`
	TextBackgroundColor TextBackground   `json:"text_background_color"`
	FontSize            int              `json:"font_size" validate:"gte=0,lte=300"`
	StrokeColor         string           `json:"stroke_color" validate:"omitempty"`
	StrokeWidth         float64          `json:"stroke_width" validate:"gte=0,lte=20"`
	Threads             int              `json:"n_threads" validate:"gte=0,lte=32"`
	ParagraphNumber     int              `json:"paragraph_number" validate:"gte=0,lte=10"`
}

// Normalize fills unset fields with their defaults.
func (p *VideoParams) Normalize() {
	if p.Aspect == "" {
		p.Aspect = AspectPortrait
	}
	if p.ConcatMode == "" {
		p.ConcatMode = ConcatRandom
	}
	if p.ClipDuration <= 0 {
		p.ClipDuration = 5
	}
	if p.Count <= 0 {
		p.Count = 1
	}
	if p.Source == "" {
		p.Source = SourceS3
	}
	if p.VoiceVolume <= 0 {
		p.VoiceVolume = 1.0
	}
	if p.VoiceRate <= 0 {
		p.VoiceRate = 1.0
	}
	if p.BgmType == "" {
		p.BgmType = BgmRandom
	}
	if p.BgmVolume <= 0 {
		p.BgmVolume = 0.2
	}
	if p.SubtitleEnabled == nil {
		on := true
		p.SubtitleEnabled = &on
	}
	if p.SubtitlePosition == "" {
		p.SubtitlePosition = PositionBottom
	}
	if p.CustomPosition <= 0 {
		p.CustomPosition = 70
	}
	if p.FontName == "" {
		p.FontName = "STHeitiMedium.ttc"
	}
	if p.TextForeColor == "" {
		p.TextForeColor = "#FFFFFF"
	}
	if p.TextBackgroundColor == "" {
		p.TextBackgroundColor = "true"
	}
	if p.FontSize <= 0 {
		p.FontSize = 60
	}
	if p.StrokeColor == "" {
		p.StrokeColor = "#000000"
	}
	if p.StrokeWidth <= 0 {
		p.StrokeWidth = 1.5
	}
	if p.Threads <= 0 {
		p.Threads = 2
	}
	if p.ParagraphNumber <= 0 {
		p.ParagraphNumber = 1
	}
}

func (p VideoParams) SubtitlesOn() bool {
	return p.SubtitleEnabled == nil || *p.SubtitleEnabled
}

// WithCoercedConcatMode returns a copy where several outputs always use
// random concatenation so they differ from each other.
func (p VideoParams) WithCoercedConcatMode() VideoParams {
	if p.Count > 1 {
		p.ConcatMode = ConcatRandom
	}
	p.Terms = append(Terms(nil), p.Terms...)
	p.Materials = append([]MaterialInfo(nil), p.Materials...)
	return p
}
