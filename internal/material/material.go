package material

import (
	"path/filepath"
	"strings"

	"github.com/amankumarsingh77/shorts-assembler/internal/models"
)

const minMaterialSize = 480

var (
	videoExts = map[string]bool{".mp4": true, ".mov": true, ".mkv": true, ".webm": true, ".avi": true, ".flv": true}
	imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".bmp": true, ".webp": true}
)

func isVideo(path string) bool {
	return videoExts[strings.ToLower(filepath.Ext(path))]
}

func isImage(path string) bool {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

// largeEnough rejects footage too small to be scaled up to a short.
func largeEnough(clip models.RawClip, min int) bool {
	if min <= 0 {
		min = minMaterialSize
	}
	return clip.Width >= min && clip.Height >= min
}

func totalDuration(clips []models.RawClip) float64 {
	var total float64
	for _, c := range clips {
		total += c.Duration
	}
	return total
}
