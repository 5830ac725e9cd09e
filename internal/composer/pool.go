package composer

import (
	"math"
	"math/rand"

	"github.com/amankumarsingh77/shorts-assembler/internal/models"
)

// BuildPool cuts every clip into consecutive windows of at most
// maxClipDuration seconds. Sequential mode keeps only the first window of each
// clip in source order; random mode keeps all windows and shuffles them.
func BuildPool(clips []models.RawClip, maxClipDuration float64, mode models.ConcatMode, rnd *rand.Rand) []ClipSegment {
	pool := make([]ClipSegment, 0, len(clips))
	for _, clip := range clips {
		if clip.Duration <= 0 {
			continue
		}
		if maxClipDuration <= 0 {
			pool = append(pool, newSegment(clip, 0, clip.Duration))
			continue
		}
		for k := 0; ; k++ {
			start := float64(k) * maxClipDuration
			if start >= clip.Duration {
				break
			}
			end := math.Min(start+maxClipDuration, clip.Duration)
			pool = append(pool, newSegment(clip, start, end))
			if mode == models.ConcatSequential {
				break
			}
		}
	}

	if mode != models.ConcatSequential && rnd != nil {
		rnd.Shuffle(len(pool), func(i, j int) {
			pool[i], pool[j] = pool[j], pool[i]
		})
	}
	return pool
}
