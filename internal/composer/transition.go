package composer

import (
	"math/rand"

	"github.com/amankumarsingh77/shorts-assembler/internal/models"
)

const transitionWindow = 1.0

type TransitionApplier struct {
	rnd             *rand.Rand
	maxClipDuration float64
}

func NewTransitionApplier(rnd *rand.Rand, maxClipDuration float64) *TransitionApplier {
	return &TransitionApplier{rnd: rnd, maxClipDuration: maxClipDuration}
}

// Apply attaches the transition for mode and clamps the segment back to the
// maximum clip duration. Slide effects draw their side per segment; Shuffle
// draws one of the four effects per segment.
func (a *TransitionApplier) Apply(seg ClipSegment, mode models.TransitionMode) ClipSegment {
	if mode == models.TransitionShuffle {
		mode = []models.TransitionMode{
			models.TransitionFadeIn,
			models.TransitionFadeOut,
			models.TransitionSlideIn,
			models.TransitionSlideOut,
		}[a.rnd.Intn(4)]
	}

	d := effectWindow(transitionWindow, seg)
	switch mode {
	case models.TransitionFadeIn:
		seg = seg.with(FadeIn{Duration: d})
	case models.TransitionFadeOut:
		seg = seg.with(FadeOut{Duration: d})
	case models.TransitionSlideIn:
		seg = seg.with(SlideIn{Duration: d, Side: a.side()})
	case models.TransitionSlideOut:
		seg = seg.with(SlideOut{Duration: d, Side: a.side()})
	}

	if a.maxClipDuration > 0 && seg.Duration() > a.maxClipDuration {
		seg = seg.Trim(a.maxClipDuration)
	}
	return seg
}

func (a *TransitionApplier) side() Side {
	return sides[a.rnd.Intn(len(sides))]
}
