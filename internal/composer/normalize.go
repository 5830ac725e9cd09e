package composer

import (
	"github.com/amankumarsingh77/shorts-assembler/internal/models"
)

// Normalize brings a segment to the target frame size. Equal aspect ratios are
// plainly resized; otherwise the content is scaled to fit inside the frame and
// centered on a black background.
func Normalize(seg ClipSegment, target models.Resolution) ClipSegment {
	w, h := seg.Width, seg.Height
	W, H := target.Width, target.Height
	if w == W && h == H {
		return seg
	}

	var out ClipSegment
	if w <= 0 || h <= 0 || w*H == h*W {
		out = seg.with(Resize{Width: W, Height: H})
	} else {
		// Integer arithmetic keeps the fitted side exactly W or H.
		var cw, ch int
		if w*H > h*W {
			cw, ch = W, h*W/w
		} else {
			cw, ch = w*H/h, H
		}
		cw, ch = max(cw, 1), max(ch, 1)
		out = seg.with(Letterbox{
			Width:         W,
			Height:        H,
			ContentWidth:  cw,
			ContentHeight: ch,
			X:             (W - cw) / 2,
			Y:             (H - ch) / 2,
		})
	}
	out.Width, out.Height = W, H
	return out
}
