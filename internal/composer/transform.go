package composer

import (
	"fmt"
)

// Transform is one step of a segment's video filter chain. The set of
// implementations is closed: frame transforms (Resize, Letterbox) and
// transition effects (FadeIn, FadeOut, SlideIn, SlideOut).
type Transform interface {
	Name() string
	// filter renders the step as a filtergraph fragment reading label in and
	// writing label out.
	filter(in, out string, seg ClipSegment, fps int) string
}

type Resize struct {
	Width  int
	Height int
}

func (Resize) Name() string { return "resize" }

func (t Resize) filter(in, out string, _ ClipSegment, _ int) string {
	return fmt.Sprintf("[%s]scale=%d:%d,setsar=1[%s]", in, t.Width, t.Height, out)
}

// Letterbox scales the content to ContentWidth x ContentHeight and pads it
// onto a black Width x Height frame at (X, Y).
type Letterbox struct {
	Width         int
	Height        int
	ContentWidth  int
	ContentHeight int
	X             int
	Y             int
}

func (Letterbox) Name() string { return "letterbox" }

func (t Letterbox) filter(in, out string, _ ClipSegment, _ int) string {
	return fmt.Sprintf("[%s]scale=%d:%d,pad=%d:%d:%d:%d:color=black,setsar=1[%s]",
		in, t.ContentWidth, t.ContentHeight, t.Width, t.Height, t.X, t.Y, out)
}

type Side string

const (
	SideLeft   Side = "left"
	SideRight  Side = "right"
	SideTop    Side = "top"
	SideBottom Side = "bottom"
)

var sides = []Side{SideLeft, SideRight, SideTop, SideBottom}

type FadeIn struct {
	Duration float64
}

func (FadeIn) Name() string { return "fade_in" }

func (t FadeIn) filter(in, out string, _ ClipSegment, _ int) string {
	return fmt.Sprintf("[%s]fade=t=in:st=0:d=%s[%s]", in, ff(t.Duration), out)
}

type FadeOut struct {
	Duration float64
}

func (FadeOut) Name() string { return "fade_out" }

func (t FadeOut) filter(in, out string, seg ClipSegment, _ int) string {
	d := effectWindow(t.Duration, seg)
	return fmt.Sprintf("[%s]fade=t=out:st=%s:d=%s[%s]", in, ff(seg.Duration()-d), ff(d), out)
}

type SlideIn struct {
	Duration float64
	Side     Side
}

func (SlideIn) Name() string { return "slide_in" }

func (t SlideIn) filter(in, out string, seg ClipSegment, fps int) string {
	d := ff(effectWindow(t.Duration, seg))
	x, y := "0", "0"
	switch t.Side {
	case SideLeft:
		x = fmt.Sprintf("'if(lt(t,%[1]s),-W+W*t/%[1]s,0)'", d)
	case SideRight:
		x = fmt.Sprintf("'if(lt(t,%[1]s),W-W*t/%[1]s,0)'", d)
	case SideTop:
		y = fmt.Sprintf("'if(lt(t,%[1]s),-H+H*t/%[1]s,0)'", d)
	case SideBottom:
		y = fmt.Sprintf("'if(lt(t,%[1]s),H-H*t/%[1]s,0)'", d)
	}
	return slideGraph(in, out, seg, fps, x, y)
}

type SlideOut struct {
	Duration float64
	Side     Side
}

func (SlideOut) Name() string { return "slide_out" }

func (t SlideOut) filter(in, out string, seg ClipSegment, fps int) string {
	w := effectWindow(t.Duration, seg)
	d := ff(w)
	st := ff(seg.Duration() - w)
	x, y := "0", "0"
	switch t.Side {
	case SideLeft:
		x = fmt.Sprintf("'if(gte(t,%[1]s),-W*(t-%[1]s)/%[2]s,0)'", st, d)
	case SideRight:
		x = fmt.Sprintf("'if(gte(t,%[1]s),W*(t-%[1]s)/%[2]s,0)'", st, d)
	case SideTop:
		y = fmt.Sprintf("'if(gte(t,%[1]s),-H*(t-%[1]s)/%[2]s,0)'", st, d)
	case SideBottom:
		y = fmt.Sprintf("'if(gte(t,%[1]s),H*(t-%[1]s)/%[2]s,0)'", st, d)
	}
	return slideGraph(in, out, seg, fps, x, y)
}

// slideGraph moves the segment over a black canvas of the same size.
func slideGraph(in, out string, seg ClipSegment, fps int, x, y string) string {
	bg := out + "bg"
	return fmt.Sprintf("color=c=black:s=%dx%d:r=%d:d=%s[%s];[%s][%s]overlay=x=%s:y=%s:shortest=1[%s]",
		seg.Width, seg.Height, fps, ff(seg.Duration()), bg, bg, in, x, y, out)
}

// effectWindow shortens an effect to the segment when the segment is shorter.
func effectWindow(d float64, seg ClipSegment) float64 {
	if d > seg.Duration() {
		return seg.Duration()
	}
	return d
}
