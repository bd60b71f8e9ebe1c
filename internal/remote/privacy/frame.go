package privacy

import (
	"bytes"
	"image"
	"image/draw"
	"time"

	"golang.org/x/image/gif"
)

// Frame is one decoded frame of the animated overlay image, already
// flattened to pre-multiplied BGRA (spec.md §3) so the Windows-only paint
// path can StretchDIBits it directly: a 32bpp BI_RGB DIB's bytes are
// interpreted by GDI in B,G,R,A order.
type Frame struct {
	Width, Height int
	Pix           []byte // BGRA, pre-multiplied, row-major, stride == Width*4
	Delay         time.Duration
}

// minFrameDelay floors any GIF frame delay shorter than this; some encoders
// emit 0 or 1/100s delays that would otherwise spin the paint loop.
const minFrameDelay = 50 * time.Millisecond

// FrameSequence holds a decoded animated image and tracks playback
// position. Advance is a pure function of elapsed wall-clock time so it is
// testable without a real timer.
type FrameSequence struct {
	frames  []Frame
	cursor  int
	elapsed time.Duration
}

// decodeGIF decodes raw GIF bytes into a FrameSequence, compositing each
// disposed frame onto a running canvas the way gif.DecodeAll's per-frame
// palette images are meant to be displayed.
func decodeGIF(data []byte) (*FrameSequence, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(g.Image) == 0 {
		return &FrameSequence{}, nil
	}

	seq := &FrameSequence{frames: make([]Frame, 0, len(g.Image))}
	canvas := image.NewRGBA(image.Rect(0, 0, g.Config.Width, g.Config.Height))

	for i, frame := range g.Image {
		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		delay := time.Duration(g.Delay[i]) * 10 * time.Millisecond
		if delay < minFrameDelay {
			delay = minFrameDelay
		}

		pix := rgbaToPremultipliedBGRA(canvas.Pix)
		seq.frames = append(seq.frames, Frame{
			Width:  canvas.Rect.Dx(),
			Height: canvas.Rect.Dy(),
			Pix:    pix,
			Delay:  delay,
		})

		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalBackground {
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		}
	}
	return seq, nil
}

// rgbaToPremultipliedBGRA converts image.RGBA's R,G,B,A byte order into the
// B,G,R,A order Frame.Pix stores (spec.md §3). image.RGBA is already
// alpha-premultiplied, so only the red and blue channels are swapped.
func rgbaToPremultipliedBGRA(src []byte) []byte {
	out := make([]byte, len(src))
	for i := 0; i+3 < len(src); i += 4 {
		r, g, b, a := src[i], src[i+1], src[i+2], src[i+3]
		out[i] = b
		out[i+1] = g
		out[i+2] = r
		out[i+3] = a
	}
	return out
}

// syntheticGradientFrames and syntheticGradientStep control the fallback
// sequence generated when the configured GIF can't be fetched or decoded:
// four square frames sweeping a grayscale gradient, so the overlay still
// reads as "alive" rather than reverting to a plain static fill.
const (
	syntheticGradientFrames = 4
	syntheticGradientSide   = 64
	syntheticGradientStep   = 150 * time.Millisecond
)

// syntheticGradientSequence builds the fallback animation used when
// fetchImage or decodeGIF fails, per spec.md §4.6 ("never fails to
// start"). It never itself fails. Each frame is gray (R==G==B) at full
// alpha, so the BGRA byte order Frame.Pix requires is indistinguishable
// from RGBA here — no channel swap needed for a gradient with no color.
func syntheticGradientSequence() *FrameSequence {
	frames := make([]Frame, syntheticGradientFrames)
	for i := 0; i < syntheticGradientFrames; i++ {
		level := byte(i * 255 / (syntheticGradientFrames - 1))
		pix := make([]byte, syntheticGradientSide*syntheticGradientSide*4)
		for p := 0; p < len(pix); p += 4 {
			pix[p] = level
			pix[p+1] = level
			pix[p+2] = level
			pix[p+3] = 255
		}
		frames[i] = Frame{
			Width:  syntheticGradientSide,
			Height: syntheticGradientSide,
			Pix:    pix,
			Delay:  syntheticGradientStep,
		}
	}
	return &FrameSequence{frames: frames}
}

// Current returns the frame that should be on screen right now.
func (s *FrameSequence) Current() Frame {
	if len(s.frames) == 0 {
		return Frame{}
	}
	return s.frames[s.cursor]
}

// Len reports how many frames the sequence holds.
func (s *FrameSequence) Len() int { return len(s.frames) }

// Advance moves playback forward by dt and reports whether the visible
// frame changed (so the caller knows whether to invalidate the window).
func (s *FrameSequence) Advance(dt time.Duration) bool {
	if len(s.frames) <= 1 {
		return false
	}
	s.elapsed += dt
	changed := false
	for s.elapsed >= s.frames[s.cursor].Delay {
		s.elapsed -= s.frames[s.cursor].Delay
		s.cursor = (s.cursor + 1) % len(s.frames)
		changed = true
	}
	return changed
}
