package privacy

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"testing"
	"time"
)

// buildTestGIF encodes a minimal 1x1, 2-frame animated GIF in memory so
// decodeGIF has a real asset to exercise without fetching one over the
// network.
func buildTestGIF(t *testing.T) []byte {
	t.Helper()
	palette := color.Palette{color.Black, color.White}
	frame0 := image.NewPaletted(image.Rect(0, 0, 1, 1), palette)
	frame0.SetColorIndex(0, 0, 0)
	frame1 := image.NewPaletted(image.Rect(0, 0, 1, 1), palette)
	frame1.SetColorIndex(0, 0, 1)

	g := &gif.GIF{
		Image: []*image.Paletted{frame0, frame1},
		Delay: []int{0, 10},
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		t.Fatalf("encode test gif: %v", err)
	}
	return buf.Bytes()
}

func newTestSequence(delays ...time.Duration) *FrameSequence {
	frames := make([]Frame, len(delays))
	for i, d := range delays {
		frames[i] = Frame{Width: 1, Height: 1, Pix: []byte{0, 0, 0, 255}, Delay: d}
	}
	return &FrameSequence{frames: frames}
}

func TestFrameSequence_AdvanceWithinFirstFrame(t *testing.T) {
	seq := newTestSequence(100*time.Millisecond, 100*time.Millisecond)
	if changed := seq.Advance(50 * time.Millisecond); changed {
		t.Fatal("advancing less than the current frame's delay must not change the visible frame")
	}
	if seq.Current().Delay != 100*time.Millisecond {
		t.Fatalf("expected to remain on frame 0")
	}
}

func TestFrameSequence_AdvancePastFrameBoundary(t *testing.T) {
	seq := newTestSequence(100*time.Millisecond, 200*time.Millisecond)
	if changed := seq.Advance(150 * time.Millisecond); !changed {
		t.Fatal("advancing past a frame's delay must change the visible frame")
	}
	if seq.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", seq.cursor)
	}
}

func TestFrameSequence_AdvanceWrapsAround(t *testing.T) {
	seq := newTestSequence(100*time.Millisecond, 100*time.Millisecond)
	seq.Advance(250 * time.Millisecond)
	if seq.cursor != 0 {
		t.Fatalf("cursor after wrapping = %d, want 0", seq.cursor)
	}
}

func TestFrameSequence_SingleFrameNeverChanges(t *testing.T) {
	seq := newTestSequence(100 * time.Millisecond)
	if changed := seq.Advance(10 * time.Second); changed {
		t.Fatal("a single-frame sequence must never report a change")
	}
}

func TestFrameSequence_EmptyCurrentIsZeroValue(t *testing.T) {
	seq := &FrameSequence{}
	if f := seq.Current(); f.Width != 0 || f.Pix != nil {
		t.Fatalf("Current() on empty sequence = %+v, want zero value", f)
	}
}

func TestDecodeGIF_FloorsShortDelays(t *testing.T) {
	// A hand-built 1x1, 2-frame GIF with a 0-centisecond delay on the
	// first frame, exercising the minFrameDelay floor without needing a
	// real downloaded asset.
	data := buildTestGIF(t)
	seq, err := decodeGIF(data)
	if err != nil {
		t.Fatalf("decodeGIF: %v", err)
	}
	if seq.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", seq.Len())
	}
	if seq.frames[0].Delay < minFrameDelay {
		t.Fatalf("frame 0 delay = %v, want >= %v", seq.frames[0].Delay, minFrameDelay)
	}
}

func TestSyntheticGradientSequence_NeverEmpty(t *testing.T) {
	seq := syntheticGradientSequence()
	if seq.Len() != syntheticGradientFrames {
		t.Fatalf("Len() = %d, want %d", seq.Len(), syntheticGradientFrames)
	}
	for i, f := range seq.frames {
		if f.Delay < minFrameDelay {
			t.Fatalf("frame %d delay = %v, want >= %v", i, f.Delay, minFrameDelay)
		}
		if len(f.Pix) != f.Width*f.Height*4 {
			t.Fatalf("frame %d pix length = %d, want %d", i, len(f.Pix), f.Width*f.Height*4)
		}
	}
	if seq.frames[0].Pix[0] == seq.frames[syntheticGradientFrames-1].Pix[0] {
		t.Fatal("gradient frames should sweep from dark to light")
	}
}
