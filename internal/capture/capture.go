/**
 * Screen Capture - Virtual-screen region grabbing
 *
 * Captures a configured rectangle of the full virtual screen (all displays)
 * and hands it to the OCR passes. The rectangle is clamped into the virtual
 * bounds with width/height floored at 1 before the grab, so a stale or
 * partially off-screen ROI never fails the capture call itself.
 */

package capture

import (
	"bytes"
	"image"
	"image/png"

	"github.com/kbinani/screenshot"

	werrors "github.com/OGFlash/ark-log-watchdog/internal/errors"
	"github.com/OGFlash/ark-log-watchdog/internal/ocr"
)

// Screen captures regions of the virtual screen.
type Screen struct {
	bounds image.Rectangle
}

// NewScreen enumerates the active displays and returns a capturer over their
// union. Zero active displays is a fatal condition for the caller.
func NewScreen() (*Screen, error) {
	n := screenshot.NumActiveDisplays()
	if n < 1 {
		return nil, werrors.New(werrors.ErrorCaptureBackend, "no active displays found", nil)
	}
	bounds := screenshot.GetDisplayBounds(0)
	for i := 1; i < n; i++ {
		bounds = bounds.Union(screenshot.GetDisplayBounds(i))
	}
	return &Screen{bounds: bounds}, nil
}

// Bounds returns the virtual-screen rectangle.
func (s *Screen) Bounds() image.Rectangle { return s.bounds }

// Clamp clips r into the virtual-screen bounds, flooring width and height at 1.
func (s *Screen) Clamp(r ocr.Rect) ocr.Rect {
	w, h := s.bounds.Dx(), s.bounds.Dy()
	x := min(max(0, r.X), w-1)
	y := min(max(0, r.Y), h-1)
	return ocr.Rect{
		X: x,
		Y: y,
		W: max(1, min(w-x, r.W)),
		H: max(1, min(h-y, r.H)),
	}
}

// Capture grabs the given region, anchored at the virtual-screen origin.
func (s *Screen) Capture(r ocr.Rect) (*image.RGBA, error) {
	r = s.Clamp(r)
	img, err := screenshot.Capture(s.bounds.Min.X+r.X, s.bounds.Min.Y+r.Y, r.W, r.H)
	if err != nil {
		return nil, werrors.New(werrors.ErrorCaptureFailed, "screen capture failed", err)
	}
	return img, nil
}

// EncodePNG encodes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, werrors.New(werrors.ErrorEncodeFailed, "failed to encode PNG", err)
	}
	return buf.Bytes(), nil
}
