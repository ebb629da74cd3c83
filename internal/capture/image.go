/**
 * Image helpers for the OCR passes: pre-scaling, entry cropping and optional
 * column tightening of an entry box to the horizontal span that actually
 * contains ink, which keeps surrounding UI chrome out of the re-OCR.
 */

package capture

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/OGFlash/ark-log-watchdog/internal/ocr"
)

// inkContrast is the minimum luminance spread within a column for it to count
// as containing text.
const inkContrast = 60

// Scale resamples img by factor using Catmull-Rom interpolation. Factors of
// 1.0 (or less than or equal to zero) return the input unchanged.
func Scale(img image.Image, factor float64) image.Image {
	if factor <= 0 || factor == 1.0 {
		return img
	}
	b := img.Bounds()
	w := max(1, int(float64(b.Dx())*factor))
	h := max(1, int(float64(b.Dy())*factor))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Crop copies the region r out of img. Coordinates are relative to the image
// origin and clipped to its bounds; an empty intersection yields a 1x1 image.
func Crop(img image.Image, r ocr.Rect) image.Image {
	b := img.Bounds()
	rect := image.Rect(b.Min.X+r.X, b.Min.Y+r.Y, b.Min.X+r.Right(), b.Min.Y+r.Bottom()).Intersect(b)
	if rect.Empty() {
		rect = image.Rect(b.Min.X, b.Min.Y, b.Min.X+1, b.Min.Y+1)
	}
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return dst
}

// TightenColumns narrows box horizontally to the columns of img that contain
// ink, padded by padLR on each side. When no ink is found the original box is
// returned unchanged.
func TightenColumns(img image.Image, box ocr.Rect, padLR int) ocr.Rect {
	crop := Crop(img, box)
	b := crop.Bounds()

	first, last := -1, -1
	for x := b.Min.X; x < b.Max.X; x++ {
		lo, hi := 255, 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			l := luminance(crop.At(x, y))
			if l < lo {
				lo = l
			}
			if l > hi {
				hi = l
			}
		}
		if hi-lo >= inkContrast {
			if first < 0 {
				first = x - b.Min.X
			}
			last = x - b.Min.X
		}
	}
	if first < 0 {
		return box
	}

	x0 := max(0, first-padLR)
	x1 := min(b.Dx(), last+1+padLR)
	return ocr.Rect{
		X: box.X + x0,
		Y: box.Y,
		W: max(1, x1-x0),
		H: box.H,
	}
}

func luminance(c color.Color) int {
	r, g, b, _ := c.RGBA()
	// Integer Rec. 601 weights over 8-bit channels.
	return int((299*(r>>8) + 587*(g>>8) + 114*(b>>8)) / 1000)
}
