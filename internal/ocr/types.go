/**
 * OCR Types - Shared data structures for OCR passes
 *
 * A Word is one recognized token from a Tesseract pass, carrying the
 * structural indices Tesseract assigns (page/block/paragraph/line/word).
 * A Line is the grouped, ordered form downstream segmentation works on.
 */

package ocr

// Rect is an axis-aligned rectangle in image coordinates.
type Rect struct {
	X int
	Y int
	W int
	H int
}

// Right returns the exclusive right edge.
func (r Rect) Right() int { return r.X + r.W }

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() int { return r.Y + r.H }

// Word represents a single recognized word with its bounding box.
type Word struct {
	Text string
	// Conf is 0-100, or -1 when Tesseract did not report a confidence.
	Conf int
	Box  Rect

	Page  int
	Block int
	Par   int
	Line  int
	// WordNum orders words within their line.
	WordNum int
}

// Line represents one grouped text line.
type Line struct {
	Text string
	// Conf is the median of the member words' non-negative confidences.
	Conf float64
	Box  Rect
}

// Pass configures a single Tesseract invocation.
type Pass struct {
	PSM       int
	Whitelist string
}
