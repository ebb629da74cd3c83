/**
 * Entry Segmenter - Splits ordered OCR lines into log entries
 *
 * A header is a line matching the configured timestamp pattern. Each entry
 * spans from its header down to the next header (or a height cap, whichever
 * comes first), so a missed header can never produce a runaway capture.
 */

package watch

import (
	"regexp"
	"sort"

	"github.com/OGFlash/ark-log-watchdog/internal/ocr"
)

// DefaultHeaderPattern matches the in-game log timestamp header, tolerant of
// the ;/: confusions Tesseract produces on this font.
const DefaultHeaderPattern = `(?i)\bday\s*\d{1,6}\s*,\s*\d{1,2}[:;]\d{2}[:;]\d{2}\s*[:;]?`

// degenerate fallback when a custom header pattern does not compile.
var headerFallback = regexp.MustCompile(`(?i)\bday\b`)

// CompileHeaderPattern compiles pattern, falling back to a degenerate
// "any line mentioning day" matcher when the custom pattern is malformed.
// An empty pattern compiles the default.
func CompileHeaderPattern(pattern string) *regexp.Regexp {
	if pattern == "" {
		pattern = DefaultHeaderPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return headerFallback
	}
	return re
}

// Entry is one vertical slice of the frame holding a single log record.
type Entry struct {
	Box        ocr.Rect
	HeaderText string
	HeaderBox  ocr.Rect
}

// Segmenter turns ordered lines into entries.
type Segmenter struct {
	header    *regexp.Regexp
	padLR     int
	padV      int
	maxHeight int
}

// NewSegmenter builds a segmenter around a compiled header matcher.
func NewSegmenter(header *regexp.Regexp, padLR, padV, maxHeight int) *Segmenter {
	return &Segmenter{header: header, padLR: padLR, padV: padV, maxHeight: maxHeight}
}

// IsHeader reports whether text matches the header pattern.
func (s *Segmenter) IsHeader(text string) bool {
	return s.header.MatchString(text)
}

// Segment slices the frame into entries, one per header line, ordered by the
// header's vertical position. No headers means no entries - the caller must
// treat that as "nothing to report", not an error.
func (s *Segmenter) Segment(lines []ocr.Line, frameW, frameH int) []Entry {
	sorted := make([]ocr.Line, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Box.Y != sorted[j].Box.Y {
			return sorted[i].Box.Y < sorted[j].Box.Y
		}
		return sorted[i].Box.X < sorted[j].Box.X
	})

	var headers []ocr.Line
	for _, ln := range sorted {
		if s.header.MatchString(ln.Text) {
			headers = append(headers, ln)
		}
	}
	if len(headers) == 0 {
		return nil
	}

	entries := make([]Entry, 0, len(headers))
	for i, hdr := range headers {
		hy := hdr.Box.Y
		nextY := frameH
		if i+1 < len(headers) {
			nextY = headers[i+1].Box.Y
		}
		y0 := max(0, hy-s.padV)
		y1 := min(frameH, min(nextY, hy+s.maxHeight)+s.padV)
		x0 := s.padLR
		x1 := max(1, frameW-s.padLR)
		entries = append(entries, Entry{
			Box: ocr.Rect{
				X: x0,
				Y: y0,
				W: max(1, x1-x0),
				H: max(1, y1-y0),
			},
			HeaderText: hdr.Text,
			HeaderBox:  hdr.Box,
		})
	}
	return entries
}
