/**
 * Word Grouper - Builds ordered text lines from raw Tesseract word output
 *
 * Words are grouped by their (page, block, paragraph, line) indices, joined
 * in word order, and the resulting lines are sorted top-to-bottom then
 * left-to-right. Every downstream consumer depends on that ordering.
 */

package ocr

import (
	"sort"
	"strings"
)

// GroupWords groups raw OCR words into ordered lines.
//
// Words with empty trimmed text are dropped. Words with a confidence strictly
// below minWordConf are dropped, except that an unknown confidence (-1) is
// always kept - only explicitly low-confidence words are filtered.
func GroupWords(words []Word, minWordConf int) []Line {
	type groupKey struct {
		page, block, par, line int
	}

	groups := make(map[groupKey][]Word)
	for _, w := range words {
		txt := strings.TrimSpace(w.Text)
		if txt == "" {
			continue
		}
		if w.Conf >= 0 && w.Conf < minWordConf {
			continue
		}
		w.Text = txt
		k := groupKey{w.Page, w.Block, w.Par, w.Line}
		groups[k] = append(groups[k], w)
	}
	if len(groups) == 0 {
		return nil
	}

	lines := make([]Line, 0, len(groups))
	for _, arr := range groups {
		sort.SliceStable(arr, func(i, j int) bool { return arr[i].WordNum < arr[j].WordNum })

		texts := make([]string, len(arr))
		confs := make([]float64, 0, len(arr))
		box := arr[0].Box
		x1, y1 := box.Right(), box.Bottom()
		for i, w := range arr {
			texts[i] = w.Text
			if w.Conf >= 0 {
				confs = append(confs, float64(w.Conf))
			}
			if w.Box.X < box.X {
				box.X = w.Box.X
			}
			if w.Box.Y < box.Y {
				box.Y = w.Box.Y
			}
			if w.Box.Right() > x1 {
				x1 = w.Box.Right()
			}
			if w.Box.Bottom() > y1 {
				y1 = w.Box.Bottom()
			}
		}
		box.W = max(1, x1-box.X)
		box.H = max(1, y1-box.Y)

		lines = append(lines, Line{
			Text: strings.Join(texts, " "),
			Conf: median(confs),
			Box:  box,
		})
	}

	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].Box.Y != lines[j].Box.Y {
			return lines[i].Box.Y < lines[j].Box.Y
		}
		return lines[i].Box.X < lines[j].Box.X
	})
	return lines
}

// FullText joins already-ordered lines into one entry text and returns the
// median of the line confidences. Used on re-OCR output where the whole crop
// is one logical entry.
func FullText(lines []Line) (string, float64) {
	if len(lines) == 0 {
		return "", 0
	}
	texts := make([]string, len(lines))
	confs := make([]float64, len(lines))
	for i, ln := range lines {
		texts[i] = ln.Text
		confs[i] = ln.Conf
	}
	return strings.TrimSpace(strings.Join(texts, " ")), median(confs)
}

// median returns the median of vals, or 0 for an empty slice. An even count
// averages the two middle values.
func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	s := make([]float64, len(vals))
	copy(s, vals)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}
