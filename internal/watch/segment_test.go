package watch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OGFlash/ark-log-watchdog/internal/ocr"
)

func headerLine(text string, y int) ocr.Line {
	return ocr.Line{Text: text, Conf: 80, Box: ocr.Rect{X: 0, Y: y, W: 200, H: 12}}
}

func TestCompileHeaderPattern(t *testing.T) {
	t.Run("default compiles and matches", func(t *testing.T) {
		re := CompileHeaderPattern("")
		assert.True(t, re.MatchString("Day 45, 13:07:02: Tribemember Bob was killed!"))
		assert.True(t, re.MatchString("day 1, 0;00;01"))
		assert.False(t, re.MatchString("Tribemember Bob was killed!"))
	})
	t.Run("malformed custom pattern falls back", func(t *testing.T) {
		re := CompileHeaderPattern("([unclosed")
		assert.True(t, re.MatchString("Day whatever"))
		assert.False(t, re.MatchString("no match here"))
	})
}

func TestSegmentBoundaries(t *testing.T) {
	// headers at y=0,100,250 in a 400-high frame with maxHeight=120:
	// entry 2 is clamped by maxHeight, not by the next header. The height
	// cap also bounds the last entry, so it ends at 250+120, not at the
	// frame bottom.
	seg := NewSegmenter(CompileHeaderPattern(""), 0, 0, 120)
	lines := []ocr.Line{
		headerLine("Day 10, 01:00:00", 0),
		headerLine("Day 10, 01:00:05", 100),
		headerLine("Day 10, 01:00:09", 250),
	}
	entries := seg.Segment(lines, 640, 400)
	require.Len(t, entries, 3)

	assert.Equal(t, 0, entries[0].Box.Y)
	assert.Equal(t, 100, entries[0].Box.Bottom())

	assert.Equal(t, 100, entries[1].Box.Y)
	assert.Equal(t, 220, entries[1].Box.Bottom())

	assert.Equal(t, 250, entries[2].Box.Y)
	assert.Equal(t, 370, entries[2].Box.Bottom())
}

func TestSegmentNoHeaders(t *testing.T) {
	seg := NewSegmenter(CompileHeaderPattern(""), 4, 0, 360)
	entries := seg.Segment([]ocr.Line{
		{Text: "random UI noise", Box: ocr.Rect{Y: 10, W: 50, H: 10}},
	}, 640, 400)
	assert.Empty(t, entries)

	assert.Empty(t, seg.Segment(nil, 640, 400))
}

func TestSegmentBodyLinesAreNotEntries(t *testing.T) {
	seg := NewSegmenter(CompileHeaderPattern(""), 0, 0, 360)
	entries := seg.Segment([]ocr.Line{
		headerLine("Day 10, 01:00:00", 0),
		{Text: "Your Rex was killed!", Box: ocr.Rect{Y: 14, W: 100, H: 10}},
	}, 640, 200)
	require.Len(t, entries, 1)
	assert.Equal(t, "Day 10, 01:00:00", entries[0].HeaderText)
}

func TestSegmentPadding(t *testing.T) {
	seg := NewSegmenter(CompileHeaderPattern(""), 4, 3, 360)
	entries := seg.Segment([]ocr.Line{headerLine("Day 10, 01:00:00", 10)}, 640, 200)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, 4, e.Box.X)
	assert.Equal(t, 632, e.Box.W) // frame width minus padLR on each side
	assert.Equal(t, 7, e.Box.Y)   // header top minus padV
	assert.Equal(t, 200, e.Box.Bottom())
}

func TestSegmentPadVFloorsAtFrameEdges(t *testing.T) {
	seg := NewSegmenter(CompileHeaderPattern(""), 0, 20, 360)
	entries := seg.Segment([]ocr.Line{headerLine("Day 10, 01:00:00", 5)}, 640, 100)
	require.Len(t, entries, 1)
	assert.Equal(t, 0, entries[0].Box.Y)
	assert.Equal(t, 100, entries[0].Box.Bottom())
}

func TestSegmentOrdersByHeaderY(t *testing.T) {
	seg := NewSegmenter(CompileHeaderPattern(""), 0, 0, 360)
	entries := seg.Segment([]ocr.Line{
		headerLine("Day 10, 01:00:05", 150),
		headerLine("Day 10, 01:00:00", 20),
	}, 640, 400)
	require.Len(t, entries, 2)
	assert.Equal(t, "Day 10, 01:00:00", entries[0].HeaderText)
	assert.Equal(t, "Day 10, 01:00:05", entries[1].HeaderText)
	assert.Less(t, entries[0].HeaderBox.Y, entries[1].HeaderBox.Y)
}
