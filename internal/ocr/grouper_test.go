package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func word(text string, conf, x, y, w, h, block, line, wordNum int) Word {
	return Word{
		Text:    text,
		Conf:    conf,
		Box:     Rect{X: x, Y: y, W: w, H: h},
		Page:    1,
		Block:   block,
		Par:     1,
		Line:    line,
		WordNum: wordNum,
	}
}

func TestGroupWordsConfidenceFiltering(t *testing.T) {
	tests := []struct {
		name    string
		conf    int
		minConf int
		kept    bool
	}{
		{"zero conf at zero threshold is kept", 0, 0, true},
		{"unknown conf is always kept", -1, 50, true},
		{"below threshold is dropped", 5, 10, false},
		{"at threshold is kept", 10, 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := GroupWords([]Word{word("x", tt.conf, 0, 0, 10, 10, 1, 1, 1)}, tt.minConf)
			if tt.kept {
				assert.Len(t, lines, 1)
			} else {
				assert.Empty(t, lines)
			}
		})
	}
}

func TestGroupWordsDropsEmptyText(t *testing.T) {
	lines := GroupWords([]Word{
		word("   ", 90, 0, 0, 10, 10, 1, 1, 1),
		word("", 90, 12, 0, 10, 10, 1, 1, 2),
	}, 0)
	assert.Empty(t, lines)
}

func TestGroupWordsZeroInZeroOut(t *testing.T) {
	assert.Empty(t, GroupWords(nil, 0))
}

func TestGroupWordsJoinsInWordOrder(t *testing.T) {
	// words delivered out of order within the line
	lines := GroupWords([]Word{
		word("was", 80, 40, 0, 20, 10, 1, 1, 3),
		word("Day", 90, 0, 0, 20, 10, 1, 1, 1),
		word("45", 85, 22, 0, 15, 10, 1, 1, 2),
	}, 0)
	require.Len(t, lines, 1)
	assert.Equal(t, "Day 45 was", lines[0].Text)
}

func TestGroupWordsMedianConfidence(t *testing.T) {
	// odd count: middle value; unknown confidences are ignored
	lines := GroupWords([]Word{
		word("a", 10, 0, 0, 5, 5, 1, 1, 1),
		word("b", -1, 6, 0, 5, 5, 1, 1, 2),
		word("c", 90, 12, 0, 5, 5, 1, 1, 3),
		word("d", 50, 18, 0, 5, 5, 1, 1, 4),
	}, 0)
	require.Len(t, lines, 1)
	assert.InDelta(t, 50.0, lines[0].Conf, 0.001)

	// even count averages the two middle values
	lines = GroupWords([]Word{
		word("a", 10, 0, 10, 5, 5, 1, 1, 1),
		word("b", 20, 6, 10, 5, 5, 1, 1, 2),
		word("c", 30, 12, 10, 5, 5, 1, 1, 3),
		word("d", 40, 18, 10, 5, 5, 1, 1, 4),
	}, 0)
	require.Len(t, lines, 1)
	assert.InDelta(t, 25.0, lines[0].Conf, 0.001)

	// no valid confidences at all
	lines = GroupWords([]Word{word("a", -1, 0, 20, 5, 5, 1, 1, 1)}, 0)
	require.Len(t, lines, 1)
	assert.Zero(t, lines[0].Conf)
}

func TestGroupWordsBoxUnion(t *testing.T) {
	lines := GroupWords([]Word{
		word("a", 90, 10, 5, 20, 12, 1, 1, 1),
		word("b", 90, 40, 3, 25, 10, 1, 1, 2),
	}, 0)
	require.Len(t, lines, 1)
	assert.Equal(t, Rect{X: 10, Y: 3, W: 55, H: 14}, lines[0].Box)
}

func TestGroupWordsBoxFloorsAtOne(t *testing.T) {
	lines := GroupWords([]Word{word("a", 90, 10, 5, 0, 0, 1, 1, 1)}, 0)
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].Box.W)
	assert.Equal(t, 1, lines[0].Box.H)
}

func TestGroupWordsOutputOrdering(t *testing.T) {
	lines := GroupWords([]Word{
		word("lower", 90, 0, 50, 10, 10, 2, 1, 1),
		word("right", 90, 60, 0, 10, 10, 1, 2, 1),
		word("left", 90, 0, 0, 10, 10, 1, 1, 1),
	}, 0)
	require.Len(t, lines, 3)
	assert.Equal(t, "left", lines[0].Text)
	assert.Equal(t, "right", lines[1].Text)
	assert.Equal(t, "lower", lines[2].Text)
}

func TestGroupWordsStableUnderPermutation(t *testing.T) {
	words := []Word{
		word("Day", 90, 0, 0, 20, 10, 1, 1, 1),
		word("45,", 85, 22, 0, 20, 10, 1, 1, 2),
		word("13:07:02", 80, 44, 0, 40, 10, 1, 1, 3),
		word("Bob", 75, 0, 14, 20, 10, 1, 2, 1),
		word("was", 70, 22, 14, 20, 10, 1, 2, 2),
		word("killed", 65, 44, 14, 30, 10, 1, 2, 3),
	}
	want := GroupWords(words, 0)

	// reversed and interleaved permutations must produce identical output
	perms := [][]Word{
		{words[5], words[4], words[3], words[2], words[1], words[0]},
		{words[3], words[0], words[5], words[1], words[4], words[2]},
	}
	for _, p := range perms {
		assert.Equal(t, want, GroupWords(p, 0))
	}
}

func TestFullText(t *testing.T) {
	text, conf := FullText([]Line{
		{Text: "Day 45, 13:07:02", Conf: 80},
		{Text: "Bob was killed", Conf: 60},
	})
	assert.Equal(t, "Day 45, 13:07:02 Bob was killed", text)
	assert.InDelta(t, 70.0, conf, 0.001)

	text, conf = FullText(nil)
	assert.Empty(t, text)
	assert.Zero(t, conf)
}
