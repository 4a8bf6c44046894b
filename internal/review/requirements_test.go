package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractQuantities(t *testing.T) {
	ex := Extract("draw 3 circles and two squares")

	require.Len(t, ex.Quantities, 2)
	assert.Equal(t, QuantityRequirement{Count: 3, Word: "circle"}, ex.Quantities[0])
	assert.Equal(t, QuantityRequirement{Count: 2, Word: "square"}, ex.Quantities[1])
}

func TestExtractPresenceAndSubject(t *testing.T) {
	ex := Extract("draw a house with a door, including windows")

	assert.Equal(t, "house", ex.Subject)
	assert.Contains(t, ex.Presence, "door")
	assert.Contains(t, ex.Presence, "window")
}

func TestExtractKeywordsSkipStopwordsAndShortWords(t *testing.T) {
	ex := Extract("please draw a big ox and the sun")

	assert.Contains(t, ex.Keywords, "big")
	assert.Contains(t, ex.Keywords, "sun")
	assert.NotContains(t, ex.Keywords, "ox") // too short
	assert.NotContains(t, ex.Keywords, "the")
	assert.NotContains(t, ex.Keywords, "draw")
}

func TestExtractKeywordsDeduplicated(t *testing.T) {
	ex := Extract("draw a tree next to a tree")

	count := 0
	for _, kw := range ex.Keywords {
		if kw == "tree" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestExtractWantLabels(t *testing.T) {
	assert.True(t, Extract("label each box").WantLabels)
	assert.True(t, Extract("annotate the diagram").WantLabels)
	assert.False(t, Extract("draw three boxes").WantLabels)
}

func TestSingularize(t *testing.T) {
	cases := map[string]string{
		"circles":  "circle",
		"boxes":    "box",
		"branches": "branch",
		"berries":  "berry",
		"glasses":  "glass",
		"grass":    "grass",
		"sun":      "sun",
	}
	for plural, singular := range cases {
		assert.Equal(t, singular, singularize(plural), plural)
	}
}

func TestParseCount(t *testing.T) {
	assert.Equal(t, 3, parseCount("3"))
	assert.Equal(t, 7, parseCount("seven"))
	assert.Equal(t, 0, parseCount("many"))
}
