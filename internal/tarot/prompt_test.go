package tarot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divination-engine/arcana/internal/readings"
)

func TestBuildPrompt_ThreeCard(t *testing.T) {
	cards := []PromptCard{
		{Name: "The Fool", Position: 1, Meaning: "New beginnings, spontaneity, a leap of faith"},
		{Name: "Death", Position: 2, Reversed: true, Meaning: "Resistance to change, stagnation, fear of endings"},
		{Name: "The Sun", Position: 3, Meaning: "Joy, success, vitality"},
	}

	prompt, err := BuildPrompt(readings.SpreadThreeCard, "Should I change careers?", "", cards)
	require.NoError(t, err)

	assert.Contains(t, prompt, "past, present, and future")
	assert.Contains(t, prompt, `"Should I change careers?"`)
	assert.Contains(t, prompt, "Position 1: The Fool (Upright)")
	assert.Contains(t, prompt, "Position 2: Death (Reversed)")
	assert.Contains(t, prompt, "Resistance to change")
	assert.Contains(t, prompt, "under 500 words")
	assert.NotContains(t, prompt, "Additional context")
}

func TestBuildPrompt_WithUserContext(t *testing.T) {
	cards := []PromptCard{{Name: "The Star", Position: 1, Meaning: "Hope, renewal, inspiration"}}

	prompt, err := BuildPrompt(readings.SpreadOneCard, "What should I focus on?", "I recently moved to a new city", cards)
	require.NoError(t, err)

	assert.Contains(t, prompt, "single card reading")
	assert.Contains(t, prompt, "Additional context: I recently moved to a new city")
}

func TestBuildPrompt_CelticCross(t *testing.T) {
	cards := make([]PromptCard, 10)
	for i := range cards {
		cards[i] = PromptCard{Name: "The Fool", Position: i + 1, Meaning: "New beginnings"}
	}

	prompt, err := BuildPrompt(readings.SpreadCelticCross, "A question", "", cards)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Celtic Cross")
	assert.Contains(t, prompt, "Position 10:")
}

func TestBuildPrompt_UnsupportedSpread(t *testing.T) {
	_, err := BuildPrompt("five-card", "A question", "", nil)
	assert.ErrorContains(t, err, "unsupported spread type")
}
