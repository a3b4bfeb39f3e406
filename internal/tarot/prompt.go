package tarot

import (
	"fmt"
	"strings"

	"github.com/divination-engine/arcana/internal/readings"
)

// PromptCard is one card as it appears in the interpretation prompt.
type PromptCard struct {
	Name     string
	Reversed bool
	Meaning  string
	Position int
}

var spreadDescriptions = map[string]string{
	readings.SpreadOneCard:     "a single card reading for quick insight",
	readings.SpreadThreeCard:   "a three-card spread representing past, present, and future",
	readings.SpreadCelticCross: "a Celtic Cross spread for deep, comprehensive analysis",
}

const outputFormatGuidance = `
Structure your interpretation as follows:
1. Overview (2-3 sentences)
2. Individual card insights (1-2 sentences each)
3. Synthesis and guidance (2-3 sentences)

Keep the total response under 500 words. Be specific and actionable.`

const systemPrompt = "You are a knowledgeable tarot reader providing insightful, reflective interpretations. " +
	"Focus on symbolism and personal growth rather than deterministic predictions."

// BuildPrompt assembles the user prompt for an interpretation request.
func BuildPrompt(spreadType, question, userContext string, cards []PromptCard) (string, error) {
	desc, ok := spreadDescriptions[spreadType]
	if !ok {
		return "", fmt.Errorf("unsupported spread type: %s", spreadType)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an experienced tarot reader providing an interpretation for %s (%s).\n\n", desc, spreadType)
	fmt.Fprintf(&b, "The querent asks: %q", question)

	if userContext != "" {
		fmt.Fprintf(&b, "\n\nAdditional context: %s", userContext)
	}

	b.WriteString("\n\nCards drawn:\n")
	for _, card := range cards {
		orientation := "Upright"
		if card.Reversed {
			orientation = "Reversed"
		}
		fmt.Fprintf(&b, "\nPosition %d: %s (%s)\nMeaning: %s\n", card.Position, card.Name, orientation, card.Meaning)
	}

	b.WriteString("\nProvide a thoughtful, insightful interpretation that connects the cards to the querent's question. ")
	b.WriteString("Be specific about how each card relates to their situation.\n")
	b.WriteString(outputFormatGuidance)

	return b.String(), nil
}
