package cards

// DeckSize is the number of cards in a full tarot deck.
const DeckSize = 78

// Card matches the cards table schema. IDs run 1..78: the major arcana first,
// then the four suits.
type Card struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Arcana     string `json:"arcana"`
	Suit       string `json:"suit,omitempty"`
	MeaningUp  string `json:"meaning_up"`
	MeaningRev string `json:"meaning_rev"`
}

// DrawnCard is a card placed in a reading, with orientation and position.
type DrawnCard struct {
	CardID   int    `json:"card_id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
	Reversed bool   `json:"reversed"`
}
