package game

// Card is a single matchable tile. Two cards match when their names are equal.
type Card struct {
	Name   string
	Image  string
	FaceUp bool
}

// NewCard returns a face-down card.
func NewCard(name, image string) *Card {
	return &Card{Name: name, Image: image}
}

// ToggleFlip turns the card over. It does not check whether the card was already
// matched; callers must not put a matched card back into play.
func (c *Card) ToggleFlip() {
	c.FaceUp = !c.FaceUp
}

// Matches reports whether both cards carry the same name.
func (c *Card) Matches(other *Card) bool {
	return other != nil && c.Name == other.Name
}

// Face describes one distinct card design in a deck.
type Face struct {
	Name  string `json:"name" mapstructure:"name" validate:"required"`
	Image string `json:"image" mapstructure:"image"`
}

// NewDeck creates two face-down cards for every distinct face, in order.
// Faces repeating an earlier name are skipped so every name forms exactly one pair.
func NewDeck(faces []Face) []*Card {
	seen := make(map[string]struct{}, len(faces))
	cards := make([]*Card, 0, 2*len(faces))
	for _, f := range faces {
		if _, dup := seen[f.Name]; dup {
			continue
		}
		seen[f.Name] = struct{}{}
		cards = append(cards, NewCard(f.Name, f.Image), NewCard(f.Name, f.Image))
	}
	return cards
}
