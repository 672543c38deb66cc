package game

import (
	"errors"
	"math/rand"

	"exercises-server/apperrors"
)

const (
	minColumns = 2
	maxColumns = 12
)

// ErrOddCardCount is returned by NewBoard when the cards cannot all be paired.
var ErrOddCardCount = errors.New("board needs a positive, even number of cards")

// Renderer is the part of the view a Board talks to.
type Renderer interface {
	// RenderBoard draws the whole board in its current order.
	RenderBoard(view BoardView)
	// FlipCard turns the card at index face up or face down.
	FlipCard(index int, faceUp bool)
}

// Board is an ordered set of cards. Its length never changes; only the order does.
type Board struct {
	cards    []*Card
	onClick  func(card *Card)
	renderer Renderer
}

// NewBoard creates a board over the given cards.
func NewBoard(cards []*Card) (*Board, error) {
	if len(cards) == 0 || len(cards)%2 != 0 {
		return nil, ErrOddCardCount
	}
	return &Board{cards: cards}, nil
}

// Len returns the number of cards on the board.
func (b *Board) Len() int {
	return len(b.cards)
}

// Card returns the card at position i, or nil when i is out of range.
func (b *Board) Card(i int) *Card {
	if i < 0 || i >= len(b.cards) {
		return nil
	}
	return b.cards[i]
}

// Cards returns the cards in board order. The slice is a copy; the cards are not.
func (b *Board) Cards() []*Card {
	out := make([]*Card, len(b.cards))
	copy(out, b.cards)
	return out
}

// IndexOf returns the position of card on the board, or -1.
func (b *Board) IndexOf(card *Card) int {
	for i, c := range b.cards {
		if c == card {
			return i
		}
	}
	return -1
}

// Shuffle re-randomizes the card order (Fisher-Yates via rand.Shuffle).
func (b *Board) Shuffle() {
	rand.Shuffle(len(b.cards), func(i, j int) {
		b.cards[i], b.cards[j] = b.cards[j], b.cards[i]
	})
}

// Reset shuffles the board, turns every card face down and renders it again.
func (b *Board) Reset() {
	b.Shuffle()
	for _, c := range b.cards {
		c.FaceUp = false
	}
	b.Render()
}

// FlipDownAllCards turns every face-up card face down.
func (b *Board) FlipDownAllCards() {
	for _, c := range b.cards {
		if c.FaceUp {
			b.flip(c)
		}
	}
}

// OnCardClick registers the handler that receives selected cards.
func (b *Board) OnCardClick(handler func(card *Card)) {
	b.onClick = handler
}

// Click dispatches the card at index to the registered handler.
func (b *Board) Click(index int) error {
	card := b.Card(index)
	if card == nil {
		return apperrors.ErrInvalidCardIndex
	}
	if b.onClick != nil {
		b.onClick(card)
	}
	return nil
}

// Columns returns the grid width used to lay out this board.
func (b *Board) Columns() int {
	return CalculateColumns(len(b.cards))
}

// Render hands the current board to the renderer, if one is attached.
func (b *Board) Render() {
	if b.renderer == nil {
		return
	}
	b.renderer.RenderBoard(BuildBoardView(b))
}

func (b *Board) setRenderer(r Renderer) {
	b.renderer = r
}

// flip toggles card and mirrors the change on the renderer.
func (b *Board) flip(card *Card) {
	card.ToggleFlip()
	if b.renderer != nil {
		b.renderer.FlipCard(b.IndexOf(card), card.FaceUp)
	}
}

// CalculateColumns returns an even column count in [2, 12] for numCards cards:
// half the card count, clamped, then rounded to an even number (11 rounds up).
func CalculateColumns(numCards int) int {
	columns := numCards / 2
	columns = max(minColumns, min(columns, maxColumns))
	if columns%2 != 0 {
		if columns == 11 {
			columns = 12
		} else {
			columns--
		}
	}
	return columns
}
