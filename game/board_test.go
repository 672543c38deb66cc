package game

import (
	"errors"
	"testing"

	"exercises-server/apperrors"
)

func testFaces(n int) []Face {
	names := []string{"Python", "JavaScript", "Java", "CSharp", "Go", "Ruby", "Rust", "Kotlin"}
	faces := make([]Face, n)
	for i := 0; i < n; i++ {
		faces[i] = Face{Name: names[i], Image: "./img/" + names[i] + ".svg"}
	}
	return faces
}

func newTestBoard(t *testing.T, pairs int) *Board {
	t.Helper()
	board, err := NewBoard(NewDeck(testFaces(pairs)))
	if err != nil {
		t.Fatalf("NewBoard: %v", err)
	}
	return board
}

func nameCounts(b *Board) map[string]int {
	counts := make(map[string]int)
	for _, c := range b.Cards() {
		counts[c.Name]++
	}
	return counts
}

func TestCardMatches(t *testing.T) {
	a := NewCard("Go", "go.svg")
	b := NewCard("Go", "other.svg")
	c := NewCard("Ruby", "ruby.svg")

	if !a.Matches(b) || !b.Matches(a) {
		t.Error("cards with the same name should match")
	}
	if a.Matches(c) || c.Matches(a) {
		t.Error("cards with different names should not match")
	}
	if a.Matches(nil) {
		t.Error("a card should not match nil")
	}
}

func TestCardToggleFlipTwiceRestoresState(t *testing.T) {
	c := NewCard("Go", "")
	if c.FaceUp {
		t.Fatal("new card should be face down")
	}
	c.ToggleFlip()
	if !c.FaceUp {
		t.Error("expected card face up after one flip")
	}
	c.ToggleFlip()
	if c.FaceUp {
		t.Error("expected card face down after two flips")
	}
}

func TestNewDeck(t *testing.T) {
	faces := append(testFaces(3), Face{Name: "Java", Image: "dup.svg"})
	cards := NewDeck(faces)

	if len(cards) != 6 {
		t.Fatalf("expected 6 cards, got %d", len(cards))
	}
	counts := make(map[string]int)
	for _, c := range cards {
		counts[c.Name]++
		if c.FaceUp {
			t.Errorf("card %q should start face down", c.Name)
		}
		if c.Name == "Java" && c.Image != "./img/Java.svg" {
			t.Errorf("expected the first Java face to be kept, got image %q", c.Image)
		}
	}
	for name, n := range counts {
		if n != 2 {
			t.Errorf("name %q has %d cards, expected 2", name, n)
		}
	}
}

func TestNewBoardRejectsOddOrEmpty(t *testing.T) {
	if _, err := NewBoard(nil); !errors.Is(err, ErrOddCardCount) {
		t.Errorf("expected ErrOddCardCount for empty board, got %v", err)
	}
	cards := NewDeck(testFaces(2))
	if _, err := NewBoard(cards[:3]); !errors.Is(err, ErrOddCardCount) {
		t.Errorf("expected ErrOddCardCount for 3 cards, got %v", err)
	}
}

func TestShufflePreservesCards(t *testing.T) {
	board := newTestBoard(t, 6)
	before := make(map[*Card]bool)
	for _, c := range board.Cards() {
		before[c] = true
	}

	for i := 0; i < 20; i++ {
		board.Shuffle()
		if board.Len() != 12 {
			t.Fatalf("expected 12 cards after shuffle, got %d", board.Len())
		}
		seen := make(map[*Card]bool)
		for _, c := range board.Cards() {
			if !before[c] {
				t.Fatalf("shuffle introduced an unknown card %q", c.Name)
			}
			if seen[c] {
				t.Fatalf("shuffle duplicated card %q", c.Name)
			}
			seen[c] = true
		}
	}
	for name, n := range nameCounts(board) {
		if n != 2 {
			t.Errorf("after shuffle, %q has %d cards, expected 2", name, n)
		}
	}
}

func TestResetTurnsEverythingDownAndRenders(t *testing.T) {
	board := newTestBoard(t, 3)
	view := &recordingView{}
	board.setRenderer(view)
	for _, c := range board.Cards() {
		c.FaceUp = true
	}

	board.Reset()

	for i, c := range board.Cards() {
		if c.FaceUp {
			t.Errorf("card %d still face up after reset", i)
		}
	}
	renders := view.renders()
	if len(renders) != 1 {
		t.Fatalf("expected 1 render, got %d", len(renders))
	}
	if len(renders[0].Cards) != 6 {
		t.Errorf("expected 6 rendered cards, got %d", len(renders[0].Cards))
	}
}

func TestFlipDownAllCards(t *testing.T) {
	board := newTestBoard(t, 2)
	view := &recordingView{}
	board.setRenderer(view)
	board.Card(0).FaceUp = true
	board.Card(3).FaceUp = true

	board.FlipDownAllCards()

	for i, c := range board.Cards() {
		if c.FaceUp {
			t.Errorf("card %d still face up", i)
		}
	}
	flips := view.flips()
	if len(flips) != 2 {
		t.Fatalf("expected 2 flip notifications, got %d", len(flips))
	}
	if flips[0] != (flipEvent{index: 0, faceUp: false}) || flips[1] != (flipEvent{index: 3, faceUp: false}) {
		t.Errorf("unexpected flips: %+v", flips)
	}
}

func TestClickDispatchesCard(t *testing.T) {
	board := newTestBoard(t, 2)
	var got *Card
	board.OnCardClick(func(c *Card) { got = c })

	if err := board.Click(2); err != nil {
		t.Fatalf("Click: %v", err)
	}
	if got != board.Card(2) {
		t.Error("handler did not receive the clicked card")
	}
	if err := board.Click(4); !errors.Is(err, apperrors.ErrInvalidCardIndex) {
		t.Errorf("expected ErrInvalidCardIndex, got %v", err)
	}
	if err := board.Click(-1); !errors.Is(err, apperrors.ErrInvalidCardIndex) {
		t.Errorf("expected ErrInvalidCardIndex, got %v", err)
	}
}

func TestCalculateColumns(t *testing.T) {
	tests := []struct {
		cards    int
		expected int
	}{
		{2, 2},
		{4, 2},
		{6, 2},
		{8, 4},
		{10, 4},
		{12, 6},
		{16, 8},
		{22, 12},
		{24, 12},
		{40, 12},
	}
	for _, test := range tests {
		if got := CalculateColumns(test.cards); got != test.expected {
			t.Errorf("CalculateColumns(%d) = %d, want %d", test.cards, got, test.expected)
		}
	}

	for n := 0; n <= 60; n++ {
		got := CalculateColumns(n)
		if got%2 != 0 || got < 2 || got > 12 {
			t.Errorf("CalculateColumns(%d) = %d, want an even number in [2, 12]", n, got)
		}
	}
}

func TestBuildBoardViewHidesFaceDownCards(t *testing.T) {
	board := newTestBoard(t, 2)
	board.Card(1).FaceUp = true

	view := BuildBoardView(board)

	if view.Columns != 2 {
		t.Errorf("expected 2 columns, got %d", view.Columns)
	}
	for i, cv := range view.Cards {
		if cv.Index != i {
			t.Errorf("expected index %d, got %d", i, cv.Index)
		}
		if i == 1 {
			if cv.Name != board.Card(1).Name || !cv.FaceUp {
				t.Errorf("face-up card should expose its name, got %+v", cv)
			}
			continue
		}
		if cv.Name != "" || cv.Image != "" {
			t.Errorf("face-down card %d should not expose its identity, got %+v", i, cv)
		}
	}
}
