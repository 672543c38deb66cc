package game

import "time"

// CardView is the client-facing representation of a card.
// Name and Image are only included while the card is face up.
type CardView struct {
	Index  int    `json:"index"`
	FaceUp bool   `json:"faceUp"`
	Name   string `json:"name,omitempty"`
	Image  string `json:"image,omitempty"`
}

// BoardView is what a renderer needs to draw the board.
type BoardView struct {
	Columns int        `json:"columns"`
	Cards   []CardView `json:"cards"`
}

// Info is the running display of a session.
type Info struct {
	Moves          int `json:"moves"`
	ElapsedSeconds int `json:"elapsedSeconds"`
	Score          int `json:"score"`
}

// Result is reported once, when the last pair is matched.
type Result struct {
	TimeTaken time.Duration `json:"-"`
	Moves     int           `json:"moves"`
	Score     int           `json:"score"`
}

// TimeTakenSeconds returns the session length with sub-second precision.
func (r Result) TimeTakenSeconds() float64 {
	return r.TimeTaken.Seconds()
}

// Snapshot is a consistent copy of a session's state, taken on the game loop.
type Snapshot struct {
	SessionID      uint64
	Phase          Phase
	FlippedIndices []int
	MatchedCount   int
	TotalCards     int
	Moves          int
	Elapsed        time.Duration
	Score          int
	FlipDurationMS int
	ClockRunning   bool
}

// BuildBoardView constructs the client-facing card list.
// Face-down cards do not expose their name or image.
func BuildBoardView(b *Board) BoardView {
	views := make([]CardView, len(b.cards))
	for i, card := range b.cards {
		cv := CardView{Index: i, FaceUp: card.FaceUp}
		if card.FaceUp {
			cv.Name = card.Name
			cv.Image = card.Image
		}
		views[i] = cv
	}
	return BoardView{Columns: b.Columns(), Cards: views}
}
