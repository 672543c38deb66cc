package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"exercises-server/game"
)

const hiddenLabel = "??"

// View draws a MemoryGame as text. Game callbacks and the input loop may write
// concurrently, so every write holds mu.
type View struct {
	mu      sync.Mutex
	w       io.Writer
	board   *game.Board
	columns int
	cards   []game.CardView
	info    game.Info
}

// NewView returns a View writing to w. board is used to reveal faces as cards turn up.
func NewView(w io.Writer, board *game.Board) *View {
	return &View{w: w, board: board}
}

func (v *View) RenderBoard(b game.BoardView) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.columns = b.Columns
	v.cards = append(v.cards[:0], b.Cards...)
	v.draw()
}

func (v *View) FlipCard(index int, faceUp bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if index < 0 || index >= len(v.cards) {
		return
	}
	cv := game.CardView{Index: index, FaceUp: faceUp}
	if card := v.board.Card(index); faceUp && card != nil {
		cv.Name = card.Name
		cv.Image = card.Image
	}
	v.cards[index] = cv
	if faceUp {
		fmt.Fprintf(v.w, "card %d: %s\n", index+1, cv.Name)
		return
	}
	fmt.Fprintf(v.w, "card %d turned back\n", index+1)
}

// UpdateInfo prints the status line when the move count changes. Clock ticks alone
// are not printed.
func (v *View) UpdateInfo(info game.Info) {
	v.mu.Lock()
	defer v.mu.Unlock()
	changed := info.Moves != v.info.Moves
	v.info = info
	if changed {
		v.status()
	}
}

func (v *View) ShowWin(r game.Result) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.draw()
	fmt.Fprintf(v.w, "You won! Time: %.1fs  Moves: %d  Score: %d\n", r.TimeTakenSeconds(), r.Moves, r.Score)
	fmt.Fprintln(v.w, "Type r to play again or q to quit.")
}

func (v *View) Warn(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.w, "warning: %s\n", message)
}

// Println writes a line of input-loop feedback.
func (v *View) Println(a ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.w, a...)
}

func (v *View) draw() {
	var sb strings.Builder
	width := len(hiddenLabel)
	for _, c := range v.cards {
		if len(c.Name) > width {
			width = len(c.Name)
		}
	}
	for i, c := range v.cards {
		label := hiddenLabel
		if c.FaceUp {
			label = c.Name
		}
		fmt.Fprintf(&sb, "%3d %-*s", i+1, width+1, label)
		if v.columns > 0 && (i+1)%v.columns == 0 {
			sb.WriteString("\n")
		}
	}
	if v.columns <= 0 || len(v.cards)%v.columns != 0 {
		sb.WriteString("\n")
	}
	io.WriteString(v.w, strings.TrimRight(sb.String(), " "))
	v.status()
}

func (v *View) status() {
	fmt.Fprintf(v.w, "Moves: %d  Time: %ds  Score: %d\n", v.info.Moves, v.info.ElapsedSeconds, v.info.Score)
}
