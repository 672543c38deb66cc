package ws

import (
	"exercises-server/game"
	"exercises-server/wsutil"
)

// View renders a MemoryGame as JSON messages on a client's send channel.
// Its methods are called from the game loop.
type View struct {
	send           chan []byte
	board          *game.Board
	sessionID      string
	flipDurationMS int
}

// NewView returns a View that writes to send. board is used to reveal the
// face of a card when it turns up.
func NewView(send chan []byte, board *game.Board, sessionID string) *View {
	return &View{send: send, board: board, sessionID: sessionID}
}

func (v *View) RenderBoard(b game.BoardView) {
	wsutil.SendJSON(v.send, BoardMsg{
		Type:           TypeBoard,
		SessionID:      v.sessionID,
		Columns:        b.Columns,
		Cards:          b.Cards,
		FlipDurationMS: v.flipDurationMS,
	})
}

func (v *View) FlipCard(index int, faceUp bool) {
	msg := CardFlippedMsg{Type: TypeCardFlipped, Index: index, FaceUp: faceUp}
	if faceUp {
		if card := v.board.Card(index); card != nil {
			msg.Name = card.Name
			msg.Image = card.Image
		}
	}
	wsutil.SendJSON(v.send, msg)
}

func (v *View) UpdateInfo(info game.Info) {
	wsutil.SendJSON(v.send, GameInfoMsg{Type: TypeGameInfo, Info: info})
}

func (v *View) ShowWin(r game.Result) {
	wsutil.SendJSON(v.send, GameWonMsg{
		Type:             TypeGameWon,
		TimeTakenSeconds: r.TimeTakenSeconds(),
		Moves:            r.Moves,
		Score:            r.Score,
	})
}

func (v *View) Warn(message string) {
	wsutil.SendJSON(v.send, WarningMsg{Type: TypeWarning, Message: message})
}
