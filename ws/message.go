package ws

import (
	"encoding/json"

	"exercises-server/game"
)

// InboundEnvelope is the generic envelope for all client-to-server messages.
// The Type field is used for routing; Raw holds the full JSON payload.
type InboundEnvelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON implements custom unmarshaling to capture the raw payload.
func (e *InboundEnvelope) UnmarshalJSON(data []byte) error {
	type typeOnly struct {
		Type string `json:"type"`
	}
	var t typeOnly
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	e.Type = t.Type
	e.Raw = json.RawMessage(data)
	return nil
}

// Inbound message types.
const (
	TypeAuth       = "auth"
	TypeSelectCard = "select_card"
	TypeResetGame  = "reset_game"
)

// Outbound message types.
const (
	TypeAuthenticated = "authenticated"
	TypeBoard         = "board"
	TypeCardFlipped   = "card_flipped"
	TypeGameInfo      = "game_info"
	TypeGameWon       = "game_won"
	TypeWarning       = "warning"
	TypeError         = "error"
)

// --- Client-to-Server message payloads ---

// AuthMsg carries a JWT. It must be the first message when the server requires auth.
type AuthMsg struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// SelectCardMsg picks the card at Index.
type SelectCardMsg struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// --- Server-to-Client messages ---

// ErrorMsg is sent when a client action is invalid.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// AuthenticatedMsg confirms a valid token.
type AuthenticatedMsg struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	UserID string `json:"userId,omitempty"`
}

// BoardMsg redraws the whole board. Sent at the start of every session.
type BoardMsg struct {
	Type           string          `json:"type"`
	SessionID      string          `json:"sessionId"`
	Columns        int             `json:"columns"`
	Cards          []game.CardView `json:"cards"`
	FlipDurationMS int             `json:"flipDurationMs"`
}

// CardFlippedMsg reports a single card turning over.
type CardFlippedMsg struct {
	Type   string `json:"type"`
	Index  int    `json:"index"`
	FaceUp bool   `json:"faceUp"`
	Name   string `json:"name,omitempty"`
	Image  string `json:"image,omitempty"`
}

// GameInfoMsg is the running move count, elapsed time and score.
type GameInfoMsg struct {
	Type string `json:"type"`
	game.Info
}

// GameWonMsg is sent once, when every pair is matched.
type GameWonMsg struct {
	Type             string  `json:"type"`
	TimeTakenSeconds float64 `json:"timeTakenSeconds"`
	Moves            int     `json:"moves"`
	Score            int     `json:"score"`
}

// WarningMsg surfaces a non-fatal problem, such as a clamped flip duration.
type WarningMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
