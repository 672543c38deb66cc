package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"exercises-server/apperrors"
	"exercises-server/auth"
	"exercises-server/game"
	"exercises-server/wsutil"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Client is a middleman between the websocket connection and its game.
// Game and the auth fields are only touched from the ReadPump goroutine
// (and by ServeWS before ReadPump starts).
type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	Send      chan []byte
	SessionID string
	Name      string
	UserID    string
	Game      *game.MemoryGame

	authenticated bool
	stopGame      context.CancelFunc
}

// ReadPump pumps messages from the websocket connection to the game.
// It runs in its own goroutine per connection.
func (c *Client) ReadPump() {
	defer func() {
		c.endGame()
		c.Hub.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("read error", "tag", "ws", "session", c.SessionID, "err", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the send channel to the websocket connection.
// It runs in its own goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	var envelope InboundEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.sendError("Invalid message format.")
		return
	}

	if envelope.Type == TypeAuth {
		c.handleAuth(envelope.Raw)
		return
	}
	if err := c.checkAuthenticated(); err != nil {
		c.sendError("Authenticate first.")
		return
	}

	switch envelope.Type {
	case TypeSelectCard:
		c.handleSelectCard(envelope.Raw)
	case TypeResetGame:
		c.handleResetGame()
	default:
		c.sendError("Unknown message type: " + envelope.Type)
	}
}

// checkAuthenticated returns ErrNotAuthenticated while a required token is missing.
func (c *Client) checkAuthenticated() error {
	if c.Hub.authRequired() && !c.authenticated {
		return apperrors.ErrNotAuthenticated
	}
	return nil
}

func (c *Client) handleAuth(raw json.RawMessage) {
	if !c.Hub.authRequired() {
		c.sendError("Server auth not configured.")
		return
	}
	if c.authenticated {
		c.sendError("Already authenticated.")
		return
	}

	var msg AuthMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Token == "" {
		c.sendError("Invalid auth message.")
		return
	}
	claims, err := c.Hub.Verifier.Validate(msg.Token)
	if err != nil {
		slog.Info("token rejected", "tag", "ws", "session", c.SessionID, "err", err)
		c.sendError("Authentication failed.")
		return
	}

	c.authenticated = true
	c.UserID = auth.UserIDFromClaims(claims)
	c.Name = truncateName(auth.DisplayNameFromClaims(claims), c.Hub.Config.MaxNameLength)
	slog.Info("client authenticated", "tag", "ws", "session", c.SessionID, "user", c.UserID)

	wsutil.SendJSON(c.Send, AuthenticatedMsg{Type: TypeAuthenticated, Name: c.Name, UserID: c.UserID})
	c.startGame()
}

func (c *Client) handleSelectCard(raw json.RawMessage) {
	if c.Game == nil {
		c.sendError("No game in progress.")
		return
	}

	var msg SelectCardMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid select_card message.")
		return
	}

	if err := c.Game.Select(msg.Index); err != nil {
		if errors.Is(err, apperrors.ErrInvalidCardIndex) {
			c.sendError("Card index out of range.")
			return
		}
		c.sendError(err.Error())
	}
}

func (c *Client) handleResetGame() {
	if c.Game == nil {
		c.sendError("No game in progress.")
		return
	}
	c.Game.Reset()
}

// startGame builds a fresh deck and runs a game for this client until it disconnects.
func (c *Client) startGame() {
	if c.Game != nil {
		return
	}
	cfg := c.Hub.Config
	board, err := game.NewBoard(game.NewDeck(cfg.Deck))
	if err != nil {
		slog.Error("cannot build board", "tag", "ws", "session", c.SessionID, "err", err)
		c.sendError("Server deck is misconfigured.")
		return
	}

	view := NewView(c.Send, board, c.SessionID)
	g := game.New(c.SessionID, board, cfg.FlipDurationMS, view)
	view.flipDurationMS = g.FlipDurationMS()

	ctx, cancel := context.WithCancel(context.Background())
	c.Game = g
	c.stopGame = cancel
	go g.Run(ctx)
	slog.Info("game started", "tag", "ws", "session", c.SessionID, "cards", board.Len(), "flip_ms", g.FlipDurationMS())
}

func (c *Client) endGame() {
	if c.stopGame == nil {
		return
	}
	c.stopGame()
	<-c.Game.Done
	c.stopGame = nil
}

func (c *Client) sendError(message string) {
	wsutil.SendJSON(c.Send, ErrorMsg{Type: TypeError, Message: message})
}

func truncateName(name string, limit int) string {
	r := []rune(name)
	if limit > 0 && len(r) > limit {
		return string(r[:limit])
	}
	return name
}
