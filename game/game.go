package game

import (
	"context"
	"log/slog"
	"time"

	"exercises-server/apperrors"
)

// Phase is the sub-state of the current turn.
type Phase int

const (
	WaitingForFirstPick Phase = iota
	WaitingForSecondPick
	Resolving
	Won
)

// String returns the protocol string for a Phase.
func (p Phase) String() string {
	switch p {
	case WaitingForFirstPick:
		return "first_pick"
	case WaitingForSecondPick:
		return "second_pick"
	case Resolving:
		return "resolving"
	case Won:
		return "won"
	default:
		return "unknown"
	}
}

// ActionType enumerates the kinds of actions a game can process.
type ActionType int

const (
	ActionSelect ActionType = iota
	ActionReset
	ActionSnapshot

	// Internal actions, sent by the game's own timers.
	ActionResolvePair
	ActionFlipBack
	ActionTick
)

// Action is sent into the game's action channel.
type Action struct {
	Type  ActionType
	Index int // card index (for Select)

	session uint64        // session the timer was started in; stale timers are dropped
	reply   chan Snapshot // for Snapshot
}

// View is everything the game needs from its presentation layer.
type View interface {
	Renderer
	// UpdateInfo refreshes the move count, elapsed time and score.
	UpdateInfo(info Info)
	// ShowWin announces the final result.
	ShowWin(result Result)
	// Warn surfaces a non-fatal problem to the user.
	Warn(message string)
}

// MemoryGame runs single-player sessions over a Board. All state changes happen on
// the goroutine running Run; everything else talks to it through Actions.
type MemoryGame struct {
	ID             string
	board          *Board
	view           View
	flipDurationMS int
	flipDuration   time.Duration
	warning        string

	flipped   []*Card
	matched   map[*Card]struct{}
	moves     int
	startTime time.Time
	endTime   time.Time
	session   uint64

	clockCancel  chan struct{}
	tickInterval time.Duration

	now   func() time.Time
	after func(d time.Duration, a Action)

	Actions chan Action
	Done    chan struct{}
}

// New creates a game over board. A flip duration outside [350, 3000] ms is replaced
// by 350 ms and the view is warned when the game starts.
func New(id string, board *Board, flipDurationMS int, view View) *MemoryGame {
	if view == nil {
		view = nopView{}
	}
	ms, ok := ClampFlipDuration(flipDurationMS)
	g := &MemoryGame{
		ID:             id,
		board:          board,
		view:           view,
		flipDurationMS: ms,
		flipDuration:   time.Duration(ms) * time.Millisecond,
		flipped:        make([]*Card, 0, 2),
		matched:        make(map[*Card]struct{}),
		tickInterval:   time.Second,
		now:            time.Now,
		Actions:        make(chan Action, 16),
		Done:           make(chan struct{}),
	}
	if !ok {
		g.warning = flipDurationWarning
		slog.Warn("invalid flip duration, clamped", "tag", "game", "game", id, "requested_ms", flipDurationMS, "using_ms", ms)
	}
	g.after = g.sendAfter
	board.setRenderer(view)
	board.OnCardClick(g.handleCardClick)
	return g
}

// FlipDurationMS returns the effective flip duration.
func (g *MemoryGame) FlipDurationMS() int {
	return g.flipDurationMS
}

// Run starts the first session and processes actions until ctx is cancelled.
func (g *MemoryGame) Run(ctx context.Context) {
	defer close(g.Done)
	defer g.stopClock()

	if g.warning != "" {
		g.view.Warn(g.warning)
	}
	g.startSession()

	for {
		select {
		case <-ctx.Done():
			return
		case action := <-g.Actions:
			g.handle(action)
		}
	}
}

// Select asks the game to pick the card at index.
func (g *MemoryGame) Select(index int) error {
	if index < 0 || index >= g.board.Len() {
		return apperrors.ErrInvalidCardIndex
	}
	g.send(Action{Type: ActionSelect, Index: index})
	return nil
}

// Reset asks the game to start a fresh session.
func (g *MemoryGame) Reset() {
	g.send(Action{Type: ActionReset})
}

// Snapshot returns the current session state. ok is false once the game has stopped.
func (g *MemoryGame) Snapshot() (snap Snapshot, ok bool) {
	reply := make(chan Snapshot, 1)
	select {
	case g.Actions <- Action{Type: ActionSnapshot, reply: reply}:
	case <-g.Done:
		return Snapshot{}, false
	}
	select {
	case snap = <-reply:
		return snap, true
	case <-g.Done:
		return Snapshot{}, false
	}
}

func (g *MemoryGame) send(a Action) {
	select {
	case g.Actions <- a:
	case <-g.Done:
	}
}

func (g *MemoryGame) handle(action Action) {
	switch action.Type {
	case ActionSelect:
		if err := g.board.Click(action.Index); err != nil {
			slog.Debug("ignoring selection", "tag", "game", "game", g.ID, "index", action.Index, "err", err)
		}
	case ActionReset:
		g.resetGame()
	case ActionSnapshot:
		action.reply <- g.snapshot()
	case ActionResolvePair:
		if action.session == g.session {
			g.checkForMatch()
		}
	case ActionFlipBack:
		if action.session == g.session {
			g.flipBack()
		}
	case ActionTick:
		if action.session == g.session && !g.won() {
			g.updateGameInfo()
		}
	}
}

// phase derives the turn sub-state from the flipped and matched cards.
func (g *MemoryGame) phase() Phase {
	if g.won() {
		return Won
	}
	switch len(g.flipped) {
	case 0:
		return WaitingForFirstPick
	case 1:
		return WaitingForSecondPick
	default:
		return Resolving
	}
}

func (g *MemoryGame) won() bool {
	return len(g.matched) == g.board.Len()
}

func (g *MemoryGame) isMatched(card *Card) bool {
	_, ok := g.matched[card]
	return ok
}

// startSession begins a session: shuffled face-down board, nothing matched,
// zero moves and a running clock.
func (g *MemoryGame) startSession() {
	g.session++
	g.flipped = g.flipped[:0]
	g.matched = make(map[*Card]struct{})
	g.moves = 0
	g.endTime = time.Time{}
	g.board.Reset()
	g.startTime = g.now()
	g.startClock()
	g.updateGameInfo()
	slog.Info("session started", "tag", "game", "game", g.ID, "session", g.session, "cards", g.board.Len(), "flip_ms", g.flipDurationMS)
}

func (g *MemoryGame) resetGame() {
	g.stopClock()
	g.board.FlipDownAllCards()
	g.startSession()
}

func (g *MemoryGame) handleCardClick(card *Card) {
	if len(g.flipped) >= 2 || card.FaceUp || g.isMatched(card) {
		return
	}
	g.board.flip(card)
	g.flipped = append(g.flipped, card)

	if len(g.flipped) == 2 {
		g.schedule(ActionResolvePair)
	}
}

// checkForMatch compares the two flipped cards. Each comparison counts as one move.
func (g *MemoryGame) checkForMatch() {
	if len(g.flipped) != 2 {
		return
	}
	first, second := g.flipped[0], g.flipped[1]
	g.moves++

	if !first.Matches(second) {
		g.updateGameInfo()
		g.schedule(ActionFlipBack)
		return
	}

	g.matched[first] = struct{}{}
	g.matched[second] = struct{}{}
	g.flipped = g.flipped[:0]

	if g.won() {
		g.finish()
		return
	}
	g.updateGameInfo()
}

func (g *MemoryGame) flipBack() {
	for _, card := range g.flipped {
		if card.FaceUp {
			g.board.flip(card)
		}
	}
	g.flipped = g.flipped[:0]
}

func (g *MemoryGame) finish() {
	g.stopClock()
	g.endTime = g.now()
	taken := g.endTime.Sub(g.startTime)
	seconds := int(taken / time.Second)
	score := CalculateScore(seconds, g.moves)

	g.view.UpdateInfo(Info{Moves: g.moves, ElapsedSeconds: seconds, Score: score})
	g.view.ShowWin(Result{TimeTaken: taken, Moves: g.moves, Score: score})
	slog.Info("game won", "tag", "game", "game", g.ID, "session", g.session, "seconds", seconds, "moves", g.moves, "score", score)
}

// elapsedSeconds is measured up to the win, or up to now while the clock runs.
func (g *MemoryGame) elapsedSeconds() int {
	end := g.endTime
	if end.IsZero() {
		end = g.now()
	}
	return int(end.Sub(g.startTime) / time.Second)
}

func (g *MemoryGame) updateGameInfo() {
	elapsed := g.elapsedSeconds()
	g.view.UpdateInfo(Info{
		Moves:          g.moves,
		ElapsedSeconds: elapsed,
		Score:          CalculateScore(elapsed, g.moves),
	})
}

func (g *MemoryGame) snapshot() Snapshot {
	flipped := make([]int, 0, len(g.flipped))
	for _, card := range g.flipped {
		flipped = append(flipped, g.board.IndexOf(card))
	}
	end := g.endTime
	if end.IsZero() {
		end = g.now()
	}
	elapsed := end.Sub(g.startTime)
	return Snapshot{
		SessionID:      g.session,
		Phase:          g.phase(),
		FlippedIndices: flipped,
		MatchedCount:   len(g.matched),
		TotalCards:     g.board.Len(),
		Moves:          g.moves,
		Elapsed:        elapsed,
		Score:          CalculateScore(int(elapsed/time.Second), g.moves),
		FlipDurationMS: g.flipDurationMS,
		ClockRunning:   g.clockCancel != nil,
	}
}

// schedule fires an internal action of type t after the flip duration, tagged with
// the current session so a reset in between discards it.
func (g *MemoryGame) schedule(t ActionType) {
	g.after(g.flipDuration, Action{Type: t, session: g.session})
}

func (g *MemoryGame) sendAfter(d time.Duration, a Action) {
	go func() {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			select {
			case g.Actions <- a:
			case <-g.Done:
			}
		case <-g.Done:
		}
	}()
}

// startClock starts the periodic display tick. Cancels any running clock first.
func (g *MemoryGame) startClock() {
	g.stopClock()
	cancel := make(chan struct{})
	g.clockCancel = cancel
	session := g.session
	interval := g.tickInterval
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case g.Actions <- Action{Type: ActionTick, session: session}:
				case <-cancel:
					return
				case <-g.Done:
					return
				}
			case <-cancel:
				return
			case <-g.Done:
				return
			}
		}
	}()
}

// stopClock closes the clock cancel channel so the ticker goroutine exits. Safe if already stopped.
func (g *MemoryGame) stopClock() {
	if g.clockCancel != nil {
		close(g.clockCancel)
		g.clockCancel = nil
	}
}

type nopView struct{}

func (nopView) RenderBoard(BoardView) {}
func (nopView) FlipCard(int, bool)    {}
func (nopView) UpdateInfo(Info)       {}
func (nopView) ShowWin(Result)        {}
func (nopView) Warn(string)           {}
