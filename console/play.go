package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"exercises-server/game"
)

// Play runs an interactive game on in/out until the player quits, in reaches EOF,
// or ctx is cancelled. Cards are chosen by their 1-based number; r resets, q quits.
func Play(ctx context.Context, in io.Reader, out io.Writer, faces []game.Face, flipDurationMS int) error {
	board, err := game.NewBoard(game.NewDeck(faces))
	if err != nil {
		return fmt.Errorf("building board: %w", err)
	}
	view := NewView(out, board)
	g := game.New(uuid.NewString(), board, flipDurationMS, view)

	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		<-g.Done
	}()
	go g.Run(ctx)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			slog.Warn("reading input", "tag", "console", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := handleLine(g, view, line); quit {
				return nil
			}
		}
	}
}

func handleLine(g *game.MemoryGame, view *View, line string) (quit bool) {
	cmd := strings.ToLower(strings.TrimSpace(line))
	switch cmd {
	case "":
		return false
	case "q", "quit":
		return true
	case "r", "reset":
		g.Reset()
		return false
	}

	n, err := strconv.Atoi(cmd)
	if err != nil {
		view.Println("enter a card number, r to reset or q to quit")
		return false
	}
	if err := g.Select(n - 1); err != nil {
		view.Println(fmt.Sprintf("no card %d on the board", n))
	}
	return false
}
