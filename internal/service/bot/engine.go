package bot

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/conecta4/server/internal/domain"
)

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

var ErrNoMoves = errors.New("bot: no valid moves")

var names = map[Difficulty]string{
	Easy:   "Alice",
	Medium: "Bob",
	Hard:   "Charles",
}

// Name is the display name used for a bot seat.
func Name(d Difficulty) string {
	if name, ok := names[d]; ok {
		return name
	}
	return "BOT"
}

func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(s); d {
	case Easy, Medium, Hard:
		return d, nil
	}
	return "", fmt.Errorf("unknown bot difficulty %q", s)
}

// Choose picks a column for the player whose turn it is on board. The board
// itself is never modified.
func Choose(board *domain.Board, difficulty Difficulty, rng *rand.Rand) (domain.Move, error) {
	if board.IsTerminal() || len(board.OpenColumns()) == 0 {
		return domain.Move{}, ErrNoMoves
	}

	botPlayer := board.CurrentPlayer()
	var col int
	switch difficulty {
	case Easy:
		col = calculateEasyMove(board, botPlayer, rng)
	case Hard:
		col = calculateMinimaxMove(board, botPlayer)
	default:
		col = calculateMediumMove(board, botPlayer)
	}
	return domain.NewMove(col), nil
}

func getOpponent(p domain.Cell) domain.Cell {
	if p == domain.Player1 {
		return domain.Player2
	}
	return domain.Player1
}
