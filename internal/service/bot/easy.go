package bot

import (
	"math/rand"

	"github.com/conecta4/server/internal/domain"
)

// win if possible, block if needed, otherwise any open column
func calculateEasyMove(board *domain.Board, botPlayer domain.Cell, rng *rand.Rand) int {
	validColumns := board.OpenColumns()

	for _, col := range validColumns {
		if _, _, won, _ := board.Simulate(col, botPlayer); won {
			return col
		}
	}

	opponent := getOpponent(botPlayer)
	for _, col := range validColumns {
		if _, _, won, _ := board.Simulate(col, opponent); won {
			return col
		}
	}

	return validColumns[rng.Intn(len(validColumns))]
}
