package bot

import (
	"github.com/conecta4/server/internal/domain"
)

type simulation struct {
	board *domain.Board
	row   int
	won   bool
}

func calculateMediumMove(board *domain.Board, botPlayer domain.Cell) int {
	validColumns := board.OpenColumns()
	opponent := getOpponent(botPlayer)

	scores := make(map[int]int, len(validColumns))
	botSimulations := make(map[int]simulation, len(validColumns))
	oppSimulations := make(map[int]simulation, len(validColumns))

	for _, col := range validColumns {
		scores[col] = 0

		b, row, won, _ := board.Simulate(col, botPlayer)
		botSimulations[col] = simulation{b, row, won}

		b, row, won, _ = board.Simulate(col, opponent)
		oppSimulations[col] = simulation{b, row, won}
	}

	currentOpponentThreat := evaluateWinningThreat(board, opponent, botPlayer)

	for _, col := range validColumns {
		botSim := botSimulations[col]
		oppSim := oppSimulations[col]

		// immediate wins first, then blocks
		if botSim.won {
			scores[col] += SCORE_WIN_NOW
		}
		if oppSim.won {
			scores[col] += SCORE_BLOCK_WIN
		}

		scores[col] += evaluateWinningThreat(botSim.board, botPlayer, opponent)

		if evaluateWinningThreat(botSim.board, opponent, botPlayer) < currentOpponentThreat {
			scores[col] += SCORE_BLOCK_WIN_THREAT
		}

		// dropping here must not hand the opponent the cell right above
		if !botSim.won && !oppSim.won {
			if _, _, oppWins, ok := botSim.board.Simulate(col, opponent); ok && oppWins {
				scores[col] -= SCORE_BLOCK_WIN
			}
		}

		scores[col] += evaluateThreats(botSim.board, botSim.row, col, botPlayer)
		scores[col] += evaluateThreats(oppSim.board, oppSim.row, col, opponent) / 2
		scores[col] += centerBonus(board.Columns(), col)
	}

	return findBestColumn(scores, board.Columns())
}

func centerBonus(columns, col int) int {
	switch distanceFromCenter(columns, col) {
	case 0:
		return SCORE_CENTER
	case 1:
		return SCORE_NEAR_CENTER
	case 2:
		return SCORE_EDGE
	}
	return 0
}

func distanceFromCenter(columns, col int) int {
	d := col - columns/2
	if d < 0 {
		return -d
	}
	return d
}

// Find the column with the highest score, ties go to the one nearer the center
func findBestColumn(scores map[int]int, columns int) int {
	bestColumn := -1
	maxScore := 0

	for col := 0; col < columns; col++ {
		score, exists := scores[col]
		if !exists {
			continue
		}

		if bestColumn < 0 || score > maxScore {
			maxScore = score
			bestColumn = col
		} else if score == maxScore && distanceFromCenter(columns, col) < distanceFromCenter(columns, bestColumn) {
			bestColumn = col
		}
	}

	return bestColumn
}
