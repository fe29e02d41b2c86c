package bot

import (
	"math"

	"github.com/conecta4/server/internal/domain"
)

const (
	MINIMAX_DEPTH       = 6
	MINIMAX_DEPTH_WIDE  = 4 // boards with more than 7 columns
	MINIMAX_WIN         = 1000000
	MINIMAX_LOSS        = -1000000
	POSITION_WEIGHT     = 10
	TWO_IN_ROW_WEIGHT   = 50
	THREE_IN_ROW_WEIGHT = 500
)

func searchDepth(board *domain.Board) int {
	if board.Columns() > 7 {
		return MINIMAX_DEPTH_WIDE
	}
	return MINIMAX_DEPTH
}

// calculateMinimaxMove implements hard difficulty using Minimax with alpha-beta pruning
func calculateMinimaxMove(board *domain.Board, botPlayer domain.Cell) int {
	validColumns := orderByCenter(board.OpenColumns(), board.Columns())
	opponent := getOpponent(botPlayer)
	depth := searchDepth(board)

	bestCol := validColumns[0]
	bestScore := math.MinInt32
	alpha := math.MinInt32
	beta := math.MaxInt32

	for _, col := range validColumns {
		testBoard, _, won, _ := board.Simulate(col, botPlayer)
		if won {
			return col
		}

		score := minimax(testBoard, depth-1, depth, alpha, beta, false, botPlayer, opponent)
		if score > bestScore {
			bestScore = score
			bestCol = col
		}
		alpha = max(alpha, bestScore)
	}

	return bestCol
}

func minimax(board *domain.Board, depth, maxDepth, alpha, beta int, isMaximizing bool, botPlayer, opponent domain.Cell) int {
	validColumns := orderByCenter(board.OpenColumns(), board.Columns())

	if depth == 0 || len(validColumns) == 0 {
		return evaluateBoard(board, botPlayer, opponent)
	}

	if isMaximizing {
		maxEval := math.MinInt32
		for _, col := range validColumns {
			testBoard, _, won, _ := board.Simulate(col, botPlayer)
			if won {
				return MINIMAX_WIN - (maxDepth - depth) // Prefer quicker wins
			}

			eval := minimax(testBoard, depth-1, maxDepth, alpha, beta, false, botPlayer, opponent)
			maxEval = max(maxEval, eval)
			alpha = max(alpha, eval)
			if beta <= alpha {
				break
			}
		}
		return maxEval
	}

	minEval := math.MaxInt32
	for _, col := range validColumns {
		testBoard, _, won, _ := board.Simulate(col, opponent)
		if won {
			return MINIMAX_LOSS + (maxDepth - depth) // Prefer delaying losses
		}

		eval := minimax(testBoard, depth-1, maxDepth, alpha, beta, true, botPlayer, opponent)
		minEval = min(minEval, eval)
		beta = min(beta, eval)
		if beta <= alpha {
			break
		}
	}
	return minEval
}

// central columns first prunes far more branches
func orderByCenter(cols []int, columns int) []int {
	ordered := make([]int, len(cols))
	copy(ordered, cols)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && distanceFromCenter(columns, ordered[j]) < distanceFromCenter(columns, ordered[j-1]); j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}
	return ordered
}
