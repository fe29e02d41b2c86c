package bot

import (
	"github.com/conecta4/server/internal/domain"
)

const (
	// Score priorities (from highest to lowest)
	SCORE_WIN_NOW           = 100000 // Bot can win immediately
	SCORE_BLOCK_WIN         = 10000  // Block opponent's immediate win
	SCORE_CREATE_WIN_THREAT = 8000   // Create a position where bot can win next move
	SCORE_BLOCK_WIN_THREAT  = 5000   // Block opponent's potential win setup
	SCORE_THREE_IN_ROW      = 400    // Bot has 3 in a row (good threat)
	SCORE_TWO_IN_ROW        = 100    // Bot has 2 in a row
	SCORE_SINGLE            = 25
	SCORE_CENTER            = 30 // Center column bonus
	SCORE_NEAR_CENTER       = 20 // Near center bonus
	SCORE_EDGE              = 5  // Two columns away from the center
)

var directions = [4][2]int{
	{0, 1},  // horizontal
	{1, 0},  // vertical
	{1, 1},  // diagonal \
	{1, -1}, // diagonal /
}

// evaluateBoard calculates a heuristic score for the current board position
func evaluateBoard(board *domain.Board, botPlayer, opponent domain.Cell) int {
	score := 0
	grid := board.Grid()

	for row := range grid {
		for col, cell := range grid[row] {
			switch cell.Owner() {
			case botPlayer:
				score += evaluatePosition(board, grid, row, col, botPlayer)
			case opponent:
				score -= evaluatePosition(board, grid, row, col, opponent)
			}
		}
	}

	// Center column preference
	centerCol := board.Columns() / 2
	for row := range grid {
		switch grid[row][centerCol].Owner() {
		case botPlayer:
			score += POSITION_WEIGHT * 2
		case opponent:
			score -= POSITION_WEIGHT * 2
		}
	}

	return score
}

// evaluatePosition evaluates a single position's contribution to the score
func evaluatePosition(board *domain.Board, grid [][]domain.Cell, row, col int, player domain.Cell) int {
	score := POSITION_WEIGHT

	for _, dir := range directions {
		dRow, dCol := dir[0], dir[1]

		posCount := board.CountInDirection(row, col, dRow, dCol, player)
		negCount := board.CountInDirection(row, col, -dRow, -dCol, player)
		total := posCount + negCount + 1

		if !checkSpaceForExtension(grid, row, col, dRow, dCol, posCount, negCount) {
			continue
		}
		if total >= 3 {
			score += THREE_IN_ROW_WEIGHT
		} else if total == 2 {
			score += TWO_IN_ROW_WEIGHT
		}
	}

	return score
}

// Evaluate threats (3-in-a-row, 2-in-a-row) created by the disk at (row, col)
func evaluateThreats(board *domain.Board, row, col int, player domain.Cell) int {
	score := 0
	grid := board.Grid()

	for _, dir := range directions {
		dRow, dCol := dir[0], dir[1]

		posCount := board.CountInDirection(row, col, dRow, dCol, player)
		negCount := board.CountInDirection(row, col, -dRow, -dCol, player)
		total := posCount + negCount

		// No point in counting if we can't extend
		if !checkSpaceForExtension(grid, row, col, dRow, dCol, posCount, negCount) {
			continue
		}

		if total >= 2 {
			score += SCORE_THREE_IN_ROW
		} else if total == 1 {
			score += SCORE_TWO_IN_ROW
		} else {
			score += SCORE_SINGLE
		}
	}

	return score
}

// evaluateWinningThreat scores how many unblockable winning moves player has
func evaluateWinningThreat(board *domain.Board, player, opponent domain.Cell) int {
	winningMoves := []int{}
	for _, col := range board.OpenColumns() {
		if _, _, won, _ := board.Simulate(col, player); won {
			winningMoves = append(winningMoves, col)
		}
	}

	// opponent can only block one of them
	if len(winningMoves) >= 2 {
		return SCORE_CREATE_WIN_THREAT
	}

	if len(winningMoves) == 1 {
		blockBoard, _, _, _ := board.Simulate(winningMoves[0], opponent)

		for _, nextCol := range blockBoard.OpenColumns() {
			if _, _, won, _ := blockBoard.Simulate(nextCol, player); won {
				return SCORE_CREATE_WIN_THREAT / 2
			}
		}
		return SCORE_CREATE_WIN_THREAT / 4
	}

	return 0
}

// checkSpaceForExtension reports whether either end of the run can still
// receive a disk
func checkSpaceForExtension(grid [][]domain.Cell, row, col, dRow, dCol, posCount, negCount int) bool {
	posRow := row + dRow*(posCount+1)
	posCol := col + dCol*(posCount+1)
	if isInBounds(grid, posRow, posCol) && grid[posRow][posCol] == domain.Empty && isPlayableSpace(grid, posRow, posCol) {
		return true
	}

	negRow := row - dRow*(negCount+1)
	negCol := col - dCol*(negCount+1)
	if isInBounds(grid, negRow, negCol) && grid[negRow][negCol] == domain.Empty && isPlayableSpace(grid, negRow, negCol) {
		return true
	}

	return false
}

// a space is playable when it is on the bottom row or sits on a disk
func isPlayableSpace(grid [][]domain.Cell, row, col int) bool {
	if row == len(grid)-1 {
		return true
	}
	return grid[row+1][col] != domain.Empty
}

func isInBounds(grid [][]domain.Cell, row, col int) bool {
	return row >= 0 && row < len(grid) && col >= 0 && col < len(grid[row])
}
