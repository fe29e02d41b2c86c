package domain

import "fmt"

// axes are checked in this order, the first one reaching ToWin is reported
var axes = [4][2]int{
	{1, 0},  // vertical
	{0, 1},  // horizontal
	{1, 1},  // diagonal \
	{1, -1}, // diagonal /
}

// WinningLine returns the aligned run of at least ToWin cells through
// (row, col), ordered from one end of the line to the other.
func (b *Board) WinningLine(row, col int) ([]Position, bool, error) {
	if !b.inBounds(row, col) {
		return nil, false, fmt.Errorf("%w: (%d,%d) on a %dx%d board", ErrInvalidCoordinate, row, col, b.rows, b.columns)
	}
	line, ok := b.winningLine(row, col)
	return line, ok, nil
}

func (b *Board) winningLine(row, col int) ([]Position, bool) {
	player := b.grid[row][col].Owner()
	if player == Empty {
		return nil, false
	}

	for _, axis := range axes {
		dRow, dCol := axis[0], axis[1]
		back := b.CountInDirection(row, col, -dRow, -dCol, player)
		forward := b.CountInDirection(row, col, dRow, dCol, player)
		if back+forward+1 < ToWin {
			continue
		}

		line := make([]Position, 0, back+forward+1)
		for i := back; i >= -forward; i-- {
			line = append(line, Position{Row: row - dRow*i, Column: col - dCol*i})
		}
		return line, true
	}

	return nil, false
}

// CountInDirection counts consecutive cells owned by player starting next
// to (row, col) and walking by (deltaRow, deltaCol). Winning highlights
// count for their owner.
func (b *Board) CountInDirection(row, col, deltaRow, deltaCol int, player Cell) int {
	count := 0
	r, c := row+deltaRow, col+deltaCol
	for b.inBounds(r, c) && b.grid[r][c].Owner() == player {
		count++
		r += deltaRow
		c += deltaCol
	}
	return count
}

// MarkWinningLine highlights the winning line ending at the top disk of
// m's column by turning PlayerN cells into WinPlayerN. Cells already
// highlighted are left alone, so calling it twice changes nothing.
func (b *Board) MarkWinningLine(m Move) ([]Position, error) {
	if m.Column < 0 || m.Column >= b.columns {
		return nil, fmt.Errorf("%w: column %d", ErrInvalidCoordinate, m.Column)
	}

	row := b.topRow(m.Column)
	if row < 0 {
		return nil, nil
	}

	line, ok := b.winningLine(row, m.Column)
	if !ok {
		return nil, nil
	}

	for _, p := range line {
		if !b.grid[p.Row][p.Column].IsWinning() {
			b.grid[p.Row][p.Column] += 2
		}
	}
	return line, nil
}
