package domain

import (
	"fmt"
	"strings"
)

// Board is a Connect-Four grid together with the state of the round
// being played on it. A Board is not safe for concurrent use.
type Board struct {
	numPlayers int
	turn       int
	status     Status
	moveCount  int
	rows       int
	columns    int
	lastMove   *Move
	grid       [][]Cell
}

func NewBoard(rows, columns int) (*Board, error) {
	if err := ValidateDimensions(rows, columns); err != nil {
		return nil, err
	}

	return &Board{
		numPlayers: NumPlayers,
		status:     StatusInProgress,
		rows:       rows,
		columns:    columns,
		grid:       newGrid(rows, columns),
	}, nil
}

// ValidateDimensions checks rows and columns against the engine limits.
func ValidateDimensions(rows, columns int) error {
	if rows < MinRows || rows > MaxRows || columns < MinColumns || columns > MaxColumns {
		return fmt.Errorf("%w: %dx%d (allowed %d-%d rows, %d-%d columns)",
			ErrInvalidDimensions, rows, columns, MinRows, MaxRows, MinColumns, MaxColumns)
	}
	return nil
}

func newGrid(rows, columns int) [][]Cell {
	grid := make([][]Cell, rows)
	for i := range grid {
		grid[i] = make([]Cell, columns)
	}
	return grid
}

func (b *Board) Rows() int       { return b.rows }
func (b *Board) Columns() int    { return b.columns }
func (b *Board) Turn() int       { return b.turn }
func (b *Board) Status() Status  { return b.status }
func (b *Board) MoveCount() int  { return b.moveCount }
func (b *Board) NumPlayers() int { return b.numPlayers }

func (b *Board) IsTerminal() bool {
	return b.status.IsTerminal()
}

// LastMove returns the most recent move, ok is false before the first one.
func (b *Board) LastMove() (Move, bool) {
	if b.lastMove == nil {
		return Move{}, false
	}
	return *b.lastMove, true
}

// CurrentPlayer is the mark the player to move drops.
func (b *Board) CurrentPlayer() Cell {
	return Cell(b.turn + 1)
}

func (b *Board) inBounds(row, col int) bool {
	return row >= 0 && row < b.rows && col >= 0 && col < b.columns
}

// Cell returns the value stored at (row, col).
func (b *Board) Cell(row, col int) (Cell, error) {
	if !b.inBounds(row, col) {
		return Empty, fmt.Errorf("%w: (%d,%d) on a %dx%d board", ErrInvalidCoordinate, row, col, b.rows, b.columns)
	}
	return b.grid[row][col], nil
}

// Grid returns a deep copy of the cells.
func (b *Board) Grid() [][]Cell {
	grid := make([][]Cell, len(b.grid))
	for i := range b.grid {
		grid[i] = make([]Cell, len(b.grid[i]))
		copy(grid[i], b.grid[i])
	}
	return grid
}

// Clone returns an independent copy, used by the bots to simulate moves.
func (b *Board) Clone() *Board {
	c := *b
	c.grid = b.Grid()
	if b.lastMove != nil {
		m := *b.lastMove
		c.lastMove = &m
	}
	return &c
}

// IsValidMove only looks at the top cell: gravity guarantees room below
// whenever row 0 of the column is empty.
func (b *Board) IsValidMove(m Move) bool {
	if b.IsTerminal() {
		return false
	}
	if m.Column < 0 || m.Column >= b.columns {
		return false
	}
	return b.grid[0][m.Column] == Empty
}

func (b *Board) ValidMoves() []Move {
	moves := []Move{}
	if b.IsTerminal() {
		return moves
	}
	for c := 0; c < b.columns; c++ {
		if b.grid[0][c] == Empty {
			moves = append(moves, Move{Column: c})
		}
	}
	return moves
}

// IsDraw reports whether no column has room left.
func (b *Board) IsDraw() bool {
	for c := 0; c < b.columns; c++ {
		if b.grid[0][c] == Empty {
			return false
		}
	}
	return true
}

func (b *Board) ApplyMove(m Move) (MoveResult, error) {
	if b.IsTerminal() {
		return MoveResult{}, fmt.Errorf("%w (status %s)", ErrGameOver, b.status)
	}
	if !b.IsValidMove(m) {
		return MoveResult{}, fmt.Errorf("%w: column %d", ErrInvalidMove, m.Column)
	}

	player := b.CurrentPlayer()
	row := b.dropDisk(m.Column, player)

	move := m
	b.lastMove = &move
	b.moveCount++

	if _, won := b.winningLine(row, m.Column); won {
		b.status = StatusFinished
	} else if b.IsDraw() {
		b.status = StatusDraw
	} else {
		b.turn = (b.turn + 1) % NumPlayers
	}

	return MoveResult{
		Row:      row,
		Column:   m.Column,
		Player:   player,
		Status:   b.status,
		NextTurn: b.turn,
	}, nil
}

// dropDisk walks the column from the bottom up to the first empty cell.
// Callers have already checked the top cell.
func (b *Board) dropDisk(column int, player Cell) int {
	for row := b.rows - 1; row >= 0; row-- {
		if b.grid[row][column] == Empty {
			b.grid[row][column] = player
			return row
		}
	}
	return -1
}

// topRow returns the highest occupied row in the column, -1 if empty.
func (b *Board) topRow(column int) int {
	for row := 0; row < b.rows; row++ {
		if b.grid[row][column] != Empty {
			return row
		}
	}
	return -1
}

// Reset empties the grid and starts the round over.
func (b *Board) Reset() {
	for i := range b.grid {
		for j := range b.grid[i] {
			b.grid[i][j] = Empty
		}
	}
	b.turn = 0
	b.moveCount = 0
	b.lastMove = nil
	b.status = StatusInProgress
}

func (b *Board) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Board %dx%d\n", b.rows, b.columns)
	fmt.Fprintf(&sb, "Players: %d Moves: %d\n", b.numPlayers, b.moveCount)
	fmt.Fprintf(&sb, "Turn: %d Status: %s\n", b.turn, b.status)
	for i := 0; i < b.rows; i++ {
		for j := 0; j < b.columns; j++ {
			sb.WriteByte(byte('0' + b.grid[i][j]))
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(strings.Repeat("-", b.columns))
	sb.WriteByte('\n')
	for j := 1; j <= b.columns; j++ {
		// columns above 9 only show their last digit
		sb.WriteByte(byte('0' + j%10))
	}
	return sb.String()
}

// Simulate drops a disk for player into a copy of the board without
// touching turn or status, and reports the row used and whether that disk
// completes a line. ok is false when the column is full or out of range.
// The bots use it to look ahead for either side.
func (b *Board) Simulate(column int, player Cell) (sim *Board, row int, wins bool, ok bool) {
	if column < 0 || column >= b.columns || b.grid[0][column] != Empty {
		return nil, -1, false, false
	}
	sim = b.Clone()
	row = sim.dropDisk(column, player)
	_, wins = sim.winningLine(row, column)
	return sim, row, wins, true
}

// OpenColumns lists the columns whose top cell is empty, ignoring status.
func (b *Board) OpenColumns() []int {
	cols := []int{}
	for c := 0; c < b.columns; c++ {
		if b.grid[0][c] == Empty {
			cols = append(cols, c)
		}
	}
	return cols
}
