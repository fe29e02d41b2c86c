package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const headerFields = 7

// Serialize encodes the board as
//
//	numPlayers,turn,status,moveCount,rows,columns,lastMoveColumn,<cells>
//
// where cells holds one digit per cell, row-major. lastMoveColumn is -1
// before the first move. One digit per cell is why the grid stops at 10x10.
func (b *Board) Serialize() (string, error) {
	if b.numPlayers < 0 || b.moveCount < 0 || b.rows <= 0 || b.columns <= 0 {
		return "", fmt.Errorf("%w: players=%d moves=%d rows=%d columns=%d",
			ErrSerialization, b.numPlayers, b.moveCount, b.rows, b.columns)
	}

	last := -1
	if b.lastMove != nil {
		last = b.lastMove.Column
	}

	var sb strings.Builder
	sb.Grow(32 + b.rows*b.columns)
	fmt.Fprintf(&sb, "%d,%d,%d,%d,%d,%d,%d,", b.numPlayers, b.turn, int(b.status), b.moveCount, b.rows, b.columns, last)
	for i := 0; i < b.rows; i++ {
		for j := 0; j < b.columns; j++ {
			sb.WriteByte(byte('0' + b.grid[i][j]))
		}
	}
	return sb.String(), nil
}

// Deserialize builds a new board from a string produced by Serialize.
func Deserialize(s string) (*Board, error) {
	b := &Board{}
	if err := b.Load(s); err != nil {
		return nil, err
	}
	return b, nil
}

// Load replaces the whole state of b with the one encoded in s. On error b
// is left untouched.
func (b *Board) Load(s string) error {
	tokens := strings.Split(s, ",")
	if len(tokens) != headerFields+1 {
		return fmt.Errorf("%w: expected %d fields, got %d", ErrDeserialization, headerFields+1, len(tokens))
	}

	names := [headerFields]string{"numPlayers", "turn", "status", "moveCount", "rows", "columns", "lastMove"}
	var header [headerFields]int
	for i, name := range names {
		v, err := strconv.Atoi(tokens[i])
		if err != nil {
			return fmt.Errorf("%w: %s %q is not an integer", ErrDeserialization, name, tokens[i])
		}
		// only the form Serialize writes: no sign, padding or leading zeros
		if strconv.Itoa(v) != tokens[i] {
			return fmt.Errorf("%w: %s %q is not in canonical form", ErrDeserialization, name, tokens[i])
		}
		header[i] = v
	}
	numPlayers, turn, status, moveCount, rows, columns, last := header[0], header[1], header[2], header[3], header[4], header[5], header[6]

	if rows < MinRows || rows > MaxRows {
		return fmt.Errorf("%w: rows %d outside %d-%d", ErrDeserialization, rows, MinRows, MaxRows)
	}
	if columns < MinColumns || columns > MaxColumns {
		return fmt.Errorf("%w: columns %d outside %d-%d", ErrDeserialization, columns, MinColumns, MaxColumns)
	}
	if numPlayers < 0 || moveCount < 0 {
		return fmt.Errorf("%w: negative players (%d) or moves (%d)", ErrDeserialization, numPlayers, moveCount)
	}
	if turn < 0 || turn >= NumPlayers {
		return fmt.Errorf("%w: turn %d", ErrDeserialization, turn)
	}
	if !Status(status).valid() {
		return fmt.Errorf("%w: unknown status %d", ErrDeserialization, status)
	}
	if last < -1 || last >= columns {
		return fmt.Errorf("%w: last move column %d", ErrDeserialization, last)
	}

	cells := tokens[headerFields]
	if len(cells) != rows*columns {
		return fmt.Errorf("%w: expected %d cells, got %d", ErrDeserialization, rows*columns, len(cells))
	}

	grid := newGrid(rows, columns)
	for k := 0; k < len(cells); k++ {
		d := cells[k]
		if d < '0' || d > byte('0'+WinPlayer2) {
			return fmt.Errorf("%w: bad cell %q at offset %d", ErrDeserialization, d, k)
		}
		grid[k/columns][k%columns] = Cell(d - '0')
	}

	var lastMove *Move
	if last != -1 {
		lastMove = &Move{Column: last}
	}

	*b = Board{
		numPlayers: numPlayers,
		turn:       turn,
		status:     Status(status),
		moveCount:  moveCount,
		rows:       rows,
		columns:    columns,
		lastMove:   lastMove,
		grid:       grid,
	}
	return nil
}
