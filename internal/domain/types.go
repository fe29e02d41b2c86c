package domain

// Cell is the value stored in a single grid position.
type Cell int

const (
	Empty      Cell = 0
	Player1    Cell = 1
	Player2    Cell = 2
	WinPlayer1 Cell = 3
	WinPlayer2 Cell = 4
)

// IsWinning reports whether the cell belongs to a marked winning line.
func (c Cell) IsWinning() bool {
	return c == WinPlayer1 || c == WinPlayer2
}

// Owner returns the player mark regardless of the winning highlight.
func (c Cell) Owner() Cell {
	if c.IsWinning() {
		return c - 2
	}
	return c
}

const (
	MinRows    = 4
	MaxRows    = 10
	MinColumns = 4
	MaxColumns = 10
	ToWin      = 4
	NumPlayers = 2
)

// Status codes are written verbatim into the serialized board, keep them stable.
type Status int

const (
	StatusInProgress Status = 1
	StatusFinished   Status = 2
	StatusDraw       Status = 3
)

func (s Status) String() string {
	switch s {
	case StatusInProgress:
		return "in_progress"
	case StatusFinished:
		return "finished"
	case StatusDraw:
		return "draw"
	default:
		return "unknown"
	}
}

func (s Status) IsTerminal() bool {
	return s == StatusFinished || s == StatusDraw
}

func (s Status) valid() bool {
	return s == StatusInProgress || s == StatusFinished || s == StatusDraw
}

// Position addresses a single cell, row 0 is the top of the board.
type Position struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// basic errors that can occur
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrInvalidDimensions Error = "invalid board dimensions"
	ErrInvalidMove       Error = "invalid move"
	ErrGameOver          Error = "invalid move: game is over"
	ErrInvalidCoordinate Error = "invalid coordinate"
	ErrSerialization     Error = "cannot serialize board"
	ErrDeserialization   Error = "cannot deserialize board"
)

// Is lets errors.Is(ErrGameOver, ErrInvalidMove) hold.
func (e Error) Is(target error) bool {
	t, ok := target.(Error)
	if !ok {
		return false
	}
	if e == t {
		return true
	}
	return e == ErrGameOver && t == ErrInvalidMove
}
