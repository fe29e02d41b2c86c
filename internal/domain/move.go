package domain

// Move is a drop into a column. The row is never chosen by the caller,
// gravity decides it.
type Move struct {
	Column int `json:"column"`
}

func NewMove(column int) Move {
	return Move{Column: column}
}

// MoveResult describes what ApplyMove did to the board.
type MoveResult struct {
	Row      int    `json:"row"`
	Column   int    `json:"column"`
	Player   Cell   `json:"player"`
	Status   Status `json:"status"`
	NextTurn int    `json:"nextTurn"`
}
