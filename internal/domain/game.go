package domain

// GameBoard is what the round layer needs from a board variant. Gravity
// and the four-in-a-row axes live in *Board; other variants only have to
// honour this contract.
type GameBoard interface {
	IsValidMove(m Move) bool
	ApplyMove(m Move) (MoveResult, error)
	MarkWinningLine(m Move) ([]Position, error)
	LastMove() (Move, bool)
	Serialize() (string, error)
	Load(s string) error
	Reset()
	Status() Status
	Turn() int
}

var _ GameBoard = (*Board)(nil)
