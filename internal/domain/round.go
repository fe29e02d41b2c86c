package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Player is one of the two seats of a round. Bot holds the difficulty when
// the seat is played by the server.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Bot  string `json:"bot,omitempty"`
}

func (p Player) IsBot() bool {
	return p.Bot != ""
}

// Round is a board plus the two players sitting at it. The first player
// moves on turn 0 and drops Player1 disks.
type Round struct {
	ID           string
	Title        string
	FirstPlayer  Player
	SecondPlayer Player
	Board        *Board
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Seat returns the turn index of playerID in this round.
func (r *Round) Seat(playerID string) (int, bool) {
	switch playerID {
	case r.FirstPlayer.ID:
		return 0, true
	case r.SecondPlayer.ID:
		return 1, true
	}
	return -1, false
}

// PlayerAt returns the player sitting on the given turn index.
func (r *Round) PlayerAt(turn int) Player {
	if turn == 0 {
		return r.FirstPlayer
	}
	return r.SecondPlayer
}

func (r *Round) HasPlayer(playerID string) bool {
	_, ok := r.Seat(playerID)
	return ok
}

// Winner returns the winning player once the board is finished.
func (r *Round) Winner() (Player, bool) {
	if r.Board == nil || r.Board.Status() != StatusFinished {
		return Player{}, false
	}
	return r.PlayerAt(r.Board.Turn()), true
}

func (r *Round) Clone() *Round {
	c := *r
	if r.Board != nil {
		c.Board = r.Board.Clone()
	}
	return &c
}

type roundJSON struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Rows         int       `json:"rows"`
	Columns      int       `json:"columns"`
	FirstPlayer  Player    `json:"firstPlayer"`
	SecondPlayer Player    `json:"secondPlayer"`
	Board        string    `json:"board"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// MarshalJSON stores the board as its serialized string so a round fits in
// a single record of any key/value store.
func (r Round) MarshalJSON() ([]byte, error) {
	if r.Board == nil {
		return nil, fmt.Errorf("round %s has no board", r.ID)
	}
	board, err := r.Board.Serialize()
	if err != nil {
		return nil, err
	}
	return json.Marshal(roundJSON{
		ID:           r.ID,
		Title:        r.Title,
		Rows:         r.Board.Rows(),
		Columns:      r.Board.Columns(),
		FirstPlayer:  r.FirstPlayer,
		SecondPlayer: r.SecondPlayer,
		Board:        board,
		Status:       r.Board.Status().String(),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	})
}

func (r *Round) UnmarshalJSON(data []byte) error {
	var raw roundJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	board, err := Deserialize(raw.Board)
	if err != nil {
		return err
	}
	*r = Round{
		ID:           raw.ID,
		Title:        raw.Title,
		FirstPlayer:  raw.FirstPlayer,
		SecondPlayer: raw.SecondPlayer,
		Board:        board,
		CreatedAt:    raw.CreatedAt,
		UpdatedAt:    raw.UpdatedAt,
	}
	return nil
}
