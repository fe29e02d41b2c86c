package round

import (
	"github.com/conecta4/server/internal/domain"
)

type EventType string

const (
	// EventChange follows every applied move or reset of a round in progress.
	EventChange EventType = "round_update"
	// EventFinish is sent once, when a move ends the round.
	EventFinish EventType = "round_finished"
)

// Event is a snapshot of a round right after it changed. Board carries the
// serialized board so observers never share the live one.
type Event struct {
	Type        EventType          `json:"type"`
	RoundID     string             `json:"roundId"`
	Board       string             `json:"board"`
	Status      string             `json:"status"`
	Turn        int                `json:"turn"`
	// Version grows with every change of the round. A watcher can drop
	// events at or below the version it already shows.
	Version     uint64             `json:"version"`
	Move        *domain.MoveResult `json:"move,omitempty"`
	WinningLine []domain.Position  `json:"winningLine,omitempty"`
	Winner      *domain.Player     `json:"winner,omitempty"`
}

// Observer is notified of round changes. Calls happen outside the round
// lock and must not block for long.
type Observer interface {
	OnRoundEvent(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) OnRoundEvent(e Event) { f(e) }

// SnapshotEvent describes r as it is now, for observers that join late.
func SnapshotEvent(r *domain.Round) (Event, error) {
	board, err := r.Board.Serialize()
	if err != nil {
		return Event{}, err
	}
	ev := Event{
		Type:    EventChange,
		RoundID: r.ID,
		Board:   board,
		Status:  r.Board.Status().String(),
		Turn:    r.Board.Turn(),
	}
	if r.Board.IsTerminal() {
		ev.Type = EventFinish
		if winner, ok := r.Winner(); ok {
			ev.Winner = &winner
		}
	}
	return ev, nil
}
