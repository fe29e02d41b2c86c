package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/conecta4/server/internal/domain"
)

// RoundRepo keeps rounds in process memory for running without postgres.
// It stores the serialized board, exactly like the database does.
type RoundRepo struct {
	mu     sync.RWMutex
	rounds map[string]storedRound
}

type storedRound struct {
	round domain.Round
	board string
}

func NewRoundRepo() *RoundRepo {
	return &RoundRepo{rounds: make(map[string]storedRound)}
}

func (r *RoundRepo) SaveRound(_ context.Context, round *domain.Round) error {
	board, err := round.Board.Serialize()
	if err != nil {
		return err
	}

	stored := storedRound{round: *round, board: board}
	stored.round.Board = nil

	r.mu.Lock()
	r.rounds[round.ID] = stored
	r.mu.Unlock()
	return nil
}

func (r *RoundRepo) GetRound(_ context.Context, id string) (*domain.Round, error) {
	r.mu.RLock()
	stored, ok := r.rounds[id]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return stored.load()
}

func (r *RoundRepo) ListRoundsByPlayer(_ context.Context, playerID string) ([]*domain.Round, error) {
	r.mu.RLock()
	var matches []storedRound
	for _, stored := range r.rounds {
		if stored.round.HasPlayer(playerID) {
			matches = append(matches, stored)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].round.UpdatedAt.After(matches[j].round.UpdatedAt)
	})

	rounds := make([]*domain.Round, 0, len(matches))
	for _, stored := range matches {
		round, err := stored.load()
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, round)
	}
	return rounds, nil
}

func (s storedRound) load() (*domain.Round, error) {
	board, err := domain.Deserialize(s.board)
	if err != nil {
		return nil, err
	}
	round := s.round
	round.Board = board
	return &round, nil
}
