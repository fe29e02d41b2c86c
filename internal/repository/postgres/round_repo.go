package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/conecta4/server/internal/domain"
)

type RoundRepo struct {
	DB *sql.DB
}

func NewRoundRepo(db *sql.DB) *RoundRepo {
	return &RoundRepo{DB: db}
}

const roundColumns = `round_id, title, first_player_id, first_player_name,
	second_player_id, second_player_name, second_player_bot,
	board, created_at, updated_at`

// SaveRound upserts the round. The board goes in as its serialized string.
func (r *RoundRepo) SaveRound(ctx context.Context, round *domain.Round) error {
	board, err := round.Board.Serialize()
	if err != nil {
		return fmt.Errorf("failed to serialize board of round %s: %w", round.ID, err)
	}

	query := `
	INSERT INTO rounds (round_id, title, first_player_id, first_player_name,
		second_player_id, second_player_name, second_player_bot,
		board, status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (round_id) DO UPDATE SET
		board = EXCLUDED.board,
		status = EXCLUDED.status,
		updated_at = EXCLUDED.updated_at;
	`

	_, err = r.DB.ExecContext(ctx, query,
		round.ID, round.Title,
		round.FirstPlayer.ID, round.FirstPlayer.Name,
		round.SecondPlayer.ID, round.SecondPlayer.Name, round.SecondPlayer.Bot,
		board, int(round.Board.Status()), round.CreatedAt, round.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert round %s: %w", round.ID, err)
	}
	return nil
}

// GetRound returns nil, nil when no such round exists.
func (r *RoundRepo) GetRound(ctx context.Context, id string) (*domain.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE round_id = $1;`

	round, err := scanRound(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round %s: %w", id, err)
	}
	return round, nil
}

// ListRoundsByPlayer returns every round playerID sits at, most recently
// played first.
func (r *RoundRepo) ListRoundsByPlayer(ctx context.Context, playerID string) ([]*domain.Round, error) {
	query := `
	SELECT ` + roundColumns + `
	FROM rounds
	WHERE first_player_id = $1 OR second_player_id = $1
	ORDER BY updated_at DESC;
	`

	rows, err := r.DB.QueryContext(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	defer rows.Close()

	var rounds []*domain.Round
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, round)
	}
	return rounds, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRound(s scanner) (*domain.Round, error) {
	var round domain.Round
	var board string

	err := s.Scan(
		&round.ID,
		&round.Title,
		&round.FirstPlayer.ID,
		&round.FirstPlayer.Name,
		&round.SecondPlayer.ID,
		&round.SecondPlayer.Name,
		&round.SecondPlayer.Bot,
		&board,
		&round.CreatedAt,
		&round.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	round.Board, err = domain.Deserialize(board)
	if err != nil {
		return nil, fmt.Errorf("round %s: %w", round.ID, err)
	}
	return &round, nil
}
