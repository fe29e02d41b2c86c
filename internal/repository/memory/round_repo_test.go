package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conecta4/server/internal/domain"
)

func newRound(t *testing.T, id, first, second string, updated time.Time) *domain.Round {
	t.Helper()
	b, err := domain.NewBoard(6, 7)
	require.NoError(t, err)
	return &domain.Round{
		ID:           id,
		Title:        first + " vs " + second,
		FirstPlayer:  domain.Player{ID: first, Name: first},
		SecondPlayer: domain.Player{ID: second, Name: second},
		Board:        b,
		CreatedAt:    updated,
		UpdatedAt:    updated,
	}
}

func TestSaveAndGet(t *testing.T) {
	repo := NewRoundRepo()
	ctx := context.Background()
	r := newRound(t, "r1", "a", "b", time.Unix(100, 0).UTC())

	require.NoError(t, repo.SaveRound(ctx, r))

	// later changes to the caller's board must not leak into the store
	_, err := r.Board.ApplyMove(domain.NewMove(3))
	require.NoError(t, err)

	got, err := repo.GetRound(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Board.MoveCount())

	require.NoError(t, repo.SaveRound(ctx, r))
	got, err = repo.GetRound(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, r, got)

	missing, err := repo.GetRound(ctx, "r2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListRoundsByPlayerNewestFirst(t *testing.T) {
	repo := NewRoundRepo()
	ctx := context.Background()

	require.NoError(t, repo.SaveRound(ctx, newRound(t, "old", "a", "b", time.Unix(100, 0).UTC())))
	require.NoError(t, repo.SaveRound(ctx, newRound(t, "new", "c", "a", time.Unix(200, 0).UTC())))
	require.NoError(t, repo.SaveRound(ctx, newRound(t, "other", "c", "d", time.Unix(300, 0).UTC())))

	rounds, err := repo.ListRoundsByPlayer(ctx, "a")
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, "new", rounds[0].ID)
	assert.Equal(t, "old", rounds[1].ID)

	rounds, err = repo.ListRoundsByPlayer(ctx, "z")
	require.NoError(t, err)
	assert.Empty(t, rounds)
}
