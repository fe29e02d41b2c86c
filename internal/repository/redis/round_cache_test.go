package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conecta4/server/internal/domain"
)

func newTestCache(t *testing.T) (*RoundCache, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRoundCache(client, time.Hour), mr, client
}

func testRound(t *testing.T) *domain.Round {
	t.Helper()
	b, err := domain.NewBoard(5, 6)
	require.NoError(t, err)
	_, err = b.ApplyMove(domain.NewMove(0))
	require.NoError(t, err)

	ts := time.Date(2024, 7, 2, 8, 0, 0, 0, time.UTC)
	return &domain.Round{
		ID:           "abc",
		Title:        "ana vs luis",
		FirstPlayer:  domain.Player{ID: "ana", Name: "ana"},
		SecondPlayer: domain.Player{ID: "luis", Name: "luis"},
		Board:        b,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
}

func TestRoundCacheSetGet(t *testing.T) {
	cache, mr, _ := newTestCache(t)
	ctx := context.Background()
	r := testRound(t)

	require.NoError(t, cache.SetRound(ctx, r))
	assert.True(t, mr.Exists("round:abc"))
	assert.Equal(t, time.Hour, mr.TTL("round:abc"))

	got, err := cache.GetRound(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestRoundCacheMiss(t *testing.T) {
	cache, _, _ := newTestCache(t)

	got, err := cache.GetRound(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRoundCacheExpires(t *testing.T) {
	cache, mr, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetRound(ctx, testRound(t)))
	mr.FastForward(2 * time.Hour)

	got, err := cache.GetRound(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRoundCacheRejectsCorruptEntry(t *testing.T) {
	cache, mr, _ := newTestCache(t)
	require.NoError(t, mr.Set("round:bad", `{"id":"bad","board":"x"}`))

	_, err := cache.GetRound(context.Background(), "bad")
	assert.ErrorIs(t, err, domain.ErrDeserialization)
}

func TestPublishBoard(t *testing.T) {
	cache, _, client := newTestCache(t)
	ctx := context.Background()

	sub := client.Subscribe(ctx, BoardChannel("abc"))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, cache.PublishBoard(ctx, "abc", "2,0,1,0,4,4,-1,0000000000000000"))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "round:abc:board", msg.Channel)
	assert.Equal(t, "2,0,1,0,4,4,-1,0000000000000000", msg.Payload)
}

func TestInitRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	assert.Nil(t, InitRedis(context.Background(), addr, ""))
}
