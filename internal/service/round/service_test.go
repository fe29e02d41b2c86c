package round

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conecta4/server/internal/domain"
)

type fakeRepo struct {
	mu      sync.Mutex
	rounds  map[string]*domain.Round
	saves   int
	saveErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rounds: make(map[string]*domain.Round)}
}

func (f *fakeRepo) SaveRound(_ context.Context, r *domain.Round) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.rounds[r.ID] = r.Clone()
	return nil
}

func (f *fakeRepo) GetRound(_ context.Context, id string) (*domain.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rounds[id]
	if !ok {
		return nil, nil
	}
	return r.Clone(), nil
}

func (f *fakeRepo) ListRoundsByPlayer(_ context.Context, playerID string) ([]*domain.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Round
	for _, r := range f.rounds {
		if r.HasPlayer(playerID) {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

type fakeCache struct {
	mu        sync.Mutex
	rounds    map[string]*domain.Round
	published []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{rounds: make(map[string]*domain.Round)}
}

func (f *fakeCache) GetRound(_ context.Context, id string) (*domain.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rounds[id]
	if !ok {
		return nil, nil
	}
	return r.Clone(), nil
}

func (f *fakeCache) SetRound(_ context.Context, r *domain.Round) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rounds[r.ID] = r.Clone()
	return nil
}

func (f *fakeCache) PublishBoard(_ context.Context, _ string, board string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, board)
	return nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestService(t *testing.T) (*Service, *fakeRepo, *clock) {
	t.Helper()
	repo := newFakeRepo()
	c := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewService(repo, nil, Options{Rand: rand.New(rand.NewSource(1)), Now: c.now})
	return svc, repo, c
}

func humanRound(t *testing.T, svc *Service) *domain.Round {
	t.Helper()
	r, err := svc.CreateRound(context.Background(), CreateRoundRequest{
		FirstPlayer:  domain.Player{ID: "p1", Name: "alice"},
		SecondPlayer: domain.Player{ID: "p2", Name: "bob"},
	})
	require.NoError(t, err)
	return r
}

// playAlternating plays columns for p1 and p2 in turn.
func playAlternating(t *testing.T, svc *Service, roundID string, cols ...int) *MoveOutcome {
	t.Helper()
	var out *MoveOutcome
	for i, c := range cols {
		player := "p1"
		if i%2 == 1 {
			player = "p2"
		}
		var err error
		out, err = svc.PlayMove(context.Background(), roundID, player, c)
		require.NoError(t, err, "move %d in column %d", i, c)
	}
	return out
}

func TestCreateRound(t *testing.T) {
	svc, repo, _ := newTestService(t)
	r := humanRound(t, svc)

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "alice vs bob", r.Title)
	assert.Equal(t, 6, r.Board.Rows())
	assert.Equal(t, 7, r.Board.Columns())
	assert.Equal(t, domain.StatusInProgress, r.Board.Status())

	stored, err := repo.GetRound(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, r, stored)
	assert.Equal(t, 1, svc.LiveRounds())
}

func TestCreateRoundValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateRoundRequest
		want error
	}{
		{
			name: "self invite",
			req: CreateRoundRequest{
				FirstPlayer:  domain.Player{ID: "p1"},
				SecondPlayer: domain.Player{ID: "p1"},
			},
			want: ErrSelfInvite,
		},
		{
			name: "missing second player",
			req:  CreateRoundRequest{FirstPlayer: domain.Player{ID: "p1"}},
			want: ErrInvalidPlayers,
		},
		{
			name: "bot first",
			req: CreateRoundRequest{
				FirstPlayer:  domain.Player{Bot: "easy"},
				SecondPlayer: domain.Player{ID: "p2"},
			},
			want: ErrInvalidPlayers,
		},
		{
			name: "unknown difficulty",
			req: CreateRoundRequest{
				FirstPlayer:  domain.Player{ID: "p1"},
				SecondPlayer: domain.Player{Bot: "impossible"},
			},
			want: ErrInvalidPlayers,
		},
		{
			name: "board too small",
			req: CreateRoundRequest{
				Rows:         3,
				Columns:      7,
				FirstPlayer:  domain.Player{ID: "p1"},
				SecondPlayer: domain.Player{ID: "p2"},
			},
			want: domain.ErrInvalidDimensions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateRound(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, 0, svc.LiveRounds())
}

func TestCreateRoundSaveFailure(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.saveErr = errors.New("disk full")

	_, err := svc.CreateRound(context.Background(), CreateRoundRequest{
		FirstPlayer:  domain.Player{ID: "p1"},
		SecondPlayer: domain.Player{ID: "p2"},
	})
	require.Error(t, err)
	assert.Equal(t, 0, svc.LiveRounds())
}

func TestPlayMoveChecksSeatAndTurn(t *testing.T) {
	svc, _, _ := newTestService(t)
	r := humanRound(t, svc)
	ctx := context.Background()

	_, err := svc.PlayMove(ctx, r.ID, "stranger", 0)
	assert.ErrorIs(t, err, ErrNotAPlayer)

	_, err = svc.PlayMove(ctx, r.ID, "p2", 0)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, err = svc.PlayMove(ctx, r.ID, "p1", 7)
	assert.ErrorIs(t, err, domain.ErrInvalidMove)

	_, err = svc.PlayMove(ctx, "missing", "p1", 0)
	assert.ErrorIs(t, err, ErrRoundNotFound)

	out, err := svc.PlayMove(ctx, r.ID, "p1", 3)
	require.NoError(t, err)
	require.Len(t, out.Moves, 1)
	assert.Equal(t, domain.MoveResult{Row: 5, Column: 3, Player: domain.Player1, Status: domain.StatusInProgress, NextTurn: 1}, out.Moves[0])
	assert.Equal(t, 1, out.Round.Board.Turn())
}

func TestPlayMoveWinMarksLineAndNotifies(t *testing.T) {
	svc, repo, _ := newTestService(t)
	r := humanRound(t, svc)

	var events []Event
	unsubscribe := svc.Subscribe(r.ID, ObserverFunc(func(e Event) { events = append(events, e) }))

	out := playAlternating(t, svc, r.ID, 0, 0, 1, 1, 2, 2, 3)

	want := []domain.Position{{Row: 5, Column: 0}, {Row: 5, Column: 1}, {Row: 5, Column: 2}, {Row: 5, Column: 3}}
	assert.Equal(t, want, out.WinningLine)
	require.NotNil(t, out.Winner)
	assert.Equal(t, "p1", out.Winner.ID)
	assert.Equal(t, domain.StatusFinished, out.Round.Board.Status())

	for _, p := range want {
		cell, err := out.Round.Board.Cell(p.Row, p.Column)
		require.NoError(t, err)
		assert.Equal(t, domain.WinPlayer1, cell)
	}

	require.Len(t, events, 7)
	last := events[6]
	assert.Equal(t, EventFinish, last.Type)
	assert.Equal(t, "finished", last.Status)
	assert.Equal(t, want, last.WinningLine)
	assert.Equal(t, "2,0,2,7,6,7,3,"+
		"0000000"+"0000000"+"0000000"+"0000000"+"2220000"+"3333000", last.Board)
	for _, e := range events[:6] {
		assert.Equal(t, EventChange, e.Type)
	}

	stored, err := repo.GetRound(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFinished, stored.Board.Status())

	_, err = svc.PlayMove(context.Background(), r.ID, "p2", 4)
	assert.ErrorIs(t, err, ErrRoundFinished)

	unsubscribe()
	_, err = svc.ResetRound(context.Background(), r.ID, "p1")
	assert.ErrorIs(t, err, ErrRoundFinished)
	assert.Len(t, events, 7)
}

func TestPlayMoveAgainstBot(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	r, err := svc.CreateRound(ctx, CreateRoundRequest{
		FirstPlayer:  domain.Player{ID: "p1", Name: "alice"},
		SecondPlayer: domain.Player{Bot: "medium"},
	})
	require.NoError(t, err)
	assert.Equal(t, "bot:medium", r.SecondPlayer.ID)
	assert.Equal(t, "Bob", r.SecondPlayer.Name)

	out, err := svc.PlayMove(ctx, r.ID, "p1", 0)
	require.NoError(t, err)
	require.Len(t, out.Moves, 2)
	assert.Equal(t, domain.Player2, out.Moves[1].Player)
	assert.Equal(t, 0, out.Round.Board.Turn())
	assert.Equal(t, 2, out.Round.Board.MoveCount())

	_, err = svc.PlayMove(ctx, r.ID, "bot:medium", 1)
	assert.ErrorIs(t, err, ErrNotYourTurn)
}

func TestResetRound(t *testing.T) {
	svc, _, _ := newTestService(t)
	r := humanRound(t, svc)
	ctx := context.Background()

	playAlternating(t, svc, r.ID, 3, 4, 3)

	_, err := svc.ResetRound(ctx, r.ID, "stranger")
	assert.ErrorIs(t, err, ErrNotAPlayer)

	reset, err := svc.ResetRound(ctx, r.ID, "p2")
	require.NoError(t, err)
	assert.Equal(t, 0, reset.Board.MoveCount())
	assert.Equal(t, 0, reset.Board.Turn())
	_, ok := reset.Board.LastMove()
	assert.False(t, ok)

	fresh, err := domain.NewBoard(6, 7)
	require.NoError(t, err)
	assert.Equal(t, fresh, reset.Board)
}

func TestRoundsLoadFromRepository(t *testing.T) {
	svc, repo, _ := newTestService(t)
	r := humanRound(t, svc)
	playAlternating(t, svc, r.ID, 2, 3)

	restarted := NewService(repo, nil, Options{})
	loaded, err := restarted.GetRound(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Board.MoveCount())

	out, err := restarted.PlayMove(context.Background(), r.ID, "p1", 2)
	require.NoError(t, err)
	assert.Equal(t, 4, out.Moves[0].Row)
}

func TestCacheIsPreferredAndFed(t *testing.T) {
	repo := newFakeRepo()
	cache := newFakeCache()
	svc := NewService(repo, cache, Options{})

	r, err := svc.CreateRound(context.Background(), CreateRoundRequest{
		Rows:         4,
		Columns:      4,
		FirstPlayer:  domain.Player{ID: "p1"},
		SecondPlayer: domain.Player{ID: "p2"},
	})
	require.NoError(t, err)

	_, err = svc.PlayMove(context.Background(), r.ID, "p1", 1)
	require.NoError(t, err)

	require.Len(t, cache.published, 2)
	assert.Equal(t, "2,0,1,0,4,4,-1,0000000000000000", cache.published[0])
	assert.Equal(t, "2,1,1,1,4,4,1,0000000000000100", cache.published[1])

	delete(repo.rounds, r.ID)
	other := NewService(repo, cache, Options{})
	loaded, err := other.GetRound(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Board.MoveCount())
}

func TestListRounds(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	humanRound(t, svc)
	_, err := svc.CreateRound(ctx, CreateRoundRequest{
		FirstPlayer:  domain.Player{ID: "p3"},
		SecondPlayer: domain.Player{ID: "p2"},
	})
	require.NoError(t, err)

	rounds, err := svc.ListRounds(ctx, "p2")
	require.NoError(t, err)
	assert.Len(t, rounds, 2)

	rounds, err = svc.ListRounds(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, rounds, 1)

	rounds, err = svc.ListRounds(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, rounds)
}

func TestEvictFinished(t *testing.T) {
	svc, _, c := newTestService(t)
	finished := humanRound(t, svc)
	ongoing := humanRound(t, svc)
	playAlternating(t, svc, finished.ID, 0, 1, 0, 1, 0, 1, 0)

	c.t = c.t.Add(30 * time.Minute)
	assert.Equal(t, 0, svc.EvictFinished(time.Hour))

	c.t = c.t.Add(31 * time.Minute)
	assert.Equal(t, 1, svc.EvictFinished(time.Hour))
	assert.Equal(t, 1, svc.LiveRounds())

	// evicted rounds are still served from the repository
	r, err := svc.GetRound(context.Background(), finished.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFinished, r.Board.Status())

	_, err = svc.GetRound(context.Background(), ongoing.ID)
	require.NoError(t, err)
}

func TestConcurrentMovesOnlyOneWins(t *testing.T) {
	svc, _, _ := newTestService(t)
	r := humanRound(t, svc)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(col int) {
			defer wg.Done()
			_, err := svc.PlayMove(context.Background(), r.ID, "p1", col%7)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, ErrNotYourTurn)
		}
	}
	assert.Equal(t, 1, ok)
}

// boardWatcher keeps the newest board it was shown, the way the websocket
// handler does.
type boardWatcher struct {
	mu      sync.Mutex
	version uint64
	board   string
}

func (w *boardWatcher) OnRoundEvent(e Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if e.Version <= w.version {
		return
	}
	w.version = e.Version
	w.board = e.Board
}

func (w *boardWatcher) current() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.board
}

func TestWatchDuringMovesEndsOnLatestBoard(t *testing.T) {
	svc, _, _ := newTestService(t)
	r := humanRound(t, svc)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		cols := []int{0, 1, 2, 3, 4, 5, 6, 0, 1, 2, 3, 4, 5, 6}
		for i, col := range cols {
			player := "p1"
			if i%2 == 1 {
				player = "p2"
			}
			_, err := svc.PlayMove(ctx, r.ID, player, col)
			assert.NoError(t, err)
		}
	}()

	var watchers []*boardWatcher
	for i := 0; i < 50; i++ {
		w := &boardWatcher{}
		w.mu.Lock()
		snapshot, unsubscribe, err := svc.Watch(ctx, r.ID, w)
		require.NoError(t, err)
		w.version = snapshot.Version
		w.board = snapshot.Board
		w.mu.Unlock()
		t.Cleanup(unsubscribe)
		watchers = append(watchers, w)
	}
	<-done

	final, err := svc.GetRound(ctx, r.ID)
	require.NoError(t, err)
	want, err := final.Board.Serialize()
	require.NoError(t, err)
	assert.Equal(t, 14, final.Board.MoveCount())

	for i, w := range watchers {
		assert.Equal(t, want, w.current(), "watcher %d", i)
	}
}

func TestWatchUnknownRound(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, _, err := svc.Watch(context.Background(), "missing", ObserverFunc(func(Event) {}))
	assert.ErrorIs(t, err, ErrRoundNotFound)
}

func TestEventVersionsGrow(t *testing.T) {
	svc, _, _ := newTestService(t)
	r := humanRound(t, svc)

	var versions []uint64
	unsubscribe := svc.Subscribe(r.ID, ObserverFunc(func(e Event) {
		versions = append(versions, e.Version)
	}))
	defer unsubscribe()

	playAlternating(t, svc, r.ID, 3, 3)
	_, err := svc.ResetRound(context.Background(), r.ID, "p1")
	require.NoError(t, err)

	require.Len(t, versions, 3)
	assert.Less(t, versions[0], versions[1])
	assert.Less(t, versions[1], versions[2])

	snapshot, stop, err := svc.Watch(context.Background(), r.ID, ObserverFunc(func(Event) {}))
	require.NoError(t, err)
	defer stop()
	assert.Equal(t, versions[2], snapshot.Version)
	assert.Equal(t, 0, snapshot.Turn)
}
