package round

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/conecta4/server/internal/domain"
	"github.com/conecta4/server/internal/service/bot"
	"github.com/conecta4/server/pkg/uid"
)

var (
	ErrRoundNotFound  = errors.New("round not found")
	ErrNotAPlayer     = errors.New("you are not a player in this round")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrRoundFinished  = errors.New("round already finished")
	ErrInvalidPlayers = errors.New("invalid players")
	ErrSelfInvite     = errors.New("you can't invite yourself")
)

// Repository is the durable store of rounds.
type Repository interface {
	SaveRound(ctx context.Context, r *domain.Round) error
	// GetRound returns nil, nil when the round does not exist.
	GetRound(ctx context.Context, id string) (*domain.Round, error)
	ListRoundsByPlayer(ctx context.Context, playerID string) ([]*domain.Round, error)
}

// Cache is optional. It keeps hot rounds and fans board strings out to
// other processes.
type Cache interface {
	// GetRound returns nil, nil on a miss.
	GetRound(ctx context.Context, id string) (*domain.Round, error)
	SetRound(ctx context.Context, r *domain.Round) error
	PublishBoard(ctx context.Context, roundID, board string) error
}

type Options struct {
	DefaultRows    int
	DefaultColumns int
	Rand           *rand.Rand
	Now            func() time.Time
}

type CreateRoundRequest struct {
	Title        string
	Rows         int
	Columns      int
	FirstPlayer  domain.Player
	SecondPlayer domain.Player
}

// MoveOutcome is what a PlayMove call did: the player's move and, against
// a bot, the bot's reply.
type MoveOutcome struct {
	Round       *domain.Round
	Moves       []domain.MoveResult
	WinningLine []domain.Position
	Winner      *domain.Player
}

type liveRound struct {
	mu         sync.Mutex
	round      *domain.Round
	finishedAt time.Time
	// version of the last event built for this round
	version uint64
}

// Service drives rounds. Each board is only touched while holding the
// lock of its round; the engine itself does no locking.
type Service struct {
	repo  Repository
	cache Cache
	now   func() time.Time

	defaultRows    int
	defaultColumns int

	mu     sync.RWMutex
	rounds map[string]*liveRound

	// observers has its own lock so Watch can register one while holding
	// a round lock.
	obsMu        sync.RWMutex
	observers    map[string]map[uint64]Observer
	nextObserver uint64

	versions atomic.Uint64

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewService(repo Repository, cache Cache, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.DefaultRows == 0 {
		opts.DefaultRows = 6
	}
	if opts.DefaultColumns == 0 {
		opts.DefaultColumns = 7
	}

	return &Service{
		repo:           repo,
		cache:          cache,
		now:            opts.Now,
		defaultRows:    opts.DefaultRows,
		defaultColumns: opts.DefaultColumns,
		rounds:         make(map[string]*liveRound),
		observers:      make(map[string]map[uint64]Observer),
		rng:            opts.Rand,
	}
}

func (s *Service) CreateRound(ctx context.Context, req CreateRoundRequest) (*domain.Round, error) {
	first, second := req.FirstPlayer, req.SecondPlayer

	if first.ID == "" || first.IsBot() {
		return nil, fmt.Errorf("%w: first player must be a person", ErrInvalidPlayers)
	}
	if second.IsBot() {
		difficulty, err := bot.ParseDifficulty(second.Bot)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPlayers, err)
		}
		second.ID = "bot:" + string(difficulty)
		if second.Name == "" {
			second.Name = bot.Name(difficulty)
		}
	} else if second.ID == "" {
		return nil, fmt.Errorf("%w: second player missing", ErrInvalidPlayers)
	} else if second.ID == first.ID {
		return nil, ErrSelfInvite
	}
	if first.Name == "" {
		first.Name = first.ID
	}
	if second.Name == "" {
		second.Name = second.ID
	}

	rows, columns := req.Rows, req.Columns
	if rows == 0 {
		rows = s.defaultRows
	}
	if columns == 0 {
		columns = s.defaultColumns
	}
	board, err := domain.NewBoard(rows, columns)
	if err != nil {
		return nil, err
	}

	title := req.Title
	if title == "" {
		title = fmt.Sprintf("%s vs %s", first.Name, second.Name)
	}

	now := s.now()
	r := &domain.Round{
		ID:           uid.GenerateRoundID(),
		Title:        title,
		FirstPlayer:  first,
		SecondPlayer: second,
		Board:        board,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.SaveRound(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to save round: %w", err)
	}
	s.cacheRound(ctx, r)

	s.mu.Lock()
	s.rounds[r.ID] = &liveRound{round: r}
	s.mu.Unlock()

	log.Info().Str("component", "round").Str("round_id", r.ID).
		Str("first", first.Name).Str("second", second.Name).
		Int("rows", rows).Int("columns", columns).Msg("round created")

	return r.Clone(), nil
}

// load returns the live copy of a round, pulling it from the cache or the
// repository the first time it is touched.
func (s *Service) load(ctx context.Context, id string) (*liveRound, error) {
	s.mu.RLock()
	lr, ok := s.rounds[id]
	s.mu.RUnlock()
	if ok {
		return lr, nil
	}

	var r *domain.Round
	if s.cache != nil {
		cached, err := s.cache.GetRound(ctx, id)
		if err != nil {
			log.Warn().Str("component", "round").Err(err).Str("round_id", id).Msg("cache lookup failed")
		}
		r = cached
	}
	if r == nil {
		stored, err := s.repo.GetRound(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load round %s: %w", id, err)
		}
		if stored == nil {
			return nil, ErrRoundNotFound
		}
		r = stored
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.rounds[id]; ok {
		return existing, nil
	}
	lr = &liveRound{round: r}
	if r.Board.IsTerminal() {
		lr.finishedAt = r.UpdatedAt
	}
	s.rounds[id] = lr
	return lr, nil
}

func (s *Service) GetRound(ctx context.Context, id string) (*domain.Round, error) {
	lr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return lr.round.Clone(), nil
}

// ListRounds returns the rounds playerID sits at. Rounds held in memory
// are reported from their live copy.
func (s *Service) ListRounds(ctx context.Context, playerID string) ([]*domain.Round, error) {
	stored, err := s.repo.ListRoundsByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}

	rounds := make([]*domain.Round, 0, len(stored))
	for _, r := range stored {
		s.mu.RLock()
		lr, live := s.rounds[r.ID]
		s.mu.RUnlock()
		if live {
			lr.mu.Lock()
			r = lr.round.Clone()
			lr.mu.Unlock()
		}
		rounds = append(rounds, r)
	}
	return rounds, nil
}

// PlayMove drops a disk for playerID. When the other seat is a bot and the
// round is still going, the bot answers within the same call.
func (s *Service) PlayMove(ctx context.Context, roundID, playerID string, column int) (*MoveOutcome, error) {
	lr, err := s.load(ctx, roundID)
	if err != nil {
		return nil, err
	}

	lr.mu.Lock()
	r := lr.round

	seat, ok := r.Seat(playerID)
	if !ok {
		lr.mu.Unlock()
		return nil, ErrNotAPlayer
	}
	if r.Board.IsTerminal() {
		lr.mu.Unlock()
		return nil, ErrRoundFinished
	}
	if seat != r.Board.Turn() {
		lr.mu.Unlock()
		return nil, ErrNotYourTurn
	}

	outcome := &MoveOutcome{}
	ev, err := s.applyLocked(lr, domain.NewMove(column))
	if err != nil {
		lr.mu.Unlock()
		return nil, err
	}
	events := []Event{ev}

	if !r.Board.IsTerminal() && r.PlayerAt(r.Board.Turn()).IsBot() {
		if botEv, err := s.playBotLocked(lr); err != nil {
			log.Error().Str("component", "round").Err(err).Str("round_id", roundID).Msg("bot failed to move")
		} else {
			events = append(events, botEv)
		}
	}

	for _, e := range events {
		outcome.Moves = append(outcome.Moves, *e.Move)
		if e.Type == EventFinish {
			outcome.WinningLine = e.WinningLine
			outcome.Winner = e.Winner
		}
	}

	r.UpdatedAt = s.now()
	s.persistLocked(ctx, r)
	outcome.Round = r.Clone()
	lr.mu.Unlock()

	s.notify(roundID, events)
	return outcome, nil
}

func (s *Service) playBotLocked(lr *liveRound) (Event, error) {
	difficulty, err := bot.ParseDifficulty(lr.round.PlayerAt(lr.round.Board.Turn()).Bot)
	if err != nil {
		return Event{}, err
	}

	s.rngMu.Lock()
	move, err := bot.Choose(lr.round.Board, difficulty, s.rng)
	s.rngMu.Unlock()
	if err != nil {
		return Event{}, err
	}
	return s.applyLocked(lr, move)
}

// applyLocked applies one move and builds the event describing it. A win
// is highlighted right away, which is the only MarkWinningLine call the
// round ever gets.
func (s *Service) applyLocked(lr *liveRound, move domain.Move) (Event, error) {
	r := lr.round
	res, err := r.Board.ApplyMove(move)
	if err != nil {
		return Event{}, err
	}

	ev := Event{
		Type:    EventChange,
		RoundID: r.ID,
		Move:    &res,
	}
	s.stampLocked(lr, &ev)

	switch res.Status {
	case domain.StatusFinished:
		line, err := r.Board.MarkWinningLine(move)
		if err != nil {
			return Event{}, err
		}
		winner, _ := r.Winner()
		ev.Type = EventFinish
		ev.WinningLine = line
		ev.Winner = &winner
		lr.finishedAt = s.now()
		log.Info().Str("component", "round").Str("round_id", r.ID).Str("winner", winner.Name).
			Int("moves", r.Board.MoveCount()).Msg("round finished")
	case domain.StatusDraw:
		ev.Type = EventFinish
		lr.finishedAt = s.now()
		log.Info().Str("component", "round").Str("round_id", r.ID).Msg("round finished in a draw")
	}

	s.fillSnapshot(r, &ev)
	return ev, nil
}

// stampLocked gives ev the next version. Versions only grow, across all
// rounds, so they stay ordered when a round is evicted and loaded again.
func (s *Service) stampLocked(lr *liveRound, ev *Event) {
	lr.version = s.versions.Add(1)
	ev.Version = lr.version
}

func (s *Service) fillSnapshot(r *domain.Round, ev *Event) {
	board, err := r.Board.Serialize()
	if err != nil {
		log.Error().Str("component", "round").Err(err).Str("round_id", r.ID).Msg("failed to serialize board")
	}
	ev.Board = board
	ev.Status = r.Board.Status().String()
	ev.Turn = r.Board.Turn()
}

// ResetRound clears the board of a round still in progress.
func (s *Service) ResetRound(ctx context.Context, roundID, playerID string) (*domain.Round, error) {
	lr, err := s.load(ctx, roundID)
	if err != nil {
		return nil, err
	}

	lr.mu.Lock()
	r := lr.round
	if !r.HasPlayer(playerID) {
		lr.mu.Unlock()
		return nil, ErrNotAPlayer
	}
	if r.Board.IsTerminal() {
		lr.mu.Unlock()
		return nil, ErrRoundFinished
	}

	r.Board.Reset()
	r.UpdatedAt = s.now()

	ev := Event{Type: EventChange, RoundID: r.ID}
	s.stampLocked(lr, &ev)
	s.fillSnapshot(r, &ev)
	s.persistLocked(ctx, r)
	snapshot := r.Clone()
	lr.mu.Unlock()

	log.Info().Str("component", "round").Str("round_id", roundID).Str("player_id", playerID).Msg("round restarted")
	s.notify(roundID, []Event{ev})
	return snapshot, nil
}

// persistLocked writes the round through. Failures are logged, the live
// copy stays authoritative and is written again on the next change.
func (s *Service) persistLocked(ctx context.Context, r *domain.Round) {
	if err := s.repo.SaveRound(ctx, r); err != nil {
		log.Error().Str("component", "round").Err(err).Str("round_id", r.ID).Msg("failed to save round")
	}
	s.cacheRound(ctx, r)
}

func (s *Service) cacheRound(ctx context.Context, r *domain.Round) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetRound(ctx, r); err != nil {
		log.Warn().Str("component", "round").Err(err).Str("round_id", r.ID).Msg("failed to cache round")
		return
	}
	board, err := r.Board.Serialize()
	if err != nil {
		return
	}
	if err := s.cache.PublishBoard(ctx, r.ID, board); err != nil {
		log.Warn().Str("component", "round").Err(err).Str("round_id", r.ID).Msg("failed to publish board")
	}
}

// Watch returns the current state of a round and registers o for every
// change after it, both under the round lock. Events o receives can still
// carry a version at or below the snapshot's; those are already part of it.
func (s *Service) Watch(ctx context.Context, roundID string, o Observer) (Event, func(), error) {
	lr, err := s.load(ctx, roundID)
	if err != nil {
		return Event{}, nil, err
	}

	lr.mu.Lock()
	defer lr.mu.Unlock()

	snapshot, err := SnapshotEvent(lr.round)
	if err != nil {
		return Event{}, nil, err
	}
	snapshot.Version = lr.version
	return snapshot, s.Subscribe(roundID, o), nil
}

// Subscribe registers o for the events of one round. The returned func
// removes it again.
func (s *Service) Subscribe(roundID string, o Observer) func() {
	s.obsMu.Lock()
	id := s.nextObserver
	s.nextObserver++
	if s.observers[roundID] == nil {
		s.observers[roundID] = make(map[uint64]Observer)
	}
	s.observers[roundID][id] = o
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		delete(s.observers[roundID], id)
		if len(s.observers[roundID]) == 0 {
			delete(s.observers, roundID)
		}
	}
}

func (s *Service) notify(roundID string, events []Event) {
	s.obsMu.RLock()
	observers := make([]Observer, 0, len(s.observers[roundID]))
	for _, o := range s.observers[roundID] {
		observers = append(observers, o)
	}
	s.obsMu.RUnlock()

	for _, e := range events {
		for _, o := range observers {
			o.OnRoundEvent(e)
		}
	}
}

// EvictFinished drops rounds from memory once they have been finished for
// longer than olderThan. They stay in the repository.
func (s *Service) EvictFinished(olderThan time.Duration) int {
	now := s.now()
	count := 0

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, lr := range s.rounds {
		lr.mu.Lock()
		stale := lr.round.Board.IsTerminal() && now.Sub(lr.finishedAt) > olderThan
		lr.mu.Unlock()

		if stale {
			delete(s.rounds, id)
			count++
		}
	}

	if count > 0 {
		log.Info().Str("component", "round").Int("removed", count).Msg("memory cleanup removed finished rounds")
	}
	return count
}

// LiveRounds is the number of rounds currently held in memory.
func (s *Service) LiveRounds() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rounds)
}
