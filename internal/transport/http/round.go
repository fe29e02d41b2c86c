package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/conecta4/server/internal/domain"
	"github.com/conecta4/server/internal/service/round"
	"github.com/conecta4/server/pkg/uid"
)

type RoundService interface {
	CreateRound(ctx context.Context, req round.CreateRoundRequest) (*domain.Round, error)
	GetRound(ctx context.Context, id string) (*domain.Round, error)
	ListRounds(ctx context.Context, playerID string) ([]*domain.Round, error)
	PlayMove(ctx context.Context, roundID, playerID string, column int) (*round.MoveOutcome, error)
	ResetRound(ctx context.Context, roundID, playerID string) (*domain.Round, error)
}

type RoundHandler struct {
	Rounds RoundService
}

func NewRoundHandler(rounds RoundService) *RoundHandler {
	return &RoundHandler{Rounds: rounds}
}

func (h *RoundHandler) Register(r gin.IRouter) {
	r.POST("/api/rounds", h.CreateRound)
	r.GET("/api/rounds", h.ListRounds)
	r.GET("/api/rounds/:id", h.GetRound)
	r.GET("/api/rounds/:id/board", h.GetBoardText)
	r.POST("/api/rounds/:id/moves", h.PlayMove)
	r.POST("/api/rounds/:id/reset", h.ResetRound)
}

type createRoundRequest struct {
	Title        string        `json:"title"`
	Rows         int           `json:"rows"`
	Columns      int           `json:"columns"`
	FirstPlayer  domain.Player `json:"firstPlayer"`
	SecondPlayer domain.Player `json:"secondPlayer"`
}

type moveRequest struct {
	PlayerID string `json:"playerId" binding:"required"`
	Column   *int   `json:"column" binding:"required"`
}

type resetRequest struct {
	PlayerID string `json:"playerId" binding:"required"`
}

// roundResponse carries the decoded grid next to the board string so
// clients do not have to parse it.
type roundResponse struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Rows         int             `json:"rows"`
	Columns      int             `json:"columns"`
	FirstPlayer  domain.Player   `json:"firstPlayer"`
	SecondPlayer domain.Player   `json:"secondPlayer"`
	Board        string          `json:"board"`
	Status       string          `json:"status"`
	Turn         int             `json:"turn"`
	MoveCount    int             `json:"moveCount"`
	Grid         [][]domain.Cell `json:"grid"`
	ValidMoves   []int           `json:"validMoves"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func newRoundResponse(r *domain.Round) (roundResponse, error) {
	board, err := r.Board.Serialize()
	if err != nil {
		return roundResponse{}, err
	}
	return roundResponse{
		ID:           r.ID,
		Title:        r.Title,
		Rows:         r.Board.Rows(),
		Columns:      r.Board.Columns(),
		FirstPlayer:  r.FirstPlayer,
		SecondPlayer: r.SecondPlayer,
		Board:        board,
		Status:       r.Board.Status().String(),
		Turn:         r.Board.Turn(),
		MoveCount:    r.Board.MoveCount(),
		Grid:         r.Board.Grid(),
		ValidMoves:   r.Board.OpenColumns(),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}, nil
}

// respondRound writes a single round, or a 500 if its board cannot be encoded.
func respondRound(c *gin.Context, status int, r *domain.Round) {
	resp, err := newRoundResponse(r)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, resp)
}

func (h *RoundHandler) CreateRound(c *gin.Context) {
	var req createRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	r, err := h.Rounds.CreateRound(c.Request.Context(), round.CreateRoundRequest{
		Title:        strings.TrimSpace(req.Title),
		Rows:         req.Rows,
		Columns:      req.Columns,
		FirstPlayer:  req.FirstPlayer,
		SecondPlayer: req.SecondPlayer,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	respondRound(c, http.StatusCreated, r)
}

func (h *RoundHandler) ListRounds(c *gin.Context) {
	playerID := c.Query("player")
	if playerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "player query parameter is required"})
		return
	}

	rounds, err := h.Rounds.ListRounds(c.Request.Context(), playerID)
	if err != nil {
		writeError(c, err)
		return
	}

	response := make([]roundResponse, 0, len(rounds))
	for _, r := range rounds {
		resp, err := newRoundResponse(r)
		if err != nil {
			writeError(c, err)
			return
		}
		response = append(response, resp)
	}
	c.JSON(http.StatusOK, response)
}

func (h *RoundHandler) GetRound(c *gin.Context) {
	id, ok := roundID(c)
	if !ok {
		return
	}
	r, err := h.Rounds.GetRound(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	respondRound(c, http.StatusOK, r)
}

// GetBoardText renders the board for terminals and logs.
func (h *RoundHandler) GetBoardText(c *gin.Context) {
	id, ok := roundID(c)
	if !ok {
		return
	}
	r, err := h.Rounds.GetRound(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.String(http.StatusOK, r.Board.String())
}

func (h *RoundHandler) PlayMove(c *gin.Context) {
	id, ok := roundID(c)
	if !ok {
		return
	}
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "playerId and column are required"})
		return
	}

	outcome, err := h.Rounds.PlayMove(c.Request.Context(), id, req.PlayerID, *req.Column)
	if err != nil {
		writeError(c, err)
		return
	}

	resp, err := newRoundResponse(outcome.Round)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"round":       resp,
		"moves":       outcome.Moves,
		"winningLine": outcome.WinningLine,
		"winner":      outcome.Winner,
	})
}

func (h *RoundHandler) ResetRound(c *gin.Context) {
	id, ok := roundID(c)
	if !ok {
		return
	}
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "playerId is required"})
		return
	}

	r, err := h.Rounds.ResetRound(c.Request.Context(), id, req.PlayerID)
	if err != nil {
		writeError(c, err)
		return
	}
	respondRound(c, http.StatusOK, r)
}

// roundID rejects ids no round could have without touching the stores.
func roundID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if !uid.IsValid(id) {
		writeError(c, round.ErrRoundNotFound)
		return "", false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, round.ErrRoundNotFound):
		status = http.StatusNotFound
	case errors.Is(err, round.ErrNotAPlayer):
		status = http.StatusForbidden
	case errors.Is(err, round.ErrNotYourTurn), errors.Is(err, round.ErrRoundFinished):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidMove),
		errors.Is(err, domain.ErrInvalidDimensions),
		errors.Is(err, round.ErrInvalidPlayers),
		errors.Is(err, round.ErrSelfInvite):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		log.Error().Str("component", "http").Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
