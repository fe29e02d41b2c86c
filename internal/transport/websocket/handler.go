package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/conecta4/server/internal/service/round"
	"github.com/conecta4/server/pkg/uid"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
)

type RoundService interface {
	PlayMove(ctx context.Context, roundID, playerID string, column int) (*round.MoveOutcome, error)
	Watch(ctx context.Context, roundID string, o round.Observer) (round.Event, func(), error)
}

type Handler struct {
	ConnManager *ConnectionManager
	Rounds      RoundService
	Upgrader    websocket.Upgrader
}

// NewHandler accepts browsers from allowedOrigins; requests without an
// Origin header are always accepted.
func NewHandler(cm *ConnectionManager, rounds RoundService, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return &Handler{
		ConnManager: cm,
		Rounds:      rounds,
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Str("component", "ws").Err(err).Msg("upgrade failed")
		return
	}

	h.handleConnection(conn)
}

func (h *Handler) handleConnection(conn *websocket.Conn) {
	connID := uid.GenerateConnectionID()
	h.ConnManager.AddConnection(connID, conn)
	log.Debug().Str("component", "ws").Str("conn_id", connID).Msg("connection opened")

	done := make(chan struct{})
	defer func() {
		close(done)
		h.ConnManager.RemoveConnection(connID)
		log.Debug().Str("component", "ws").Str("conn_id", connID).Msg("connection closed")
	}()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := h.ConnManager.Ping(connID); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Str("component", "ws").Str("conn_id", connID).Err(err).Msg("unexpected disconnect")
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.sendError(connID, "", "Invalid message format")
			continue
		}

		h.processMessage(connID, msg)
	}
}

func (h *Handler) processMessage(connID string, msg ClientMessage) {
	if msg.RoundID == "" {
		h.sendError(connID, "", "roundId is required")
		return
	}
	if !uid.IsValid(msg.RoundID) {
		h.sendError(connID, msg.RoundID, round.ErrRoundNotFound.Error())
		return
	}

	switch msg.Type {
	case msgWatch:
		h.watch(connID, msg.RoundID)

	case msgUnwatch:
		h.ConnManager.Unwatch(connID, msg.RoundID)
		h.ConnManager.SendMessage(connID, ServerMessage{Type: "unwatched", RoundID: msg.RoundID})

	case msgMakeMove:
		if msg.Column == nil || msg.PlayerID == "" {
			h.sendError(connID, msg.RoundID, "playerId and column are required")
			return
		}
		// the mover sees the result through the same feed as everybody else
		if !h.ConnManager.IsWatching(connID, msg.RoundID) && !h.watch(connID, msg.RoundID) {
			return
		}
		if _, err := h.Rounds.PlayMove(context.Background(), msg.RoundID, msg.PlayerID, *msg.Column); err != nil {
			h.sendError(connID, msg.RoundID, err.Error())
		}

	default:
		h.sendError(connID, msg.RoundID, "Unknown message type")
	}
}

// watch subscribes the connection to a round and sends the current state.
// Events pushed while the snapshot is being written wait for it, and events
// older than what the connection already has are dropped.
func (h *Handler) watch(connID, roundID string) bool {
	var mu sync.Mutex
	var delivered uint64

	mu.Lock()
	defer mu.Unlock()

	snapshot, unsubscribe, err := h.Rounds.Watch(context.Background(), roundID, round.ObserverFunc(func(e round.Event) {
		mu.Lock()
		defer mu.Unlock()
		if e.Version <= delivered {
			return
		}
		delivered = e.Version
		if err := h.ConnManager.SendMessage(connID, e); err != nil {
			log.Warn().Str("component", "ws").Str("conn_id", connID).Err(err).Msg("failed to push round event")
		}
	}))
	if err != nil {
		h.sendError(connID, roundID, err.Error())
		return false
	}
	if !h.ConnManager.Watch(connID, roundID, unsubscribe) {
		unsubscribe()
	}

	delivered = snapshot.Version
	h.ConnManager.SendMessage(connID, snapshot)
	return true
}

func (h *Handler) sendError(connID, roundID, message string) {
	h.ConnManager.SendMessage(connID, ServerMessage{Type: "error", RoundID: roundID, Message: message})
}
