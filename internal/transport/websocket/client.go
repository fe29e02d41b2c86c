package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type client struct {
	conn *websocket.Conn
	// conn.WriteJSON is not safe for concurrent use
	writeMu sync.Mutex
	// round id -> unsubscribe from the round service
	watching map[string]func()
}

// ConnectionManager tracks open sockets and the rounds each one watches.
type ConnectionManager struct {
	mu      sync.RWMutex
	clients map[string]*client
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{clients: make(map[string]*client)}
}

func (cm *ConnectionManager) AddConnection(connID string, conn *websocket.Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.clients[connID] = &client{conn: conn, watching: make(map[string]func())}
}

// RemoveConnection drops every subscription of the connection and closes it.
func (cm *ConnectionManager) RemoveConnection(connID string) {
	cm.mu.Lock()
	c, exists := cm.clients[connID]
	delete(cm.clients, connID)
	cm.mu.Unlock()

	if !exists {
		return
	}
	for _, unsubscribe := range c.watching {
		unsubscribe()
	}
	c.conn.Close()
}

// Watch records a subscription. It returns false when the connection is
// gone or already watches the round; the caller must then unsubscribe.
func (cm *ConnectionManager) Watch(connID, roundID string, unsubscribe func()) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	c, exists := cm.clients[connID]
	if !exists {
		return false
	}
	if _, already := c.watching[roundID]; already {
		return false
	}
	c.watching[roundID] = unsubscribe
	return true
}

func (cm *ConnectionManager) IsWatching(connID, roundID string) bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	c, exists := cm.clients[connID]
	if !exists {
		return false
	}
	_, watching := c.watching[roundID]
	return watching
}

func (cm *ConnectionManager) Unwatch(connID, roundID string) {
	cm.mu.Lock()
	var unsubscribe func()
	if c, exists := cm.clients[connID]; exists {
		unsubscribe = c.watching[roundID]
		delete(c.watching, roundID)
	}
	cm.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// SendMessage writes v as JSON to one connection. A connection that is
// already gone is not an error.
func (cm *ConnectionManager) SendMessage(connID string, v any) error {
	cm.mu.RLock()
	c, exists := cm.clients[connID]
	cm.mu.RUnlock()
	if !exists {
		return nil
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(v)
}

func (cm *ConnectionManager) Ping(connID string) error {
	cm.mu.RLock()
	c, exists := cm.clients[connID]
	cm.mu.RUnlock()
	if !exists {
		return websocket.ErrCloseSent
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second))
}

func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.clients)
}
