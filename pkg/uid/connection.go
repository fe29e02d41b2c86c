package uid

import "github.com/google/uuid"

// GenerateConnectionID names a websocket connection in logs and in the
// connection manager.
func GenerateConnectionID() string {
	return "conn-" + uuid.NewString()
}
