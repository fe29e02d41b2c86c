package websocket

// ClientMessage is anything a browser sends over /ws.
type ClientMessage struct {
	Type     string `json:"type"`
	RoundID  string `json:"roundId"`
	PlayerID string `json:"playerId,omitempty"`
	Column   *int   `json:"column,omitempty"`
}

const (
	msgWatch    = "watch"
	msgUnwatch  = "unwatch"
	msgMakeMove = "make_move"
)

// ServerMessage carries acknowledgements and errors. Round events are
// written as they come from the round service.
type ServerMessage struct {
	Type    string `json:"type"`
	RoundID string `json:"roundId,omitempty"`
	Message string `json:"message,omitempty"`
}
