package models

// Turn is one prior exchange in a conversation, supplied by the client
// as context. Turns are never persisted by the server.
type Turn struct {
	Role    string `json:"role"` // RoleUser or RoleAI
	Content string `json:"content"`
}

// Turn roles.
const (
	RoleUser = "user"
	RoleAI   = "assistant"
)

// TurnWindow is the number of most recent turns included in a prompt.
const TurnWindow = 16

// WindowTurns returns the most recent TurnWindow turns in order.
func WindowTurns(turns []Turn) []Turn {
	if len(turns) <= TurnWindow {
		return turns
	}
	return turns[len(turns)-TurnWindow:]
}
