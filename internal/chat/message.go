// Package chat implements the conversational core: follow-up classification,
// candidate caching, grounded prompt composition, bounded per-user history,
// and the turn orchestrator that wires them together.
package chat

// Message roles. The store rejects anything else on load.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of dialogue. Append-only; ordering is insertion order
// and is semantically meaningful.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"` // RFC 3339
}
