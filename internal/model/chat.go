package model

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a chat request sent to an AI provider.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatTurn is one completed (question, answer) exchange. Turns are held in
// process memory per session and are lost on restart.
type ChatTurn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Ctime    int64  `json:"ctime"`
}
