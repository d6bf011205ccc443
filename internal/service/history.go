package service

import (
	"sync"
	"time"

	"pdfchat/internal/model"
)

// ChatHistory keeps the per-session conversation in memory. Turns are
// append-only and returned in insertion order; nothing survives a restart.
type ChatHistory struct {
	mu       sync.RWMutex
	sessions map[string][]model.ChatTurn
}

func NewChatHistory() *ChatHistory {
	return &ChatHistory{sessions: make(map[string][]model.ChatTurn)}
}

func (h *ChatHistory) Append(sessionID string, question, answer string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[sessionID] = append(h.sessions[sessionID], model.ChatTurn{
		Question: question,
		Answer:   answer,
		Ctime:    time.Now().Unix(),
	})
}

// Turns returns a copy of the session's turns, oldest first.
func (h *ChatHistory) Turns(sessionID string) []model.ChatTurn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	turns := h.sessions[sessionID]
	out := make([]model.ChatTurn, len(turns))
	copy(out, turns)
	return out
}

func (h *ChatHistory) Len(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}
