package handler

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"pdfchat/internal/pkg/response"
	"pdfchat/internal/service"
)

// Asker answers a question within a session. Satisfied by service.ChatService.
type Asker interface {
	Ask(ctx context.Context, sessionID string, question string) (*service.Answer, error)
}

type ChatHandler struct {
	asker   Asker
	history *service.ChatHistory
	// Requests without a session_id share this one, so a bare client still
	// gets a continuous conversation for the life of the process.
	defaultSession string
	markdown       goldmark.Markdown
}

func NewChatHandler(asker Asker, history *service.ChatHistory) *ChatHandler {
	return &ChatHandler{
		asker:          asker,
		history:        history,
		defaultSession: uuid.NewString(),
		markdown:       goldmark.New(),
	}
}

type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

type askResponse struct {
	*service.Answer
	AnswerHTML string `json:"answer_html,omitempty"`
}

func (h *ChatHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	sessionID := h.sessionID(req.SessionID)

	answer, err := h.asker.Ask(c.Request.Context(), sessionID, req.Question)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, askResponse{Answer: answer, AnswerHTML: h.renderMarkdown(answer.Text)})
}

func (h *ChatHandler) History(c *gin.Context) {
	sessionID := h.sessionID(c.Query("session_id"))
	response.Success(c, gin.H{
		"session_id": sessionID,
		"turns":      h.history.Turns(sessionID),
	})
}

func (h *ChatHandler) sessionID(requested string) string {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return h.defaultSession
	}
	return requested
}

// renderMarkdown is best effort; clients fall back to the plain answer text.
func (h *ChatHandler) renderMarkdown(text string) string {
	var buf bytes.Buffer
	if err := h.markdown.Convert([]byte(text), &buf); err != nil {
		return ""
	}
	return buf.String()
}
