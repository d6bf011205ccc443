package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"pdfchat/internal/ai"
	"pdfchat/internal/pkg/errs"
	"pdfchat/internal/model"
	"pdfchat/internal/vectorstore"
)

const contextualizeSystemPrompt = `Given a chat history and the latest user question which might reference context in the chat history, formulate a standalone question which can be understood without the chat history. Do NOT answer the question, just reformulate it if needed and otherwise return it as is.`

const answerSystemPrompt = `You are an assistant for question-answering tasks. Use the following pieces of retrieved context to answer the question. If you don't know the answer, just say that you don't know. Use three sentences maximum and keep the answer concise.

%s`

const (
	embedCacheSize = 512
	embedCacheTTL  = 30 * time.Minute
)

// DocumentRetriever finds the passages most useful for answering a query
// embedding. Satisfied by vectorstore.Retriever.
type DocumentRetriever interface {
	Retrieve(ctx context.Context, embedding []float32) ([]vectorstore.Result, error)
}

// Answer is one resolved question with the passages that backed it.
type Answer struct {
	SessionID string               `json:"session_id"`
	Question  string               `json:"question"`
	Rewritten string               `json:"rewritten_question,omitempty"`
	Text      string               `json:"answer"`
	Sources   []vectorstore.Result `json:"sources"`
}

// ChatService answers questions over the ingested documents. Each question
// is first rewritten into a standalone form using the session history, then
// embedded, matched against the store and finally answered from the
// retrieved passages only.
type ChatService struct {
	chat       ai.IChatModel
	embedder   ai.IEmbedder
	retriever  DocumentRetriever
	history    *ChatHistory
	embedCache *expirable.LRU[string, []float32]
	timeout    time.Duration
}

func NewChatService(chat ai.IChatModel, embedder ai.IEmbedder, retriever DocumentRetriever, history *ChatHistory, timeout time.Duration) *ChatService {
	return &ChatService{
		chat:       chat,
		embedder:   embedder,
		retriever:  retriever,
		history:    history,
		embedCache: expirable.NewLRU[string, []float32](embedCacheSize, nil, embedCacheTTL),
		timeout:    timeout,
	}
}

func (s *ChatService) Ask(ctx context.Context, sessionID string, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", errs.ErrInvalid)
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	logger := logutil.GetLogger(ctx).With(zap.String("session_id", sessionID))

	turns := s.history.Turns(sessionID)
	standalone, err := s.contextualize(ctx, turns, question)
	if err != nil {
		return nil, fmt.Errorf("contextualize question: %w", err)
	}
	if standalone != question {
		logger.Debug("question rewritten", zap.String("standalone", standalone))
	}

	embedding, err := s.embedQuery(ctx, standalone)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	results, err := s.retriever.Retrieve(ctx, embedding)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	if len(results) == 0 {
		return nil, errs.ErrNotIngested
	}

	text, err := s.generate(ctx, turns, results, question)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	s.history.Append(sessionID, question, text)
	logger.Info("question answered", zap.Int("sources", len(results)))

	ans := &Answer{
		SessionID: sessionID,
		Question:  question,
		Text:      text,
		Sources:   results,
	}
	if standalone != question {
		ans.Rewritten = standalone
	}
	return ans, nil
}

// contextualize rewrites a follow-up question into a standalone one. With no
// prior turns the question is already standalone and no model call is made.
func (s *ChatService) contextualize(ctx context.Context, turns []model.ChatTurn, question string) (string, error) {
	if len(turns) == 0 {
		return question, nil
	}
	msgs := make([]model.Message, 0, len(turns)*2+2)
	msgs = append(msgs, model.Message{Role: model.RoleSystem, Content: contextualizeSystemPrompt})
	msgs = append(msgs, historyMessages(turns)...)
	msgs = append(msgs, model.Message{Role: model.RoleUser, Content: question})

	rewritten, err := s.chat.Chat(ctx, msgs)
	if err != nil {
		return "", err
	}
	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return question, nil
	}
	return rewritten, nil
}

func (s *ChatService) generate(ctx context.Context, turns []model.ChatTurn, results []vectorstore.Result, question string) (string, error) {
	parts := make([]string, 0, len(results))
	for _, res := range results {
		parts = append(parts, res.Content)
	}
	system := fmt.Sprintf(answerSystemPrompt, strings.Join(parts, "\n\n"))

	msgs := make([]model.Message, 0, len(turns)*2+2)
	msgs = append(msgs, model.Message{Role: model.RoleSystem, Content: system})
	msgs = append(msgs, historyMessages(turns)...)
	msgs = append(msgs, model.Message{Role: model.RoleUser, Content: question})

	text, err := s.chat.Chat(ctx, msgs)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (s *ChatService) embedQuery(ctx context.Context, text string) ([]float32, error) {
	key := embedCacheKey(s.embedder.ModelName(), text)
	if embedding, ok := s.embedCache.Get(key); ok {
		return embedding, nil
	}
	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.embedCache.Add(key, embedding)
	return embedding, nil
}

func embedCacheKey(modelName, text string) string {
	sum := sha256.Sum256([]byte(modelName + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

func historyMessages(turns []model.ChatTurn) []model.Message {
	msgs := make([]model.Message, 0, len(turns)*2)
	for _, turn := range turns {
		msgs = append(msgs,
			model.Message{Role: model.RoleUser, Content: turn.Question},
			model.Message{Role: model.RoleAssistant, Content: turn.Answer},
		)
	}
	return msgs
}
