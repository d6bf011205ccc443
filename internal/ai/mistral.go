package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"pdfchat/internal/model"
)

// Mistral exposes an OpenAI-compatible API, so both the mistral and openai
// providers share one client implementation and differ only in base URL.
const defaultMistralBaseURL = "https://api.mistral.ai/v1"

type openAICompatConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

type openAICompatProvider struct {
	name    string
	apiKey  string
	baseURL string
}

func (p *openAICompatProvider) Name() string {
	return p.name
}

func (p *openAICompatProvider) Chat(ctx context.Context, chatModel string, msgs []model.Message) (string, error) {
	if p.apiKey == "" {
		return "", ErrUnavailable
	}
	llm, err := openai.New(
		openai.WithBaseURL(p.baseURL),
		openai.WithToken(p.apiKey),
		openai.WithModel(chatModel),
	)
	if err != nil {
		return "", fmt.Errorf("init %s client: %w", p.name, err)
	}
	content := make([]llms.MessageContent, 0, len(msgs))
	for _, msg := range msgs {
		content = append(content, llms.TextParts(toLangchainRole(msg.Role), msg.Content))
	}
	resp, err := llm.GenerateContent(ctx, content)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s response has no choices", p.name)
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

func (p *openAICompatProvider) Embed(ctx context.Context, embedModel string, text string) ([]float32, error) {
	if p.apiKey == "" {
		return nil, ErrUnavailable
	}
	llm, err := openai.New(
		openai.WithBaseURL(p.baseURL),
		openai.WithToken(p.apiKey),
		openai.WithEmbeddingModel(embedModel),
	)
	if err != nil {
		return nil, fmt.Errorf("init %s client: %w", p.name, err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("init %s embedder: %w", p.name, err)
	}
	return embedder.EmbedQuery(ctx, text)
}

func toLangchainRole(role model.Role) llms.ChatMessageType {
	switch role {
	case model.RoleSystem:
		return llms.ChatMessageTypeSystem
	case model.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

func createMistralFactory(args interface{}) (IProvider, error) {
	cfg := &openAICompatConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultMistralBaseURL
	}
	return &openAICompatProvider{
		name:    "mistral",
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
	}, nil
}

func init() {
	Register("mistral", createMistralFactory)
}
