package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"pdfchat/internal/model"
)

func TestNewProvider_UnknownName(t *testing.T) {
	_, err := NewProvider("nope", map[string]interface{}{})
	require.Error(t, err)
}

func TestNewProvider_EmptyName(t *testing.T) {
	_, err := NewProvider("", map[string]interface{}{})
	require.Error(t, err)
}

func TestNewProvider_RegisteredFactories(t *testing.T) {
	for _, name := range []string{"mistral", "openai", "gemini"} {
		p, err := NewProvider(name, map[string]interface{}{"api_key": "k"})
		require.NoError(t, err, name)
		require.Equal(t, name, p.Name())
	}
}

func TestProviders_FailWithoutAPIKey(t *testing.T) {
	for _, name := range []string{"mistral", "gemini"} {
		p, err := NewProvider(name, map[string]interface{}{})
		require.NoError(t, err, name)
		_, err = p.Chat(context.Background(), "m", []model.Message{{Role: model.RoleUser, Content: "hi"}})
		require.ErrorIs(t, err, ErrUnavailable, name)
		_, err = p.Embed(context.Background(), "m", "hi")
		require.ErrorIs(t, err, ErrUnavailable, name)
	}
}

func TestCollatePrompt(t *testing.T) {
	prompt := collatePrompt([]model.Message{
		{Role: model.RoleSystem, Content: "be brief"},
		{Role: model.RoleUser, Content: "what is this"},
		{Role: model.RoleAssistant, Content: "a test"},
	})
	require.Equal(t, "Instructions: be brief\n\nUser: what is this\n\nAssistant: a test", prompt)
}

func TestToLangchainRole(t *testing.T) {
	require.Equal(t, "system", string(toLangchainRole(model.RoleSystem)))
	require.Equal(t, "ai", string(toLangchainRole(model.RoleAssistant)))
	require.Equal(t, "human", string(toLangchainRole(model.RoleUser)))
}
