package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/celanai/celan/internal/core/domain"
	"github.com/celanai/celan/internal/core/ports"
)

const (
	SystemPrompt = "You are a helpful AI assistant for Celan IA, a SaaS platform that helps businesses create AI agents, automations, and digital experiences. Be friendly, professional, and helpful."

	// FallbackReply is sent when the model returns no text.
	FallbackReply = "Sorry, I could not generate a response."

	defaultChatModel = "gpt-4o"
	chatMaxTokens    = 1000
	chatTemperature  = 0.7
)

type ChatService struct {
	client ports.CompletionClient
	model  string
	log    zerolog.Logger
}

func NewChatService(client ports.CompletionClient, model string, log zerolog.Logger) *ChatService {
	if model == "" {
		model = defaultChatModel
	}
	return &ChatService{client: client, model: model, log: log}
}

// Reply sends the history, prefixed with the assistant instructions, and
// returns the first choice. Only user and assistant turns are accepted.
func (s *ChatService) Reply(ctx context.Context, history []domain.ChatMessage) (string, error) {
	if len(history) == 0 {
		return "", domain.ErrInvalidMessages
	}
	for _, m := range history {
		if m.Role != domain.RoleUser && m.Role != domain.RoleAssistant {
			return "", domain.ErrInvalidMessages
		}
	}

	text, err := s.client.Complete(ctx, ports.CompletionRequest{
		Model:       s.model,
		System:      SystemPrompt,
		Messages:    history,
		MaxTokens:   chatMaxTokens,
		Temperature: chatTemperature,
	})
	if err != nil {
		if errors.Is(err, domain.ErrMissingCredential) {
			return "", domain.ErrMissingCredential
		}
		s.log.Error().Err(err).Int("messages", len(history)).Msg("completion request failed")
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if strings.TrimSpace(text) == "" {
		return FallbackReply, nil
	}
	return text, nil
}
