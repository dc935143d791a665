package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"storyshelf.app/assistant/internal/brain"
	"storyshelf.app/assistant/internal/model"
)

var (
	// ErrInvalidMessages is returned for an empty conversation, an unknown
	// role, or a blank message.
	ErrInvalidMessages = errors.New("invalid chat messages")

	// ErrNotConfigured is returned when no completion model is configured.
	ErrNotConfigured = errors.New("assistant is not configured")
)

type ChatService interface {
	Chat(ctx context.Context, messages []model.ChatMessage) (*model.ChatReply, error)
}

// Responder runs the chat pipeline. *brain.Orchestrator satisfies it.
type Responder interface {
	Ready() bool
	Respond(ctx context.Context, history []model.ChatMessage) (*model.ChatReply, error)
}

type chatService struct {
	responder Responder
}

func NewChatService(responder Responder) ChatService {
	return &chatService{responder: responder}
}

func (s *chatService) Chat(ctx context.Context, messages []model.ChatMessage) (*model.ChatReply, error) {
	if err := ValidateMessages(messages); err != nil {
		slog.WarnContext(ctx, "rejected chat request", "error", err)
		return nil, err
	}

	if s.responder == nil || !s.responder.Ready() {
		slog.ErrorContext(ctx, "chat requested but no completion model is configured")
		return nil, ErrNotConfigured
	}

	reply, err := s.responder.Respond(ctx, messages)
	if err != nil {
		if errors.Is(err, brain.ErrNoUserMessage) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidMessages, err)
		}
		return nil, fmt.Errorf("responding to chat: %w", err)
	}
	return reply, nil
}

// ValidateMessages checks that messages is a non-empty list of user and
// assistant turns with content, ending in at least one user turn.
func ValidateMessages(messages []model.ChatMessage) error {
	if len(messages) == 0 {
		return fmt.Errorf("%w: no messages", ErrInvalidMessages)
	}

	hasUser := false
	for i, m := range messages {
		switch m.Role {
		case model.RoleUser:
			hasUser = true
		case model.RoleAssistant:
		default:
			return fmt.Errorf("%w: message %d has role %q", ErrInvalidMessages, i, m.Role)
		}
		if strings.TrimSpace(m.Content) == "" {
			return fmt.Errorf("%w: message %d has no content", ErrInvalidMessages, i)
		}
	}

	if !hasUser {
		return fmt.Errorf("%w: no user message", ErrInvalidMessages)
	}
	return nil
}
