package service

import (
	"storyshelf.app/assistant/common/llm"
	"storyshelf.app/assistant/internal/brain"
	"storyshelf.app/assistant/internal/store"
)

type Services struct {
	stores    *store.Stores
	llmClient llm.Client
	maxTokens int
}

// NewServices wires the chat pipeline. llmClient may be nil; chat requests
// then fail with ErrNotConfigured.
func NewServices(stores *store.Stores, llmClient llm.Client, maxTokens int) *Services {
	return &Services{
		stores:    stores,
		llmClient: llmClient,
		maxTokens: maxTokens,
	}
}

func (s *Services) Orchestrator() *brain.Orchestrator {
	return brain.NewOrchestrator(brain.OrchestratorConfig{MaxTokens: s.maxTokens}, s.llmClient, s.stores)
}

func (s *Services) Chat() ChatService {
	return NewChatService(s.Orchestrator())
}
