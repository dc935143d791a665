package brain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"storyshelf.app/assistant/common/llm"
	"storyshelf.app/assistant/common/logger"
	"storyshelf.app/assistant/internal/model"
)

// ErrNoUserMessage is returned when the conversation has no user turn to
// answer.
var ErrNoUserMessage = errors.New("conversation has no user message")

type OrchestratorConfig struct {
	MaxTokens   int
	Temperature *float64
}

// Orchestrator runs one chat turn: extract keywords, retrieve and rank library
// content, assemble the system prompt, and ask the model.
type Orchestrator struct {
	cfg            OrchestratorConfig
	llm            llm.Client
	retriever      *Retriever
	contextBuilder *ContextBuilder
}

// NewOrchestrator wires the pipeline. client may be nil when no model is
// configured; Respond then fails and Ready reports false.
func NewOrchestrator(cfg OrchestratorConfig, client llm.Client, source CollectionSource) *Orchestrator {
	return &Orchestrator{
		cfg:            cfg,
		llm:            client,
		retriever:      NewRetriever(source),
		contextBuilder: NewContextBuilder(source),
	}
}

// Ready reports whether a completion client is configured.
func (o *Orchestrator) Ready() bool {
	return o.llm != nil
}

// BuildLibraryContext runs extraction, retrieval, ranking, and ID resolution
// for one user message and returns the rendered context block.
func (o *Orchestrator) BuildLibraryContext(ctx context.Context, userMessage string) (string, error) {
	sc := logger.StartSpan(ctx, "brain.library_context")
	defer sc.End()
	ctx = logger.WithLogFields(sc.Context(), logger.LogFields{
		Component: "assistant.brain.retriever",
	})

	keywords := ExtractKeywords(userMessage)
	sc.Span().SetAttributes(attribute.Int("keyword_count", len(keywords)))
	if len(keywords) == 0 {
		slog.DebugContext(ctx, "no keywords extracted, skipping retrieval")
		return "", nil
	}

	slog.DebugContext(ctx, "keywords extracted", "keywords", keywords)

	candidates, err := o.retriever.Retrieve(ctx, keywords)
	if err != nil {
		sc.RecordError(err)
		return "", err
	}

	ranked := make(Ranked, len(model.Collections))
	for _, collection := range model.Collections {
		if top := Rank(candidates[collection], keywords, maxRankedPerCollection); len(top) > 0 {
			ranked[collection] = top
		}
	}

	ranked = o.contextBuilder.ResolveIDs(ctx, ranked)
	libraryContext := o.contextBuilder.BuildLibraryContext(ranked)

	slog.InfoContext(ctx, "library context assembled",
		"candidate_count", candidates.Total(),
		"prompt_count", len(ranked[model.CollectionPrompts]),
		"story_count", len(ranked[model.CollectionStories]),
		"tool_count", len(ranked[model.CollectionTools]),
		"context_length", len(libraryContext))

	return libraryContext, nil
}

// Respond answers the latest user message in history. The reply text is
// returned verbatim alongside the library references it cites.
func (o *Orchestrator) Respond(ctx context.Context, history []model.ChatMessage) (*model.ChatReply, error) {
	if o.llm == nil {
		return nil, errors.New("no completion client configured")
	}

	userMessage, ok := latestUserMessage(history)
	if !ok {
		return nil, ErrNoUserMessage
	}

	sc := logger.StartSpan(ctx, "brain.respond")
	defer sc.End()
	ctx = logger.WithLogFields(sc.Context(), logger.LogFields{
		Model:     logger.Ptr(o.llm.Model()),
		Component: "assistant.brain.orchestrator",
	})

	slog.InfoContext(ctx, "handling chat turn",
		"message_count", len(history),
		"message", logger.Truncate(userMessage, 200))

	libraryContext, err := o.BuildLibraryContext(ctx, userMessage)
	if err != nil {
		sc.RecordError(err)
		return nil, err
	}

	req := llm.Request{
		Messages:    o.buildMessages(libraryContext, history),
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
	}

	start := time.Now()
	resp, err := o.llm.Complete(ctx, req)
	if err != nil {
		sc.RecordError(err)
		return nil, fmt.Errorf("completing chat turn: %w", err)
	}

	refs := ParseReferences(resp.Content)

	slog.InfoContext(ctx, "chat turn completed",
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.PromptTokens,
		"completion_tokens", resp.CompletionTokens,
		"finish_reason", resp.FinishReason,
		"reference_count", len(refs))

	return &model.ChatReply{
		Response:       resp.Content,
		References:     refs,
		LibraryContext: libraryContext,
	}, nil
}

func (o *Orchestrator) buildMessages(libraryContext string, history []model.ChatMessage) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.Message{
		Role:    model.RoleSystem,
		Content: o.contextBuilder.BuildSystemPrompt(libraryContext),
	})
	for _, m := range history {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	return messages
}

func latestUserMessage(history []model.ChatMessage) (string, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == model.RoleUser && strings.TrimSpace(history[i].Content) != "" {
			return history[i].Content, true
		}
	}
	return "", false
}
