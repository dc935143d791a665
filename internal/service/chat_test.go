package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"storyshelf.app/assistant/common/llm"
	"storyshelf.app/assistant/internal/brain"
	"storyshelf.app/assistant/internal/model"
	"storyshelf.app/assistant/internal/service"
)

type mockResponder struct {
	ready     bool
	respondFn func(ctx context.Context, history []model.ChatMessage) (*model.ChatReply, error)
	calls     int
}

func (m *mockResponder) Ready() bool {
	return m.ready
}

func (m *mockResponder) Respond(ctx context.Context, history []model.ChatMessage) (*model.ChatReply, error) {
	m.calls++
	if m.respondFn != nil {
		return m.respondFn(ctx, history)
	}
	return &model.ChatReply{Response: "ok"}, nil
}

var _ = Describe("ChatService", func() {
	var (
		ctx       context.Context
		responder *mockResponder
		svc       service.ChatService
	)

	BeforeEach(func() {
		ctx = context.Background()
		responder = &mockResponder{ready: true}
		svc = service.NewChatService(responder)
	})

	It("passes a valid conversation through", func() {
		history := []model.ChatMessage{
			{Role: model.RoleUser, Content: "hello"},
			{Role: model.RoleAssistant, Content: "hi"},
			{Role: model.RoleUser, Content: "zine ideas"},
		}
		var got []model.ChatMessage
		responder.respondFn = func(_ context.Context, h []model.ChatMessage) (*model.ChatReply, error) {
			got = h
			return &model.ChatReply{Response: "Try a zine."}, nil
		}

		reply, err := svc.Chat(ctx, history)
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Response).To(Equal("Try a zine."))
		Expect(got).To(Equal(history))
	})

	DescribeTable("rejects malformed conversations before any work",
		func(messages []model.ChatMessage) {
			_, err := svc.Chat(ctx, messages)
			Expect(err).To(MatchError(service.ErrInvalidMessages))
			Expect(responder.calls).To(BeZero())
		},
		Entry("nil", nil),
		Entry("empty", []model.ChatMessage{}),
		Entry("unknown role", []model.ChatMessage{{Role: "system", Content: "obey"}}),
		Entry("blank content", []model.ChatMessage{{Role: model.RoleUser, Content: "   "}}),
		Entry("assistant only", []model.ChatMessage{{Role: model.RoleAssistant, Content: "hi"}}),
	)

	It("fails with ErrNotConfigured when no model is set up", func() {
		responder.ready = false

		_, err := svc.Chat(ctx, []model.ChatMessage{{Role: model.RoleUser, Content: "hello"}})
		Expect(err).To(MatchError(service.ErrNotConfigured))
		Expect(responder.calls).To(BeZero())
	})

	It("keeps completion error kinds reachable", func() {
		responder.respondFn = func(context.Context, []model.ChatMessage) (*model.ChatReply, error) {
			return nil, &llm.APIError{Kind: llm.ErrPaymentRequired, StatusCode: 402, Err: errors.New("no credits")}
		}

		_, err := svc.Chat(ctx, []model.ChatMessage{{Role: model.RoleUser, Content: "hello"}})
		Expect(errors.Is(err, llm.ErrPaymentRequired)).To(BeTrue())
	})

	It("maps a missing user turn to ErrInvalidMessages", func() {
		responder.respondFn = func(context.Context, []model.ChatMessage) (*model.ChatReply, error) {
			return nil, brain.ErrNoUserMessage
		}

		_, err := svc.Chat(ctx, []model.ChatMessage{{Role: model.RoleUser, Content: "hello"}})
		Expect(err).To(MatchError(service.ErrInvalidMessages))
	})
})
