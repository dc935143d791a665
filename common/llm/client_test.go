package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"storyshelf.app/assistant/common/llm"
)

const openAISuccessBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "test-model",
  "choices": [{
    "index": 0,
    "message": {"role": "assistant", "content": "Try [LIBRARY_ITEM:prompt:p-1:Block Party Supply Sign-Up]!"},
    "finish_reason": "stop"
  }],
  "usage": {"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20}
}`

const anthropicSuccessBody = `{
  "id": "msg_1",
  "type": "message",
  "role": "assistant",
  "model": "claude-test",
  "content": [{"type": "text", "text": "Hello from the library."}],
  "stop_reason": "end_turn",
  "usage": {"input_tokens": 5, "output_tokens": 4}
}`

func errorBody(message string) string {
	return `{"error": {"message": "` + message + `", "type": "error"}}`
}

var _ = Describe("New", func() {
	It("requires an API key", func() {
		client, err := llm.New(llm.Config{Provider: llm.ProviderOpenAI})
		Expect(err).To(HaveOccurred())
		Expect(client).To(BeNil())
	})

	It("rejects unknown providers", func() {
		_, err := llm.New(llm.Config{Provider: "cohere", APIKey: "k"})
		Expect(err).To(MatchError(ContainSubstring("unsupported LLM provider")))
	})

	It("defaults to the OpenAI-compatible provider", func() {
		client, err := llm.New(llm.Config{APIKey: "k", Model: "gateway-model"})
		Expect(err).NotTo(HaveOccurred())
		Expect(client.Model()).To(Equal("gateway-model"))
	})
})

// fakeUpstream serves canned completion responses and records requests.
type fakeUpstream struct {
	mu       sync.Mutex
	status   int
	body     string
	delay    time.Duration
	calls    int
	captured map[string]any
}

func (f *fakeUpstream) respondWith(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status, f.body = status, body
}

func (f *fakeUpstream) setDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

func (f *fakeUpstream) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeUpstream) lastRequest() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.captured
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var captured map[string]any
	_ = json.Unmarshal(raw, &captured)

	f.mu.Lock()
	f.calls++
	f.captured = captured
	status, body, delay := f.status, f.body, f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

var _ = Describe("OpenAI-compatible client", func() {
	var (
		upstream *fakeUpstream
		server   *httptest.Server
		client   llm.Client
	)

	BeforeEach(func() {
		upstream = &fakeUpstream{status: http.StatusOK, body: openAISuccessBody}
		server = httptest.NewServer(upstream)
		DeferCleanup(server.Close)

		var err error
		client, err = llm.New(llm.Config{
			Provider: llm.ProviderOpenAI,
			APIKey:   "test-key",
			BaseURL:  server.URL + "/v1/",
			Model:    "test-model",
			Timeout:  2 * time.Second,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	request := llm.Request{Messages: []llm.Message{
		{Role: "system", Content: "You are the library assistant."},
		{Role: "user", Content: "ideas for a block party?"},
	}}

	It("returns the completion text verbatim", func() {
		resp, err := client.Complete(context.Background(), request)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Content).To(Equal("Try [LIBRARY_ITEM:prompt:p-1:Block Party Supply Sign-Up]!"))
		Expect(resp.PromptTokens).To(Equal(12))
		Expect(resp.CompletionTokens).To(Equal(8))
	})

	It("sends the system message first and the model identifier", func() {
		_, err := client.Complete(context.Background(), request)
		Expect(err).NotTo(HaveOccurred())
		captured := upstream.lastRequest()
		Expect(captured["model"]).To(Equal("test-model"))
		messages, ok := captured["messages"].([]any)
		Expect(ok).To(BeTrue())
		Expect(messages).To(HaveLen(2))
		first := messages[0].(map[string]any)
		Expect(first["role"]).To(Equal("system"))
		Expect(first["content"]).To(Equal("You are the library assistant."))
	})

	DescribeTable("classifies upstream failures without retrying",
		func(code int, kind error) {
			upstream.respondWith(code, errorBody("upstream said no"))

			_, err := client.Complete(context.Background(), request)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, kind)).To(BeTrue(), "got %v", err)
			Expect(llm.StatusCode(err)).To(Equal(code))
			Expect(upstream.callCount()).To(Equal(1))
		},
		Entry("429 is rate limited", http.StatusTooManyRequests, llm.ErrRateLimited),
		Entry("402 is payment required", http.StatusPaymentRequired, llm.ErrPaymentRequired),
		Entry("500 is a gateway error", http.StatusInternalServerError, llm.ErrGateway),
		Entry("400 is a gateway error", http.StatusBadRequest, llm.ErrGateway),
	)

	It("treats a timeout as an unavailable service", func() {
		upstream.setDelay(time.Second)
		fast, err := llm.New(llm.Config{
			APIKey:  "test-key",
			BaseURL: server.URL + "/v1/",
			Timeout: 50 * time.Millisecond,
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = fast.Complete(context.Background(), request)
		Expect(errors.Is(err, llm.ErrUnavailable)).To(BeTrue(), "got %v", err)
		Expect(llm.StatusCode(err)).To(BeZero())
	})

	It("fails with a gateway error when no choices are returned", func() {
		upstream.respondWith(http.StatusOK, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`)
		_, err := client.Complete(context.Background(), request)
		Expect(errors.Is(err, llm.ErrGateway)).To(BeTrue())
	})
})

var _ = Describe("Anthropic client", func() {
	var (
		upstream *fakeUpstream
		client   llm.Client
	)

	BeforeEach(func() {
		upstream = &fakeUpstream{status: http.StatusOK, body: anthropicSuccessBody}
		server := httptest.NewServer(upstream)
		DeferCleanup(server.Close)

		var err error
		client, err = llm.New(llm.Config{
			Provider: llm.ProviderAnthropic,
			APIKey:   "test-key",
			BaseURL:  server.URL + "/",
			Model:    "claude-test",
			Timeout:  2 * time.Second,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	request := llm.Request{Messages: []llm.Message{
		{Role: "system", Content: "You are the library assistant."},
		{Role: "user", Content: "hello"},
	}}

	It("concatenates text blocks", func() {
		resp, err := client.Complete(context.Background(), request)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Content).To(Equal("Hello from the library."))
		Expect(resp.FinishReason).To(Equal("end_turn"))
	})

	It("maps 429 to rate limited", func() {
		upstream.respondWith(http.StatusTooManyRequests, `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`)

		_, err := client.Complete(context.Background(), request)
		Expect(errors.Is(err, llm.ErrRateLimited)).To(BeTrue(), "got %v", err)
	})
})
