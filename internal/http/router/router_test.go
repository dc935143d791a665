package router_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"storyshelf.app/assistant/common/llm"
	"storyshelf.app/assistant/internal/http/router"
	"storyshelf.app/assistant/internal/service"
	"storyshelf.app/assistant/internal/store"
)

const blockPartyBody = `{"messages":[{"role":"user","content":"I want to remix a prompt for a block party in my neighborhood"}]}`

var _ = Describe("Engine", func() {
	var (
		library *fakeLibraryDB
		gateway *fakeGateway
		engine  *gin.Engine
	)

	newEngine := func(client llm.Client) *gin.Engine {
		stores := store.NewStores(library, nil, time.Minute)
		return router.NewEngine(service.NewServices(stores, client, 256), router.RouterConfig{})
	}

	BeforeEach(func() {
		library = &fakeLibraryDB{
			rows: map[string][][]any{
				"prompts": {{"8d0c6c1e-5b1f-4c55-9a55-3d2f0f1c2b10", "Block Party Supply Sign-Up", "Events", "Who brings what to the block party", ""}},
				"tools":   {{"t-1", "Party Planner", "Plan a street party", "https://planner.example"}},
			},
		}
		gateway = &fakeGateway{status: http.StatusOK, content: "Start with [LIBRARY_ITEM:prompt:8d0c6c1e-5b1f-4c55-9a55-3d2f0f1c2b10:Block Party Supply Sign-Up]."}
		server := httptest.NewServer(gateway)
		DeferCleanup(server.Close)

		client, err := llm.New(llm.Config{
			APIKey:  "test-key",
			BaseURL: server.URL + "/v1/",
			Model:   "test-model",
			Timeout: 2 * time.Second,
		})
		Expect(err).NotTo(HaveOccurred())
		engine = newEngine(client)
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	It("answers the block party request with the seeded prompt in context", func() {
		w := do(http.MethodPost, "/api/v1/chat", blockPartyBody)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("X-Request-Id")).NotTo(BeEmpty())
		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))

		var resp struct {
			Response   string `json:"response"`
			References []struct {
				Type, ID, Title string
			} `json:"references"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Response).To(ContainSubstring("Block Party Supply Sign-Up"))
		Expect(resp.References).To(HaveLen(1))
		Expect(resp.References[0].ID).To(Equal("8d0c6c1e-5b1f-4c55-9a55-3d2f0f1c2b10"))

		system := gateway.systemPrompt()
		Expect(system).To(ContainSubstring("RELEVANT PROMPTS FROM THE LIBRARY"))
		Expect(system).To(ContainSubstring("ID: 8d0c6c1e-5b1f-4c55-9a55-3d2f0f1c2b10\nTitle: Block Party Supply Sign-Up"))
		Expect(system).To(ContainSubstring("RELEVANT TOOLS FROM THE LIBRARY"))
		Expect(system).NotTo(ContainSubstring("RELEVANT STORIES FROM THE LIBRARY"))
	})

	It("still answers when one collection query fails", func() {
		library.failed = map[string]error{"prompts": errors.New("relation \"prompts\" does not exist")}

		w := do(http.MethodPost, "/api/v1/chat", blockPartyBody)

		Expect(w.Code).To(Equal(http.StatusOK))
		system := gateway.systemPrompt()
		Expect(system).NotTo(ContainSubstring("RELEVANT PROMPTS FROM THE LIBRARY"))
		Expect(system).To(ContainSubstring("RELEVANT TOOLS FROM THE LIBRARY"))
	})

	DescribeTable("surfaces gateway limits to the caller",
		func(upstream, status int, message string) {
			gateway.respondWith(upstream, "limited")

			w := do(http.MethodPost, "/api/v1/chat", blockPartyBody)

			Expect(w.Code).To(Equal(status))
			Expect(w.Body.String()).To(MatchJSON(`{"error":"` + message + `"}`))
		},
		Entry("429", http.StatusTooManyRequests, http.StatusTooManyRequests, "Rate limit exceeded. Please try again in a moment."),
		Entry("402", http.StatusPaymentRequired, http.StatusPaymentRequired, "Payment required. Please add credits to continue."),
		Entry("500", http.StatusInternalServerError, http.StatusInternalServerError, "AI gateway error"),
	)

	It("answers CORS preflight on any path with 204 and no body", func() {
		for _, path := range []string{"/api/v1/chat", "/anything"} {
			w := do(http.MethodOptions, path, "")

			Expect(w.Code).To(Equal(http.StatusNoContent))
			Expect(w.Body.Len()).To(BeZero())
			Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
			Expect(w.Header().Get("Access-Control-Allow-Headers")).To(ContainSubstring("content-type"))
		}
	})

	It("rejects an empty conversation", func() {
		w := do(http.MethodPost, "/api/v1/chat", `{"messages":[]}`)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(MatchJSON(`{"error":"messages must be a non-empty list of {role, content}"}`))
	})

	It("reports a missing model configuration", func() {
		engine = newEngine(nil)

		w := do(http.MethodPost, "/api/v1/chat", blockPartyBody)

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(w.Body.String()).To(MatchJSON(`{"error":"The assistant is not configured."}`))
	})

	It("serves the health check", func() {
		w := do(http.MethodGet, "/health", "")

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"status":"ok"}`))
	})
})
