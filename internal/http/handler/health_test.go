package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"storyshelf.app/assistant/internal/http/handler"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

var _ = Describe("HealthHandler", func() {
	get := func(h *handler.HealthHandler) *httptest.ResponseRecorder {
		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.GET("/health", h.Health)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		return w
	}

	It("reports ok without a database", func() {
		w := get(handler.NewHealthHandler(nil))
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"status":"ok"}`))
	})

	It("reports ok when the database answers", func() {
		w := get(handler.NewHealthHandler(pingerFunc(func(context.Context) error { return nil })))
		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("reports unavailable when the database does not answer", func() {
		w := get(handler.NewHealthHandler(pingerFunc(func(context.Context) error { return errors.New("refused") })))
		Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
		Expect(w.Body.String()).To(MatchJSON(`{"status":"unavailable"}`))
	})
})
