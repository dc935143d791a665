package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"storyshelf.app/assistant/common/llm"
	"storyshelf.app/assistant/internal/http/dto"
	"storyshelf.app/assistant/internal/service"
)

const (
	msgInvalidMessages = "messages must be a non-empty list of {role, content}"
	msgNotConfigured   = "The assistant is not configured."
	msgRateLimited     = "Rate limit exceeded. Please try again in a moment."
	msgPaymentRequired = "Payment required. Please add credits to continue."
	msgGatewayError    = "AI gateway error"
	msgResponseFailed  = "Failed to get a response. Please try again."
)

type ChatHandler struct {
	chatService service.ChatService
}

func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid chat request body", "error", err)
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: msgInvalidMessages})
		return
	}

	reply, err := h.chatService.Chat(ctx, req.ToModel())
	if err != nil {
		status, message := chatErrorResponse(err)
		if status >= http.StatusInternalServerError {
			slog.ErrorContext(ctx, "chat failed",
				"error", err,
				"upstream_status", llm.StatusCode(err))
		}
		c.JSON(status, dto.ErrorResponse{Error: message})
		return
	}

	c.JSON(http.StatusOK, dto.ToChatResponse(reply))
}

// chatErrorResponse maps a chat failure to the status and short message the
// caller sees.
func chatErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidMessages):
		return http.StatusBadRequest, msgInvalidMessages
	case errors.Is(err, service.ErrNotConfigured):
		return http.StatusInternalServerError, msgNotConfigured
	case errors.Is(err, llm.ErrRateLimited):
		return http.StatusTooManyRequests, msgRateLimited
	case errors.Is(err, llm.ErrPaymentRequired):
		return http.StatusPaymentRequired, msgPaymentRequired
	case errors.Is(err, llm.ErrGateway):
		return http.StatusInternalServerError, msgGatewayError
	default:
		return http.StatusInternalServerError, msgResponseFailed
	}
}
