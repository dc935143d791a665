package router

import (
	"github.com/gin-gonic/gin"

	"storyshelf.app/assistant/internal/http/handler"
)

func ChatRouter(router *gin.RouterGroup, h *handler.ChatHandler) {
	router.POST("/chat", h.Chat)
}
