package router

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"storyshelf.app/assistant/internal/http/handler"
	"storyshelf.app/assistant/internal/http/middleware"
	"storyshelf.app/assistant/internal/service"
)

type RouterConfig struct {
	// OTelServiceName enables request tracing when set.
	OTelServiceName string
	AllowedOrigin   string
	Health          handler.Pinger
}

// NewEngine builds the gin engine with the standard middleware chain and all
// routes mounted.
func NewEngine(services *service.Services, cfg RouterConfig) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → request id seeds log fields → Recovery catches panics → Logger logs with both
	if cfg.OTelServiceName != "" {
		router.Use(otelgin.Middleware(cfg.OTelServiceName))
	}
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.AllowedOrigin))

	SetupRoutes(router, services, cfg)
	return router
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	healthHandler := handler.NewHealthHandler(cfg.Health)
	router.GET("/health", healthHandler.Health)

	v1 := router.Group("/api/v1")
	{
		chatHandler := handler.NewChatHandler(services.Chat())
		ChatRouter(v1, chatHandler)
	}
}
