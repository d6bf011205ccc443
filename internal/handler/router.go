package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"pdfchat/internal/middleware"
	"pdfchat/web"
)

type RouterDeps struct {
	Documents *DocumentHandler
	Chat      *ChatHandler
	// AskWindow throttles the AI-backed endpoints; zero disables the limiter.
	AskWindow time.Duration
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(nil))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	router.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
	})

	api := router.Group("/api/v1")
	api.POST("/documents", deps.Documents.Upload)
	api.GET("/chat/history", deps.Chat.History)

	limited := api.Group("")
	limited.Use(middleware.RateLimit(deps.AskWindow))
	limited.POST("/chat/ask", deps.Chat.Ask)

	return router
}
