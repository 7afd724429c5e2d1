// README: API gateway; registers HTTP routes and delegates to module services.
package http

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tlx/internal/http/handlers"
	"tlx/internal/http/middleware"
	"tlx/internal/modules/kb"
	"tlx/internal/modules/language"
	"tlx/internal/modules/responder"
	"tlx/internal/modules/uploads"
	"tlx/internal/service"
)

type ServerDeps struct {
	Assistant  *service.Assistant
	KB         *kb.Service
	Detector   *language.Detector
	Responder  *responder.Service
	Translator responder.Translator // optional
	Uploads    uploads.Store
	Log        zerolog.Logger
}

func NewRouter(deps ServerDeps) nethttp.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log))
	r.Use(middleware.Logging(deps.Log))
	r.Use(middleware.CORS())

	chat := handlers.NewChatHandler(deps.Assistant, deps.Uploads, deps.Log)
	r.POST("/chat", chat.Chat)

	kbh := handlers.NewKBHandler(deps.KB, deps.Detector, deps.Responder, deps.Translator, deps.Log)
	r.POST("/kb/ask", kbh.Ask)
	r.POST("/kb/reload", kbh.Reload)

	if disk, ok := deps.Uploads.(*uploads.DiskStore); ok {
		r.Static("/uploads", disk.Dir())
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(nethttp.StatusOK, gin.H{"status": "ok"})
	})

	return r
}
