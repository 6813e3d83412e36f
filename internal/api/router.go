package api

import (
	"github.com/gin-gonic/gin"

	"scribe/internal/logger"
)

// RouterConfig configures the gin engine.
type RouterConfig struct {
	AllowedOrigins []string
	MaxUploadBytes int64
}

// NewRouter builds the gin engine with middleware and routes.
func NewRouter(h *Handler, cfg RouterConfig, log *logger.Logger) *gin.Engine {
	r := gin.New()
	httpLog := log.WithComponent("http")

	r.Use(
		RequestID(),
		Recovery(httpLog),
		RequestLogger(httpLog),
		CORS(cfg.AllowedOrigins),
		BodyLimit(cfg.MaxUploadBytes),
	)

	RegisterRoutes(r, h)
	return r
}
