package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// multipartOverhead leaves room for boundaries and part headers on top of the file itself
const multipartOverhead = 64 * 1024

// RouterConfig holds router dependencies
type RouterConfig struct {
	Processor      UploadProcessor
	Health         HealthChecker // optional
	MaxUploadSize  int64
	AllowedOrigins []string
}

// NewRouter builds the gin engine with middleware and routes
func NewRouter(cfg *RouterConfig) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = cfg.MaxUploadSize

	r.Use(
		RequestID(),
		AccessLog(),
		Recovery(),
		cors.New(corsConfig(cfg.AllowedOrigins)),
	)

	handler := NewHandler(cfg.Processor, cfg.Health, cfg.MaxUploadSize)

	r.POST("/upload-image/", BodyLimit(cfg.MaxUploadSize+multipartOverhead), handler.UploadImage)
	r.GET("/health", handler.Health)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorPayload{Detail: "Not Found"})
	})

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", headerRequestID},
		ExposeHeaders: []string{headerRequestID},
		MaxAge:        12 * time.Hour,
	}

	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}
