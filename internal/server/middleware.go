package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rxmind/rxmind-backend/internal/logging"
)

const (
	headerRequestID  = "X-Request-ID"
	contextRequestID = "requestID"
	maxRequestIDLen  = 128
)

// RequestID assigns every request an ID, reusing the caller's X-Request-ID when sane
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		c.Set(contextRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// AccessLog writes one structured line per request
func AccessLog() gin.HandlerFunc {
	logger := logging.NewLogger("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		kv := []interface{}{
			"requestId", c.GetString(contextRequestID),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"bytesIn", c.Request.ContentLength,
			"latency", time.Since(start),
			"clientIp", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "errors", c.Errors.String())
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("Request failed", kv...)
		case c.Writer.Status() >= http.StatusBadRequest:
			logger.Warn("Request rejected", kv...)
		default:
			logger.Info("Request handled", kv...)
		}
	}
}

// Recovery turns panics into a logged 500 with the standard error body
func Recovery() gin.HandlerFunc {
	logger := logging.NewLogger("http")
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("Panic while handling request",
			"requestId", c.GetString(contextRequestID),
			"path", c.Request.URL.Path,
			"panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorPayload{Detail: "Internal server error"})
	})
}

// BodyLimit caps the request body at limit bytes
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
