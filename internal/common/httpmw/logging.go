// Package httpmw holds the gin middleware shared by the control API.
package httpmw

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wechaty/wechaty-puppet-sidecar/internal/common/logger"
)

// OperationIDHeader carries the caller's operation id. It is echoed on every
// response and generated when absent.
const OperationIDHeader = "X-Operation-ID"

// RequestLogger stamps the request context with an operation id, so the
// puppet operations a request triggers log under the same id, and logs the
// request once the handler completes. Server errors are logged at error
// level, everything else at debug.
func RequestLogger(log *logger.Logger, puppetName string) gin.HandlerFunc {
	log = log.WithPuppet(puppetName)

	return func(c *gin.Context) {
		start := time.Now()
		opID := c.GetHeader(OperationIDHeader)
		if opID == "" {
			opID = uuid.NewString()
		}
		c.Header(OperationIDHeader, opID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.OperationIDKey, opID))

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route(c)),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		reqLog := log.WithContext(c.Request.Context())
		if status >= 500 {
			reqLog.Error("control request failed", fields...)
			return
		}
		reqLog.Debug("control request", fields...)
	}
}

// route is the matched route template, or the raw path for unmatched
// requests.
func route(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}
