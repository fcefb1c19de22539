package web

import (
	"net/http"
	"time"

	"github.com/ArkLabsHQ/escrowd/internal/core/domain"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const (
	callerHeader = "X-Caller-Address"
	callerKey    = "caller"
)

// sentryMiddleware reports the errors attached to the request context.
// Only unexpected failures are attached, see abortWithError.
func sentryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		for _, err := range c.Errors {
			sentry.WithScope(func(scope *sentry.Scope) {
				scope.SetTag("method", c.Request.Method)
				scope.SetTag("path", c.FullPath())
				scope.SetTag("status", http.StatusText(c.Writer.Status()))
				scope.SetTag("caller", c.GetHeader(callerHeader))
				scope.SetExtra("latency", time.Since(start).String())
				scope.SetRequest(c.Request)
				sentry.CaptureException(err.Err)
			})
		}
	}
}

func loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		entry := log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Debug("request served")
	}
}

// callerMiddleware resolves the identity of the caller from the
// X-Caller-Address header, set by the authenticating proxy in front of the
// ledger.
func callerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := domain.NewAddress(c.GetHeader(callerHeader))
		if caller.IsNull() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing " + callerHeader + " header",
			})
			return
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

func getCaller(c *gin.Context) domain.Address {
	caller, _ := c.MustGet(callerKey).(domain.Address)
	return caller
}
