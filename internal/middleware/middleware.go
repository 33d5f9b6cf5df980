package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gtech-mulearn/mulearn/internal/app/models/dto"
	"github.com/gtech-mulearn/mulearn/internal/pkg/logger"
	"github.com/rs/zerolog"
)

// RequestRecorder receives one observation per served request
type RequestRecorder interface {
	RecordHTTPRequest(ctx context.Context, method, route string, status int, d time.Duration)
}

// RequestLogger logs every request once it has been served and records it
// in recorder when one is given
func RequestLogger(log zerolog.Logger, recorder RequestRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		if recorder != nil {
			recorder.RecordHTTPRequest(c.Request.Context(), c.Request.Method, route, status, latency)
		}

		var event *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			event = log.Error()
		case status >= http.StatusBadRequest:
			event = log.Warn()
		default:
			event = log.Info()
		}
		if userID := GetUserID(c); userID != "" {
			event = event.Str("userID", userID)
		}
		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", latency).
			Str("clientIP", c.ClientIP()).
			Msg("Request served")
	}
}

// Recovery turns a panic into a 500 envelope. The panic is logged and, when
// reportToRollbar is set, sent to rollbar.
func Recovery(log zerolog.Logger, reportToRollbar bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			if recovered == http.ErrAbortHandler {
				panic(recovered)
			}

			log.Error().
				Str("panic", fmt.Sprint(recovered)).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Bytes("stack", debug.Stack()).
				Msg("Recovered from panic")

			if reportToRollbar {
				logger.ReportPanic(recovered, map[string]interface{}{
					"method": c.Request.Method,
					"path":   c.Request.URL.Path,
					"userID": GetUserID(c),
				})
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError,
				dto.NewErrorResponse(http.StatusInternalServerError, internalErrorMessage))
		}()
		c.Next()
	}
}

// CORS applies the origin policy for browsers. "*" (or no origins) allows
// any origin without credentials; a list of origins allows credentials for
// those origins only and rejects the rest with 403.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}

	if len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

// NoRoute returns the 404 envelope for unknown paths
func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "Route not found"))
	}
}
