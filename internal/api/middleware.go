package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Adda-Baaj/prism-news/internal/logger"
)

var (
	corsAllowHeaders = []string{"Content-Type", "X-Amz-Date", "Authorization", "X-Api-Key", "X-Amz-Security-Token"}
	corsAllowMethods = []string{http.MethodGet, http.MethodOptions}
)

// corsHeaders stamps the permissive cross-origin headers on every response, with or without
// an Origin request header, and answers preflight requests directly.
func corsHeaders() echo.MiddlewareFunc {
	allowHeaders := strings.Join(corsAllowHeaders, ",")
	allowMethods := strings.Join(corsAllowMethods, ",")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, "*")
			h.Set(echo.HeaderAccessControlAllowHeaders, allowHeaders)
			h.Set(echo.HeaderAccessControlAllowMethods, allowMethods)

			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusNoContent)
			}
			return next(c)
		}
	}
}

// requestLogger logs each request through the service logger.
func requestLogger(log logger.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogLatency:  true,
		LogURI:      true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := map[string]any{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
			}
			if v.Error != nil {
				fields["error"] = v.Error.Error()
				log.ErrorObj("request failed", "http_request_error", fields)
				return nil
			}
			log.InfoObj("request", "http_request", fields)
			return nil
		},
	})
}
