package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Adda-Baaj/prism-news/internal/logger"
	"github.com/Adda-Baaj/prism-news/internal/store"
)

type errorBody struct {
	Error string `json:"error"`
}

// NewsRouter serves the read path over a store.
type NewsRouter struct {
	e      *echo.Echo
	reader store.Reader
	log    logger.Logger
}

func NewNewsRouter(e *echo.Echo, reader store.Reader, log logger.Logger) *NewsRouter {
	return &NewsRouter{e: e, reader: reader, log: logger.Ensure(log)}
}

// Bind registers the routes. Preflight requests are answered by the CORS middleware.
func (r *NewsRouter) Bind() {
	r.e.GET("/news", r.list)
	r.e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}

// list returns up to ?limit= records (default 50) in store order.
func (r *NewsRouter) list(c echo.Context) error {
	limit := store.DefaultScanLimit
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, errorBody{Error: "limit must be a positive integer"})
		}
		limit = store.ClampLimit(n)
	}

	recs, err := r.reader.Scan(c.Request().Context(), limit)
	if err != nil {
		r.log.ErrorObj("scan failed", "news_scan_error", map[string]any{
			"limit": limit,
			"error": err.Error(),
		})
		return c.JSON(http.StatusInternalServerError, errorBody{Error: "Failed to fetch news"})
	}
	return c.JSON(http.StatusOK, recs)
}
