package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Adda-Baaj/prism-news/internal/logger"
	"github.com/Adda-Baaj/prism-news/internal/store"
)

const GracefulShutdownTimeout = 10 * time.Second

// Config holds read API settings.
type Config struct {
	Port          string        `mapstructure:"port"`
	PurgeInterval time.Duration `mapstructure:"purge_interval"`
}

// Server is the read API process.
type Server struct {
	Echo *echo.Echo

	cfg   Config
	store store.Store
	log   logger.Logger
}

// NewServer wires middleware and routes over st.
func NewServer(cfg Config, st store.Store, log logger.Logger) *Server {
	log = logger.Ensure(log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(corsHeaders())
	e.Use(requestLogger(log))
	e.Use(middleware.Recover())

	NewNewsRouter(e, st, log).Bind()

	return &Server{Echo: e, cfg: cfg, store: st, log: log}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if p, ok := s.store.(store.Purger); ok && s.cfg.PurgeInterval > 0 {
		go s.purgeLoop(ctx, p)
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.InfoObj("read api listening", "http_listen", map[string]any{"port": s.cfg.Port})
		if err := s.Echo.Start(":" + s.cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)
	defer cancel()
	return s.Echo.Shutdown(shutdownCtx)
}

// purgeLoop removes expired records for backends without native TTL.
func (s *Server) purgeLoop(ctx context.Context, p store.Purger) {
	ticker := time.NewTicker(s.cfg.PurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.PurgeExpired(ctx); err != nil {
				s.log.WarnObj("purge expired records failed", "store_purge_error", map[string]any{
					"error": err.Error(),
				})
			}
		}
	}
}
