// Package http wires the gin router: the WebSocket endpoint, the world
// REST API, health and metrics.
package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/minevox/minevox-server/internal/auth"
	"github.com/minevox/minevox-server/internal/config"
	"github.com/minevox/minevox-server/internal/core"
	"github.com/minevox/minevox-server/internal/metrics"
	"github.com/minevox/minevox-server/internal/store"
)

// NewServer assembles the HTTP server. The gatherer may be nil to disable
// the metrics endpoint; the metrics bundle may be nil independently.
func NewServer(
	broker *core.Broker,
	catalog store.Catalog,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	cfg config.Config,
	logger *zerolog.Logger,
) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(stdhttp.StatusOK, gin.H{"status": "ok"})
	})

	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	authCfg := &auth.Config{Issuer: cfg.JWTIssuer}
	if cfg.JWTSecret != "" {
		authCfg.Secret = []byte(cfg.JWTSecret)
	}
	guard := AuthMiddleware(authCfg, logger)

	ws := NewWSHandler(broker, catalog, m, cfg, logger)
	router.GET("/ws", guard, ws.Handle)

	worlds := NewWorldHandlers(broker, catalog, logger)
	api := router.Group("/api", guard)
	api.GET("/worlds", worlds.ListWorlds)
	api.POST("/worlds", worlds.CreateWorld)
	api.POST("/worlds/:name/broadcast", worlds.BroadcastChat)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
