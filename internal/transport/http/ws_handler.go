package http

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/minevox/minevox-server/internal/config"
	"github.com/minevox/minevox-server/internal/core"
	"github.com/minevox/minevox-server/internal/metrics"
	"github.com/minevox/minevox-server/internal/proto"
	"github.com/minevox/minevox-server/internal/store"
)

// WSHandler upgrades client connections and pumps frames between the
// socket and a core session.
type WSHandler struct {
	broker  *core.Broker
	catalog store.Catalog
	metrics *metrics.Metrics
	cfg     config.Config
	limiter *connLimiter
	log     *zerolog.Logger
}

// NewWSHandler creates a WebSocket handler. The catalog may be nil, in
// which case worlds are not registered on first join.
func NewWSHandler(broker *core.Broker, catalog store.Catalog, m *metrics.Metrics, cfg config.Config, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		broker:  broker,
		catalog: catalog,
		metrics: m,
		cfg:     cfg,
		limiter: newConnLimiter(cfg.ConnectsPerMinute),
		log:     logger,
	}
}

// Handle upgrades the request and runs the connection until either side
// closes. Query parameters: world (defaults to the configured world) and
// radius (clamped to the configured maximum).
func (h *WSHandler) Handle(c *gin.Context) {
	if !h.limiter.allow() {
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "too many connections"})
		return
	}

	worldName := c.Query("world")
	if worldName == "" {
		worldName = h.cfg.DefaultWorld
	}
	radius := h.cfg.DefaultRenderRadius
	if raw := c.Query("radius"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			radius = parsed
		}
	}
	if radius > h.cfg.MaxRenderRadius {
		radius = h.cfg.MaxRenderRadius
	}

	h.ensureWorldDefined(c.Request.Context(), worldName)

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket accept failed")
		return
	}

	connID := uuid.NewString()
	logger := h.log.With().Str("conn_id", connID).Logger()

	sess := core.NewSession(h.broker, core.SessionConfig{
		WorldName:      worldName,
		NameHint:       c.GetString(ContextKeyUsername),
		RenderRadius:   radius,
		OutboundBuffer: h.cfg.OutboundBuffer,
	}, h.metrics, &logger)

	h.metrics.SessionOpened()
	defer h.metrics.SessionClosed()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	if err := sess.Join(ctx); err != nil {
		logger.Error().Err(err).Msg("join failed")
		conn.Close(websocket.StatusInternalError, "join failed")
		return
	}
	defer sess.Close()

	errCh := make(chan error, 2)
	go func() { errCh <- h.readLoop(ctx, conn, sess) }()
	go func() { errCh <- h.writeLoop(ctx, conn, sess) }()

	err = <-errCh
	cancel()
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		} else {
			status = websocket.StatusInternalError
		}
		if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
			reason = "error"
			logger.Debug().Err(err).Msg("connection ended with error")
		}
	}
	conn.Close(status, reason)
}

// readLoop pumps inbound frames into the session. Only binary frames carry
// protocol messages; anything else is ignored. A frame the session cannot
// decode ends the connection.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, sess *core.Session) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageBinary {
			continue
		}
		if err := sess.HandleFrame(data); err != nil {
			return err
		}
	}
}

// writeLoop drains the session's outbound channel onto the socket.
func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sess *core.Session) error {
	for {
		select {
		case msg := <-sess.Outbound():
			if err := conn.Write(ctx, websocket.MessageBinary, proto.Encode(msg)); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ensureWorldDefined registers an unknown world in the catalog with a
// random seed and the flat generator, so every joinable world has a
// definition on record.
func (h *WSHandler) ensureWorldDefined(ctx context.Context, name string) {
	if h.catalog == nil {
		return
	}

	_, err := h.catalog.GetWorldByName(ctx, name)
	if err == nil {
		return
	}
	if !errors.Is(err, store.ErrWorldNotFound) {
		h.log.Warn().Err(err).Str("world", name).Msg("catalog lookup failed")
		return
	}

	if _, err := h.catalog.CreateWorld(ctx, name, rand.Int64(), store.GeneratorFlat, ""); err != nil {
		if !errors.Is(err, store.ErrWorldExists) {
			h.log.Warn().Err(err).Str("world", name).Msg("world registration failed")
		}
		return
	}
	h.log.Info().Str("world", name).Msg("registered world")
}
