package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/nimeshabuddhika/treasury-desk/pkg"
	"github.com/nimeshabuddhika/treasury-desk/services/order-api/internal/services"
	"go.uber.org/zap"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
)

// StreamHandler pushes order events to blotter clients over a websocket.
type StreamHandler struct {
	logger   *zap.Logger
	feed     *services.OrderFeed
	upgrader websocket.Upgrader
}

// NewStreamHandler accepts upgrades only from allowedOrigins; an empty list allows any
// origin, matching the CORS middleware.
func NewStreamHandler(logger *zap.Logger, feed *services.OrderFeed, allowedOrigins []string) *StreamHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &StreamHandler{
		logger: logger,
		feed:   feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed["*"] || allowed[origin]
			},
		},
	}
}

func (h *StreamHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/orders/stream", h.Stream)
}

// Stream godoc
// @Summary      Blotter push feed
// @Description  Websocket upgrade. Each message is an OrderEvent JSON document.
// @Tags         orders
// @Success      101  {object}  views.OrderEvent
// @Router       /orders/stream [get]
func (h *StreamHandler) Stream(c *gin.Context) {
	traceID, ok := traceID(c, h.logger)
	if !ok {
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the handshake error.
		h.logger.Info("order_stream_upgrade_failed", zap.String(pkg.TraceId, traceID), zap.Error(err))
		return
	}
	defer conn.Close()

	events, cancel := h.feed.Subscribe()
	defer cancel()
	h.logger.Info("order_stream_connected", zap.String(pkg.TraceId, traceID))

	// The read loop only services control frames and notices the client leaving.
	gone := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-gone:
			h.logger.Info("order_stream_disconnected", zap.String(pkg.TraceId, traceID))
			return
		case event, open := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if !open {
				// Feed closed or this subscriber fell behind.
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "resync required"))
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Info("order_stream_write_failed", zap.String(pkg.TraceId, traceID), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
