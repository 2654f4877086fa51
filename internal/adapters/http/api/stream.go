package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/dojo/pkg/logger"
)

// Default stream timings.
const (
	defaultPingInterval = 30 * time.Second
	defaultWriteTimeout = 10 * time.Second
)

// StreamOption configures the StreamHandler.
type StreamOption func(*StreamHandler)

// WithPingInterval sets how often the server pings stream clients.
func WithPingInterval(d time.Duration) StreamOption {
	return func(h *StreamHandler) {
		if d > 0 {
			h.pingInterval = d
		}
	}
}

// WithCheckOrigin overrides the websocket origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) StreamOption {
	return func(h *StreamHandler) {
		if fn != nil {
			h.upgrader.CheckOrigin = fn
		}
	}
}

// AllowOrigins returns an origin check accepting requests whose Origin header
// is one of origins. "*" accepts every origin; a request without an Origin
// header is not a browser and is always accepted.
func AllowOrigins(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// StreamHandler pushes session emissions to websocket clients as JSON text
// messages, one record per message.
type StreamHandler struct {
	deps         Dependencies
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	logger       logger.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(deps Dependencies, opts ...StreamOption) *StreamHandler {
	h := &StreamHandler{
		deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		pingInterval: defaultPingInterval,
		logger:       logger.Get().Named("stream"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleStream handles GET /sessions/{id}/stream.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	records, unsubscribe, err := h.deps.Subscribe(ctx, id)
	if err != nil {
		writeServiceError(w, "api.stream", err)
		return
	}
	defer unsubscribe()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		return
	}
	defer conn.Close()

	h.logger.Debug(ctx, "stream client connected", logger.String("session_id", id))

	// The read loop only exists to process control frames and notice the
	// client going away.
	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait()))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait()))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-records:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(defaultWriteTimeout))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
			if err := conn.WriteJSON(rec); err != nil {
				h.logger.Debug(ctx, "stream write failed", logger.String("session_id", id), logger.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(defaultWriteTimeout)); err != nil {
				return
			}
		}
	}
}

// pongWait is how long a client may stay silent before it is dropped.
func (h *StreamHandler) pongWait() time.Duration { return 2 * h.pingInterval }
