package websocket

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"lcars-core/internal/config"
	"lcars-core/internal/logger"
	"lcars-core/internal/pkg"

	"github.com/gorilla/websocket"
)

type Handler struct {
	hub      *Hub
	invoker  Invoker
	upgrader websocket.Upgrader
	log      logger.Logger
	verify   func(token string) error
	ctx      context.Context
}

// NewHandler upgrades IPC connections. ctx bounds every invoke made through
// the resulting clients.
func NewHandler(ctx context.Context, hub *Hub, invoker Invoker, log logger.Logger, cfg *config.Config) *Handler {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")

			if origin == "" || cfg.DevMode || slices.Contains(cfg.AllowedOrigins, origin) {
				return true
			}

			log.Warn("websocket origin rejected", "origin", origin)
			return false
		},
	}

	var verify func(string) error
	if cfg.JWTSecret != "" {
		verify = func(token string) error {
			_, err := pkg.ValidateToken(token, cfg.JWTSecret)
			return err
		}
	}

	return &Handler{
		hub:      hub,
		invoker:  invoker,
		upgrader: upgrader,
		log:      log,
		verify:   verify,
		ctx:      ctx,
	}
}

// bearer reads the token from the Authorization header or, for browser
// clients that cannot set headers, the token query parameter.
func bearer(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	if h.verify != nil {
		if err := h.verify(bearer(r)); err != nil {
			h.log.Warn("jwt verification failed", "error", err)
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("upgrade failed", "error", err)
		return
	}

	client := NewClient(h.hub, conn, h.invoker, h.log)
	if !h.hub.join(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h.ctx)

	h.log.Info("client connected", "remote_addr", client.remoteAddr)
}
