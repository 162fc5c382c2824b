package wsserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"chatter-server/services/chat-api/internal/config"
	"chatter-server/services/chat-api/internal/domain/chat"
	"chatter-server/services/chat-api/internal/infrastructure/authclient"
	"chatter-server/services/chat-api/internal/infrastructure/metrics"
)

// Handler upgrades HTTP requests to WebSocket sessions on the chat endpoint.
type Handler struct {
	hub      *Hub
	svc      *chat.Service
	auth     *authclient.Client
	limits   Limits
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewHandler creates the WebSocket handler.
func NewHandler(cfg *config.Config, hub *Hub, svc *chat.Service, auth *authclient.Client, log zerolog.Logger) *Handler {
	return &Handler{
		hub:  hub,
		svc:  svc,
		auth: auth,
		limits: Limits{
			ReadLimit:    cfg.WSReadLimit,
			WriteTimeout: cfg.WSWriteTimeout,
			PongTimeout:  cfg.WSPongTimeout,
		},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Cross-origin access is governed upstream; tokens gate the
				// actual capabilities.
				return true
			},
		},
		log: log.With().Str("component", "ws-handler").Logger(),
	}
}

// Register mounts the WebSocket endpoint.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/ws/chat/:room_id/", h.serve)
}

// serve handles one WebSocket connection end to end. Identity resolution
// happens before the upgrade; a missing or invalid token degrades the session
// to anonymous rather than rejecting the handshake. A missing room closes the
// socket with 4404 before any group registration.
func (h *Handler) serve(c *gin.Context) {
	identity := h.resolveIdentity(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	ctx := c.Request.Context()
	roomID, parseErr := uuid.Parse(c.Param("room_id"))
	exists := false
	if parseErr == nil {
		exists, err = h.svc.RoomExists(ctx, roomID)
		if err != nil {
			h.log.Error().Err(err).Msg("room existence check failed")
		}
	}
	if !exists {
		deadline := time.Now().Add(h.limits.WriteTimeout)
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(CloseRoomNotFound, "room not found"),
			deadline,
		)
		_ = conn.Close()
		return
	}

	s := newSession(conn, h.hub, h.svc, roomID, identity, h.limits, h.log)
	h.hub.Join(s.groupName, s)
	metrics.RecordConnectionOpened()

	go s.writePump()

	s.sendFrame(connectionEstablishedFrame{
		Type:      "connection_established",
		Message:   "WebSocket connected to room " + roomID.String(),
		RoomID:    roomID,
		GroupName: s.groupName,
		UserInfo:  identity.Info(),
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Status:    "connected",
	})

	// Blocks until the client disconnects; teardown releases group
	// membership on every exit path.
	s.readPump(ctx)
}

// resolveIdentity extracts the bearer token and verifies it against the auth
// service. A bare token without the Bearer prefix is accepted as a fallback.
func (h *Handler) resolveIdentity(c *gin.Context) chat.Identity {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return chat.Anonymous()
	}

	token := header
	if rest, ok := strings.CutPrefix(header, "Bearer "); ok {
		token = strings.TrimSpace(rest)
	}

	identity, _ := h.auth.VerifyToken(c.Request.Context(), token)
	return identity
}
