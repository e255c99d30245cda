package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"workspace-state-engine/internal/domain"
	"workspace-state-engine/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// stateEvent is the payload pushed to feed subscribers whenever the
// canonical state changes
type stateEvent struct {
	Type  string                `json:"type"`
	State domain.WorkspaceState `json:"state"`
}

// WSHandler streams state changes to connected clients
type WSHandler struct {
	stateService service.StateService
	jwtSecret    string
	logger       *zap.Logger
}

// NewWSHandler creates a new instance of WSHandler
func NewWSHandler(stateService service.StateService, jwtSecret string, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		stateService: stateService,
		jwtSecret:    jwtSecret,
		logger:       logger,
	}
}

// HandleStateFeed upgrades the connection and pushes a STATE_CHANGED event
// every time the caller's state changes, starting with an initial snapshot.
// Browsers cannot set headers on WebSocket requests, so the token arrives as
// a query parameter; without one the feed follows the anonymous local state.
func (h *WSHandler) HandleStateFeed(c *gin.Context) {
	if token := c.Query("token"); token != "" {
		userID, err := h.parseToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		c.Set("user_id", userID)
	}

	initial, err := h.stateService.GetState(c)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", zap.Error(err))
		return
	}

	send := make(chan []byte, 16)

	unsubscribe, err := h.stateService.Subscribe(c, func(st domain.WorkspaceState) {
		payload, err := json.Marshal(stateEvent{Type: "STATE_CHANGED", State: st})
		if err != nil {
			return
		}
		select {
		case send <- payload:
		default:
			// Slow consumer, drop the event; the next change resyncs it
		}
	})
	if err != nil {
		conn.Close()
		return
	}

	if payload, err := json.Marshal(stateEvent{Type: "STATE_CHANGED", State: initial.State}); err == nil {
		send <- payload
	}

	go h.writePump(conn, send)
	h.readPump(conn, unsubscribe)
}

func (h *WSHandler) parseToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(h.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, jwt.ErrTokenMalformed
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, jwt.ErrTokenInvalidClaims
	}

	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		if sub, subOK := claims["sub"].(string); subOK {
			userIDStr = sub
		} else {
			return uuid.Nil, jwt.ErrTokenInvalidClaims
		}
	}

	return uuid.Parse(userIDStr)
}

func (h *WSHandler) readPump(conn *websocket.Conn, unsubscribe func()) {
	defer func() {
		unsubscribe()
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("WebSocket error", zap.Error(err))
			}
			break
		}
	}
}

func (h *WSHandler) writePump(conn *websocket.Conn, send chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
