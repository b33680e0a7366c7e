package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	apperrors "github.com/wechaty/wechaty-puppet-sidecar/internal/common/errors"
	"github.com/wechaty/wechaty-puppet-sidecar/internal/common/logger"
	"github.com/wechaty/wechaty-puppet-sidecar/internal/events"
	"github.com/wechaty/wechaty-puppet-sidecar/internal/events/bus"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4 * 1024

	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// GET /api/v1/events
//
// Streams every event the puppet publishes as one JSON text message each.
func (s *Server) streamEvents(c *gin.Context) {
	if s.bus == nil {
		s.writeError(c, "events", apperrors.ServiceUnavailable("event bus"))
		return
	}

	clientID := uuid.New().String()
	log := s.logger.WithFields(zap.String("client_id", clientID))
	send := make(chan []byte, sendBuffer)

	// Subscribe before upgrading so no event published after the client
	// connected is missed.
	sub, err := s.bus.Subscribe(events.BuildPuppetWildcardSubject(s.puppet.Name()), func(_ context.Context, e *bus.Event) error {
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		select {
		case send <- data:
		default:
			log.Warn("event stream client buffer full, dropping event", zap.String("type", e.Type))
		}
		return nil
	})
	if err != nil {
		s.writeError(c, "events", err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		_ = sub.Unsubscribe()
		log.Error("failed to upgrade connection", zap.Error(err))
		return
	}

	log.Info("event stream connected")
	done := make(chan struct{})
	go writePump(conn, send, done)
	readPump(conn, log)

	_ = sub.Unsubscribe()
	close(done)
	log.Info("event stream disconnected")
}

// readPump discards client messages and returns once the peer goes away.
func readPump(conn *websocket.Conn, log *logger.Logger) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("event stream read error", zap.Error(err))
			}
			return
		}
	}
}

func writePump(conn *websocket.Conn, send <-chan []byte, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case data := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
