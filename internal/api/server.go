// Package api exposes the puppet's control surface over HTTP and streams its
// events over WebSocket.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/wechaty/wechaty-puppet-sidecar/internal/common/errors"
	"github.com/wechaty/wechaty-puppet-sidecar/internal/common/httpmw"
	"github.com/wechaty/wechaty-puppet-sidecar/internal/common/logger"
	"github.com/wechaty/wechaty-puppet-sidecar/internal/events/bus"
	"github.com/wechaty/wechaty-puppet-sidecar/internal/puppet"
)

const serverName = "puppet-sidecar-api"

// Process reports on the target process the puppet is attached to.
type Process interface {
	Attached() bool
	Alive() bool
	PID() int
}

// Server serves the control API of one puppet.
type Server struct {
	puppet  puppet.Puppet
	bus     bus.EventBus
	process Process
	logger  *logger.Logger
	router  *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithProcess adds the target process to the status report.
func WithProcess(proc Process) Option {
	return func(s *Server) {
		s.process = proc
	}
}

// NewServer creates the API server. eventBus feeds the event stream and may
// be nil, in which case the stream endpoint answers 503.
func NewServer(p puppet.Puppet, eventBus bus.EventBus, log *logger.Logger, opts ...Option) *Server {
	s := &Server{
		puppet: p,
		bus:    eventBus,
		logger: log.WithFields(zap.String("component", "api")),
	}
	for _, opt := range opts {
		opt(s)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpmw.OtelTracing(serverName, p.Name()))
	router.Use(httpmw.RequestLogger(s.logger, p.Name()))
	s.router = router
	s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "puppet-sidecar",
		})
	})

	v1 := s.router.Group("/api/v1")
	v1.GET("/status", s.status)
	v1.POST("/start", s.start)
	v1.POST("/stop", s.stop)

	v1.GET("/contacts", s.listContacts)
	v1.GET("/contacts/:id", s.getContact)

	v1.GET("/rooms", s.listRooms)
	v1.GET("/rooms/:id", s.getRoom)
	v1.GET("/rooms/:id/topic", s.getRoomTopic)
	v1.PUT("/rooms/:id/topic", s.setRoomTopic)

	v1.POST("/messages/text", s.sendText)

	v1.GET("/events", s.streamEvents)
}

// writeError maps err to an AppError response. An AppError already in the
// chain keeps its code and status.
func (s *Server) writeError(c *gin.Context, op string, err error) {
	var appErr *apperrors.AppError
	switch {
	case puppet.IsUnsupported(err):
		appErr = apperrors.NotSupported(op, err)
	case errors.Is(err, context.DeadlineExceeded):
		appErr = apperrors.Timeout(op, err)
	default:
		appErr = apperrors.Wrap(err, op+" failed")
	}
	_ = c.Error(err)
	c.JSON(apperrors.GetHTTPStatus(appErr), gin.H{
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}
