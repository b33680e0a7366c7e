package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/wechaty/wechaty-puppet-sidecar/internal/common/errors"
)

type statusResponse struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	State    string `json:"state"`
	LoggedIn bool   `json:"logged_in"`
	SelfID   string `json:"self_id,omitempty"`

	Process *processStatus `json:"process,omitempty"`
}

type processStatus struct {
	Attached bool `json:"attached"`
	Alive    bool `json:"alive"`
	PID      int  `json:"pid,omitempty"`
}

type topicRequest struct {
	Topic *string `json:"topic" binding:"required"`
}

type sendTextRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	Text           string `json:"text" binding:"required"`
}

func (s *Server) currentStatus() statusResponse {
	resp := statusResponse{
		Name:     s.puppet.Name(),
		Version:  s.puppet.Version(),
		State:    string(s.puppet.State()),
		LoggedIn: s.puppet.LoggedIn(),
		SelfID:   s.puppet.SelfID(),
	}
	if s.process != nil {
		resp.Process = &processStatus{
			Attached: s.process.Attached(),
			Alive:    s.process.Alive(),
			PID:      s.process.PID(),
		}
	}
	return resp
}

// GET /api/v1/status
func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.currentStatus())
}

// POST /api/v1/start
func (s *Server) start(c *gin.Context) {
	if err := s.puppet.Start(c.Request.Context()); err != nil {
		s.writeError(c, "start", err)
		return
	}
	c.JSON(http.StatusOK, s.currentStatus())
}

// POST /api/v1/stop
func (s *Server) stop(c *gin.Context) {
	if err := s.puppet.Stop(c.Request.Context()); err != nil {
		s.writeError(c, "stop", err)
		return
	}
	c.JSON(http.StatusOK, s.currentStatus())
}

// GET /api/v1/contacts
func (s *Server) listContacts(c *gin.Context) {
	ids, err := s.puppet.ContactList(c.Request.Context())
	if err != nil {
		s.writeError(c, "contactList", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": nonNil(ids), "total": len(ids)})
}

// GET /api/v1/contacts/:id
func (s *Server) getContact(c *gin.Context) {
	payload, err := s.puppet.ContactPayload(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, "contactPayload", err)
		return
	}
	if payload.ID == "" {
		s.writeError(c, "contactPayload", apperrors.NotFound("contact", c.Param("id")))
		return
	}
	c.JSON(http.StatusOK, payload)
}

// GET /api/v1/rooms
func (s *Server) listRooms(c *gin.Context) {
	ids, err := s.puppet.RoomList(c.Request.Context())
	if err != nil {
		s.writeError(c, "roomList", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": nonNil(ids), "total": len(ids)})
}

// GET /api/v1/rooms/:id
func (s *Server) getRoom(c *gin.Context) {
	payload, err := s.puppet.RoomPayload(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, "roomPayload", err)
		return
	}
	if payload.ID == "" {
		s.writeError(c, "roomPayload", apperrors.NotFound("room", c.Param("id")))
		return
	}
	c.JSON(http.StatusOK, payload)
}

// GET /api/v1/rooms/:id/topic
func (s *Server) getRoomTopic(c *gin.Context) {
	topic, err := s.puppet.RoomTopic(c.Request.Context(), c.Param("id"), nil)
	if err != nil {
		s.writeError(c, "roomTopic", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"topic": topic})
}

// PUT /api/v1/rooms/:id/topic
func (s *Server) setRoomTopic(c *gin.Context) {
	var req topicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, "roomTopic", apperrors.BadRequest(err.Error()))
		return
	}
	if _, err := s.puppet.RoomTopic(c.Request.Context(), c.Param("id"), req.Topic); err != nil {
		s.writeError(c, "roomTopic", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/v1/messages/text
func (s *Server) sendText(c *gin.Context) {
	var req sendTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, "messageSendText", apperrors.BadRequest(err.Error()))
		return
	}
	id, err := s.puppet.MessageSendText(c.Request.Context(), req.ConversationID, req.Text)
	if err != nil {
		s.writeError(c, "messageSendText", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message_id": id})
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
