package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	routerx "github.com/tanpawarit/servicedesk/agent/agents/router"
)

type chatRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Message   string `json:"message" binding:"required"`
}

type chatResponse struct {
	Response string `json:"response"`
	Mode     string `json:"mode"`
}

func chatHandler(svc ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req chatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session_id and message are required"})
			return
		}

		reply, err := svc.Route(c.Request.Context(), req.SessionID, req.Message)
		if err != nil {
			if errors.Is(err, routerx.ErrInvalidSession) || errors.Is(err, routerx.ErrInvalidMessage) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			log.Error().Err(err).Str("session_id", req.SessionID).Msg("route failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, chatResponse{
			Response: reply.Text,
			Mode:     string(reply.Mode),
		})
	}
}
