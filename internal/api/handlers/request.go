package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/tutor-api/internal/logger"
)

// messageRequest is the body shared by the chat and dialogue endpoints. It is
// accepted as JSON or as form fields.
type messageRequest struct {
	Message   string `json:"message" form:"message"`
	SessionID string `json:"session_id" form:"session_id"`
}

// bindMessage reads the request body. A malformed body reads as empty fields.
func bindMessage(c *gin.Context) messageRequest {
	var req messageRequest
	if err := c.ShouldBind(&req); err != nil {
		fields := logger.WithContext(c)
		fields["error"] = err.Error()
		logger.Debug("Request body could not be bound", fields)
	}
	req.Message = strings.TrimSpace(req.Message)
	req.SessionID = strings.TrimSpace(req.SessionID)
	return req
}
