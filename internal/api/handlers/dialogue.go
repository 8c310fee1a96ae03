package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/tutor-api/internal/dialogue"
	"github.com/Conceptual-Machines/tutor-api/internal/logger"
	"github.com/Conceptual-Machines/tutor-api/internal/models"
)

// DialogueSessions manages Socratic dialogue sessions
type DialogueSessions interface {
	Start(ctx context.Context, userText, imagePath string) (string, dialogue.Result)
	Continue(ctx context.Context, id, userText, imagePath string) (dialogue.Result, error)
	Get(ctx context.Context, id string) (*models.DialogueState, error)
	End(ctx context.Context, id string) string
}

type DialogueHandler struct {
	sessions DialogueSessions
	uploads  *Uploads
}

func NewDialogueHandler(sessions DialogueSessions, uploads *Uploads) *DialogueHandler {
	return &DialogueHandler{sessions: sessions, uploads: uploads}
}

type DialogueResponse struct {
	SessionID string                `json:"session_id,omitempty"`
	Response  string                `json:"response"`
	Status    models.DialogueStatus `json:"status"`
	Topic     string                `json:"topic"`
	Persona   string                `json:"persona"`
	TurnCount int                   `json:"turn_count"`
}

func newDialogueResponse(sessionID string, result dialogue.Result) DialogueResponse {
	return DialogueResponse{
		SessionID: sessionID,
		Response:  result.Response,
		Status:    result.Status,
		Topic:     result.State.Topic,
		Persona:   result.State.Persona,
		TurnCount: result.State.TurnCount,
	}
}

// Start opens a session from the student's first message
func (h *DialogueHandler) Start(c *gin.Context) {
	req := bindMessage(c)
	if req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errNoTopic})
		return
	}

	imagePath, ok := h.image(c)
	if !ok {
		return
	}

	id, result := h.sessions.Start(c.Request.Context(), req.Message, imagePath)
	if result.Status == models.StatusError {
		c.JSON(http.StatusInternalServerError, gin.H{"error": result.Response})
		return
	}

	fields := logger.WithContext(c)
	fields["session_id"] = id
	fields["topic"] = result.State.Topic
	fields["persona"] = result.State.Persona
	logger.Info("Dialogue started", fields)

	c.JSON(http.StatusOK, newDialogueResponse(id, result))
}

// Continue advances a session by one turn
func (h *DialogueHandler) Continue(c *gin.Context) {
	req := bindMessage(c)
	if req.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": dialogue.ErrSessionNotFound.Error()})
		return
	}
	if _, err := h.sessions.Get(c.Request.Context(), req.SessionID); err != nil {
		h.sessionError(c, err)
		return
	}
	if req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errNoReply})
		return
	}

	imagePath, ok := h.image(c)
	if !ok {
		return
	}

	result, err := h.sessions.Continue(c.Request.Context(), req.SessionID, req.Message, imagePath)
	if err != nil {
		h.sessionError(c, err)
		return
	}
	if result.Status == models.StatusError {
		c.JSON(http.StatusInternalServerError, gin.H{"error": result.Response})
		return
	}

	c.JSON(http.StatusOK, newDialogueResponse(req.SessionID, result))
}

// End closes a session. It always succeeds; the message says whether the session existed.
func (h *DialogueHandler) End(c *gin.Context) {
	req := bindMessage(c)
	c.JSON(http.StatusOK, gin.H{"message": h.sessions.End(c.Request.Context(), req.SessionID)})
}

func (h *DialogueHandler) image(c *gin.Context) (string, bool) {
	path, err := h.uploads.FromRequest(c)
	if err != nil {
		status, message := uploadErrorResponse(err)
		c.JSON(status, gin.H{"error": message})
		return "", false
	}
	return path, true
}

func (h *DialogueHandler) sessionError(c *gin.Context, err error) {
	if errors.Is(err, dialogue.ErrSessionNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{"error": dialogue.ErrSessionNotFound.Error()})
		return
	}
	logger.Error("Dialogue session lookup failed", err, logger.WithContext(c))
	c.JSON(http.StatusInternalServerError, gin.H{"error": errInternal})
}
