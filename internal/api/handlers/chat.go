package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/tutor-api/internal/api/middleware"
	"github.com/Conceptual-Machines/tutor-api/internal/logger"
	"github.com/Conceptual-Machines/tutor-api/internal/mindmap"
	"github.com/Conceptual-Machines/tutor-api/internal/models"
)

const errMindmapUnavailable = "知识图谱助手未成功加载，无法处理您的请求。"

// QuestionGenerator is the question pipeline behind /chat and /extract
type QuestionGenerator interface {
	Generate(ctx context.Context, rawText, callerID string) string
	GenerateMultimodal(ctx context.Context, rawText, callerID, imagePath string) string
	MultimodalEnabled() bool
	Extract(rawText string) models.InterpretedRequest
}

// MindmapBuilder draws knowledge maps for /chat
type MindmapBuilder interface {
	Build(ctx context.Context, text string) string
}

type ChatHandler struct {
	questions QuestionGenerator
	mindmap   MindmapBuilder
	uploads   *Uploads
}

func NewChatHandler(questions QuestionGenerator, maps MindmapBuilder, uploads *Uploads) *ChatHandler {
	return &ChatHandler{questions: questions, mindmap: maps, uploads: uploads}
}

// Chat draws a knowledge map when asked for one. Otherwise it generates questions
// or serves the cached answers for the caller.
func (h *ChatHandler) Chat(c *gin.Context) {
	req := bindMessage(c)
	if req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errNoMessage})
		return
	}

	if mindmap.IsRequest(req.Message) {
		h.knowledgeMap(c, req.Message)
		return
	}

	var imagePath string
	if h.questions.MultimodalEnabled() {
		path, err := h.uploads.FromRequest(c)
		if err != nil {
			status, message := uploadErrorResponse(err)
			fields := logger.WithContext(c)
			fields["error"] = err.Error()
			logger.Warn("Rejected chat image", fields)
			c.JSON(status, gin.H{"error": message})
			return
		}
		imagePath = path
	}

	callerID := middleware.GetCallerID(c)
	fields := logger.WithContext(c)
	fields["message_length"] = len([]rune(req.Message))
	fields["has_image"] = imagePath != ""
	logger.Info("Chat request received", fields)

	var response string
	if imagePath != "" {
		response = h.questions.GenerateMultimodal(c.Request.Context(), req.Message, callerID, imagePath)
	} else {
		response = h.questions.Generate(c.Request.Context(), req.Message, callerID)
	}

	c.JSON(http.StatusOK, gin.H{"response": response})
}

func (h *ChatHandler) knowledgeMap(c *gin.Context, message string) {
	fields := logger.WithContext(c)
	fields["message_length"] = len([]rune(message))
	logger.Info("Knowledge map request received", fields)

	if h.mindmap == nil {
		c.JSON(http.StatusOK, gin.H{"response": errMindmapUnavailable})
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": h.mindmap.Build(c.Request.Context(), message)})
}

// Extract returns the interpreted form of a request without generating anything
func (h *ChatHandler) Extract(c *gin.Context) {
	req := bindMessage(c)
	if req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errNoMessage})
		return
	}
	c.JSON(http.StatusOK, h.questions.Extract(req.Message))
}
