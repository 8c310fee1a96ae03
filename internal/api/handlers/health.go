package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// KnowledgeCounter reports how many chunks a knowledge source holds
type KnowledgeCounter interface {
	Count(ctx context.Context, source string) (int, error)
}

type HealthHandler struct {
	knowledge     KnowledgeCounter
	source        string
	visionEnabled bool
}

func NewHealthHandler(knowledge KnowledgeCounter, source string, visionEnabled bool) *HealthHandler {
	return &HealthHandler{knowledge: knowledge, source: source, visionEnabled: visionEnabled}
}

// HealthCheck returns the health status of the API. A missing or empty knowledge
// source degrades the status; the service still answers with the apology paths.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	status := "healthy"
	knowledgeStatus := "ready"

	chunks, err := h.knowledge.Count(c.Request.Context(), h.source)
	switch {
	case err != nil:
		status, knowledgeStatus = "degraded", "unavailable"
	case chunks == 0:
		status, knowledgeStatus = "degraded", "empty"
	}

	visionStatus := "disabled"
	if h.visionEnabled {
		visionStatus = "enabled"
	}

	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"knowledge": gin.H{
			"status": knowledgeStatus,
			"source": h.source,
			"chunks": chunks,
		},
		"vision": gin.H{
			"status": visionStatus,
		},
	})
}
