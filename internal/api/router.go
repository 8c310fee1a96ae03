package api

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"

	"github.com/Conceptual-Machines/tutor-api/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/tutor-api/internal/api/middleware"
	"github.com/Conceptual-Machines/tutor-api/internal/config"
	"github.com/Conceptual-Machines/tutor-api/internal/metrics"
)

// multipartMemoryOverhead leaves room for the text fields next to the image
const multipartMemoryOverhead = 1 << 20

// Dependencies are the services the HTTP layer routes to
type Dependencies struct {
	Config          *config.Config
	SubjectLabel    string
	KnowledgeSource string
	Questions       handlers.QuestionGenerator
	Mindmap         handlers.MindmapBuilder
	Sessions        handlers.DialogueSessions
	Knowledge       handlers.KnowledgeCounter
	CookieStore     sessions.Store
	Metrics         *metrics.Pipeline // nil disables request metrics and /metrics/prometheus
	Version         string
}

func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	router := gin.New()

	uploads := handlers.NewUploads(cfg.UploadDir, cfg.MaxUploadMB)
	router.MaxMultipartMemory = uploads.MaxBytes() + multipartMemoryOverhead

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	if deps.Metrics != nil {
		router.Use(apimiddleware.RequestTracking(deps.Metrics))
	} else {
		router.Use(apimiddleware.RequestTracking(nil))
	}

	router.Use(apimiddleware.CORS())

	// Health check
	healthHandler := handlers.NewHealthHandler(deps.Knowledge, deps.KnowledgeSource, cfg.VisionEnabled())
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoints
	api := map[string]interface{}{
		"subject":      deps.SubjectLabel,
		"text_model":   cfg.TextModel,
		"intent_model": cfg.IntentModel,
		"vision_model": cfg.VisionModel,
	}
	var metricsHandler *handlers.MetricsHandler
	if deps.Metrics != nil {
		metricsHandler = handlers.NewMetricsHandler(deps.Version, api, deps.Metrics.Handler())
	} else {
		metricsHandler = handlers.NewMetricsHandler(deps.Version, api, nil)
	}
	router.GET("/metrics", metricsHandler.GetMetrics)
	router.GET("/metrics/prometheus", metricsHandler.Prometheus)

	// Question generation, scoped to the caller cookie
	chatHandler := handlers.NewChatHandler(deps.Questions, deps.Mindmap, uploads)
	caller := router.Group("/")
	caller.Use(apimiddleware.CallerSession(deps.CookieStore))
	{
		caller.POST("/chat", chatHandler.Chat)
		caller.POST("/extract", chatHandler.Extract)
	}

	// Socratic dialogue
	dialogueHandler := handlers.NewDialogueHandler(deps.Sessions, uploads)
	router.POST("/start_dialogue", dialogueHandler.Start)
	router.POST("/continue_dialogue", dialogueHandler.Continue)
	router.POST("/end_dialogue", dialogueHandler.End)

	return router
}
