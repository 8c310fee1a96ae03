package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Conceptual-Machines/tutor-api/internal/api"
	apimiddleware "github.com/Conceptual-Machines/tutor-api/internal/api/middleware"
	"github.com/Conceptual-Machines/tutor-api/internal/app"
	"github.com/Conceptual-Machines/tutor-api/internal/config"
	"github.com/Conceptual-Machines/tutor-api/internal/metrics"
)

const (
	sentryFlushTimeout    = 2 * time.Second
	shutdownFlushTimeout  = 5 * time.Second
	environmentProduction = "production"
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	profile, err := config.LoadSubjectProfile(cfg.SubjectProfile)
	if err != nil {
		log.Fatal("Failed to load subject profile:", err)
	}

	// Initialize Sentry
	sentryEnabled := false
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "tutor-api@" + releaseVersion,
			EnableTracing:    true,
			TracesSampleRate: 1.0,
			Debug:            cfg.Environment != environmentProduction,
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				if event.Request != nil {
					event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				}
				return event
			},
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			sentryEnabled = true
			log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
	}

	ctx := context.Background()

	// Metrics: Prometheus always, CloudWatch in production, Sentry spans when configured
	cloudwatch, err := metrics.NewClient(ctx, cfg.Environment, "")
	if err != nil {
		log.Printf("CloudWatch metrics unavailable: %v", err)
		cloudwatch = nil
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pipeline := metrics.NewPipeline(cfg.MetricsNamespace, registry, cloudwatch, metrics.NewSentrySpans(sentryEnabled))

	services, err := app.New(ctx, cfg, profile, pipeline)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to initialize services:", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownFlushTimeout)
		defer cancel()
		if err := services.Close(flushCtx); err != nil {
			log.Printf("Failed to close services: %v", err)
		}
	}()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.SetupRouter(api.Dependencies{
		Config:          cfg,
		SubjectLabel:    profile.SubjectLabel,
		KnowledgeSource: profile.KnowledgeSourceID,
		Questions:       services.Questions,
		Mindmap:         services.Mindmap,
		Sessions:        services.Sessions,
		Knowledge:       services.Knowledge.Store,
		CookieStore:     apimiddleware.NewCookieStore(cfg.SessionSecret, cfg.IsProduction()),
		Metrics:         pipeline,
		Version:         GetVersion(),
	})

	log.Printf("🚀 Starting server on port %s (subject: %s)", cfg.Port, profile.SubjectLabel)
	if err := router.Run(":" + cfg.Port); err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to start server:", err)
	}
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[strings.ToLower(k)] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
