package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration
// Subject-specific settings (labels, defaults, vocabulary) live in SubjectProfile.
type Config struct {
	// Environment
	Environment string
	Port        string

	// LLM API Keys
	OpenAIAPIKey  string // API key for the OpenAI-compatible endpoint
	OpenAIBaseURL string // Optional base URL, e.g. DashScope compatible mode
	GeminiAPIKey  string // Google Gemini API key

	// Models
	TextProvider      string // "openai", "gemini", or empty to infer from the model name
	TextModel         string
	IntentModel       string
	VisionProvider    string
	VisionModel       string // Empty disables image input
	EmbeddingProvider string
	EmbeddingModel    string
	VisionTimeout     time.Duration

	// Knowledge base
	DatabaseURL       string // Postgres DSN; empty selects the in-memory store
	KnowledgeSnapshot string // JSON snapshot loaded into the in-memory store
	SubjectProfile    string // Path to a subject profile YAML; empty uses the embedded default

	// HTTP
	SessionSecret string
	UploadDir     string
	MaxUploadMB   int

	// Observability
	SentryDSN         string // Sentry DSN for error tracking
	LangfusePublicKey string // Langfuse public key
	LangfuseSecretKey string // Langfuse secret key
	LangfuseHost      string // Langfuse host URL (cloud or self-hosted)
	LangfuseEnabled   bool   // Feature flag for Langfuse
	MetricsNamespace  string // Prometheus namespace
}

const (
	defaultVisionTimeout = 30 * time.Second
	defaultMaxUploadMB   = 16
)

func Load() *Config {
	return &Config{
		Environment:       getEnv("ENVIRONMENT", "development"),
		Port:              getEnv("PORT", "8080"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		TextProvider:      getEnv("TEXT_PROVIDER", ""),
		TextModel:         getEnv("TEXT_MODEL", "qwen-max"),
		IntentModel:       getEnv("INTENT_MODEL", "qwen-turbo"),
		VisionProvider:    getEnv("VISION_PROVIDER", ""),
		VisionModel:       getEnv("VISION_MODEL", "qwen-vl-max"),
		EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", ""),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-v3"),
		VisionTimeout:     getDuration("VISION_TIMEOUT", defaultVisionTimeout),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		KnowledgeSnapshot: getEnv("KNOWLEDGE_SNAPSHOT", ""),
		SubjectProfile:    getEnv("SUBJECT_PROFILE", ""),
		SessionSecret:     getEnv("SESSION_SECRET", "dev-session-secret-change-me"),
		UploadDir:         getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadMB:       getInt("MAX_UPLOAD_MB", defaultMaxUploadMB),
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		LangfusePublicKey: getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey: getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:      getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:   getEnv("LANGFUSE_ENABLED", "false") == "true",
		MetricsNamespace:  getEnv("METRICS_NAMESPACE", "tutor"),
	}
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// VisionEnabled reports whether image input is configured.
func (c *Config) VisionEnabled() bool {
	return c.VisionModel != ""
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(getEnv(key, "")); err == nil && n > 0 {
		return n
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, "")); err == nil && d > 0 {
		return d
	}
	return defaultValue
}
