package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr    string
	DatabaseURL string // optional; enables the caption archive and event log
	LogLevel    string

	// OpenAI-compatible API (transcription + translation)
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	WhisperModel     string
	TranslationModel string
	HTTPTimeout      time.Duration

	// Transcription
	STTMinAudioBytes  int
	STTMaxAttempts    int
	STTRetryBase      time.Duration
	STTDetectLanguage bool

	// Pipeline
	PipelineWorkers      int
	PipelineChunkTimeout time.Duration
	DefaultLanguageHint  string
	MaxAudioBytes        int64

	// Sessions idle longer than this are evicted (0 = never)
	SessionIdleTTL time.Duration

	// JWT Authentication (empty disables auth)
	JWTSecret string

	// Shutdown: in-flight chunks get DrainTimeout, open requests ShutdownTimeout
	DrainTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Monitoring
	SentryDSN   string
	Environment string
}

func LoadConfigFromEnv() Config {
	return Config{
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		DatabaseURL: getenv("DATABASE_URL", ""),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		OpenAIAPIKey:     getenv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getenv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		WhisperModel:     getenv("WHISPER_MODEL", "whisper-1"),
		TranslationModel: getenv("TRANSLATION_MODEL", "gpt-4o-mini"),
		HTTPTimeout:      getenvDuration("HTTP_TIMEOUT", 30*time.Second),

		STTMinAudioBytes:  getenvIntClamped("STT_MIN_AUDIO_BYTES", 1000, 0, 1<<20),
		STTMaxAttempts:    getenvIntClamped("STT_MAX_ATTEMPTS", 3, 1, 5),
		STTRetryBase:      time.Duration(getenvIntClamped("STT_RETRY_BASE_MS", 500, 0, 10000)) * time.Millisecond,
		STTDetectLanguage: getenvBool("STT_DETECT_LANGUAGE", true),

		PipelineWorkers:      getenvIntClamped("PIPELINE_WORKERS", 8, 1, 64),
		PipelineChunkTimeout: getenvDuration("PIPELINE_CHUNK_TIMEOUT", 2*time.Minute),
		DefaultLanguageHint:  strings.ToLower(getenv("DEFAULT_LANGUAGE_HINT", "en")),
		MaxAudioBytes:        int64(getenvIntClamped("MAX_AUDIO_BYTES", 10<<20, 1024, 100<<20)),

		SessionIdleTTL: getenvDuration("SESSION_IDLE_TTL", 0),

		JWTSecret: os.Getenv("JWT_SECRET"),

		DrainTimeout:    getenvDuration("DRAIN_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getenvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		SentryDSN:   os.Getenv("SENTRY_DSN"),
		Environment: getenv("ENVIRONMENT", "development"),
	}
}

// Debug reports whether per-chunk debug logging is enabled.
func (c Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "debug")
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getenvIntClamped parses an int, falling back to def when unset or invalid,
// and clamps the result to [min, max].
func getenvIntClamped(k string, def, min, max int) int {
	v, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// getenvDuration parses a Go duration such as "30s", falling back to def.
func getenvDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil || d < 0 {
		return def
	}
	return d
}

// getenvBool parses a boolean such as "true" or "0", falling back to def.
func getenvBool(k string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(k))
	if err != nil {
		return def
	}
	return b
}
