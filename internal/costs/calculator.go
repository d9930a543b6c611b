// Package costs estimates provider spend for transcription and translation.
package costs

import (
	"os"
	"strconv"
)

// Pricing constants (in cents per unit for precision).
// These can be overridden via environment variables.
var (
	// WhisperCentsPerMinute is the cost per minute of audio for Whisper transcription.
	// Default: $0.006/min = 0.6 cents/min
	WhisperCentsPerMinute = getEnvFloat("COST_WHISPER_CENTS_PER_MIN", 0.6)

	// OpenAICentsPerThousandInputTokens is the cost per 1K input tokens for GPT-4o-mini.
	// Default: $0.15/1M = $0.00015/1K = 0.015 cents/1K tokens
	OpenAICentsPerThousandInputTokens = getEnvFloat("COST_OPENAI_INPUT_CENTS_PER_1K", 0.015)

	// OpenAICentsPerThousandOutputTokens is the cost per 1K output tokens for GPT-4o-mini.
	// Default: $0.60/1M = $0.0006/1K = 0.06 cents/1K tokens
	OpenAICentsPerThousandOutputTokens = getEnvFloat("COST_OPENAI_OUTPUT_CENTS_PER_1K", 0.06)
)

// TranscriptionCents returns the cost of transcribing the given seconds of audio.
// Per-chunk costs are fractions of a cent, so the result is not rounded.
func TranscriptionCents(audioSeconds float64) float64 {
	if audioSeconds <= 0 {
		return 0
	}
	return audioSeconds / 60.0 * WhisperCentsPerMinute
}

// TranslationCents returns the cost of one chat completion.
func TranslationCents(inputTokens, outputTokens int64) float64 {
	if inputTokens < 0 {
		inputTokens = 0
	}
	if outputTokens < 0 {
		outputTokens = 0
	}
	in := (float64(inputTokens) / 1000.0) * OpenAICentsPerThousandInputTokens
	out := (float64(outputTokens) / 1000.0) * OpenAICentsPerThousandOutputTokens
	return in + out
}

// getEnvFloat returns an environment variable as float64, or the default if not set.
func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
