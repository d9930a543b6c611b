package stt

import (
	"context"
	"fmt"
	"net/http"
)

// Result is a transcription together with the language the engine reports.
// Language may be wrong, empty, or use a different code convention.
type Result struct {
	Text     string
	Language string
}

// Client defines the interface for speech-to-text providers.
type Client interface {
	// Transcribe transcribes audio, passing languageHint to the engine.
	// An empty transcript with a nil error means there was nothing to process.
	Transcribe(ctx context.Context, audio []byte, languageHint string) (string, error)

	// TranscribeDetect transcribes audio and lets the engine detect the language.
	TranscribeDetect(ctx context.Context, audio []byte) (Result, error)
}

// APIError is a non-2xx response from the transcription service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("transcription API error: %d %s - %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Transient reports whether the request may succeed if retried.
func (e *APIError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
