package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/lukasbauer/livecaption/internal/costs"
	"github.com/lukasbauer/livecaption/internal/metrics"
)

const (
	defaultBaseURL        = "https://api.openai.com/v1"
	defaultWhisperModel   = "whisper-1"
	defaultMinAudioBytes  = 1000
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 500 * time.Millisecond
)

// errRetriesExhausted is returned by do when every attempt failed transiently.
var errRetriesExhausted = errors.New("transcription retries exhausted")

// ensure this satisfies the interface
var _ Client = (*WhisperClient)(nil)

// WhisperClient implements the Client interface using an OpenAI-compatible
// /audio/transcriptions endpoint.
type WhisperClient struct {
	apiKey         string
	baseURL        string
	model          string
	minAudioBytes  int
	maxAttempts    int
	retryBaseDelay time.Duration
	httpClient     *http.Client
	logger         *log.Logger

	// sleep waits between attempts; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// WhisperConfig holds configuration for the Whisper client.
type WhisperConfig struct {
	APIKey         string
	BaseURL        string        // e.g., "https://api.openai.com/v1"
	Model          string        // e.g., "whisper-1"
	MinAudioBytes  int           // payloads below this are treated as noise
	MaxAttempts    int           // total attempts for transient failures
	RetryBaseDelay time.Duration // attempt n waits n*RetryBaseDelay before retrying
	HTTPClient     *http.Client
	Logger         *log.Logger
}

// whisperResponse covers both the json and verbose_json response formats.
type whisperResponse struct {
	Text     *string `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"` // seconds, verbose_json only
}

// NewWhisperClient creates a new Whisper transcription client.
func NewWhisperClient(cfg WhisperConfig) *WhisperClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultWhisperModel
	}
	minBytes := cfg.MinAudioBytes
	if minBytes <= 0 {
		minBytes = defaultMinAudioBytes
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	delay := cfg.RetryBaseDelay
	if delay <= 0 {
		delay = defaultRetryBaseDelay
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &WhisperClient{
		apiKey:         cfg.APIKey,
		baseURL:        baseURL,
		model:          model,
		minAudioBytes:  minBytes,
		maxAttempts:    attempts,
		retryBaseDelay: delay,
		httpClient:     httpClient,
		logger:         logger,
		sleep:          sleepContext,
	}
}

// Transcribe transcribes audio with a language hint.
func (c *WhisperClient) Transcribe(ctx context.Context, audio []byte, languageHint string) (string, error) {
	if len(audio) < c.minAudioBytes {
		c.logger.Printf("stt: audio too short (%d bytes), skipping", len(audio))
		return "", nil
	}

	c.logger.Printf("stt: transcribing %d bytes, language hint: %s", len(audio), languageHint)

	fields := map[string]string{
		"model":           c.model,
		"response_format": "json",
		"temperature":     "0",
	}
	if languageHint != "" {
		fields["language"] = languageHint
	}

	resp, err := c.do(ctx, audio, fields)
	if errors.Is(err, errRetriesExhausted) {
		c.logger.Printf("stt: giving up after %d attempts", c.maxAttempts)
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(*resp.Text), nil
}

// TranscribeDetect transcribes audio and returns the engine-detected language.
func (c *WhisperClient) TranscribeDetect(ctx context.Context, audio []byte) (Result, error) {
	if len(audio) < c.minAudioBytes {
		c.logger.Printf("stt: audio too short (%d bytes), skipping", len(audio))
		return Result{}, nil
	}

	c.logger.Printf("stt: transcribing %d bytes (auto-detect language)", len(audio))

	resp, err := c.do(ctx, audio, map[string]string{
		"model":           c.model,
		"response_format": "verbose_json",
		"temperature":     "0",
	})
	if errors.Is(err, errRetriesExhausted) {
		c.logger.Printf("stt: giving up after %d attempts", c.maxAttempts)
		return Result{}, nil
	}
	if err != nil {
		return Result{}, err
	}
	return Result{Text: strings.TrimSpace(*resp.Text), Language: resp.Language}, nil
}

// do sends the request, retrying transient failures with linear backoff.
func (c *WhisperClient) do(ctx context.Context, audio []byte, fields map[string]string) (*whisperResponse, error) {
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		resp, err := c.post(ctx, audio, fields)
		if err == nil {
			return resp, nil
		}
		if !c.transient(ctx, err) {
			return nil, err
		}

		c.logger.Printf("stt: attempt %d/%d failed: %v", attempt, c.maxAttempts, err)
		if attempt == c.maxAttempts {
			break
		}

		metrics.TranscriptionRetries.Inc()
		if err := c.sleep(ctx, time.Duration(attempt)*c.retryBaseDelay); err != nil {
			return nil, err
		}
	}
	return nil, errRetriesExhausted
}

// transient reports whether err is worth retrying. Transport errors count as
// transient unless the caller's context is done.
func (c *WhisperClient) transient(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Transient()
	}
	var transportErr *transportError
	return errors.As(err, &transportErr)
}

// transportError wraps a failure to get any response from the service.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return "failed to send request: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func (c *WhisperClient) post(ctx context.Context, audio []byte, fields map[string]string) (*whisperResponse, error) {
	body, contentType, err := buildMultipart(audio, fields)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var out whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Text == nil {
		return nil, fmt.Errorf("malformed response: missing text")
	}
	metrics.RecordCost("transcription", costs.TranscriptionCents(out.Duration))
	return &out, nil
}

func buildMultipart(audio []byte, fields map[string]string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="audio.wav"`)
	h.Set("Content-Type", "audio/wav")
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", fmt.Errorf("failed to write audio: %w", err)
	}

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return body, w.FormDataContentType(), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
