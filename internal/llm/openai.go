package llm

import (
	"context"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/lukasbauer/livecaption/internal/costs"
	"github.com/lukasbauer/livecaption/internal/metrics"
)

const (
	defaultBaseURL = "https://api.openai.com/v1/"
	defaultModel   = "gpt-4o-mini"
)

// ensure this satisfies the interface
var _ Translator = (*OpenAITranslator)(nil)

// OpenAITranslator implements the Translator interface using OpenAI chat completions.
type OpenAITranslator struct {
	client *openai.Client
	model  string
	logger *log.Logger
}

// OpenAIConfig holds configuration for the OpenAI translator.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string        // OpenAI-compatible API root, e.g., "https://api.openai.com/v1"
	Model      string        // e.g., "gpt-4o-mini"
	Timeout    time.Duration // per-request timeout (connect + read)
	HTTPClient *http.Client
	Logger     *log.Logger
}

// NewOpenAITranslator creates a new OpenAI translator.
func NewOpenAITranslator(cfg OpenAIConfig) *OpenAITranslator {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	// Retries are disabled: a late translation is worse than the original text.
	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	)

	return &OpenAITranslator{
		client: &client,
		model:  model,
		logger: logger,
	}
}

// Translate translates text using the configured chat model. Any failure
// returns the original text with ok=false.
func (t *OpenAITranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, bool) {
	if strings.TrimSpace(text) == "" || strings.EqualFold(sourceLang, targetLang) {
		return text, true
	}

	t.logger.Printf("llm: translating %s -> %s: %s", sourceLang, targetLang, text)

	resp, err := t.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: t.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(TranslationPrompt(sourceLang, targetLang)),
			openai.UserMessage(text),
		},
		Temperature: openai.Float(0.3),
	})
	if err != nil {
		t.logger.Printf("llm: translation failed, returning original text: %v", err)
		return text, false
	}
	metrics.RecordCost("translation", costs.TranslationCents(resp.Usage.PromptTokens, resp.Usage.CompletionTokens))
	if len(resp.Choices) == 0 {
		t.logger.Printf("llm: no choices in response, returning original text")
		return text, false
	}

	translated := strings.TrimSpace(resp.Choices[0].Message.Content)
	if translated == "" {
		t.logger.Printf("llm: empty translation, returning original text")
		return text, false
	}

	t.logger.Printf("llm: translation result: %s", translated)
	return translated, true
}
