package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lukasbauer/livecaption/internal/eventlog"
	"github.com/lukasbauer/livecaption/internal/llm"
	"github.com/lukasbauer/livecaption/internal/pipeline"
	"github.com/lukasbauer/livecaption/internal/store"
)

type RouterConfig struct {
	// JWT Authentication (empty disables auth)
	JWTSecret string

	// Largest decoded audio payload accepted per chunk
	MaxAudioBytes int64
}

// Pipeline accepts audio chunks for asynchronous processing.
type Pipeline interface {
	Submit(chunk pipeline.AudioChunk) bool
	IsDraining() bool
}

// SessionStore holds the live per-session state.
type SessionStore interface {
	Init(id, lang1, lang2 string)
	Clear(id string)
}

// CaptionArchive persists sessions and final translations.
type CaptionArchive interface {
	UpsertSession(ctx context.Context, id, language1, language2 string) error
	ClearSession(ctx context.Context, id string) error
	ListCaptions(ctx context.Context, sessionID string, limit int) ([]store.Caption, error)
}

// Deps are the router's collaborators. Archive and EventLog may be nil.
type Deps struct {
	Pipeline   Pipeline
	Sessions   SessionStore
	Translator llm.Translator
	Archive    CaptionArchive
	EventLog   *eventlog.Logger
	Hub        *Hub
}

type Router struct {
	cfg        RouterConfig
	logger     *log.Logger
	pipeline   Pipeline
	sessions   SessionStore
	translator llm.Translator
	archive    CaptionArchive
	eventLog   *eventlog.Logger
	hub        *Hub
	mux        *http.ServeMux
}

func NewRouter(cfg RouterConfig, logger *log.Logger, deps Deps) http.Handler {
	if cfg.MaxAudioBytes <= 0 {
		cfg.MaxAudioBytes = 10 << 20
	}
	r := &Router{
		cfg:        cfg,
		logger:     logger,
		pipeline:   deps.Pipeline,
		sessions:   deps.Sessions,
		translator: deps.Translator,
		archive:    deps.Archive,
		eventLog:   deps.EventLog,
		hub:        deps.Hub,
		mux:        http.NewServeMux(),
	}

	r.routes()
	return withSentryRecovery(withCORS(r.mux))
}

func (r *Router) routes() {
	// Health checks
	r.mux.HandleFunc("GET /healthz", r.handleHealthz)
	r.mux.HandleFunc("GET /readyz", r.handleReadyz)
	r.mux.Handle("GET /metrics", promhttp.Handler())

	// Captioning API
	r.mux.HandleFunc("POST /api/audio/upload", r.withAuth(r.handleAudioUpload))
	r.mux.HandleFunc("POST /api/session/init", r.withAuth(r.handleSessionInit))
	r.mux.HandleFunc("POST /api/session/clear", r.withAuth(r.handleSessionClear))
	r.mux.HandleFunc("POST /api/translate", r.withAuth(r.handleTranslate))
	r.mux.HandleFunc("GET /api/sessions/{id}/captions", r.withAuth(r.handleListCaptions))

	// Live captions
	r.mux.HandleFunc("GET /ws", r.withAuth(r.handleWS))
}

func (r *Router) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Router) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	if r.pipeline != nil && r.pipeline.IsDraining() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("draining"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func withSentryRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				hub := sentry.CurrentHub().Clone()
				hub.Scope().SetRequest(req)
				hub.RecoverWithContext(req.Context(), err)
				hub.Flush(2 * time.Second)
				http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, req)
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// captureError sends an error to Sentry with request context
func captureError(req *http.Request, err error, msg string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(req)
		scope.SetExtra("message", msg)
		sentry.CaptureException(err)
	})
}
