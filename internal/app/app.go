package app

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lukasbauer/livecaption/internal/eventlog"
	"github.com/lukasbauer/livecaption/internal/httpapi"
	"github.com/lukasbauer/livecaption/internal/llm"
	"github.com/lukasbauer/livecaption/internal/pipeline"
	"github.com/lukasbauer/livecaption/internal/session"
	"github.com/lukasbauer/livecaption/internal/store"
	"github.com/lukasbauer/livecaption/internal/stt"
)

type App struct {
	cfg      Config
	logger   *log.Logger
	db       *pgxpool.Pool
	store    *store.Store
	eventLog *eventlog.Logger

	sessions     *session.Store
	hub          *httpapi.Hub
	translator   *llm.OpenAITranslator
	orchestrator *pipeline.Orchestrator

	stopJanitor context.CancelFunc
}

func New(cfg Config, logger *log.Logger) (*App, error) {
	a := &App{
		cfg:      cfg,
		logger:   logger,
		sessions: session.NewStore(),
		hub:      httpapi.NewHub(logger),
	}

	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		db, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, err
		}
		a.db = db
		a.store = store.New(db)
		if err := a.store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		logger.Printf("caption archive enabled")
	} else {
		logger.Printf("DATABASE_URL not set, caption archive disabled")
	}
	a.eventLog = eventlog.New(a.db)

	if cfg.OpenAIAPIKey == "" {
		logger.Printf("Warning: OPENAI_API_KEY not set, transcription and translation will fail")
	}

	// Shared HTTP client with connection pooling; both gateways talk to one host.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   cfg.PipelineWorkers * 2,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	transcriber := stt.NewWhisperClient(stt.WhisperConfig{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		Model:          cfg.WhisperModel,
		MinAudioBytes:  cfg.STTMinAudioBytes,
		MaxAttempts:    cfg.STTMaxAttempts,
		RetryBaseDelay: cfg.STTRetryBase,
		HTTPClient:     httpClient,
		Logger:         logger,
	})

	a.translator = llm.NewOpenAITranslator(llm.OpenAIConfig{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		Model:      cfg.TranslationModel,
		Timeout:    cfg.HTTPTimeout,
		HTTPClient: httpClient,
		Logger:     logger,
	})

	publishers := pipeline.Publishers{a.hub}
	if a.store != nil {
		publishers = append(publishers, store.NewArchive(a.store, logger))
	}

	a.orchestrator = pipeline.New(pipeline.Config{
		Workers:        cfg.PipelineWorkers,
		ChunkTimeout:   cfg.PipelineChunkTimeout,
		DefaultHint:    cfg.DefaultLanguageHint,
		DetectLanguage: cfg.STTDetectLanguage,
		Debug:          cfg.Debug(),
	}, pipeline.Deps{
		Transcriber: transcriber,
		Translator:  a.translator,
		Sessions:    a.sessions,
		Publisher:   publishers,
		Events:      a.eventLog,
	}, logger)

	janitorCtx, stop := context.WithCancel(context.Background())
	a.stopJanitor = stop
	go a.sessions.RunJanitor(janitorCtx, cfg.SessionIdleTTL, min(cfg.SessionIdleTTL/2, time.Minute), logger)

	return a, nil
}

func (a *App) Router() http.Handler {
	routerCfg := httpapi.RouterConfig{
		JWTSecret:     a.cfg.JWTSecret,
		MaxAudioBytes: a.cfg.MaxAudioBytes,
	}
	deps := httpapi.Deps{
		Pipeline:   a.orchestrator,
		Sessions:   a.sessions,
		Translator: a.translator,
		EventLog:   a.eventLog,
		Hub:        a.hub,
	}
	// Leave the interface nil rather than holding a nil *store.Store.
	if a.store != nil {
		deps.Archive = a.store
	}
	return httpapi.NewRouter(routerCfg, a.logger, deps)
}

// Drain stops accepting audio and waits for in-flight chunks until ctx expires.
func (a *App) Drain(ctx context.Context) error {
	a.logger.Printf("draining %d in-flight chunks", a.orchestrator.ActiveCount())
	return a.orchestrator.Shutdown(ctx)
}

func (a *App) Close() error {
	if a.stopJanitor != nil {
		a.stopJanitor()
	}
	if a.db != nil {
		a.db.Close()
	}
	return nil
}
