// Package pipeline runs audio chunks through transcription, language
// verification, deduplication and translation, emitting a partial caption
// and a final translation per utterance.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/lukasbauer/livecaption/internal/eventlog"
	"github.com/lukasbauer/livecaption/internal/langdetect"
	"github.com/lukasbauer/livecaption/internal/llm"
	"github.com/lukasbauer/livecaption/internal/metrics"
	"github.com/lukasbauer/livecaption/internal/stt"
)

const (
	defaultWorkers      = 8
	defaultChunkTimeout = 2 * time.Minute
	defaultHint         = "en"
)

// EventLogger records per-session stage events.
type EventLogger interface {
	LogAsync(sessionID string, eventType eventlog.EventType, data map[string]any)
}

type nopEventLogger struct{}

func (nopEventLogger) LogAsync(string, eventlog.EventType, map[string]any) {}

// Config controls the orchestrator.
type Config struct {
	Workers      int           // chunks processed concurrently
	ChunkTimeout time.Duration // upper bound for one chunk's run
	DefaultHint  string        // used when a chunk carries no language hint

	// DetectLanguage lets the engine detect the spoken language. When false
	// the hint is passed to the engine and taken as its reported language.
	DetectLanguage bool

	Debug bool
}

// Deps are the collaborators a chunk run needs.
type Deps struct {
	Transcriber stt.Client
	Translator  llm.Translator
	Sessions    Sessions
	Publisher   Publisher
	Events      EventLogger
}

// Orchestrator accepts audio chunks and processes each independently on its
// own goroutine. Chunks from one session may complete in any order.
//
// The mu mutex makes the draining check and wg.Add atomic in Submit, so no
// chunk can slip in after Shutdown has started waiting.
type Orchestrator struct {
	cfg    Config
	deps   Deps
	logger *log.Logger

	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	draining bool
	wg       sync.WaitGroup
	active   atomic.Int64

	now   func() time.Time
	newID func() string
}

// New creates an orchestrator. Chunk runs derive their context from an
// internal lifetime context that is cancelled by Shutdown.
func New(cfg Config, deps Deps, logger *log.Logger) *Orchestrator {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.ChunkTimeout <= 0 {
		cfg.ChunkTimeout = defaultChunkTimeout
	}
	if cfg.DefaultHint == "" {
		cfg.DefaultHint = defaultHint
	}
	if deps.Events == nil {
		deps.Events = nopEventLogger{}
	}
	if deps.Publisher == nil {
		deps.Publisher = Publishers{}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
		sem:    semaphore.NewWeighted(int64(cfg.Workers)),
		ctx:    ctx,
		cancel: cancel,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Submit schedules chunk for processing and returns immediately. It returns
// false only when the orchestrator is draining.
func (o *Orchestrator) Submit(chunk AudioChunk) bool {
	o.mu.Lock()
	if o.draining {
		o.mu.Unlock()
		metrics.RecordRejected("draining")
		return false
	}
	o.wg.Add(1)
	o.active.Add(1)
	o.mu.Unlock()

	metrics.ChunksInFlight.Inc()
	go o.run(chunk)
	return true
}

// ActiveCount returns the number of chunks accepted but not yet finished.
func (o *Orchestrator) ActiveCount() int64 {
	return o.active.Load()
}

// IsDraining reports whether Shutdown has been called.
func (o *Orchestrator) IsDraining() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.draining
}

// Shutdown stops accepting chunks and waits for in-flight ones to finish or
// for ctx to expire, whichever comes first. Remaining runs are then cancelled.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.draining = true
	o.mu.Unlock()
	defer o.cancel()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		o.logger.Printf("pipeline: shutdown with %d chunks still in flight", o.ActiveCount())
		return ctx.Err()
	}
}

func (o *Orchestrator) run(chunk AudioChunk) {
	defer func() {
		o.active.Add(-1)
		metrics.ChunksInFlight.Dec()
		o.wg.Done()
	}()

	if err := o.sem.Acquire(o.ctx, 1); err != nil {
		o.logger.Printf("pipeline: session %s: chunk abandoned before start: %v", chunk.SessionID, err)
		metrics.RecordOutcome(outcomeFailed)
		return
	}
	defer o.sem.Release(1)

	ctx, cancel := context.WithTimeout(o.ctx, o.cfg.ChunkTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Printf("pipeline: session %s: panic processing chunk: %v", chunk.SessionID, r)
			hub := sentry.CurrentHub().Clone()
			hub.Scope().SetTag("session_id", chunk.SessionID)
			hub.RecoverWithContext(ctx, r)
			metrics.RecordOutcome(outcomePanicked)
			o.deps.Events.LogAsync(chunk.SessionID, eventlog.EventChunkPanic, map[string]any{
				"panic": fmt.Sprint(r),
			})
		}
	}()

	metrics.RecordOutcome(o.process(ctx, chunk))
}

// process walks one chunk through every stage and returns its outcome.
func (o *Orchestrator) process(ctx context.Context, chunk AudioChunk) string {
	sid := chunk.SessionID
	hint := chunk.LanguageHint
	if hint == "" {
		hint = o.cfg.DefaultHint
	}

	o.trace(sid, StageReceived, "%d bytes, hint %s", len(chunk.Audio), hint)
	o.deps.Events.LogAsync(sid, eventlog.EventChunkReceived, map[string]any{
		"bytes": len(chunk.Audio),
		"hint":  hint,
	})

	o.trace(sid, StageTranscribing, "")
	start := time.Now()
	text, engineLang, err := o.transcribe(ctx, chunk.Audio, hint)
	metrics.RecordStage("transcribe", time.Since(start).Seconds())
	if err != nil {
		o.logger.Printf("pipeline: session %s: transcription failed: %v", sid, err)
		o.deps.Events.LogAsync(sid, eventlog.EventSTTError, map[string]any{"error": err.Error()})
		return outcomeFailed
	}
	if strings.TrimSpace(text) == "" {
		o.trace(sid, StageDropped, "empty transcript")
		o.deps.Events.LogAsync(sid, eventlog.EventChunkEmpty, nil)
		return outcomeEmpty
	}
	o.deps.Events.LogAsync(sid, eventlog.EventSTTResult, map[string]any{
		"text":            text,
		"engine_language": engineLang,
		"latency_ms":      time.Since(start).Milliseconds(),
	})

	o.trace(sid, StageVerifying, "engine reported %q", engineLang)
	verified := langdetect.Verify(text, engineLang, hint)
	if reported := langdetect.NormalizeCode(engineLang); reported != "" && reported != verified {
		o.logger.Printf("pipeline: session %s: engine reported %q, corrected to %q", sid, reported, verified)
	}
	o.deps.Events.LogAsync(sid, eventlog.EventLanguageVerified, map[string]any{
		"engine_language":   engineLang,
		"verified_language": verified,
	})

	o.trace(sid, StageDeduping, "")
	if o.deps.Sessions.CheckAndRecord(sid, text) {
		o.trace(sid, StageDropped, "duplicate transcript %q", text)
		o.deps.Events.LogAsync(sid, eventlog.EventChunkDuplicate, map[string]any{"text": text})
		return outcomeDuplicate
	}

	o.deps.Publisher.PublishPartial(ctx, PartialCaption{
		Text:      text,
		Language:  verified,
		Timestamp: o.now().UnixMilli(),
		SessionID: sid,
	})
	o.trace(sid, StagePartial, "%s: %s", verified, text)

	target := o.deps.Sessions.ResolveTarget(sid, verified, hint)
	o.trace(sid, StageResolving, "%s -> %s", verified, target)

	o.trace(sid, StageTranslating, "")
	start = time.Now()
	translated, ok := o.deps.Translator.Translate(ctx, text, verified, target)
	metrics.RecordStage("translate", time.Since(start).Seconds())

	outcome := outcomeTranslated
	if ok {
		o.deps.Events.LogAsync(sid, eventlog.EventTranslationDone, map[string]any{
			"source":     verified,
			"target":     target,
			"latency_ms": time.Since(start).Milliseconds(),
		})
	} else {
		outcome = outcomeDegraded
		o.logger.Printf("pipeline: session %s: translation %s -> %s failed, sending original text", sid, verified, target)
		o.deps.Events.LogAsync(sid, eventlog.EventTranslationFailed, map[string]any{
			"source": verified,
			"target": target,
		})
	}

	final := FinalTranslation{
		ID:             o.newID(),
		OriginalText:   text,
		OriginalLang:   verified,
		TranslatedText: translated,
		TargetLang:     target,
		Timestamp:      o.now().UnixMilli(),
		SessionID:      sid,
	}
	o.deps.Publisher.PublishFinal(ctx, final)
	o.trace(sid, StageFinal, "%s", final.ID)

	return outcome
}

// transcribe returns the transcript and the language the engine reports.
func (o *Orchestrator) transcribe(ctx context.Context, audio []byte, hint string) (string, string, error) {
	if !o.cfg.DetectLanguage {
		text, err := o.deps.Transcriber.Transcribe(ctx, audio, hint)
		return text, hint, err
	}
	res, err := o.deps.Transcriber.TranscribeDetect(ctx, audio)
	return res.Text, res.Language, err
}

func (o *Orchestrator) trace(sessionID string, stage Stage, format string, args ...any) {
	if !o.cfg.Debug {
		return
	}
	msg := fmt.Sprintf(format, args...)
	o.logger.Printf("pipeline: session %s: [%s] %s", sessionID, stage, msg)
}
