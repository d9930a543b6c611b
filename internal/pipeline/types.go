package pipeline

import "context"

// AudioChunk is one utterance of audio submitted for captioning.
type AudioChunk struct {
	SessionID    string
	Audio        []byte
	LanguageHint string
	Timestamp    int64
}

// PartialCaption is emitted as soon as a chunk has been transcribed.
type PartialCaption struct {
	Text      string `json:"text"`
	Language  string `json:"language"`
	Timestamp int64  `json:"timestamp"`
	SessionID string `json:"sessionId"`
}

// FinalTranslation is emitted once a chunk has been translated. When the
// translation service fails, TranslatedText holds the original text.
type FinalTranslation struct {
	ID             string `json:"id"`
	OriginalText   string `json:"originalText"`
	OriginalLang   string `json:"originalLang"`
	TranslatedText string `json:"translatedText"`
	TargetLang     string `json:"targetLang"`
	Timestamp      int64  `json:"timestamp"`
	SessionID      string `json:"sessionId"`
}

// Publisher receives pipeline events. Implementations must not block for long.
type Publisher interface {
	PublishPartial(ctx context.Context, ev PartialCaption)
	PublishFinal(ctx context.Context, ev FinalTranslation)
}

// Publishers fans events out to every publisher in order.
type Publishers []Publisher

func (ps Publishers) PublishPartial(ctx context.Context, ev PartialCaption) {
	for _, p := range ps {
		p.PublishPartial(ctx, ev)
	}
}

func (ps Publishers) PublishFinal(ctx context.Context, ev FinalTranslation) {
	for _, p := range ps {
		p.PublishFinal(ctx, ev)
	}
}

// Sessions is the subset of the session store the pipeline needs.
type Sessions interface {
	// CheckAndRecord reports true when text was already seen in the session.
	CheckAndRecord(sessionID, text string) bool
	ResolveTarget(sessionID, verified, hint string) string
}

// Stage names a step of a chunk's run.
type Stage string

const (
	StageReceived     Stage = "received"
	StageTranscribing Stage = "transcribing"
	StageVerifying    Stage = "verifying"
	StageDeduping     Stage = "deduping"
	StageDropped      Stage = "dropped"
	StagePartial      Stage = "partial_emitted"
	StageResolving    Stage = "resolving"
	StageTranslating  Stage = "translating"
	StageFinal        Stage = "final_emitted"
)

// Chunk outcomes recorded in metrics.
const (
	outcomeEmpty      = "empty"
	outcomeFailed     = "failed"
	outcomeDuplicate  = "duplicate"
	outcomeTranslated = "translated"
	outcomeDegraded   = "degraded"
	outcomePanicked   = "panicked"
)
