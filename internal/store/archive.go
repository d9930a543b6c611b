package store

import (
	"context"
	"log"
	"time"

	"github.com/lukasbauer/livecaption/internal/pipeline"
)

// CaptionWriter is the subset of Store used by Archive.
type CaptionWriter interface {
	InsertCaption(ctx context.Context, c Caption) error
}

// Archive persists final translations as they are published. Partial
// captions are not stored.
type Archive struct {
	w      CaptionWriter
	logger *log.Logger
}

// NewArchive returns a publisher that writes finals through w.
func NewArchive(w CaptionWriter, logger *log.Logger) *Archive {
	return &Archive{w: w, logger: logger}
}

func (a *Archive) PublishPartial(context.Context, pipeline.PartialCaption) {}

// PublishFinal writes the caption without blocking the pipeline.
func (a *Archive) PublishFinal(_ context.Context, ev pipeline.FinalTranslation) {
	c := Caption{
		ID:             ev.ID,
		SessionID:      ev.SessionID,
		OriginalText:   ev.OriginalText,
		OriginalLang:   ev.OriginalLang,
		TranslatedText: ev.TranslatedText,
		TargetLang:     ev.TargetLang,
		Timestamp:      ev.Timestamp,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.w.InsertCaption(ctx, c); err != nil {
			a.logger.Printf("store: failed to archive caption %s for session %s: %v", c.ID, c.SessionID, err)
		}
	}()
}
