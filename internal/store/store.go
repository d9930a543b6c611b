package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Session is the archived language pair of a captioning session.
type Session struct {
	ID        string     `json:"id"`
	Language1 string     `json:"language1"`
	Language2 string     `json:"language2"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClearedAt *time.Time `json:"cleared_at,omitempty"`
}

// Caption is an archived final translation.
type Caption struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"sessionId"`
	OriginalText   string    `json:"originalText"`
	OriginalLang   string    `json:"originalLang"`
	TranslatedText string    `json:"translatedText"`
	TargetLang     string    `json:"targetLang"`
	Timestamp      int64     `json:"timestamp"`
	CreatedAt      time.Time `json:"created_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS caption_sessions (
	id TEXT PRIMARY KEY,
	language1 TEXT NOT NULL,
	language2 TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	cleared_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS captions (
	id UUID PRIMARY KEY,
	session_id TEXT NOT NULL,
	original_text TEXT NOT NULL,
	original_lang TEXT NOT NULL,
	translated_text TEXT NOT NULL,
	target_lang TEXT NOT NULL,
	event_timestamp BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS captions_session_idx ON captions (session_id, event_timestamp);

CREATE TABLE IF NOT EXISTS session_events (
	id BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	event_data JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS session_events_session_idx ON session_events (session_id, created_at);
`

// EnsureSchema creates the archive tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// UpsertSession records the language pair for a session, reopening it if it
// was cleared.
func (s *Store) UpsertSession(ctx context.Context, id, language1, language2 string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO caption_sessions (id, language1, language2)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			language1 = EXCLUDED.language1,
			language2 = EXCLUDED.language2,
			updated_at = NOW(),
			cleared_at = NULL
	`, id, language1, language2)
	return err
}

// ClearSession marks a session as cleared. Archived captions are kept.
func (s *Store) ClearSession(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE caption_sessions SET cleared_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, id)
	return err
}

// GetSession returns the archived session, or nil if unknown.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, language1, language2, created_at, updated_at, cleared_at
		FROM caption_sessions WHERE id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var sess Session
	if err := rows.Scan(&sess.ID, &sess.Language1, &sess.Language2, &sess.CreatedAt, &sess.UpdatedAt, &sess.ClearedAt); err != nil {
		return nil, err
	}
	return &sess, nil
}

// InsertCaption archives a final translation. Re-inserting the same id is a no-op.
func (s *Store) InsertCaption(ctx context.Context, c Caption) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO captions (id, session_id, original_text, original_lang, translated_text, target_lang, event_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`, c.ID, c.SessionID, c.OriginalText, c.OriginalLang, c.TranslatedText, c.TargetLang, c.Timestamp)
	return err
}

// Caption listing bounds.
const (
	DefaultCaptionsLimit = 100
	MaxCaptionsLimit     = 500
)

// CaptionsLimit clamps a requested page size: non-positive means
// DefaultCaptionsLimit, anything above MaxCaptionsLimit is capped.
func CaptionsLimit(n int) int {
	if n <= 0 {
		return DefaultCaptionsLimit
	}
	return min(n, MaxCaptionsLimit)
}

// ListCaptions returns a session's captions oldest first, at most
// CaptionsLimit(limit) of them.
func (s *Store) ListCaptions(ctx context.Context, sessionID string, limit int) ([]Caption, error) {
	limit = CaptionsLimit(limit)
	rows, err := s.db.Query(ctx, `
		SELECT id::text, session_id, original_text, original_lang, translated_text, target_lang, event_timestamp, created_at
		FROM captions
		WHERE session_id = $1
		ORDER BY event_timestamp ASC, created_at ASC
		LIMIT $2
	`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Caption{}
	for rows.Next() {
		var c Caption
		if err := rows.Scan(&c.ID, &c.SessionID, &c.OriginalText, &c.OriginalLang, &c.TranslatedText, &c.TargetLang, &c.Timestamp, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
