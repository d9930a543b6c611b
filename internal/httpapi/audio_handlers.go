package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/lukasbauer/livecaption/internal/eventlog"
	"github.com/lukasbauer/livecaption/internal/metrics"
	"github.com/lukasbauer/livecaption/internal/pipeline"
	"github.com/lukasbauer/livecaption/internal/store"
)

type audioUploadRequest struct {
	SessionID string `json:"sessionId"`
	AudioData string `json:"audioData"` // base64
	Language  string `json:"language"`
	Timestamp int64  `json:"timestamp"`
}

type sessionInitRequest struct {
	SessionID string `json:"sessionId"`
	Language1 string `json:"language1"`
	Language2 string `json:"language2"`
}

type sessionClearRequest struct {
	SessionID string `json:"sessionId"`
}

type translateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"sourceLang"`
	TargetLang string `json:"targetLang"`
	SessionID  string `json:"sessionId"`
}

// requestError is a client error with the HTTP status to report.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

// writeRequestError maps err to a JSON error response.
func writeRequestError(w http.ResponseWriter, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		writeJSON(w, reqErr.status, map[string]string{"error": reqErr.msg})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

// submitAudio validates an upload and hands it to the pipeline.
func (r *Router) submitAudio(body audioUploadRequest) error {
	if body.SessionID == "" {
		metrics.RecordRejected("invalid")
		return badRequest("sessionId is required")
	}
	audio, err := base64.StdEncoding.DecodeString(body.AudioData)
	if err != nil {
		metrics.RecordRejected("invalid")
		return badRequest("audioData must be base64")
	}
	if int64(len(audio)) > r.cfg.MaxAudioBytes {
		metrics.RecordRejected("too_large")
		return &requestError{status: http.StatusRequestEntityTooLarge, msg: "audio payload too large"}
	}

	ok := r.pipeline.Submit(pipeline.AudioChunk{
		SessionID:    body.SessionID,
		Audio:        audio,
		LanguageHint: strings.TrimSpace(body.Language),
		Timestamp:    body.Timestamp,
	})
	if !ok {
		return &requestError{status: http.StatusServiceUnavailable, msg: "server is draining"}
	}
	return nil
}

func (r *Router) initSession(ctx context.Context, body sessionInitRequest) error {
	if body.SessionID == "" || body.Language1 == "" || body.Language2 == "" {
		return badRequest("sessionId, language1 and language2 are required")
	}

	r.sessions.Init(body.SessionID, body.Language1, body.Language2)
	r.logger.Printf("session: init %s: %s <-> %s", body.SessionID, body.Language1, body.Language2)
	r.eventLog.LogAsync(body.SessionID, eventlog.EventSessionInit, map[string]any{
		"language1": body.Language1,
		"language2": body.Language2,
	})

	if r.archive != nil {
		if err := r.archive.UpsertSession(ctx, body.SessionID, body.Language1, body.Language2); err != nil {
			// Live captioning does not depend on the archive.
			r.logger.Printf("session: failed to archive session %s: %v", body.SessionID, err)
		}
	}
	return nil
}

func (r *Router) clearSession(ctx context.Context, body sessionClearRequest) error {
	if body.SessionID == "" {
		return badRequest("sessionId is required")
	}

	r.sessions.Clear(body.SessionID)
	r.logger.Printf("session: cleared %s", body.SessionID)
	r.eventLog.LogAsync(body.SessionID, eventlog.EventSessionCleared, nil)

	if r.archive != nil {
		if err := r.archive.ClearSession(ctx, body.SessionID); err != nil {
			r.logger.Printf("session: failed to mark session %s cleared: %v", body.SessionID, err)
		}
	}
	return nil
}

func (r *Router) handleAudioUpload(w http.ResponseWriter, req *http.Request) {
	// base64 inflates by 4/3; leave room for the JSON envelope
	req.Body = http.MaxBytesReader(w, req.Body, r.cfg.MaxAudioBytes*4/3+4096)

	var body audioUploadRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			metrics.RecordRejected("too_large")
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "audio payload too large"})
			return
		}
		metrics.RecordRejected("invalid")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if err := r.submitAudio(body); err != nil {
		writeRequestError(w, err)
		return
	}

	if client := getClientID(req.Context()); client != "" {
		r.logger.Printf("audio: accepted chunk for session %s from %s", body.SessionID, client)
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (r *Router) handleSessionInit(w http.ResponseWriter, req *http.Request) {
	var body sessionInitRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if err := r.initSession(req.Context(), body); err != nil {
		writeRequestError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleSessionClear(w http.ResponseWriter, req *http.Request) {
	var body sessionClearRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if err := r.clearSession(req.Context(), body); err != nil {
		writeRequestError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleTranslate translates text directly, without transcription.
func (r *Router) handleTranslate(w http.ResponseWriter, req *http.Request) {
	var body translateRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if strings.TrimSpace(body.Text) == "" || body.SourceLang == "" || body.TargetLang == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text, sourceLang and targetLang are required"})
		return
	}

	translation, ok := r.translator.Translate(req.Context(), body.Text, body.SourceLang, body.TargetLang)
	if !ok {
		r.logger.Printf("translate: falling back to original text for session %s", body.SessionID)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"originalText": body.Text,
		"translation":  translation,
		"sourceLang":   body.SourceLang,
		"targetLang":   body.TargetLang,
		"translated":   ok,
	})
}

func (r *Router) handleListCaptions(w http.ResponseWriter, req *http.Request) {
	sessionID := req.PathValue("id")
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing session id"})
		return
	}
	if r.archive == nil {
		writeJSON(w, http.StatusOK, map[string]any{"captions": []any{}})
		return
	}

	limit := 0
	if l := req.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil {
			limit = n
		}
	}
	limit = store.CaptionsLimit(limit)

	captions, err := r.archive.ListCaptions(req.Context(), sessionID, limit)
	if err != nil {
		r.logger.Printf("captions: list failed for session %s: %v", sessionID, err)
		captureError(req, err, "captions: list failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list captions"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"captions": captions})
}
