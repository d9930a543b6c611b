package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingInterval = 50 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsInbound is a client frame. Type selects which fields apply.
type wsInbound struct {
	Type      string `json:"type"` // audio, init or clear
	SessionID string `json:"sessionId"`

	// audio
	AudioData string `json:"audioData"`
	Language  string `json:"language"`
	Timestamp int64  `json:"timestamp"`

	// init
	Language1 string `json:"language1"`
	Language2 string `json:"language2"`
}

// handleWS streams partial and final events to the client and accepts audio
// and session commands on the same socket. The sessionId query parameter
// filters events and is the default session for inbound frames.
func (r *Router) handleWS(w http.ResponseWriter, req *http.Request) {
	sessionID := req.URL.Query().Get("sessionId")

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Printf("ws: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sub := r.hub.Subscribe(sessionID)
	r.logger.Printf("ws: subscriber %s connected (session %q)", sub.id, sessionID)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		r.wsWriteLoop(conn, sub)
	}()

	conn.SetReadLimit(r.cfg.MaxAudioBytes*4/3 + 4096)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				r.logger.Printf("ws: subscriber %s read error: %v", sub.id, err)
			}
			break
		}
		if err := r.handleWSMessage(req.Context(), sessionID, msg); err != nil {
			r.wsReplyError(sub, err)
		}
	}

	r.hub.Unsubscribe(sub)
	<-writerDone
	r.logger.Printf("ws: subscriber %s disconnected", sub.id)
}

// wsWriteLoop is the only writer on conn. It exits when sub.send is closed or
// a write fails.
func (r *Router) wsWriteLoop(conn *websocket.Conn, sub *subscriber) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-sub.send:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				r.logger.Printf("ws: subscriber %s write error: %v", sub.id, err)
				// Unblock the reader so the handler can clean up.
				_ = conn.Close()
				drain(sub.send)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				drain(sub.send)
				return
			}
		}
	}
}

// drain discards frames until ch is closed.
func drain(ch <-chan []byte) {
	for range ch {
	}
}

func (r *Router) handleWSMessage(ctx context.Context, defaultSession string, msg []byte) error {
	var in wsInbound
	if err := json.Unmarshal(msg, &in); err != nil {
		return badRequest("invalid JSON")
	}
	if in.SessionID == "" {
		in.SessionID = defaultSession
	}

	switch in.Type {
	case "audio":
		return r.submitAudio(audioUploadRequest{
			SessionID: in.SessionID,
			AudioData: in.AudioData,
			Language:  in.Language,
			Timestamp: in.Timestamp,
		})
	case "init":
		return r.initSession(ctx, sessionInitRequest{
			SessionID: in.SessionID,
			Language1: in.Language1,
			Language2: in.Language2,
		})
	case "clear":
		return r.clearSession(ctx, sessionClearRequest{SessionID: in.SessionID})
	default:
		return badRequest("unknown message type %q", in.Type)
	}
}

func (r *Router) wsReplyError(sub *subscriber, err error) {
	msg := "internal server error"
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		msg = reqErr.msg
	}
	data, _ := json.Marshal(outbound{Topic: topicError, Payload: map[string]string{"error": msg}})
	if !sub.trySend(data) {
		r.logger.Printf("ws: subscriber %s is slow, dropped error reply", sub.id)
	}
}
