package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mgersbach/studymate/internal/chat"
	"github.com/mgersbach/studymate/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is same-origin for the CLI and local tooling.
	CheckOrigin: func(*http.Request) bool { return true },
}

// StreamEvent is one frame of the websocket chat protocol. Type is
// "chunk" while the reply is being generated, then "done" with the
// final cleaned reply, or "error" if the request was rejected.
type StreamEvent struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Reply string `json:"reply,omitempty"`
	Error string `json:"error,omitempty"`
}

// handleChatWS streams a chat reply over a websocket. The client sends
// a single ChatRequest frame and receives chunk events until done.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var req ChatRequest
	if err := conn.ReadJSON(&req); err != nil {
		_ = conn.WriteJSON(StreamEvent{Type: "error", Error: "invalid request frame"})
		return
	}

	if code, msg := s.validateChatRequest(req); code != 0 {
		_ = conn.WriteJSON(StreamEvent{Type: "error", Error: msg})
		return
	}

	start := time.Now()
	reply, err := s.chat.ProcessMessageStream(r.Context(), chat.Request{
		UserID:  req.UserID,
		Message: req.Message,
		APIKey:  req.APIKey,
		History: req.History,
	}, func(chunk string) {
		_ = conn.WriteJSON(StreamEvent{Type: "chunk", Text: chunk})
	})
	if err != nil {
		if errors.Is(err, chat.ErrInvalidUser) {
			_ = conn.WriteJSON(StreamEvent{Type: "done", Reply: chat.InvalidUserReply})
			return
		}
		_ = conn.WriteJSON(StreamEvent{Type: "error", Error: err.Error()})
		return
	}
	s.metrics.RecordTiming(metrics.OpChatMessage, time.Since(start))

	_ = conn.WriteJSON(StreamEvent{Type: "done", Reply: reply})
}
