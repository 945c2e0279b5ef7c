// Package server exposes the StudyMate HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/mgersbach/studymate/internal/chat"
	"github.com/mgersbach/studymate/internal/config"
	"github.com/mgersbach/studymate/internal/db"
	"github.com/mgersbach/studymate/internal/metrics"
	"github.com/mgersbach/studymate/internal/models"
	"github.com/mgersbach/studymate/internal/timetable"
)

// Store is the persistence surface the handlers need. *db.Client
// satisfies it.
type Store interface {
	QueryListTimetable(ctx context.Context) ([]models.TimetableEntry, error)
	QueryMemoriesRanked(ctx context.Context, userID string) ([]models.Memory, error)
	QueryDeleteMemories(ctx context.Context, ids ...string) (int, error)
}

// Server wires the HTTP API to the chat and timetable pipelines.
type Server struct {
	cfg      config.Config
	chat     *chat.Service
	importer *timetable.Importer
	store    Store
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// New creates a Server.
func New(
	cfg config.Config,
	chatSvc *chat.Service,
	importer *timetable.Importer,
	store Store,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Server {
	return &Server{
		cfg:      cfg,
		chat:     chatSvc,
		importer: importer,
		store:    store,
		metrics:  collector,
		logger:   logger,
	}
}

// Handler builds the chi router for the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID, chimiddleware.RealIP, chimiddleware.Recoverer)
	r.Use(RequestLogger(s.logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Get("/chat/ws", s.handleChatWS)

		r.Post("/timetable/import", s.handleTimetableImport)
		r.Post("/timetable/sync", s.handleTimetableSync)
		r.Get("/timetable", s.handleTimetableList)

		r.Get("/memories", s.handleMemoriesList)
		r.Delete("/memories/{id}", s.handleMemoryDelete)

		r.Get("/stats", s.handleStats)
	})

	return r
}

// ChatRequest is the payload for POST /api/chat and the websocket variant.
type ChatRequest struct {
	UserID  string        `json:"user_id"`
	Message string        `json:"message"`
	APIKey  string        `json:"api_key,omitempty"`
	History []models.Turn `json:"history,omitempty"`
}

// ChatResponse carries the user-visible reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// MemoryResponse is the API shape of one memory.
type MemoryResponse struct {
	ID         string     `json:"id"`
	Content    string     `json:"content"`
	Importance int        `json:"importance"`
	Category   string     `json:"category"`
	IsSummary  bool       `json:"is_summary"`
	Created    time.Time  `json:"created"`
	Accessed   *time.Time `json:"accessed,omitempty"`
}

// TimetableEntryResponse is the API shape of one timetable entry.
type TimetableEntryResponse struct {
	Day        string `json:"day"`
	Room       string `json:"room"`
	TimeSlot   string `json:"time_slot"`
	Course     string `json:"course"`
	Section    string `json:"section"`
	Instructor string `json:"instructor"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if code, msg := s.validateChatRequest(req); code != 0 {
		writeJSON(w, code, errorResponse{Error: msg})
		return
	}

	start := time.Now()
	reply, err := s.chat.ProcessMessage(r.Context(), chat.Request{
		UserID:  req.UserID,
		Message: req.Message,
		APIKey:  req.APIKey,
		History: req.History,
	})
	if err != nil {
		if errors.Is(err, chat.ErrInvalidUser) {
			writeJSON(w, http.StatusOK, ChatResponse{Reply: chat.InvalidUserReply})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	s.metrics.RecordTiming(metrics.OpChatMessage, time.Since(start))

	writeJSON(w, http.StatusOK, ChatResponse{Reply: reply})
}

// validateChatRequest checks client input. Returns (0, "") when valid.
func (s *Server) validateChatRequest(req ChatRequest) (int, string) {
	if req.Message == "" {
		return http.StatusBadRequest, "message must not be empty"
	}
	if req.APIKey == "" && s.cfg.RequiresAPIKey() && s.cfg.APIKey() == "" {
		return http.StatusBadRequest, "completion API key required"
	}
	return 0, ""
}

func (s *Server) handleTimetableImport(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing uploaded file"})
		return
	}
	defer file.Close()

	n, err := s.importer.Import(r.Context(), file)
	if err != nil {
		// No degraded fallback exists for an import; report the failure.
		s.logger.Error("timetable import failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("imported %d timetable entries", n)})
}

func (s *Server) handleTimetableSync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url,omitempty"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
	}

	source := req.URL
	if source == "" {
		source = s.cfg.TimetableSourceURL
	}
	if source == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no timetable source configured"})
		return
	}

	n, err := s.importer.ImportFromSource(r.Context(), source)
	if err != nil {
		s.logger.Error("timetable sync failed", "source", source, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("synced %d timetable entries", n)})
}

func (s *Server) handleTimetableList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.QueryListTimetable(r.Context())
	if err != nil {
		s.logger.Error("timetable list failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load timetable"})
		return
	}

	out := make([]TimetableEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, TimetableEntryResponse{
			Day:        e.Day,
			Room:       e.Room,
			TimeSlot:   e.TimeSlot,
			Course:     e.Course,
			Section:    e.Section,
			Instructor: e.Instructor,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMemoriesList(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "user_id must be a valid UUID"})
		return
	}

	memories, err := s.store.QueryMemoriesRanked(r.Context(), userID.String())
	if err != nil {
		s.logger.Error("memory list failed", "user_id", userID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load memories"})
		return
	}

	out := make([]MemoryResponse, 0, len(memories))
	for _, m := range memories {
		id, err := models.RecordIDString(m.ID)
		if err != nil {
			s.logger.Warn("skipping memory with non-string id", "error", err)
			continue
		}
		out = append(out, MemoryResponse{
			ID:         id,
			Content:    m.Content,
			Importance: m.Importance,
			Category:   m.Category,
			IsSummary:  m.IsSummary,
			Created:    m.Created,
			Accessed:   m.Accessed,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMemoryDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "memory id must be a valid UUID"})
		return
	}

	deleted, err := s.store.QueryDeleteMemories(r.Context(), id.String())
	if err != nil {
		if errors.Is(err, db.ErrTransactionConflict) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: "concurrent modification, retry"})
			return
		}
		s.logger.Error("memory delete failed", "memory_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to delete memory"})
		return
	}
	if deleted == 0 {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "memory not found"})
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "memory deleted"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
