package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mgersbach/studymate/internal/materials"
	"github.com/mgersbach/studymate/internal/metrics"
	"github.com/mgersbach/studymate/internal/models"
)

// ApologyReply is returned verbatim whenever anything inside the pipeline
// fails. The real error is logged, never surfaced to the student.
const ApologyReply = "Sorry, I'm having trouble thinking right now. Please try again in a moment."

// InvalidUserReply is the conversational answer to a request whose user id
// is not a UUID. Serving layers send it with a normal success status.
const InvalidUserReply = "I couldn't identify you. Please check your user ID and try again."

const (
	// topMemoryCount bounds the memories injected into one prompt.
	topMemoryCount = 20
	// replyTemperature is used for conversational replies. The pruner uses
	// a lower setting of its own for summaries.
	replyTemperature = 0.7
)

// Client-input errors. These are the only errors ProcessMessage returns;
// everything else degrades to ApologyReply.
var (
	ErrEmptyMessage = errors.New("message must not be empty")
	ErrInvalidUser  = errors.New("user id is not a valid UUID")
)

// Generator is the completion collaborator surface the pipeline needs.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)
	GenerateStream(ctx context.Context, prompt string, temperature float64, fn func(chunk string)) (string, error)
}

// GeneratorFactory builds a Generator for one request. A non-empty apiKey is
// the request-scoped credential; implementations fall back to the configured
// one when it is empty.
type GeneratorFactory func(ctx context.Context, apiKey string) (Generator, error)

// Retriever yields ranked memories for prompt building.
type Retriever interface {
	Top(ctx context.Context, userID string, n int) ([]models.Memory, error)
}

// Pruner compacts over-threshold memory sets after a message is processed.
type Pruner interface {
	Prune(ctx context.Context, userID string) error
}

// Store is the persistence surface for applying tag directives.
type Store interface {
	QueryCreateMemory(ctx context.Context, userID, content string, importance int, category string, isSummary bool) (*models.Memory, error)
	QueryDeleteMemories(ctx context.Context, ids ...string) (int, error)
	QueryTopMemories(ctx context.Context, userID string, limit int) ([]models.Memory, error)
}

// Request is one inbound chat message.
type Request struct {
	UserID  string
	Message string
	// APIKey is the request-scoped completion-collaborator credential.
	APIKey  string
	History []models.Turn
}

// Service orchestrates the fixed per-message pipeline: retrieve, prompt,
// complete, parse tags, mutate memories, prune.
type Service struct {
	store     Store
	retriever Retriever
	pruner    Pruner
	materials materials.Retriever
	newModel  GeneratorFactory
	metrics   *metrics.Collector
	logger    *slog.Logger
}

// NewService creates a chat Service.
func NewService(
	store Store,
	retriever Retriever,
	pruner Pruner,
	mats materials.Retriever,
	newModel GeneratorFactory,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:     store,
		retriever: retriever,
		pruner:    pruner,
		materials: mats,
		newModel:  newModel,
		metrics:   collector,
		logger:    logger,
	}
}

// ProcessMessage runs the pipeline for one message and returns the clean,
// user-visible reply. Client-input errors (empty message, malformed user ID)
// are returned as ErrEmptyMessage/ErrInvalidUser; every internal failure is
// logged and converted to ApologyReply with a nil error, leaving previously
// persisted memories intact.
func (s *Service) ProcessMessage(ctx context.Context, req Request) (string, error) {
	reply, _, err := s.process(ctx, req, nil)
	return reply, err
}

// ProcessMessageStream behaves like ProcessMessage but forwards reply chunks
// to onChunk as they arrive from the collaborator. Tag lines are withheld
// from the stream; the returned clean text is authoritative.
func (s *Service) ProcessMessageStream(ctx context.Context, req Request, onChunk func(chunk string)) (string, error) {
	reply, _, err := s.process(ctx, req, onChunk)
	return reply, err
}

func (s *Service) process(ctx context.Context, req Request, onChunk func(string)) (string, ParsedReply, error) {
	if req.Message == "" {
		return "", ParsedReply{}, ErrEmptyMessage
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return "", ParsedReply{}, ErrInvalidUser
	}
	uid := userID.String()

	memories, err := s.retriever.Top(ctx, uid, topMemoryCount)
	if err != nil {
		return s.degrade("retrieve memories", uid, err)
	}

	mats, err := s.materials.Retrieve(ctx, uid, req.Message)
	if err != nil {
		// Materials are optional context; a failed lookup only costs the section.
		s.logger.Warn("course material retrieval failed", "user_id", uid, "error", err)
		mats = ""
	}

	prompt := BuildPrompt(req.Message, memories, mats, models.WindowTurns(req.History))

	model, err := s.newModel(ctx, req.APIKey)
	if err != nil {
		return s.degrade("create model", uid, err)
	}

	start := time.Now()
	var raw string
	if onChunk != nil {
		filter := newStreamFilter(onChunk)
		raw, err = model.GenerateStream(ctx, prompt, replyTemperature, filter.Write)
		filter.Flush()
	} else {
		raw, err = model.Generate(ctx, prompt, replyTemperature)
	}
	if err != nil {
		return s.degrade("generate reply", uid, err)
	}
	s.metrics.RecordTiming(metrics.OpLLMGenerate, time.Since(start))

	parsed := ParseTags(raw)
	s.applyDirectives(ctx, uid, parsed)

	if err := s.pruner.Prune(ctx, uid); err != nil {
		// The reply is already complete; compaction failure only delays it.
		s.logger.Error("memory pruning failed", "user_id", uid, "error", err)
	}

	return parsed.Clean, parsed, nil
}

// applyDirectives persists REMEMBER inserts and FORGET deletions. Each group
// is best-effort: a failed insert never blocks deletions and vice versa.
func (s *Service) applyDirectives(ctx context.Context, userID string, parsed ParsedReply) {
	for _, d := range parsed.Remember {
		if _, err := s.store.QueryCreateMemory(ctx, userID, d.Content, d.Importance, d.Category, false); err != nil {
			s.logger.Error("failed to store memory", "user_id", userID, "error", err)
		}
	}

	if len(parsed.Forget) > 0 {
		if _, err := s.store.QueryDeleteMemories(ctx, parsed.Forget...); err != nil {
			s.logger.Error("failed to delete memories", "user_id", userID, "ids", parsed.Forget, "error", err)
		}
	}
}

func (s *Service) degrade(step, userID string, err error) (string, ParsedReply, error) {
	s.logger.Error("chat pipeline degraded", "step", step, "user_id", userID, "error", err)
	return ApologyReply, ParsedReply{}, nil
}
