package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mgersbach/studymate/internal/models"
)

const (
	// PruneCeiling is the memory count above which a compaction pass runs.
	PruneCeiling = 100
	// PruneKeep is the number of top-ranked memories kept verbatim.
	PruneKeep = 50

	summaryCategory    = "summary"
	summaryImportance  = 6
	summaryTemperature = 0.3
)

const summarizePromptPrefix = `Summarize the following facts about a student into a single concise paragraph of max 200 words. Preserve names, dates and concrete preferences.

Facts:
`

// Summarizer generates the compaction summary text.
type Summarizer interface {
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)
}

// PrunerStore is the persistence surface the pruner needs.
type PrunerStore interface {
	QueryCountMemories(ctx context.Context, userID string) (int, error)
	QueryMemoriesRanked(ctx context.Context, userID string) ([]models.Memory, error)
	QueryCreateMemory(ctx context.Context, userID, content string, importance int, category string, isSummary bool) (*models.Memory, error)
	QueryDeleteMemories(ctx context.Context, ids ...string) (int, error)
}

// Pruner compacts low-ranked memories into one synthetic summary memory once
// a user's memory count exceeds PruneCeiling.
type Pruner struct {
	store      PrunerStore
	summarizer Summarizer
	logger     *slog.Logger
}

// NewPruner creates a Pruner.
func NewPruner(store PrunerStore, summarizer Summarizer, logger *slog.Logger) *Pruner {
	return &Pruner{store: store, summarizer: summarizer, logger: logger}
}

// Prune runs one compaction pass for a user. It is a no-op at or below
// PruneCeiling. Above it, the top PruneKeep memories (by importance, then
// last-access-else-created recency) survive untouched; the rest are
// summarized into one memory and deleted. The summary is written before any
// deletion happens, so a failed summarization leaves state exactly as it
// was. The threshold is not re-checked after the pass.
func (p *Pruner) Prune(ctx context.Context, userID string) error {
	count, err := p.store.QueryCountMemories(ctx, userID)
	if err != nil {
		return fmt.Errorf("count memories: %w", err)
	}
	if count <= PruneCeiling {
		return nil
	}

	ranked, err := p.store.QueryMemoriesRanked(ctx, userID)
	if err != nil {
		return fmt.Errorf("load ranked memories: %w", err)
	}
	if len(ranked) <= PruneKeep {
		return nil
	}
	suffix := ranked[PruneKeep:]

	var facts strings.Builder
	for _, m := range suffix {
		facts.WriteString("- ")
		facts.WriteString(m.Content)
		facts.WriteString("\n")
	}

	summary, err := p.summarizer.Generate(ctx, summarizePromptPrefix+facts.String(), summaryTemperature)
	if err != nil {
		return fmt.Errorf("summarize memories: %w", err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return fmt.Errorf("summarize memories: empty summary")
	}

	// Two-phase: the summary must be durably written before the suffix goes.
	if _, err := p.store.QueryCreateMemory(ctx, userID, summary, summaryImportance, summaryCategory, true); err != nil {
		return fmt.Errorf("store summary memory: %w", err)
	}

	ids := make([]string, 0, len(suffix))
	for _, m := range suffix {
		id, err := models.RecordIDString(m.ID)
		if err != nil {
			p.logger.Warn("skipping delete of non-string memory id", "error", err)
			continue
		}
		ids = append(ids, id)
	}

	deleted, err := p.store.QueryDeleteMemories(ctx, ids...)
	if err != nil {
		return fmt.Errorf("delete summarized memories: %w", err)
	}

	p.logger.Info("memory compaction complete",
		"user_id", userID,
		"summarized", len(suffix),
		"deleted", deleted,
		"kept", PruneKeep,
	)
	return nil
}
