package timetable

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/mgersbach/studymate/internal/metrics"
	"github.com/mgersbach/studymate/internal/models"
)

// Store is the persistence surface the importer needs.
type Store interface {
	QueryReplaceTimetable(ctx context.Context, entries []models.TimetableEntry) (int, error)
}

// Importer parses timetable workbooks and replaces the stored entry set.
type Importer struct {
	store     Store
	sheetHint string
	metrics   *metrics.Collector
	logger    *slog.Logger
}

// NewImporter creates an Importer.
func NewImporter(store Store, sheetHint string, collector *metrics.Collector, logger *slog.Logger) *Importer {
	return &Importer{store: store, sheetHint: sheetHint, metrics: collector, logger: logger}
}

// Import parses the workbook and, if any entries were extracted, replaces
// the previously stored set wholesale. A workbook yielding no entries leaves
// the stored timetable untouched. Errors abort the import; the transactional
// replace guarantees no partial commit.
func (i *Importer) Import(ctx context.Context, r io.Reader) (int, error) {
	start := time.Now()

	entries, err := Parse(r, i.sheetHint)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		i.logger.Warn("timetable import found no entries, keeping existing timetable")
		return 0, nil
	}

	n, err := i.store.QueryReplaceTimetable(ctx, entries)
	if err != nil {
		return 0, err
	}

	i.metrics.RecordTiming(metrics.OpTimetableImport, time.Since(start))
	i.logger.Info("timetable replaced", "entries", n, "duration_ms", time.Since(start).Milliseconds())
	return n, nil
}

// ImportFromSource fetches a workbook from a URL or local path and imports it.
func (i *Importer) ImportFromSource(ctx context.Context, source string) (int, error) {
	rc, err := FetchSource(ctx, source)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	return i.Import(ctx, rc)
}
