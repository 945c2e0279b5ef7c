package timetable

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgersbach/studymate/internal/metrics"
	"github.com/mgersbach/studymate/internal/models"
)

type fakeTimetableStore struct {
	replaced []models.TimetableEntry
	calls    int
	err      error
}

func (s *fakeTimetableStore) QueryReplaceTimetable(_ context.Context, entries []models.TimetableEntry) (int, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	s.replaced = entries
	return len(entries), nil
}

func newTestImporter(store *fakeTimetableStore) *Importer {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewImporter(store, "timetable", metrics.NewCollector(), logger)
}

func TestImportReplacesStoredEntries(t *testing.T) {
	store := &fakeTimetableStore{}
	imp := newTestImporter(store)

	r := buildWorkbook(t, "Timetable", timetableCells(), nil)
	n, err := imp.Import(context.Background(), r)
	require.NoError(t, err)

	assert.Equal(t, len(store.replaced), n)
	assert.NotEmpty(t, store.replaced)
	assert.Equal(t, 1, store.calls)
}

func TestImportEmptyWorkbookKeepsExistingTimetable(t *testing.T) {
	store := &fakeTimetableStore{}
	imp := newTestImporter(store)

	// A sheet without time-slot headers yields no entries.
	r := buildWorkbook(t, "Timetable", map[string]string{"A1": "nothing here"}, nil)
	n, err := imp.Import(context.Background(), r)
	require.NoError(t, err)

	assert.Zero(t, n)
	assert.Zero(t, store.calls)
}

func TestImportParseErrorAborts(t *testing.T) {
	store := &fakeTimetableStore{}
	imp := newTestImporter(store)

	_, err := imp.Import(context.Background(), errReader{})
	require.Error(t, err)
	assert.Zero(t, store.calls)
}

func TestImportStoreErrorPropagates(t *testing.T) {
	store := &fakeTimetableStore{err: errors.New("transaction conflict")}
	imp := newTestImporter(store)

	r := buildWorkbook(t, "Timetable", timetableCells(), nil)
	_, err := imp.Import(context.Background(), r)
	assert.Error(t, err)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("broken pipe") }
