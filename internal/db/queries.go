// Package db provides SurrealDB query functions for memory and timetable operations.
package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"

	"github.com/mgersbach/studymate/internal/models"
)

// TimetableBatchSize bounds one INSERT statement during a timetable replace,
// keeping individual payloads small.
const TimetableBatchSize = 100

// QueryCreateMemory stores a new memory for a user and returns the stored row.
// Importance is persisted as given; the nominal 1-10 range is not enforced.
func (c *Client) QueryCreateMemory(
	ctx context.Context,
	userID string,
	content string,
	importance int,
	category string,
	isSummary bool,
) (*models.Memory, error) {
	if category == "" {
		category = models.DefaultCategory
	}

	sql := `
		CREATE type::record("memory", $id) SET
			user_id = $user_id,
			content = $content,
			importance = $importance,
			category = $category,
			is_summary = $is_summary
		RETURN AFTER
	`

	results, err := surrealdb.Query[[]models.Memory](ctx, c.db, sql, map[string]any{
		"id":         uuid.NewString(),
		"user_id":    userID,
		"content":    content,
		"importance": importance,
		"category":   category,
		"is_summary": isSummary,
	})
	if err != nil {
		return nil, fmt.Errorf("create memory: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("create memory: no result returned")
	}
	return &(*results)[0].Result[0], nil
}

// QueryTopMemories returns up to limit memories for a user, ordered by
// importance descending with creation time descending as tiebreaker.
func (c *Client) QueryTopMemories(ctx context.Context, userID string, limit int) ([]models.Memory, error) {
	results, err := surrealdb.Query[[]models.Memory](ctx, c.db, `
		SELECT * FROM memory
		WHERE user_id = $user_id
		ORDER BY importance DESC, created DESC
		LIMIT $limit
	`, map[string]any{
		"user_id": userID,
		"limit":   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("top memories: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.Memory{}, nil
	}
	return (*results)[0].Result, nil
}

// QueryMemoriesRanked returns all memories for a user in pruning order:
// importance descending, then last access (falling back to creation time)
// descending.
func (c *Client) QueryMemoriesRanked(ctx context.Context, userID string) ([]models.Memory, error) {
	results, err := surrealdb.Query[[]models.Memory](ctx, c.db, `
		SELECT *, (accessed ?? created) AS ranked_at FROM memory
		WHERE user_id = $user_id
		ORDER BY importance DESC, ranked_at DESC
	`, map[string]any{
		"user_id": userID,
	})
	if err != nil {
		return nil, fmt.Errorf("ranked memories: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.Memory{}, nil
	}
	return (*results)[0].Result, nil
}

// QueryGetMemory retrieves a memory by ID. Returns nil if not found.
func (c *Client) QueryGetMemory(ctx context.Context, id string) (*models.Memory, error) {
	results, err := surrealdb.Query[[]models.Memory](ctx, c.db, `
		SELECT * FROM type::record("memory", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get memory: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return &(*results)[0].Result[0], nil
}

// QueryTouchMemoryAccess stamps a memory's accessed time to now.
func (c *Client) QueryTouchMemoryAccess(ctx context.Context, id string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("memory", $id) SET accessed = time::now()
	`, map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("touch memory access: %w", wrapQueryError(err))
	}
	return nil
}

// QueryCountMemories returns the number of memories belonging to a user.
func (c *Client) QueryCountMemories(ctx context.Context, userID string) (int, error) {
	results, err := surrealdb.Query[[]struct {
		C int `json:"c"`
	}](ctx, c.db, `
		SELECT count() AS c FROM memory WHERE user_id = $user_id GROUP ALL
	`, map[string]any{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("count memories: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return 0, nil
	}
	return (*results)[0].Result[0].C, nil
}

// QueryDeleteMemories deletes memories by ID and returns the number removed.
// Non-existent IDs are silently skipped.
func (c *Client) QueryDeleteMemories(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	// Delete with RETURN BEFORE to count actual deletions
	sql := `DELETE memory WHERE id IN $ids RETURN BEFORE`

	recordIDs := make([]string, len(ids))
	for i, id := range ids {
		recordIDs[i] = "memory:" + id
	}

	results, err := surrealdb.Query[[]models.Memory](ctx, c.db, sql, map[string]any{
		"ids": recordIDs,
	})
	if err != nil {
		return 0, fmt.Errorf("delete memories: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return 0, nil
	}
	return len((*results)[0].Result), nil
}

// QueryReplaceTimetable replaces the stored timetable wholesale: every
// existing entry is deleted and the new set inserted, all inside one
// transaction so a mid-batch failure never leaves a half-replaced table.
func (c *Client) QueryReplaceTimetable(ctx context.Context, entries []models.TimetableEntry) (int, error) {
	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	sb.WriteString("DELETE timetable_entry;\n")

	vars := map[string]any{}
	for batch := 0; batch*TimetableBatchSize < len(entries); batch++ {
		start := batch * TimetableBatchSize
		end := min(start+TimetableBatchSize, len(entries))

		rows := make([]map[string]any, 0, end-start)
		for _, e := range entries[start:end] {
			rows = append(rows, map[string]any{
				"day":        e.Day,
				"room":       e.Room,
				"time_slot":  e.TimeSlot,
				"course":     e.Course,
				"section":    e.Section,
				"instructor": e.Instructor,
			})
		}

		name := fmt.Sprintf("batch_%d", batch)
		vars[name] = rows
		fmt.Fprintf(&sb, "INSERT INTO timetable_entry $%s;\n", name)
	}

	sb.WriteString("COMMIT TRANSACTION;")

	if _, err := surrealdb.Query[any](ctx, c.db, sb.String(), vars); err != nil {
		return 0, fmt.Errorf("replace timetable: %w", wrapQueryError(err))
	}
	return len(entries), nil
}

// QueryListTimetable returns all stored timetable entries in insertion order.
func (c *Client) QueryListTimetable(ctx context.Context) ([]models.TimetableEntry, error) {
	results, err := surrealdb.Query[[]models.TimetableEntry](ctx, c.db, `
		SELECT * FROM timetable_entry ORDER BY created ASC
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("list timetable: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.TimetableEntry{}, nil
	}
	return (*results)[0].Result, nil
}
