// Package db provides integration tests for SurrealDB operations.
package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mgersbach/studymate/internal/models"
)

var testDB *Client
var testContainer testcontainers.Container

// TestMain sets up and tears down the SurrealDB container for all tests.
func TestMain(m *testing.M) {
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	// Start SurrealDB container
	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	// Workaround: testcontainers may return "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testDB, err = NewClient(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := testDB.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testDB.Close(ctx)
	_ = testContainer.Terminate(ctx)

	os.Exit(code)
}

// cleanupUser removes every memory belonging to a test user.
func cleanupUser(t *testing.T, userID string) {
	t.Helper()
	ctx := context.Background()
	memories, err := testDB.QueryMemoriesRanked(ctx, userID)
	if err != nil {
		t.Fatalf("Failed to list memories for cleanup: %v", err)
	}
	ids := make([]string, 0, len(memories))
	for _, m := range memories {
		ids = append(ids, models.MustRecordIDString(m.ID))
	}
	_, _ = testDB.QueryDeleteMemories(ctx, ids...)
}

func TestCreateMemory(t *testing.T) {
	ctx := context.Background()
	userID := "11111111-1111-4111-8111-111111111111"
	defer cleanupUser(t, userID)

	mem, err := testDB.QueryCreateMemory(ctx, userID, "User loves guitar", 6, "personal", false)
	if err != nil {
		t.Fatalf("QueryCreateMemory failed: %v", err)
	}

	if mem.Content != "User loves guitar" {
		t.Errorf("Expected content 'User loves guitar', got %q", mem.Content)
	}
	if mem.Importance != 6 {
		t.Errorf("Expected importance 6, got %d", mem.Importance)
	}
	if mem.Category != "personal" {
		t.Errorf("Expected category 'personal', got %q", mem.Category)
	}
	if mem.IsSummary {
		t.Error("Expected is_summary false")
	}
	if mem.Created.IsZero() {
		t.Error("Expected created timestamp to be set")
	}
	if mem.Accessed != nil {
		t.Error("Expected accessed to be unset on creation")
	}
}

func TestCreateMemoryDefaultCategory(t *testing.T) {
	ctx := context.Background()
	userID := "11111111-1111-4111-8111-222222222222"
	defer cleanupUser(t, userID)

	mem, err := testDB.QueryCreateMemory(ctx, userID, "Fact", 5, "", false)
	if err != nil {
		t.Fatalf("QueryCreateMemory failed: %v", err)
	}
	if mem.Category != models.DefaultCategory {
		t.Errorf("Expected category %q, got %q", models.DefaultCategory, mem.Category)
	}
}

func TestTopMemoriesOrdering(t *testing.T) {
	ctx := context.Background()
	userID := "11111111-1111-4111-8111-333333333333"
	defer cleanupUser(t, userID)

	for i, imp := range []int{3, 9, 6} {
		_, err := testDB.QueryCreateMemory(ctx, userID, fmt.Sprintf("fact %d", i), imp, "general", false)
		if err != nil {
			t.Fatalf("Failed to create memory: %v", err)
		}
	}

	memories, err := testDB.QueryTopMemories(ctx, userID, 2)
	if err != nil {
		t.Fatalf("QueryTopMemories failed: %v", err)
	}

	if len(memories) != 2 {
		t.Fatalf("Expected 2 memories, got %d", len(memories))
	}
	if memories[0].Importance != 9 || memories[1].Importance != 6 {
		t.Errorf("Expected importance order [9 6], got [%d %d]", memories[0].Importance, memories[1].Importance)
	}
}

func TestTopMemoriesScopedToUser(t *testing.T) {
	ctx := context.Background()
	userA := "11111111-1111-4111-8111-444444444444"
	userB := "11111111-1111-4111-8111-555555555555"
	defer cleanupUser(t, userA)
	defer cleanupUser(t, userB)

	if _, err := testDB.QueryCreateMemory(ctx, userA, "A's fact", 5, "general", false); err != nil {
		t.Fatalf("Failed to create memory: %v", err)
	}
	if _, err := testDB.QueryCreateMemory(ctx, userB, "B's fact", 5, "general", false); err != nil {
		t.Fatalf("Failed to create memory: %v", err)
	}

	memories, err := testDB.QueryTopMemories(ctx, userA, 10)
	if err != nil {
		t.Fatalf("QueryTopMemories failed: %v", err)
	}
	if len(memories) != 1 {
		t.Fatalf("Expected 1 memory for user A, got %d", len(memories))
	}
	if memories[0].Content != "A's fact" {
		t.Errorf("Expected A's fact, got %q", memories[0].Content)
	}
}

func TestTouchMemoryAccess(t *testing.T) {
	ctx := context.Background()
	userID := "11111111-1111-4111-8111-666666666666"
	defer cleanupUser(t, userID)

	mem, err := testDB.QueryCreateMemory(ctx, userID, "touch me", 5, "general", false)
	if err != nil {
		t.Fatalf("Failed to create memory: %v", err)
	}

	id := models.MustRecordIDString(mem.ID)
	if err := testDB.QueryTouchMemoryAccess(ctx, id); err != nil {
		t.Fatalf("QueryTouchMemoryAccess failed: %v", err)
	}

	got, err := testDB.QueryGetMemory(ctx, id)
	if err != nil {
		t.Fatalf("QueryGetMemory failed: %v", err)
	}
	if got == nil {
		t.Fatal("QueryGetMemory returned nil")
	}
	if got.Accessed == nil {
		t.Error("Expected accessed to be set after touch")
	}
}

func TestCountMemories(t *testing.T) {
	ctx := context.Background()
	userID := "11111111-1111-4111-8111-777777777777"
	defer cleanupUser(t, userID)

	count, err := testDB.QueryCountMemories(ctx, userID)
	if err != nil {
		t.Fatalf("QueryCountMemories failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 memories, got %d", count)
	}

	for i := 0; i < 3; i++ {
		if _, err := testDB.QueryCreateMemory(ctx, userID, fmt.Sprintf("fact %d", i), 5, "general", false); err != nil {
			t.Fatalf("Failed to create memory: %v", err)
		}
	}

	count, err = testDB.QueryCountMemories(ctx, userID)
	if err != nil {
		t.Fatalf("QueryCountMemories failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 memories, got %d", count)
	}
}

func TestDeleteMemories(t *testing.T) {
	ctx := context.Background()
	userID := "11111111-1111-4111-8111-888888888888"
	defer cleanupUser(t, userID)

	mem, err := testDB.QueryCreateMemory(ctx, userID, "delete me", 5, "general", false)
	if err != nil {
		t.Fatalf("Failed to create memory: %v", err)
	}
	id := models.MustRecordIDString(mem.ID)

	deleted, err := testDB.QueryDeleteMemories(ctx, id)
	if err != nil {
		t.Fatalf("QueryDeleteMemories failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deletion, got %d", deleted)
	}

	// Idempotent: deleting again removes nothing.
	deleted, err = testDB.QueryDeleteMemories(ctx, id)
	if err != nil {
		t.Fatalf("QueryDeleteMemories failed on second call: %v", err)
	}
	if deleted != 0 {
		t.Errorf("Expected 0 deletions on second call, got %d", deleted)
	}

	got, err := testDB.QueryGetMemory(ctx, id)
	if err != nil {
		t.Fatalf("QueryGetMemory failed: %v", err)
	}
	if got != nil {
		t.Error("Expected memory to be gone after delete")
	}
}

func TestMemoriesRankedUsesAccessTime(t *testing.T) {
	ctx := context.Background()
	userID := "11111111-1111-4111-8111-999999999999"
	defer cleanupUser(t, userID)

	older, err := testDB.QueryCreateMemory(ctx, userID, "older", 5, "general", false)
	if err != nil {
		t.Fatalf("Failed to create memory: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := testDB.QueryCreateMemory(ctx, userID, "newer", 5, "general", false); err != nil {
		t.Fatalf("Failed to create memory: %v", err)
	}

	// Touching the older memory lifts it above the newer one at equal importance.
	if err := testDB.QueryTouchMemoryAccess(ctx, models.MustRecordIDString(older.ID)); err != nil {
		t.Fatalf("Failed to touch memory: %v", err)
	}

	ranked, err := testDB.QueryMemoriesRanked(ctx, userID)
	if err != nil {
		t.Fatalf("QueryMemoriesRanked failed: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("Expected 2 memories, got %d", len(ranked))
	}
	if ranked[0].Content != "older" {
		t.Errorf("Expected touched memory first, got %q", ranked[0].Content)
	}
}

func TestReplaceTimetable(t *testing.T) {
	ctx := context.Background()

	first := []models.TimetableEntry{
		{Day: "Monday", Room: "Lab 1", TimeSlot: "08:30-10:00", Course: "Algorithms", Section: "B", Instructor: "Dr. Lee"},
		{Day: "Tuesday", Room: "Room 204", TimeSlot: "10:15-11:45", Course: "Databases", Section: "A", Instructor: "Dr. Chen"},
	}
	n, err := testDB.QueryReplaceTimetable(ctx, first)
	if err != nil {
		t.Fatalf("QueryReplaceTimetable failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 entries inserted, got %d", n)
	}

	// Replacing again discards the previous set entirely.
	second := []models.TimetableEntry{
		{Day: "Friday", Room: "Aula", TimeSlot: "09:00-10:30", Course: "Ethics", Section: "A", Instructor: "Dr. Sousa"},
	}
	if _, err := testDB.QueryReplaceTimetable(ctx, second); err != nil {
		t.Fatalf("QueryReplaceTimetable failed: %v", err)
	}

	entries, err := testDB.QueryListTimetable(ctx)
	if err != nil {
		t.Fatalf("QueryListTimetable failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry after replace, got %d", len(entries))
	}
	if entries[0].Course != "Ethics" {
		t.Errorf("Expected course 'Ethics', got %q", entries[0].Course)
	}

	// Cleanup
	_, _ = testDB.QueryReplaceTimetable(ctx, nil)
}

func TestReplaceTimetableLargeBatch(t *testing.T) {
	ctx := context.Background()

	entries := make([]models.TimetableEntry, TimetableBatchSize+25)
	for i := range entries {
		entries[i] = models.TimetableEntry{
			Day:      "Monday",
			Room:     fmt.Sprintf("Room %d", i),
			TimeSlot: "08:30-10:00",
			Course:   fmt.Sprintf("Course %d", i),
		}
	}

	n, err := testDB.QueryReplaceTimetable(ctx, entries)
	if err != nil {
		t.Fatalf("QueryReplaceTimetable failed: %v", err)
	}
	if n != len(entries) {
		t.Errorf("Expected %d entries, got %d", len(entries), n)
	}

	stored, err := testDB.QueryListTimetable(ctx)
	if err != nil {
		t.Fatalf("QueryListTimetable failed: %v", err)
	}
	if len(stored) != len(entries) {
		t.Errorf("Expected %d stored entries, got %d", len(entries), len(stored))
	}

	// Cleanup
	_, _ = testDB.QueryReplaceTimetable(ctx, nil)
}
