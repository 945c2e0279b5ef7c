package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgersbach/studymate/internal/metrics"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server runtime statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	stats, err := apiClient.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	uptime := time.Duration(stats.UptimeSeconds * float64(time.Second)).Round(time.Second)
	fmt.Printf("Server uptime: %s\n\n", uptime)

	printOp := func(name string, op *metrics.OperationSnapshot) {
		if op == nil {
			return
		}
		fmt.Printf("%s:\n", name)
		fmt.Printf("  count: %d  avg: %.1fms  min: %dms  max: %dms\n",
			op.Count, op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
	}

	printOp("Chat messages", stats.ChatMessage)
	printOp("LLM generations", stats.LLMGenerate)
	printOp("Database queries", stats.DBQuery)
	printOp("Timetable imports", stats.TimetableImport)

	return nil
}
