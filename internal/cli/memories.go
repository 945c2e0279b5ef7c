package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var memoriesCmd = &cobra.Command{
	Use:   "memories",
	Short: "Inspect and manage stored memories",
}

var memoriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your memories in retrieval order",
	RunE:  runMemoriesList,
}

var memoriesRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a memory by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemoriesRm,
}

func init() {
	memoriesCmd.AddCommand(memoriesListCmd)
	memoriesCmd.AddCommand(memoriesRmCmd)
}

func runMemoriesList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	memories, err := apiClient.ListMemories(ctx, userID)
	if err != nil {
		return fmt.Errorf("list memories: %w", err)
	}

	if len(memories) == 0 {
		fmt.Println("No memories stored yet.")
		return nil
	}

	fmt.Printf("Memories (%d):\n\n", len(memories))
	for _, m := range memories {
		summaryMark := ""
		if m.IsSummary {
			summaryMark = " [summary]"
		}
		fmt.Printf("- %s%s\n", m.Content, summaryMark)
		fmt.Printf("  id: %s  importance: %d  category: %s  created: %s\n",
			m.ID, m.Importance, m.Category, m.Created.Format("2006-01-02"))
	}
	return nil
}

func runMemoriesRm(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := apiClient.DeleteMemory(ctx, args[0]); err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	fmt.Println("Memory deleted.")
	return nil
}
