package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var timetableCmd = &cobra.Command{
	Use:   "timetable",
	Short: "Show and manage your class timetable",
	RunE:  runTimetableList,
}

var timetableImportCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Import a timetable spreadsheet, replacing the current one",
	Args:  cobra.ExactArgs(1),
	RunE:  runTimetableImport,
}

var timetableSyncCmd = &cobra.Command{
	Use:   "sync [url]",
	Short: "Re-fetch the timetable from a shared spreadsheet URL",
	Long: `Re-fetch the timetable from a URL. Google Drive and Google Sheets
share links are rewritten to direct download form automatically.
Without an argument the server uses its configured source URL.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTimetableSync,
}

func init() {
	timetableCmd.AddCommand(timetableImportCmd)
	timetableCmd.AddCommand(timetableSyncCmd)
}

func runTimetableList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	entries, err := apiClient.ListTimetable(ctx)
	if err != nil {
		return fmt.Errorf("list timetable: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No timetable imported yet. Use 'studymate timetable import <file.xlsx>'.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DAY\tTIME\tROOM\tCOURSE\tSECTION\tINSTRUCTOR")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Day, e.TimeSlot, e.Room, e.Course, e.Section, e.Instructor)
	}
	return w.Flush()
}

func runTimetableImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	msg, err := apiClient.ImportTimetable(ctx, args[0])
	if err != nil {
		return fmt.Errorf("import timetable: %w", err)
	}
	fmt.Println(msg)
	return nil
}

func runTimetableSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	sourceURL := ""
	if len(args) == 1 {
		sourceURL = args[0]
	}

	msg, err := apiClient.SyncTimetable(ctx, sourceURL)
	if err != nil {
		return fmt.Errorf("sync timetable: %w", err)
	}
	fmt.Println(msg)
	return nil
}
