// Package cli provides the command-line interface for studymate.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mgersbach/studymate/internal/client"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	serverURL string
	userID    string

	// API client, created before every command runs.
	apiClient *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "studymate",
	Short: "AI study companion with persistent memory",
	Long: `StudyMate is a chat companion for students. It remembers facts about
you across conversations, summarizes old memories when they pile up,
and keeps your class timetable imported from a spreadsheet.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		apiClient = client.New(serverURL)

		if userID == "" {
			var err error
			userID, err = defaultUserID()
			if err != nil {
				return fmt.Errorf("resolve user id: %w", err)
			}
		}
		if _, err := uuid.Parse(userID); err != nil {
			return fmt.Errorf("user id must be a valid UUID: %q", userID)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (default STUDYMATE_SERVER_URL or http://localhost:8585)")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "user id (default STUDYMATE_USER_ID or a persisted generated id)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(memoriesCmd)
	rootCmd.AddCommand(timetableCmd)
	rootCmd.AddCommand(statsCmd)
}

// defaultUserID resolves the user's identity. It prefers the
// STUDYMATE_USER_ID env var, then a persisted id file, and otherwise
// generates a new UUID and persists it so memories stay scoped to the
// same user across sessions.
func defaultUserID() (string, error) {
	if id := os.Getenv("STUDYMATE_USER_ID"); id != "" {
		return id, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	idPath := filepath.Join(configDir, "studymate", "user_id")

	if raw, err := os.ReadFile(idPath); err == nil {
		id := strings.TrimSpace(string(raw))
		if _, err := uuid.Parse(id); err == nil {
			return id, nil
		}
	}

	id := uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(idPath), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(idPath, []byte(id+"\n"), 0o600); err != nil {
		return "", err
	}
	return id, nil
}

// exitWithError prints an error message and exits with code 1.
func exitWithError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
