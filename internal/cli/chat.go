package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mgersbach/studymate/internal/models"
)

var chatAPIKey string

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat with your study companion",
	Long: `Chat with your study companion. The companion remembers facts you
tell it and recalls them in later conversations.

With a message argument, sends a single message and prints the reply.
Without arguments, starts an interactive chat session.

Examples:
  studymate chat "when is my algorithms lecture?"
  studymate chat`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatAPIKey, "api-key", "", "completion API key (overrides server config)")
}

func runChat(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return runChatOnce(args[0])
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("interactive chat needs a terminal, pass a message argument instead")
	}

	if err := runChatTUI(); err != nil {
		exitWithError("chat session failed: %v", err)
	}
	return nil
}

// runChatOnce sends one message and streams the reply to stdout.
func runChatOnce(message string) error {
	ctx := context.Background()

	_, err := apiClient.ChatStream(ctx, userID, message, chatAPIKey, nil, func(chunk string) {
		fmt.Print(chunk)
	})
	if err != nil {
		// The websocket endpoint may be unreachable behind some
		// proxies. Fall back to the plain request.
		reply, perr := apiClient.Chat(ctx, userID, message, chatAPIKey, nil)
		if perr != nil {
			return perr
		}
		fmt.Println(reply)
		return nil
	}
	fmt.Println()
	return nil
}

// historyWindow returns the most recent turns to send with a request.
func historyWindow(turns []models.Turn) []models.Turn {
	return models.WindowTurns(turns)
}
