// ABOUTME: History command showing the most recent conversation
// ABOUTME: Prints the stored message list with roles and relative timestamps
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ask-cli/ask/internal/storage/sqlite"
)

// previewLen caps message text in the compact listing
const previewLen = 100

// NewHistoryCmd creates the history command
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the most recent conversation",
		Long: `Show the most recent conversation

Prints the messages of the conversation a new prompt would resume,
newest conversation first. Message text is truncated unless --full is
given.`,
		RunE: runHistory,
		Example: `  # Compact listing
  ask history

  # Untruncated message text
  ask history --full`,
	}

	cmd.Flags().Bool("full", false, "Print untruncated message text")
	cmd.Flags().String("config-file", "", "Path to the TOML config file")
	cmd.Flags().String("db-file", "", "Path to the SQLite database file")

	return cmd
}

// runHistory prints the latest conversation
func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	conv, err := sqlite.NewConversationStore(db).Latest()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if conv == nil {
		fmt.Fprintln(out, "No conversations yet.")
		return nil
	}

	full, _ := cmd.Flags().GetBool("full")

	fmt.Fprintf(out, "%s (last active %s, %d messages)\n\n", conv.ID, formatTime(conv.LastActivity), len(conv.Messages))
	for _, msg := range conv.Messages {
		text := msg.Content
		if !full {
			text = truncate(text, previewLen)
		}
		fmt.Fprintf(out, "[%s] %s\n", msg.Role, text)
	}
	return nil
}
