package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"sockroute/internal/chatlog"
)

var chatTailLines int

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Inspect the chat log",
}

var chatShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the whole chat log as served by /chat?",
	RunE:  runChatShow,
}

var chatCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of chat messages",
	RunE:  runChatCount,
}

var chatTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print the most recent chat fragments",
	Long: `Print the last N chat fragments.

Examples:
  sockroute chat tail          # Last 10 fragments
  sockroute chat tail -n 3`,
	RunE: runChatTail,
}

func init() {
	chatTailCmd.Flags().IntVarP(&chatTailLines, "lines", "n", 10, "Number of fragments to show")

	chatCmd.AddCommand(chatShowCmd)
	chatCmd.AddCommand(chatTailCmd)
	chatCmd.AddCommand(chatCountCmd)
	rootCmd.AddCommand(chatCmd)
}

// withChatStore opens the configured chat store for the duration of fn.
func withChatStore(fn func(chatlog.Store) error) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	store, err := openChat(root, cfg, nil)
	if err != nil {
		return fmt.Errorf("failed to open chat log: %w", err)
	}
	defer func() { _ = store.Close() }()

	return fn(store)
}

func readChatLog(ctx context.Context) (string, error) {
	var log string
	err := withChatStore(func(store chatlog.Store) error {
		var err error
		log, err = store.ReadAll(ctx)
		return err
	})
	return log, err
}

func runChatCount(cmd *cobra.Command, args []string) error {
	return withChatStore(func(store chatlog.Store) error {
		n, err := store.Count(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), n)
		return nil
	})
}

func runChatShow(cmd *cobra.Command, args []string) error {
	log, err := readChatLog(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), log)
	return nil
}

func runChatTail(cmd *cobra.Command, args []string) error {
	if chatTailLines < 0 {
		return fmt.Errorf("--lines must not be negative")
	}
	log, err := readChatLog(cmd.Context())
	if err != nil {
		return err
	}

	fragments := chatlog.Fragments(log)
	if len(fragments) > chatTailLines {
		fragments = fragments[len(fragments)-chatTailLines:]
	}
	for _, f := range fragments {
		fmt.Fprint(cmd.OutOrStdout(), f)
	}
	return nil
}
