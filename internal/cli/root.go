package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg := DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "wordlobby",
		Short: "CLI client for the word lobby server",
		Long: `wordlobby talks to a word lobby server.

It can inspect server health and lobbies over HTTP, and start or join a lobby
over a websocket session to chat and guess words interactively.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: WORDLOBBY_SERVER)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().DurationVar(&cfg.Wait, "wait", cfg.Wait, "How long to wait for the server after leaving a session")

	// Add subcommands
	rootCmd.AddCommand(newHealthCmd(cfg))
	rootCmd.AddCommand(newLobbyCmd(cfg))
	rootCmd.AddCommand(newStartCmd(cfg))
	rootCmd.AddCommand(newJoinCmd(cfg))

	return rootCmd
}

// Execute runs the root command, cancelling its context on interrupt
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
