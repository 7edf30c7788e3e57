// Command ragops-agent is an interactive RAG pipeline assistant. Without a
// subcommand it starts a REPL that streams agent turns to the terminal.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/donkit-ai/ragops-agent/config"
)

var version = "dev"

type rootOptions struct {
	provider string
	model    string
	system   string
}

func newRootCmd() *cobra.Command {
	options := rootOptions{}
	cmd := &cobra.Command{
		Use:     "ragops-agent",
		Short:   "Donkit RagOps agent: build and manage RAG pipelines from your documents",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(&options)
			if err != nil {
				return err
			}
			setupLogging(cfg.LogLevel)
			return runREPL(cmd.Context(), cfg, options.system)
		},
	}

	cmd.Flags().StringVarP(&options.provider, "provider", "p", "", "LLM provider to use (openai, anthropic, mock)")
	cmd.Flags().StringVarP(&options.model, "model", "m", "", "LLM model to use")
	cmd.Flags().StringVarP(&options.system, "system", "s", "", "system prompt to guide the agent")

	cmd.AddCommand(newPingCmd())
	return cmd
}

func newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Verify the CLI is working",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "pong")
		},
	}
}

// loadConfig loads the environment configuration with flag overrides applied
// before validation so a --provider switch is checked against its own key.
func loadConfig(options *rootOptions) (*config.Config, error) {
	if options.provider != "" {
		os.Setenv("RAGOPS_PROVIDER", options.provider)
	}
	if options.model != "" {
		os.Setenv("RAGOPS_MODEL", options.model)
	}
	return config.Load()
}

func setupLogging(level string) {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
