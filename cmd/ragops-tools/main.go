// Command ragops-tools exposes the builtin and project management tools as an
// MCP server over stdio, so external MCP clients can drive the same project
// state the interactive agent uses.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/donkit-ai/ragops-agent/config"
	"github.com/donkit-ai/ragops-agent/mcp"
	"github.com/donkit-ai/ragops-agent/store"
	"github.com/donkit-ai/ragops-agent/tool"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:     "ragops-tools",
		Short:   "Serve RagOps project tools over the Model Context Protocol (stdio)",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Stdout carries the protocol; keep logs on stderr.
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

			if dbPath == "" {
				dbPath = config.DBPathFromEnv()
			}
			if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create data directory: %w", err)
				}
			}

			db, err := store.Open(dbPath)
			if err != nil {
				return fmt.Errorf("open project store: %w", err)
			}
			defer db.Close()

			registry := tool.NewRegistry()
			registry.Add(tool.Builtin(db)...)
			registry.Add(tool.ProjectTools(db)...)

			return mcp.ServeStdio(registry,
				mcp.WithName("ragops-tools"),
				mcp.WithVersion(version),
			)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "path to the project state database (default from RAGOPS_DB_PATH)")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
