package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	ragops "github.com/donkit-ai/ragops-agent"
	"github.com/donkit-ai/ragops-agent/agent"
	"github.com/donkit-ai/ragops-agent/config"
	"github.com/donkit-ai/ragops-agent/event"
	"github.com/donkit-ai/ragops-agent/mcp"
	"github.com/donkit-ai/ragops-agent/provider"
	"github.com/donkit-ai/ragops-agent/store"
	"github.com/donkit-ai/ragops-agent/tool"
)

const greeting = "RagOps Agent ready. Type a message, or :help for commands."

func runREPL(ctx context.Context, cfg *config.Config, system string) error {
	p, err := provider.FromConfig(cfg)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." && cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
	}
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open project store: %w", err)
	}
	defer db.Close()

	registry := tool.NewRegistry()
	registry.Add(tool.Builtin(db)...)
	registry.Add(tool.ProjectTools(db)...)

	clients := connectMCPServers(ctx, cfg.MCPServers, registry)
	defer func() {
		for _, c := range clients {
			c.Close()
		}
	}()

	if system == "" {
		system = cfg.SystemPrompt
	}
	if system == "" {
		system = agent.DefaultSystemPrompt
	}

	a := agent.New(p, registry, agent.WithMaxIterations(cfg.MaxIterations))
	history := ragops.NewHistory()
	history.Append(ragops.NewSystemMessage(system))

	fmt.Println(greeting)
	listProjects(ctx, db)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ":") {
			if arg, ok := strings.CutPrefix(line, ":agent "); ok {
				next, err := switchAgent(cfg, registry, strings.TrimSpace(arg))
				if err != nil {
					fmt.Fprintln(os.Stderr, "Error:", err)
					continue
				}
				a = next
				fmt.Printf("Switched to %s/%s.\n", cfg.Provider, cfg.Model)
				continue
			}
			if quit := runCommand(line, history, system); quit {
				return nil
			}
			continue
		}

		history.Append(ragops.NewUserMessage(line))
		if err := streamTurn(ctx, a, history); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
}

// runCommand handles a colon-prefixed REPL command and reports whether the
// REPL should exit.
func runCommand(line string, history *ragops.History, system string) bool {
	switch line {
	case ":q", ":quit", ":exit":
		return true
	case ":clear":
		history.Reset(ragops.NewSystemMessage(system))
		fmt.Println("History cleared.")
	case ":help":
		fmt.Println("Commands:")
		fmt.Println("  :help                     show this help")
		fmt.Println("  :clear                    reset the conversation history")
		fmt.Println("  :agent <provider>/<model> switch the LLM backend")
		fmt.Println("  :q                        quit")
	default:
		fmt.Printf("Unknown command %s (try :help)\n", line)
	}
	return false
}

// switchAgent rebuilds the agent against a new "provider" or "provider/model"
// target, validating credentials for the new provider before swapping.
func switchAgent(cfg *config.Config, registry *tool.Registry, target string) (*agent.Agent, error) {
	if target == "" {
		return nil, errors.New("usage: :agent <provider>/<model>")
	}
	prov, model, _ := strings.Cut(target, "/")

	prevProvider, prevModel := cfg.Provider, cfg.Model
	cfg.Provider = prov
	cfg.Model = model
	if err := cfg.Validate(); err != nil {
		cfg.Provider, cfg.Model = prevProvider, prevModel
		return nil, err
	}
	p, err := provider.FromConfig(cfg)
	if err != nil {
		cfg.Provider, cfg.Model = prevProvider, prevModel
		return nil, err
	}
	return agent.New(p, registry, agent.WithMaxIterations(cfg.MaxIterations)), nil
}

// listProjects prints the stored projects so returning users can pick up
// where they left off.
func listProjects(ctx context.Context, db *store.DB) {
	pairs, err := db.AllByPrefix(ctx, tool.ProjectKeyPrefix)
	if err != nil {
		slog.Warn("list projects", "error", err)
		return
	}
	if len(pairs) == 0 {
		return
	}
	fmt.Printf("Existing projects (%d):\n", len(pairs))
	for _, kv := range pairs {
		var state struct {
			ProjectID string `json:"project_id"`
			Goal      string `json:"goal"`
			Status    string `json:"status"`
		}
		if err := json.Unmarshal([]byte(kv.Value), &state); err != nil {
			continue
		}
		fmt.Printf("  %s  [%s]  %s\n", state.ProjectID, state.Status, state.Goal)
	}
}

// streamTurn runs one agent turn, renders its events as they arrive, and
// appends the assistant's reply to the history so the next turn sees it.
func streamTurn(ctx context.Context, a *agent.Agent, history *ragops.History) error {
	var reply strings.Builder
	for e := range a.RespondStream(ctx, history) {
		switch e.Type {
		case event.Content:
			fmt.Print(e.Content)
			reply.WriteString(e.Content)
		case event.ToolCallStart:
			fmt.Printf("\n🔧 %s%s\n", e.ToolName, formatArgs(e.ToolArgs))
		case event.ToolCallEnd:
			fmt.Printf("✓ %s\n", e.ToolName)
		case event.ToolCallError:
			fmt.Printf("✗ %s: %s\n", e.ToolName, e.Error)
		case event.Error:
			if reply.Len() > 0 {
				fmt.Println()
			}
			return errors.New(e.Error)
		}
	}
	if reply.Len() > 0 {
		fmt.Println()
		history.Append(ragops.NewAssistantMessage(reply.String()))
	}
	return ctx.Err()
}

func formatArgs(args map[string]any) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, 0, len(args))
	for k, v := range args {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

// connectMCPServers launches each configured MCP server command and runs a
// discovery pass. Failures are logged and skipped; the REPL works without
// remote tools.
func connectMCPServers(ctx context.Context, commands []string, registry *tool.Registry) []*mcp.Client {
	var clients []*mcp.Client
	for _, command := range commands {
		fields := strings.Fields(command)
		if len(fields) == 0 {
			continue
		}
		c, err := mcp.NewStdio(ctx, fields[0], nil, fields[1:]...)
		if err != nil {
			slog.Warn("MCP server unavailable", "command", command, "error", err)
			continue
		}
		clients = append(clients, c)
		registry.Discover(ctx, c)
	}
	return clients
}
