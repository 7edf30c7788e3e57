package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/donkit-ai/ragops-agent/schema"
	"github.com/donkit-ai/ragops-agent/store"
)

// Builtin returns the default local tool set: clock, key-value lookup, and
// read-only filesystem inspection. Project tools are added separately via
// ProjectTools.
func Builtin(db *store.DB) []Tool {
	return []Tool{
		TimeNow(),
		DBGet(db),
		ListDirectory(),
		ReadFile(),
		Grep(),
	}
}

// argString extracts a string argument, with def as fallback.
func argString(args map[string]any, key, def string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// argInt extracts an integer argument, tolerating JSON's float64 numbers.
func argInt(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return def
}

// TimeNow reports the current local datetime.
func TimeNow() Tool {
	return Tool{
		Name:        "time_now",
		Description: "Return current local datetime in ISO format",
		Parameters:  schema.Object().Closed().MustBuild(),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return time.Now().Format(time.RFC3339), nil
		},
	}
}

// DBGet looks up a value in the local key-value store.
func DBGet(db *store.DB) Tool {
	return Tool{
		Name:        "db_get",
		Description: "Get a value from local key-value store by key",
		Parameters: schema.Object().
			Prop("key", schema.String()).
			Required("key").
			Closed().
			MustBuild(),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			key := argString(args, "key", "")
			if key == "" {
				return "", nil
			}
			value, ok, err := db.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if !ok {
				return "", nil
			}
			return value, nil
		},
	}
}

type dirEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	IsDirectory bool   `json:"is_directory"`
	SizeBytes   *int64 `json:"size_bytes"`
}

// ListDirectory lists a directory's contents with file and folder info.
func ListDirectory() Tool {
	return Tool{
		Name: "list_directory",
		Description: "List contents of a directory with file/folder info. " +
			"Returns JSON with items array containing name, path, is_directory, " +
			"and size_bytes for each item.",
		Parameters: schema.Object().
			Prop("path", schema.String().
				Desc("Path to the directory to list (supports ~ for home directory)")).
			Required("path").
			Closed().
			MustBuild(),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			path, err := expandPath(argString(args, "path", "."))
			if err != nil {
				return map[string]any{"error": err.Error()}, nil
			}

			info, err := os.Stat(path)
			if err != nil {
				return map[string]any{"error": fmt.Sprintf("Path does not exist: %s", path)}, nil
			}
			if !info.IsDir() {
				return map[string]any{"error": fmt.Sprintf("Path is not a directory: %s", path)}, nil
			}

			entries, err := os.ReadDir(path)
			if err != nil {
				return map[string]any{"error": err.Error()}, nil
			}
			sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

			items := make([]dirEntry, 0, len(entries))
			for _, e := range entries {
				item := dirEntry{
					Name:        e.Name(),
					Path:        filepath.Join(path, e.Name()),
					IsDirectory: e.IsDir(),
				}
				if !e.IsDir() {
					// Skip entries we cannot stat instead of failing the listing.
					fi, err := e.Info()
					if err != nil {
						continue
					}
					size := fi.Size()
					item.SizeBytes = &size
				}
				items = append(items, item)
			}

			return map[string]any{
				"path":        path,
				"items":       items,
				"total_items": len(items),
			}, nil
		},
	}
}

// ReadFile reads a text file with line numbers and offset/limit pagination.
func ReadFile() Tool {
	return Tool{
		Name: "read_file",
		Description: "Reads and returns the content of a text file with line numbers. " +
			"Supports pagination with offset and limit parameters for large files. " +
			"Use this to examine file contents.",
		Parameters: schema.Object().
			Prop("path", schema.String().
				Desc("Path to the file to read (supports ~ for home directory).")).
			Prop("offset", schema.Integer().
				Desc("Starting line number (1-indexed). Default: 1.")).
			Prop("limit", schema.Integer().
				Desc("Maximum number of lines to return. Default: 100.")).
			Required("path").
			Closed().
			MustBuild(),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			rawPath := argString(args, "path", "")
			if rawPath == "" {
				return map[string]any{"error": "File path is required."}, nil
			}
			offset := argInt(args, "offset", 1)
			limit := argInt(args, "limit", 100)
			if offset < 1 {
				offset = 1
			}
			if limit < 1 {
				limit = 100
			}

			path, err := expandPath(rawPath)
			if err != nil {
				return map[string]any{"error": err.Error()}, nil
			}
			info, err := os.Stat(path)
			if err != nil {
				return map[string]any{"error": fmt.Sprintf("File does not exist: %s", rawPath)}, nil
			}
			if info.IsDir() {
				return map[string]any{"error": fmt.Sprintf("Path is not a file: %s", rawPath)}, nil
			}

			data, err := os.ReadFile(path)
			if err != nil {
				if os.IsPermission(err) {
					return map[string]any{"error": fmt.Sprintf("Permission denied: %s", rawPath)}, nil
				}
				return map[string]any{"error": fmt.Sprintf("Failed to read file: %v", err)}, nil
			}
			if !isText(data) {
				return map[string]any{"error": "File is not a text file or has unsupported encoding."}, nil
			}

			lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
			total := len(lines)

			start := offset - 1
			if start > total {
				start = total
			}
			end := start + limit
			if end > total {
				end = total
			}

			formatted := make([]string, 0, end-start)
			for i := start; i < end; i++ {
				formatted = append(formatted, fmt.Sprintf("%6d\t%s", i+1, strings.TrimRight(lines[i], "\r")))
			}

			result := map[string]any{
				"path":          path,
				"total_lines":   total,
				"showing_lines": fmt.Sprintf("%d-%d", offset, end),
				"content":       strings.Join(formatted, "\n"),
			}
			if end < total {
				result["note"] = fmt.Sprintf("File has more lines. Use offset=%d to continue.", end+1)
			}
			return result, nil
		},
	}
}

const grepMatchLimit = 500

// Grep searches for files by name using a case-insensitive regular
// expression. It matches filenames only, never file contents.
func Grep() Tool {
	return Tool{
		Name: "grep",
		Description: "Searches for files by their names using regular expressions (case-insensitive). " +
			"Returns JSON output of matching files with their paths. " +
			"Does NOT search file contents, only filenames.",
		Parameters: schema.Object().
			Prop("pattern", schema.String().Desc("The regex pattern to search for.")).
			Prop("include", schema.String().
				Desc("File pattern to include in the search (e.g., '*.go', '*.md').")).
			Prop("path", schema.String().
				Desc("The directory to search in. Defaults to current working directory.")).
			Required("pattern").
			Closed().
			MustBuild(),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			pattern := argString(args, "pattern", "")
			if pattern == "" {
				return map[string]any{"error": "Pattern is required for grep."}, nil
			}
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				return map[string]any{"error": fmt.Sprintf("Invalid regex pattern: %v", err)}, nil
			}

			root, err := expandPath(argString(args, "path", "."))
			if err != nil {
				return map[string]any{"error": err.Error()}, nil
			}
			if _, err := os.Stat(root); err != nil {
				return map[string]any{"error": fmt.Sprintf("Path does not exist: %s", root)}, nil
			}
			include := argString(args, "include", "")

			var matches []map[string]any
			truncated := false

			err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
				if err != nil {
					return nil
				}
				if include != "" && !d.IsDir() {
					if ok, _ := filepath.Match(include, d.Name()); !ok {
						return nil
					}
				}
				if !re.MatchString(d.Name()) {
					return nil
				}
				matches = append(matches, map[string]any{
					"type": "match",
					"data": map[string]any{
						"path":         map[string]any{"text": path},
						"name":         d.Name(),
						"is_directory": d.IsDir(),
					},
				})
				if len(matches) >= grepMatchLimit {
					truncated = true
					return filepath.SkipAll
				}
				return nil
			})
			if err != nil {
				return map[string]any{"error": fmt.Sprintf("Search failed: %v", err)}, nil
			}

			if truncated {
				matches = append(matches, map[string]any{
					"type": "summary",
					"data": map[string]any{"message": fmt.Sprintf("Reached %d match limit", grepMatchLimit)},
				})
			}
			if len(matches) == 0 {
				matches = append(matches, map[string]any{
					"type": "summary",
					"data": map[string]any{"message": "No matches found"},
				})
			}
			return map[string]any{"matches": matches, "total": len(matches)}, nil
		},
	}
}

func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return abs, nil
}

// isText reports whether data is readable text: valid UTF-8 with no NUL
// bytes (a NUL is a reliable binary marker even in valid UTF-8).
func isText(data []byte) bool {
	if !utf8.Valid(data) {
		return false
	}
	for _, b := range data {
		if b == 0 {
			return false
		}
	}
	return true
}
