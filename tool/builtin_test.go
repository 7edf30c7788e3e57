package tool

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donkit-ai/ragops-agent/store"
)

func builtinRegistry(t *testing.T) *Registry {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRegistry().Add(Builtin(db)...)
}

func TestTimeNow(t *testing.T) {
	r := builtinRegistry(t)

	result, err := r.Invoke(context.Background(), "time_now", nil)
	require.NoError(t, err)

	_, err = time.Parse(time.RFC3339, result)
	assert.NoError(t, err)
}

func TestDBGet(t *testing.T) {
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Set(context.Background(), "greeting", "hello"))

	r := NewRegistry().Add(DBGet(db))

	t.Run("returns stored value", func(t *testing.T) {
		result, err := r.Invoke(context.Background(), "db_get", map[string]any{"key": "greeting"})
		require.NoError(t, err)
		assert.Equal(t, "hello", result)
	})

	t.Run("missing key is empty", func(t *testing.T) {
		result, err := r.Invoke(context.Background(), "db_get", map[string]any{"key": "absent"})
		require.NoError(t, err)
		assert.Equal(t, "", result)
	})
}

func TestListDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	r := builtinRegistry(t)

	t.Run("lists sorted entries", func(t *testing.T) {
		result, err := r.Invoke(context.Background(), "list_directory", map[string]any{"path": dir})
		require.NoError(t, err)

		var payload struct {
			Path       string     `json:"path"`
			Items      []dirEntry `json:"items"`
			TotalItems int        `json:"total_items"`
		}
		require.NoError(t, json.Unmarshal([]byte(result), &payload))
		require.Equal(t, 3, payload.TotalItems)
		assert.Equal(t, "a.txt", payload.Items[0].Name)
		assert.Equal(t, "b.txt", payload.Items[1].Name)
		assert.Equal(t, "sub", payload.Items[2].Name)

		assert.False(t, payload.Items[0].IsDirectory)
		require.NotNil(t, payload.Items[0].SizeBytes)
		assert.Equal(t, int64(1), *payload.Items[0].SizeBytes)

		assert.True(t, payload.Items[2].IsDirectory)
		assert.Nil(t, payload.Items[2].SizeBytes)
	})

	t.Run("missing path reports error payload", func(t *testing.T) {
		result, err := r.Invoke(context.Background(), "list_directory", map[string]any{
			"path": filepath.Join(dir, "nope"),
		})
		require.NoError(t, err)
		assert.Contains(t, result, "Path does not exist")
	})

	t.Run("file path reports error payload", func(t *testing.T) {
		result, err := r.Invoke(context.Background(), "list_directory", map[string]any{
			"path": filepath.Join(dir, "a.txt"),
		})
		require.NoError(t, err)
		assert.Contains(t, result, "Path is not a directory")
	})
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lines.txt")
	content := "one\ntwo\nthree\nfour\nfive\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r := builtinRegistry(t)

	t.Run("reads with line numbers", func(t *testing.T) {
		result, err := r.Invoke(context.Background(), "read_file", map[string]any{"path": path})
		require.NoError(t, err)

		var payload struct {
			TotalLines   int    `json:"total_lines"`
			ShowingLines string `json:"showing_lines"`
			Content      string `json:"content"`
		}
		require.NoError(t, json.Unmarshal([]byte(result), &payload))
		assert.Equal(t, 5, payload.TotalLines)
		assert.Equal(t, "1-5", payload.ShowingLines)
		assert.Contains(t, payload.Content, "     1\tone")
		assert.Contains(t, payload.Content, "     5\tfive")
	})

	t.Run("paginates with offset and limit", func(t *testing.T) {
		result, err := r.Invoke(context.Background(), "read_file", map[string]any{
			"path":   path,
			"offset": float64(2),
			"limit":  float64(2),
		})
		require.NoError(t, err)

		var payload struct {
			ShowingLines string `json:"showing_lines"`
			Content      string `json:"content"`
			Note         string `json:"note"`
		}
		require.NoError(t, json.Unmarshal([]byte(result), &payload))
		assert.Equal(t, "2-3", payload.ShowingLines)
		assert.Contains(t, payload.Content, "two")
		assert.Contains(t, payload.Content, "three")
		assert.NotContains(t, payload.Content, "four")
		assert.Contains(t, payload.Note, "offset=4")
	})

	t.Run("rejects binary content", func(t *testing.T) {
		binPath := filepath.Join(dir, "blob.bin")
		require.NoError(t, os.WriteFile(binPath, []byte{0x00, 0x01, 0x02}, 0o644))

		result, err := r.Invoke(context.Background(), "read_file", map[string]any{"path": binPath})
		require.NoError(t, err)
		assert.Contains(t, result, "not a text file")
	})

	t.Run("rejects invalid utf-8", func(t *testing.T) {
		badPath := filepath.Join(dir, "latin1.txt")
		// 0xFF is never valid in UTF-8, and there is no NUL byte here.
		require.NoError(t, os.WriteFile(badPath, []byte{'c', 'a', 'f', 0xFF}, 0o644))

		result, err := r.Invoke(context.Background(), "read_file", map[string]any{"path": badPath})
		require.NoError(t, err)
		assert.Contains(t, result, "not a text file")
	})

	t.Run("missing file reports error payload", func(t *testing.T) {
		result, err := r.Invoke(context.Background(), "read_file", map[string]any{
			"path": filepath.Join(dir, "ghost.txt"),
		})
		require.NoError(t, err)
		assert.Contains(t, result, "File does not exist")
	})
}

func TestGrep(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report_2024.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Report_2025.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	r := builtinRegistry(t)

	t.Run("matches filenames case-insensitively", func(t *testing.T) {
		result, err := r.Invoke(context.Background(), "grep", map[string]any{
			"pattern": "report",
			"path":    dir,
		})
		require.NoError(t, err)

		var payload struct {
			Matches []map[string]any `json:"matches"`
			Total   int              `json:"total"`
		}
		require.NoError(t, json.Unmarshal([]byte(result), &payload))
		assert.Equal(t, 2, payload.Total)
	})

	t.Run("include filter narrows results", func(t *testing.T) {
		result, err := r.Invoke(context.Background(), "grep", map[string]any{
			"pattern": ".",
			"include": "*.txt",
			"path":    dir,
		})
		require.NoError(t, err)
		assert.Contains(t, result, "notes.txt")
		assert.NotContains(t, result, "report_2024.md")
	})

	t.Run("no matches yields summary entry", func(t *testing.T) {
		result, err := r.Invoke(context.Background(), "grep", map[string]any{
			"pattern": "zzz_nothing",
			"path":    dir,
		})
		require.NoError(t, err)
		assert.Contains(t, result, "No matches found")
	})

	t.Run("invalid pattern reports error payload", func(t *testing.T) {
		result, err := r.Invoke(context.Background(), "grep", map[string]any{
			"pattern": "[unclosed",
			"path":    dir,
		})
		require.NoError(t, err)
		assert.Contains(t, result, "Invalid regex pattern")
	})
}

func TestRagConfigValidate(t *testing.T) {
	valid := RagConfig{
		Embedder:  EmbedderConfig{Type: EmbedderOpenAI},
		Chunking:  ChunkingConfig{SplitType: SplitParagraph},
		Retriever: RetrieverConfig{Type: RetrieverQdrant},
	}

	t.Run("accepts valid config", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	t.Run("rejects unknown embedder", func(t *testing.T) {
		cfg := valid
		cfg.Embedder.Type = "carrier_pigeon"
		assert.ErrorContains(t, cfg.Validate(), "embedder")
	})

	t.Run("rejects unknown split type", func(t *testing.T) {
		cfg := valid
		cfg.Chunking.SplitType = "telepathy"
		assert.ErrorContains(t, cfg.Validate(), "split")
	})

	t.Run("parse rejects unknown fields", func(t *testing.T) {
		_, err := ParseRagConfig(map[string]any{
			"embedder":  map[string]any{"type": "openai"},
			"chunking":  map[string]any{"split_type": "paragraph"},
			"retriever": map[string]any{"type": "qdrant"},
			"sprockets": true,
		})
		assert.Error(t, err)
	})
}
