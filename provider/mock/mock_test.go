package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ragops "github.com/donkit-ai/ragops-agent"
)

func TestClient_Generate(t *testing.T) {
	t.Run("replays scripted responses in order", func(t *testing.T) {
		c := New(WithResponses(
			&ragops.Response{Content: "first"},
			&ragops.Response{Content: "second"},
		))

		resp, err := c.Generate(context.Background(), []ragops.Message{ragops.NewUserMessage("hi")})
		require.NoError(t, err)
		assert.Equal(t, "first", resp.Content)

		resp, err = c.Generate(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "second", resp.Content)
	})

	t.Run("echoes last user message when unscripted", func(t *testing.T) {
		c := New()
		resp, err := c.Generate(context.Background(), []ragops.Message{
			ragops.NewUserMessage("ping"),
			ragops.NewAssistantMessage("noted"),
		})
		require.NoError(t, err)
		assert.Equal(t, "ping", resp.Content)
	})

	t.Run("replays scripted error", func(t *testing.T) {
		c := New(WithError(errors.New("quota exceeded")))
		_, err := c.Generate(context.Background(), nil)
		assert.ErrorContains(t, err, "quota exceeded")
	})

	t.Run("records requests", func(t *testing.T) {
		c := New(WithResponses(&ragops.Response{Content: "x"}))
		_, err := c.Generate(context.Background(), []ragops.Message{ragops.NewUserMessage("one")})
		require.NoError(t, err)

		calls := c.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, "one", calls[0][0].Content)
	})
}

func TestClient_GenerateStream(t *testing.T) {
	t.Run("splits content into chunks", func(t *testing.T) {
		c := New(
			WithResponses(&ragops.Response{Content: "abcdef"}),
			WithChunkSize(4),
		)

		ch, err := c.GenerateStream(context.Background(), nil)
		require.NoError(t, err)

		var got string
		var chunks int
		for chunk := range ch {
			require.NoError(t, chunk.Err)
			got += chunk.Content
			chunks++
		}
		assert.Equal(t, "abcdef", got)
		assert.Equal(t, 2, chunks)
	})

	t.Run("delivers tool calls after content", func(t *testing.T) {
		calls := []ragops.ToolCall{{ID: "c1", Function: ragops.FunctionCall{Name: "square"}}}
		c := New(WithResponses(&ragops.Response{Content: "thinking", ToolCalls: calls}))

		ch, err := c.GenerateStream(context.Background(), nil)
		require.NoError(t, err)

		var last ragops.Chunk
		for chunk := range ch {
			last = chunk
		}
		require.Len(t, last.ToolCalls, 1)
		assert.Equal(t, "c1", last.ToolCalls[0].ID)
	})
}

func TestClient_Capabilities(t *testing.T) {
	assert.True(t, New().SupportsTools())
	assert.True(t, New().SupportsStreaming())
	assert.False(t, New(WithoutTools()).SupportsTools())
	assert.False(t, New(WithoutStreaming()).SupportsStreaming())
}
