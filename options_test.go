package ragops

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyOptions(t *testing.T) {
	t.Run("zero options", func(t *testing.T) {
		opts := ApplyOptions()
		assert.Equal(t, "", opts.Model)
		assert.Nil(t, opts.Tools)
		assert.Nil(t, opts.Temperature)
		assert.Nil(t, opts.TopP)
		assert.Equal(t, 0, opts.MaxTokens)
	})

	t.Run("applies all options", func(t *testing.T) {
		tools := []ToolSpec{NewToolSpec(ToolFunction{Name: "square"})}
		opts := ApplyOptions(
			WithModel("gpt-4o-mini"),
			WithTools(tools),
			WithTemperature(0.2),
			WithTopP(0.9),
			WithMaxTokens(512),
		)

		assert.Equal(t, "gpt-4o-mini", opts.Model)
		assert.Equal(t, tools, opts.Tools)
		require.NotNil(t, opts.Temperature)
		assert.Equal(t, 0.2, *opts.Temperature)
		require.NotNil(t, opts.TopP)
		assert.Equal(t, 0.9, *opts.TopP)
		assert.Equal(t, 512, opts.MaxTokens)
	})
}

func TestNewToolSpec(t *testing.T) {
	fn := ToolFunction{
		Name:        "square",
		Description: "Square a number",
		Parameters:  json.RawMessage(`{"type":"object"}`),
	}
	spec := NewToolSpec(fn)
	assert.Equal(t, "function", spec.Type)
	assert.Equal(t, fn, spec.Function)
}
