package tool

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Embedder types accepted in a RAG configuration.
const (
	EmbedderOpenAI      = "openai"
	EmbedderVertex      = "vertex"
	EmbedderAzureOpenAI = "azure_openai"
)

// Split types accepted in a chunking configuration.
const (
	SplitCharacter = "character"
	SplitSentence  = "sentence"
	SplitParagraph = "paragraph"
	SplitSemantic  = "semantic"
	SplitJSON      = "json"
)

// Retriever types accepted in a RAG configuration.
const (
	RetrieverQdrant = "qdrant"
)

// EmbedderConfig selects the embedding provider and model.
type EmbedderConfig struct {
	Type  string `json:"type"`
	Model string `json:"model,omitempty"`
}

// ChunkingConfig controls how documents are split before embedding.
type ChunkingConfig struct {
	SplitType string `json:"split_type"`
	ChunkSize int    `json:"chunk_size,omitempty"`
	Overlap   int    `json:"overlap,omitempty"`
}

// RetrieverConfig selects the vector database and retrieval options.
type RetrieverConfig struct {
	Type           string `json:"type"`
	CollectionName string `json:"collection_name,omitempty"`
	TopK           int    `json:"top_k,omitempty"`
}

// RagConfig is the pipeline configuration a planner produces and the
// save_rag_config tool persists on a project.
type RagConfig struct {
	Embedder  EmbedderConfig  `json:"embedder"`
	Chunking  ChunkingConfig  `json:"chunking"`
	Retriever RetrieverConfig `json:"retriever"`
	Prompt    string          `json:"prompt,omitempty"`
}

// ParseRagConfig decodes and validates a raw configuration value. Unknown
// fields are rejected so a planner typo cannot silently persist a broken
// configuration.
func ParseRagConfig(raw any) (*RagConfig, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("rag_config is not a JSON object: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var cfg RagConfig
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("invalid rag_config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated fields against their accepted values.
func (c *RagConfig) Validate() error {
	switch c.Embedder.Type {
	case EmbedderOpenAI, EmbedderVertex, EmbedderAzureOpenAI:
	default:
		return fmt.Errorf("invalid rag_config: unknown embedder type %q", c.Embedder.Type)
	}

	switch c.Chunking.SplitType {
	case SplitCharacter, SplitSentence, SplitParagraph, SplitSemantic, SplitJSON:
	default:
		return fmt.Errorf("invalid rag_config: unknown split type %q", c.Chunking.SplitType)
	}

	switch c.Retriever.Type {
	case RetrieverQdrant:
	default:
		return fmt.Errorf("invalid rag_config: unknown retriever type %q", c.Retriever.Type)
	}

	return nil
}
