package embed

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEmbedder calls the OpenAI embeddings API for real semantic
// embeddings. Selected by configuration when an API key is present;
// otherwise the engine falls back to HashingEmbedder so the server remains
// usable fully offline.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder constructs a client-backed embedder. model follows the
// configured RAG_EMBEDDING_MODEL name; unrecognised names fall back to
// text-embedding-3-small.
func NewOpenAIEmbedder(apiKey, model string) *OpenAIEmbedder {
	m := openai.SmallEmbedding3
	switch model {
	case string(openai.LargeEmbedding3):
		m = openai.LargeEmbedding3
	case string(openai.AdaEmbeddingV2):
		m = openai.AdaEmbeddingV2
	}
	return &OpenAIEmbedder{
		client: openai.NewClient(apiKey),
		model:  m,
	}
}

func (o *OpenAIEmbedder) Name() string { return "openai:" + string(o.model) }

func (o *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: o.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}

	out := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		v := make([]float32, len(d.Embedding))
		copy(v, d.Embedding)
		Normalize(v)
		out[d.Index] = v
	}
	return out, nil
}
