package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// EmbedQuery generates an embedding for a search query.
// Uses the RETRIEVAL_QUERY task type so queries and documents occupy the
// asymmetric embedding space the Gemini API optimizes for retrieval.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, text, taskTypeQuery)
}

// EmbedDocument generates an embedding for a document being indexed.
func (c *Client) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, text, taskTypeDocument)
}

func (c *Client) embed(ctx context.Context, text, taskType string) ([]float32, error) {
	dim := c.cfg.EmbedDimension
	resp, err := c.genai.Models.EmbedContent(ctx, c.cfg.EmbedModel, genai.Text(text),
		&genai.EmbedContentConfig{
			TaskType:             taskType,
			OutputDimensionality: &dim,
		})
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return resp.Embeddings[0].Values, nil
}
