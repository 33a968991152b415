// Package gemini wraps the Google genai SDK for embedding and text generation.
//
// The package exposes small, purpose-built methods instead of the raw SDK
// surface so callers depend on narrow interfaces that are trivial to fake
// in tests. Failures are classified into sentinel errors checkable with
// errors.Is(), which the HTTP layer maps to status codes.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"

	"google.golang.org/genai"

	"github.com/platewise/platewise/internal/log"
)

var (
	// ErrUnavailable indicates the generation client was never initialized
	// (e.g., missing API key at startup).
	ErrUnavailable = errors.New("generation client unavailable")

	// ErrSafetyBlocked indicates the model refused the prompt or response
	// on safety grounds.
	ErrSafetyBlocked = errors.New("response blocked by safety filter")

	// ErrMalformedResponse indicates the model returned a response with no
	// extractable text.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrTransport indicates the API call itself failed (network, quota,
	// server error) after retries were exhausted.
	ErrTransport = errors.New("model transport failure")

	// ErrEmptyEmbedding indicates the embedding API returned no vector.
	ErrEmptyEmbedding = errors.New("empty embedding response")
)

// Embedding task types as defined by the Gemini API.
// Queries and documents are embedded asymmetrically for better retrieval.
const (
	taskTypeQuery    = "RETRIEVAL_QUERY"
	taskTypeDocument = "RETRIEVAL_DOCUMENT"
)

// Config holds the model selection and generation parameters.
type Config struct {
	// Model is the generation model (e.g., "gemini-2.5-flash").
	Model string

	// EmbedModel is the embedding model (e.g., "gemini-embedding-001").
	EmbedModel string

	// EmbedDimension truncates embedding output to this many dimensions.
	// Must match the pgvector column width.
	EmbedDimension int32

	// Temperature controls generation randomness (0.0-2.0).
	Temperature float32

	// MaxTokens caps generated output length.
	MaxTokens int32
}

// Client is a thin wrapper over the genai SDK.
//
// Client is safe for concurrent use by multiple goroutines.
type Client struct {
	genai  *genai.Client
	cfg    Config
	logger log.Logger
}

// New creates a Client using the GEMINI_API_KEY environment variable.
// Returns an error when the key is missing so callers can decide whether
// to fail startup or degrade (see chat.Service for the degraded path).
func New(ctx context.Context, cfg Config, logger log.Logger) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY not set", ErrUnavailable)
	}
	if logger == nil {
		logger = log.NewNop()
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &Client{genai: gc, cfg: cfg, logger: logger}, nil
}
