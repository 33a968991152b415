package restaurant

import (
	"context"
	"time"

	"github.com/platewise/platewise/internal/log"
)

// EmbedTimeout bounds the embedding call so an unresponsive upstream cannot
// hang a turn.
const EmbedTimeout = 10 * time.Second

// SearchTimeout bounds the vector search query.
const SearchTimeout = 10 * time.Second

// QueryEmbedder generates query-intent embeddings.
// Satisfied by *gemini.Client.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Searcher performs vector similarity search.
// Satisfied by *Store.
type Searcher interface {
	SearchByEmbedding(ctx context.Context, vec []float32, limit, efSearch int) ([]Restaurant, error)
}

// Retriever converts a query string into scored candidate records.
//
// Every failure path degrades to an empty result: retrieval must never
// surface an error to the turn. The system always produces some answer;
// an empty candidate set routes the composer to its clarification branch.
type Retriever struct {
	searcher Searcher
	embedder QueryEmbedder
	topK     int
	efSearch int
	logger   log.Logger
}

// NewRetriever creates a Retriever. A nil searcher or embedder is allowed
// and short-circuits Retrieve to empty (misconfigured storage must not
// crash the service or waste embedding calls).
func NewRetriever(searcher Searcher, embedder QueryEmbedder, topK, efSearch int, logger log.Logger) *Retriever {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Retriever{
		searcher: searcher,
		embedder: embedder,
		topK:     topK,
		efSearch: efSearch,
		logger:   logger,
	}
}

// Retrieve returns up to topK candidates for the query, ordered by
// similarity descending. Always returns a (possibly empty) slice,
// never an error.
func (r *Retriever) Retrieve(ctx context.Context, query string) []Restaurant {
	if query == "" {
		return nil
	}
	if r.searcher == nil {
		r.logger.Error("vector store unavailable, skipping retrieval")
		return nil
	}
	if r.embedder == nil {
		r.logger.Error("embedder unavailable, skipping retrieval")
		return nil
	}

	embedCtx, embedCancel := context.WithTimeout(ctx, EmbedTimeout)
	defer embedCancel()

	vec, err := r.embedder.EmbedQuery(embedCtx, query)
	if err != nil {
		r.logger.Warn("embedding query failed, degrading to empty", "error", err)
		return nil
	}

	searchCtx, searchCancel := context.WithTimeout(ctx, SearchTimeout)
	defer searchCancel()

	results, err := r.searcher.SearchByEmbedding(searchCtx, vec, r.topK, r.efSearch)
	if err != nil {
		r.logger.Warn("vector search failed, degrading to empty", "error", err)
		return nil
	}

	r.logger.Debug("retrieved candidates", "query_len", len(query), "count", len(results))
	return results
}
