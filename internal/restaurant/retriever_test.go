package restaurant

import (
	"context"
	"errors"
	"testing"

	"github.com/platewise/platewise/internal/log"
)

type stubEmbedder struct {
	vec  []float32
	err  error
	seen string
}

func (s *stubEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	s.seen = text
	return s.vec, s.err
}

type stubSearcher struct {
	results  []Restaurant
	err      error
	limit    int
	efSearch int
	calls    int
}

func (s *stubSearcher) SearchByEmbedding(_ context.Context, _ []float32, limit, efSearch int) ([]Restaurant, error) {
	s.calls++
	s.limit = limit
	s.efSearch = efSearch
	return s.results, s.err
}

func TestRetrieve_HappyPath(t *testing.T) {
	t.Parallel()

	searcher := &stubSearcher{results: []Restaurant{{Name: "A"}, {Name: "B"}}}
	embedder := &stubEmbedder{vec: []float32{0.1, 0.2}}
	r := NewRetriever(searcher, embedder, 5, 100, log.NewNop())

	got := r.Retrieve(context.Background(), "pizza")
	if len(got) != 2 {
		t.Fatalf("Retrieve returned %d candidates, want 2", len(got))
	}
	if embedder.seen != "pizza" {
		t.Errorf("embedded text = %q, want the raw query", embedder.seen)
	}
	if searcher.limit != 5 || searcher.efSearch != 100 {
		t.Errorf("search called with limit=%d efSearch=%d, want 5 and 100", searcher.limit, searcher.efSearch)
	}
}

func TestRetrieve_EmptyQuery(t *testing.T) {
	t.Parallel()

	searcher := &stubSearcher{}
	r := NewRetriever(searcher, &stubEmbedder{}, 5, 100, log.NewNop())

	if got := r.Retrieve(context.Background(), ""); got != nil {
		t.Errorf("Retrieve(\"\") = %v, want nil", got)
	}
	if searcher.calls != 0 {
		t.Error("empty query must not hit the store")
	}
}

// Storage down short-circuits before the embedding call: no wasted quota.
func TestRetrieve_NilSearcherSkipsEmbedding(t *testing.T) {
	t.Parallel()

	embedder := &stubEmbedder{vec: []float32{0.1}}
	r := NewRetriever(nil, embedder, 5, 100, log.NewNop())

	if got := r.Retrieve(context.Background(), "pizza"); got != nil {
		t.Errorf("Retrieve with nil searcher = %v, want nil", got)
	}
	if embedder.seen != "" {
		t.Error("embedder must not be called when the store is unavailable")
	}
}

func TestRetrieve_DegradesToEmptyOnFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		embedder QueryEmbedder
		searcher Searcher
	}{
		{"nil embedder", nil, &stubSearcher{}},
		{"embed error", &stubEmbedder{err: errors.New("quota exceeded")}, &stubSearcher{}},
		{"search error", &stubEmbedder{vec: []float32{0.1}}, &stubSearcher{err: errors.New("relation missing")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := NewRetriever(tt.searcher, tt.embedder, 5, 100, log.NewNop())
			if got := r.Retrieve(context.Background(), "pizza"); got != nil {
				t.Errorf("Retrieve = %v, want nil", got)
			}
		})
	}
}
