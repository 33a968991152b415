package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/platewise/platewise/internal/gemini"
	"github.com/platewise/platewise/internal/log"
	"github.com/platewise/platewise/internal/restaurant"
)

type fakeHistory struct {
	loaded  []Message
	saved   [][]Message
	saveErr error
}

func (f *fakeHistory) Load(context.Context, string) []Message { return f.loaded }

func (f *fakeHistory) Save(_ context.Context, _ string, messages []Message) error {
	f.saved = append(f.saved, messages)
	return f.saveErr
}

type fakeRetriever struct {
	results []restaurant.Restaurant
	calls   int
}

func (f *fakeRetriever) Retrieve(context.Context, string) []restaurant.Restaurant {
	f.calls++
	return f.results
}

type fakeGenerator struct {
	answer  string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.answer, f.err
}

func newTestService(t *testing.T, history *fakeHistory, retriever *fakeRetriever, gen Generator) *Service {
	t.Helper()
	svc, err := NewService(history, retriever, NewComposer(""), gen, nil, log.NewNop())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestHandleTurn_EmptyMessage(t *testing.T) {
	t.Parallel()

	history := &fakeHistory{}
	gen := &fakeGenerator{answer: "hi"}
	svc := newTestService(t, history, &fakeRetriever{}, gen)

	for _, msg := range []string{"", "   ", "\n\t"} {
		if _, err := svc.HandleTurn(context.Background(), "u1", msg); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("HandleTurn(%q) = %v, want ErrEmptyMessage", msg, err)
		}
	}
	if len(gen.prompts) != 0 {
		t.Errorf("empty input reached the model: %d prompts", len(gen.prompts))
	}
	if len(history.saved) != 0 {
		t.Errorf("empty input was persisted: %d saves", len(history.saved))
	}
}

func TestHandleTurn_FreshRetrievalPersistsBothMessages(t *testing.T) {
	t.Parallel()

	history := &fakeHistory{}
	retriever := &fakeRetriever{results: []restaurant.Restaurant{{Name: "Joe's Pizza"}}}
	gen := &fakeGenerator{answer: "Try Joe's Pizza."}
	svc := newTestService(t, history, retriever, gen)

	result, err := svc.HandleTurn(context.Background(), "u1", "best pizza in town")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}

	if result.Response != "Try Joe's Pizza." {
		t.Errorf("Response = %q", result.Response)
	}
	if !result.ContextUsed {
		t.Error("ContextUsed = false, want true")
	}
	if retriever.calls != 1 {
		t.Errorf("retriever calls = %d, want 1", retriever.calls)
	}

	if len(history.saved) != 1 {
		t.Fatalf("saves = %d, want 1", len(history.saved))
	}
	saved := history.saved[0]
	if len(saved) != 2 {
		t.Fatalf("saved messages = %d, want 2", len(saved))
	}
	if saved[0].Role != RoleUser || saved[0].Content != "best pizza in town" {
		t.Errorf("saved[0] = %+v", saved[0])
	}
	if saved[1].Role != RoleAssistant || saved[1].Content != "Try Joe's Pizza." {
		t.Errorf("saved[1] = %+v", saved[1])
	}

	userAt, err := time.Parse(time.RFC3339Nano, saved[0].Timestamp)
	if err != nil {
		t.Fatalf("user timestamp: %v", err)
	}
	assistantAt, err := time.Parse(time.RFC3339Nano, saved[1].Timestamp)
	if err != nil {
		t.Fatalf("assistant timestamp: %v", err)
	}
	if !assistantAt.After(userAt) {
		t.Errorf("assistant timestamp %v not after user timestamp %v", assistantAt, userAt)
	}
}

func TestHandleTurn_FollowUpReusesCachedCandidates(t *testing.T) {
	t.Parallel()

	history := &fakeHistory{}
	retriever := &fakeRetriever{results: []restaurant.Restaurant{{Name: "Joe's Pizza"}}}
	gen := &fakeGenerator{answer: "ok"}
	svc := newTestService(t, history, retriever, gen)

	if _, err := svc.HandleTurn(context.Background(), "u1", "best pizza in town"); err != nil {
		t.Fatalf("first turn: %v", err)
	}
	if retriever.calls != 1 {
		t.Fatalf("retriever calls after first turn = %d, want 1", retriever.calls)
	}

	// Keyword follow-up with a warm cache: no second retrieval.
	if _, err := svc.HandleTurn(context.Background(), "u1", "what's the address?"); err != nil {
		t.Fatalf("follow-up turn: %v", err)
	}
	if retriever.calls != 1 {
		t.Errorf("retriever calls after follow-up = %d, want 1", retriever.calls)
	}

	// The follow-up prompt is still grounded in the cached candidate.
	if len(gen.prompts) != 2 {
		t.Fatalf("prompts = %d, want 2", len(gen.prompts))
	}
	if !strings.Contains(gen.prompts[1], "Joe's Pizza") {
		t.Errorf("follow-up prompt lost the cached candidate:\n%s", gen.prompts[1])
	}
	if !strings.Contains(gen.prompts[1], "Provide the address") {
		t.Errorf("follow-up prompt missing the address instruction:\n%s", gen.prompts[1])
	}
}

func TestHandleTurn_FollowUpWithColdCacheRetrieves(t *testing.T) {
	t.Parallel()

	retriever := &fakeRetriever{}
	svc := newTestService(t, &fakeHistory{}, retriever, &fakeGenerator{answer: "ok"})

	// First turn is already a keyword follow-up, but nothing is cached.
	if _, err := svc.HandleTurn(context.Background(), "u1", "what's the address?"); err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if retriever.calls != 1 {
		t.Errorf("retriever calls = %d, want 1", retriever.calls)
	}
}

func TestHandleTurn_NoCandidatesAsksForClarification(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{answer: "Could you tell me more?"}
	svc := newTestService(t, &fakeHistory{}, &fakeRetriever{}, gen)

	result, err := svc.HandleTurn(context.Background(), "u1", "underwater dining")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}

	if result.ContextUsed {
		t.Error("ContextUsed = true, want false")
	}
	if len(gen.prompts) != 1 {
		t.Fatalf("prompts = %d, want 1", len(gen.prompts))
	}
	if !strings.Contains(gen.prompts[0], "No relevant restaurants found") {
		t.Errorf("prompt missing the no-results marker:\n%s", gen.prompts[0])
	}
}

func TestHandleTurn_SafetyBlockIsSuccessfulApology(t *testing.T) {
	t.Parallel()

	history := &fakeHistory{}
	gen := &fakeGenerator{err: gemini.ErrSafetyBlocked}
	svc := newTestService(t, history, &fakeRetriever{}, gen)

	result, err := svc.HandleTurn(context.Background(), "u1", "something provocative")
	if err != nil {
		t.Fatalf("HandleTurn on safety block: %v, want success", err)
	}
	if result.Response != safetyApology {
		t.Errorf("Response = %q, want the apology", result.Response)
	}

	if len(history.saved) != 1 {
		t.Fatalf("saves = %d, want 1", len(history.saved))
	}
	saved := history.saved[0]
	if len(saved) != 2 {
		t.Fatalf("saved messages = %d, want 2", len(saved))
	}
	if saved[1].Content != safetyApology {
		t.Errorf("persisted assistant message = %q, want the apology", saved[1].Content)
	}
}

func TestHandleTurn_HardFailurePersistsUserMessageOnly(t *testing.T) {
	t.Parallel()

	for _, genErr := range []error{gemini.ErrMalformedResponse, gemini.ErrTransport} {
		history := &fakeHistory{}
		svc := newTestService(t, history, &fakeRetriever{}, &fakeGenerator{err: genErr})

		if _, err := svc.HandleTurn(context.Background(), "u1", "hello"); !errors.Is(err, genErr) {
			t.Errorf("HandleTurn = %v, want %v", err, genErr)
		}

		if len(history.saved) != 1 {
			t.Fatalf("saves = %d, want 1", len(history.saved))
		}
		saved := history.saved[0]
		if len(saved) != 1 {
			t.Fatalf("saved messages = %d, want only the user message", len(saved))
		}
		if saved[0].Role != RoleUser {
			t.Errorf("saved[0].Role = %q, want %q", saved[0].Role, RoleUser)
		}
	}
}

func TestHandleTurn_NilGeneratorIsUnavailable(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &fakeHistory{}, &fakeRetriever{}, nil)

	if _, err := svc.HandleTurn(context.Background(), "u1", "hello"); !errors.Is(err, gemini.ErrUnavailable) {
		t.Errorf("HandleTurn = %v, want ErrUnavailable", err)
	}
}

func TestHandleTurn_SaveFailureDoesNotFailTurn(t *testing.T) {
	t.Parallel()

	history := &fakeHistory{saveErr: errors.New("disk full")}
	svc := newTestService(t, history, &fakeRetriever{}, &fakeGenerator{answer: "ok"})

	result, err := svc.HandleTurn(context.Background(), "u1", "hello")
	if err != nil {
		t.Fatalf("HandleTurn after failed save: %v, want success", err)
	}
	if result.Response != "ok" {
		t.Errorf("Response = %q, want %q", result.Response, "ok")
	}
}

func TestHandleTurn_AppendsToLoadedHistory(t *testing.T) {
	t.Parallel()

	history := &fakeHistory{loaded: []Message{
		{Role: RoleUser, Content: "earlier", Timestamp: "2026-01-01T00:00:00Z"},
		{Role: RoleAssistant, Content: "earlier answer", Timestamp: "2026-01-01T00:00:01Z"},
	}}
	svc := newTestService(t, history, &fakeRetriever{}, &fakeGenerator{answer: "ok"})

	if _, err := svc.HandleTurn(context.Background(), "u1", "and now?"); err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}

	if len(history.saved) != 1 {
		t.Fatalf("saves = %d, want 1", len(history.saved))
	}
	saved := history.saved[0]
	if len(saved) != 4 {
		t.Fatalf("saved messages = %d, want 4", len(saved))
	}
	if saved[0].Content != "earlier" {
		t.Errorf("saved[0].Content = %q", saved[0].Content)
	}
	if saved[2].Content != "and now?" {
		t.Errorf("saved[2].Content = %q", saved[2].Content)
	}
}
