package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/platewise/platewise/internal/gemini"
	"github.com/platewise/platewise/internal/log"
	"github.com/platewise/platewise/internal/restaurant"
)

// generateTimeout bounds the generation call per turn.
const generateTimeout = 30 * time.Second

// safetyApology is persisted and returned when the model declines on safety
// grounds. The user sees a polite message, never the underlying reason.
const safetyApology = "I'm sorry, I can't help with that particular request. " +
	"Could we try a different question about restaurants?"

// ErrEmptyMessage indicates the utterance was empty or whitespace-only.
var ErrEmptyMessage = errors.New("message cannot be empty")

// Generator produces a text response for a prompt.
// Satisfied by *gemini.Client.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// HistoryStore loads and saves per-user conversation documents.
// Satisfied by *History.
type HistoryStore interface {
	Load(ctx context.Context, userID string) []Message
	Save(ctx context.Context, userID string, messages []Message) error
}

// CandidateRetriever turns a query into scored candidates, degrading to
// empty on any failure. Satisfied by *restaurant.Retriever.
type CandidateRetriever interface {
	Retrieve(ctx context.Context, query string) []restaurant.Restaurant
}

// TurnResult is the outcome of a successful turn.
type TurnResult struct {
	// Response is the answer text shown to the user.
	Response string

	// ContextUsed reports whether candidates grounded the answer.
	ContextUsed bool
}

// Service orchestrates one chat turn: classify, retrieve or reuse, compose,
// generate, persist.
//
// Service is safe for concurrent use; turns for the same user are
// serialized by the candidate cache's per-user lock.
type Service struct {
	history   HistoryStore
	retriever CandidateRetriever
	composer  *Composer
	generator Generator // nil when the client failed to initialize
	cache     *Cache
	limiter   *rate.Limiter // process-wide cap on generation calls
	logger    log.Logger
}

// NewService creates a Service. generator may be nil, in which case every
// turn fails with gemini.ErrUnavailable (the HTTP layer maps this to 503);
// the service still starts so health endpoints and diagnostics stay up.
func NewService(history HistoryStore, retriever CandidateRetriever, composer *Composer,
	generator Generator, limiter *rate.Limiter, logger log.Logger) (*Service, error) {
	if history == nil {
		return nil, errors.New("history store is required")
	}
	if retriever == nil {
		return nil, errors.New("retriever is required")
	}
	if composer == nil {
		return nil, errors.New("composer is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Service{
		history:   history,
		retriever: retriever,
		composer:  composer,
		generator: generator,
		cache:     NewCache(),
		limiter:   limiter,
		logger:    logger,
	}, nil
}

// HandleTurn processes one utterance for one user.
//
// Returned errors are classified with errors.Is:
//   - ErrEmptyMessage: client input error, nothing was touched
//   - gemini.ErrUnavailable: generation client never initialized
//   - gemini.ErrMalformedResponse, gemini.ErrTransport: generation failed;
//     the user message was still recorded, but no assistant message was
//
// A safety-blocked generation is NOT an error: the turn succeeds with a
// canned apology, and the apology is what gets persisted as the assistant
// message. Retrieval and storage failures never surface at all.
func (s *Service) HandleTurn(ctx context.Context, userID, message string) (TurnResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return TurnResult{}, ErrEmptyMessage
	}

	// Serialize turns per user for the whole turn.
	entry := s.cache.Lock(userID)
	defer entry.Unlock()

	history := s.history.Load(ctx, userID)

	decision := Classify(message, entry.Candidates())

	var candidates []restaurant.Restaurant
	if decision.Reuse {
		candidates = entry.Candidates()
		s.logger.Debug("reusing cached candidates",
			"user_id", userID, "aspect", decision.Aspect, "count", len(candidates))
	} else {
		candidates = s.retriever.Retrieve(ctx, message)
		entry.Replace(candidates)
		s.logger.Debug("fresh retrieval",
			"user_id", userID, "aspect", decision.Aspect, "count", len(candidates))
	}

	prompt := s.composer.Compose(message, decision.Aspect, candidates)

	userAt := time.Now().UTC()
	answer, genErr := s.generate(ctx, prompt)
	if genErr != nil {
		if errors.Is(genErr, gemini.ErrSafetyBlocked) {
			// A blocked response is a successful turn with a canned
			// apology; the apology becomes the assistant message.
			s.logger.Info("generation safety-blocked, answering with apology", "user_id", userID)
			answer = safetyApology
		} else {
			// Hard failure: record the user's utterance for continuity,
			// but never persist a phantom assistant answer.
			s.persist(ctx, userID, history, []Message{
				{Role: RoleUser, Content: message, Timestamp: userAt.Format(time.RFC3339Nano)},
			})
			return TurnResult{}, genErr
		}
	}

	assistantAt := time.Now().UTC()
	if !assistantAt.After(userAt) {
		assistantAt = userAt.Add(time.Nanosecond)
	}
	s.persist(ctx, userID, history, []Message{
		{Role: RoleUser, Content: message, Timestamp: userAt.Format(time.RFC3339Nano)},
		{Role: RoleAssistant, Content: answer, Timestamp: assistantAt.Format(time.RFC3339Nano)},
	})

	return TurnResult{Response: answer, ContextUsed: len(candidates) > 0}, nil
}

// generate invokes the model with the process-wide rate limit and a bounded
// timeout.
func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	if s.generator == nil {
		return "", fmt.Errorf("%w: client not initialized", gemini.ErrUnavailable)
	}

	genCtx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	if s.limiter != nil {
		if err := s.limiter.Wait(genCtx); err != nil {
			return "", fmt.Errorf("%w: rate limit wait: %v", gemini.ErrTransport, err)
		}
	}

	return s.generator.Generate(genCtx, prompt)
}

// persist appends new messages to the loaded history and saves, best-effort.
// The answer was already computed; a failed save must not fail the turn.
func (s *Service) persist(ctx context.Context, userID string, history, appended []Message) {
	if err := s.history.Save(ctx, userID, append(history, appended...)); err != nil {
		s.logger.Warn("saving chat history", "user_id", userID, "error", err)
	}
}
