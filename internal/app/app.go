// Package app wires configuration, storage, and the Gemini client into the
// services the commands run.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"github.com/platewise/platewise/internal/chat"
	"github.com/platewise/platewise/internal/config"
	"github.com/platewise/platewise/internal/database"
	"github.com/platewise/platewise/internal/gemini"
	"github.com/platewise/platewise/internal/log"
	"github.com/platewise/platewise/internal/restaurant"
)

// Upstream Gemini generation calls are capped process-wide, independent of
// the per-IP HTTP limiter.
const (
	generateRate  = rate.Limit(2)
	generateBurst = 4
)

// App holds the initialized components shared by the serve and ingest
// commands.
type App struct {
	Config      *config.Config
	Logger      log.Logger
	Pool        *pgxpool.Pool
	Gemini      *gemini.Client // nil when the API key is missing or the client failed to start
	Restaurants *restaurant.Store
	History     *chat.History
	Chat        *chat.Service
}

// Setup connects to Postgres (running migrations), initializes the Gemini
// client, and assembles the chat service.
//
// A failed Gemini client is not fatal: the app starts degraded, retrieval
// and history still work, and chat turns fail with gemini.ErrUnavailable
// until the process restarts with a valid key.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (*App, error) {
	pool, err := database.Connect(ctx, cfg.PostgresURL(), cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	client, err := gemini.New(ctx, gemini.Config{
		Model:          cfg.ModelName,
		EmbedModel:     cfg.EmbedderModel,
		EmbedDimension: restaurant.EmbeddingDimension,
		Temperature:    cfg.Temperature,
		MaxTokens:      int32(cfg.MaxTokens),
	}, logger)
	if err != nil {
		logger.Warn("gemini client unavailable, serving degraded", "error", err)
		client = nil
	}

	store, err := restaurant.NewStore(pool, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating restaurant store: %w", err)
	}

	// Interface fields must stay nil (not a typed nil) when the client is
	// absent, so the downstream nil checks fire.
	var embedder restaurant.QueryEmbedder
	var generator chat.Generator
	if client != nil {
		embedder = client
		generator = client
	}

	retriever := restaurant.NewRetriever(store, embedder, cfg.TopK, cfg.CandidatePool, logger)

	history, err := chat.NewHistory(pool, cfg.HistoryLimit, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating history store: %w", err)
	}

	composer := chat.NewComposer(cfg.RecommendationBias)
	limiter := rate.NewLimiter(generateRate, generateBurst)

	svc, err := chat.NewService(history, retriever, composer, generator, limiter, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating chat service: %w", err)
	}

	return &App{
		Config:      cfg,
		Logger:      logger,
		Pool:        pool,
		Gemini:      client,
		Restaurants: store,
		History:     history,
		Chat:        svc,
	}, nil
}

// Close releases held resources. Safe to call once after Setup succeeds.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}
