package restaurant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/platewise/platewise/internal/log"
)

// DocumentEmbedder generates document-intent embeddings.
// Satisfied by *gemini.Client.
type DocumentEmbedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
}

// Upserter persists a restaurant record with its embedding.
// Satisfied by *Store.
type Upserter interface {
	Upsert(ctx context.Context, r Restaurant, vec []float32) error
}

// ingestRecord mirrors the source dataset layout, with the address nested.
type ingestRecord struct {
	Name    string `json:"name"`
	Cuisine string `json:"cuisine"`
	Address struct {
		Street  string `json:"street"`
		Zipcode string `json:"zipcode"`
	} `json:"address"`
	Borough        string   `json:"borough"`
	Stars          *float64 `json:"stars"`
	PriceRange     *string  `json:"price_range"`
	OutdoorSeating *bool    `json:"outdoor_seating"`
	DogsAllowed    *bool    `json:"dogs_allowed"`
	HappyHour      *bool    `json:"happy_hour"`
	ReviewCount    *int32   `json:"review_count"`
}

// Ingestor embeds and upserts restaurant records from a JSON dataset.
type Ingestor struct {
	store    Upserter
	embedder DocumentEmbedder
	logger   log.Logger
}

// NewIngestor creates an Ingestor.
func NewIngestor(store Upserter, embedder DocumentEmbedder, logger log.Logger) (*Ingestor, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Ingestor{store: store, embedder: embedder, logger: logger}, nil
}

// IngestFile reads a JSON array of restaurant records from path, embeds each
// record's descriptive text with document intent, and upserts by name+street.
//
// Per-record failures are logged and skipped so one bad row does not abort
// a large dataset load. Returns the number of records successfully stored.
func (ing *Ingestor) IngestFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading dataset %s: %w", path, err)
	}

	var records []ingestRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return 0, fmt.Errorf("parsing dataset %s: %w", path, err)
	}

	stored := 0
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return stored, fmt.Errorf("ingest canceled after %d records: %w", stored, err)
		}

		if rec.Name == "" {
			ing.logger.Warn("skipping record without name", "index", i)
			continue
		}

		r := Restaurant{
			Name:           rec.Name,
			Cuisine:        rec.Cuisine,
			Street:         rec.Address.Street,
			Zipcode:        rec.Address.Zipcode,
			Borough:        rec.Borough,
			Stars:          rec.Stars,
			PriceRange:     rec.PriceRange,
			OutdoorSeating: rec.OutdoorSeating,
			DogsAllowed:    rec.DogsAllowed,
			HappyHour:      rec.HappyHour,
			ReviewCount:    rec.ReviewCount,
		}

		embedCtx, cancel := context.WithTimeout(ctx, EmbedTimeout)
		vec, err := ing.embedder.EmbedDocument(embedCtx, r.EmbedText())
		cancel()
		if err != nil {
			ing.logger.Error("embedding record failed, skipping", "name", r.Name, "error", err)
			continue
		}

		if err := ing.store.Upsert(ctx, r, vec); err != nil {
			ing.logger.Error("storing record failed, skipping", "name", r.Name, "error", err)
			continue
		}

		stored++
		if stored%100 == 0 {
			ing.logger.Info("ingest progress", "stored", stored, "total", len(records))
		}
	}

	ing.logger.Info("ingest complete", "stored", stored, "total", len(records))
	return stored, nil
}
