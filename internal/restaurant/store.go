package restaurant

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/platewise/platewise/internal/log"
)

// searchCols is the fixed allow-list of columns projected by searches.
// The embedding column is deliberately excluded: raw vectors never leave
// the store.
const searchCols = `name, cuisine, street, zipcode, borough,
	stars, price_range, outdoor_seating, dogs_allowed, happy_hour, review_count`

// Pool is the subset of pgxpool.Pool the store uses.
// Defined on the consumer side so tests can fake the database.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store manages the restaurants table backed by PostgreSQL + pgvector.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   Pool
	logger log.Logger
}

// NewStore creates a restaurant Store.
func NewStore(pool Pool, logger log.Logger) (*Store, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// SearchByEmbedding runs a cosine similarity search and returns up to limit
// records ordered by similarity descending.
//
// The HNSW candidate pool is widened to efSearch inside the transaction
// (SET LOCAL hnsw.ef_search) before the LIMIT cut, so the index examines
// efSearch approximate neighbours even though only limit rows return.
// Similarity is 1 - cosine distance, rounded to 4 decimals in SQL.
func (s *Store) SearchByEmbedding(ctx context.Context, vec []float32, limit, efSearch int) ([]Restaurant, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning search transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.logger.Debug("search transaction rollback", "error", rbErr)
		}
	}()

	// SET LOCAL does not accept bind parameters; efSearch is an integer from
	// validated config, formatted directly.
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", efSearch)); err != nil {
		return nil, fmt.Errorf("setting ef_search: %w", err)
	}

	rows, err := tx.Query(ctx,
		`SELECT `+searchCols+`,
		        round((1 - (embedding <=> $1))::numeric, 4)::float8 AS score
		 FROM restaurants
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(vec), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching restaurants: %w", err)
	}

	results, err := scanRestaurants(rows)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing search transaction: %w", err)
	}

	return results, nil
}

// Upsert inserts a restaurant or replaces an existing row with the same
// name and street. The embedding is replaced along with the catalog fields
// so re-ingesting a corrected dataset fully refreshes a row.
func (s *Store) Upsert(ctx context.Context, r Restaurant, vec []float32) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning upsert transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.logger.Debug("upsert transaction rollback", "error", rbErr)
		}
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO restaurants
		   (name, cuisine, street, zipcode, borough,
		    stars, price_range, outdoor_seating, dogs_allowed, happy_hour, review_count,
		    embedding)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (name, street) DO UPDATE SET
		   cuisine = EXCLUDED.cuisine,
		   zipcode = EXCLUDED.zipcode,
		   borough = EXCLUDED.borough,
		   stars = EXCLUDED.stars,
		   price_range = EXCLUDED.price_range,
		   outdoor_seating = EXCLUDED.outdoor_seating,
		   dogs_allowed = EXCLUDED.dogs_allowed,
		   happy_hour = EXCLUDED.happy_hour,
		   review_count = EXCLUDED.review_count,
		   embedding = EXCLUDED.embedding`,
		r.Name, r.Cuisine, r.Street, r.Zipcode, r.Borough,
		r.Stars, r.PriceRange, r.OutdoorSeating, r.DogsAllowed, r.HappyHour, r.ReviewCount,
		pgvector.NewVector(vec),
	)
	if err != nil {
		return fmt.Errorf("upserting restaurant %q: %w", r.Name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing upsert transaction: %w", err)
	}
	return nil
}

// Count returns the number of rows in the catalog.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM restaurants`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting restaurants: %w", err)
	}
	return count, nil
}

// scanRestaurants reads Restaurant structs from pgx.Rows (searchCols + score).
func scanRestaurants(rows pgx.Rows) ([]Restaurant, error) {
	defer rows.Close()

	var results []Restaurant
	for rows.Next() {
		var r Restaurant
		if err := rows.Scan(
			&r.Name, &r.Cuisine, &r.Street, &r.Zipcode, &r.Borough,
			&r.Stars, &r.PriceRange, &r.OutdoorSeating, &r.DogsAllowed, &r.HappyHour, &r.ReviewCount,
			&r.Score,
		); err != nil {
			return nil, fmt.Errorf("scanning restaurant: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating restaurants: %w", err)
	}
	return results, nil
}
