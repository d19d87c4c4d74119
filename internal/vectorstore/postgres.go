// Package vectorstore implements nearest-neighbor retrieval over the
// job_postings collection.
//
// The collection is populated by the ingestion pipeline and is read-only
// from this service's perspective. Expected schema (owned elsewhere):
//
//	CREATE TABLE job_postings (
//	    id        TEXT PRIMARY KEY,
//	    payload   JSONB NOT NULL,          -- title, company, addedAt, metadata, …
//	    embedding VECTOR(2048) NOT NULL
//	);
//	CREATE INDEX ON job_postings USING hnsw (embedding vector_cosine_ops);
package vectorstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Neighbor is one document returned by a nearest-neighbor query.
type Neighbor struct {
	ID       string
	Payload  map[string]any
	Distance float64 // cosine distance, 0 = identical
}

// Postgres runs approximate nearest-neighbor queries against a
// pgvector-enabled PostgreSQL database.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres returns a store backed by the given pool. The pool must have
// pgvector types registered (see db.NewPostgresPool).
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// NearestNeighbors returns up to limit postings closest to queryVec by
// cosine distance, nearest first.
func (s *Postgres) NearestNeighbors(ctx context.Context, queryVec []float32, limit int) ([]Neighbor, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, payload, embedding <=> $1 AS vector_distance
		 FROM job_postings
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(queryVec), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("nearestNeighbors query: %w", err)
	}
	defer rows.Close()

	neighbors := make([]Neighbor, 0, limit)
	for rows.Next() {
		var n Neighbor
		if err := rows.Scan(&n.ID, &n.Payload, &n.Distance); err != nil {
			return nil, fmt.Errorf("nearestNeighbors scan: %w", err)
		}
		neighbors = append(neighbors, n)
	}
	return neighbors, rows.Err()
}
