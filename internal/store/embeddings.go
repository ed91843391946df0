package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
)

// AddEmbedding stores or replaces the embedding vector for an invoice.
func (s *SQLiteStore) AddEmbedding(ctx context.Context, invoiceID string, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("empty embedding vector for %s", invoiceID)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO embeddings (invoice_id, vector, dimensions)
		VALUES (?, ?, ?)
		ON CONFLICT(invoice_id) DO UPDATE SET
			vector = excluded.vector,
			dimensions = excluded.dimensions`,
		invoiceID, vectorToBlob(vector), len(vector))
	if err != nil {
		return fmt.Errorf("storing embedding for %s: %w", invoiceID, err)
	}
	return nil
}

// GetEmbedding returns the stored vector for an invoice, or nil if absent.
func (s *SQLiteStore) GetEmbedding(ctx context.Context, invoiceID string) ([]float32, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT vector FROM embeddings WHERE invoice_id = ?", invoiceID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting embedding for %s: %w", invoiceID, err)
	}
	return blobToVector(blob), nil
}

// SearchSimilar finds the stored invoices most similar to the query vector
// by cosine similarity. Similarity search is best-effort: on query failure
// the requested count is halved and the search retried, down to a single
// result, and an empty result set is returned rather than an error.
func (s *SQLiteStore) SearchSimilar(ctx context.Context, query []float32, limit int) ([]*SimilarResult, error) {
	if limit <= 0 {
		limit = 5
	}
	for n := limit; ; n /= 2 {
		results, err := s.searchSimilarOnce(ctx, query, n)
		if err == nil {
			return results, nil
		}
		if n <= 1 {
			return nil, nil
		}
	}
}

type scoredID struct {
	id  string
	sim float64
}

func (s *SQLiteStore) searchSimilarOnce(ctx context.Context, query []float32, limit int) ([]*SimilarResult, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT invoice_id, vector FROM embeddings ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	// Brute-force scan with insertion into a fixed-size top-K slice. The
	// corpus is small enough that an index is not worth carrying.
	var top []scoredID
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		vec := blobToVector(blob)
		if len(vec) != len(query) {
			continue
		}
		sim := cosineSimilarity(query, vec)

		pos := len(top)
		for pos > 0 && top[pos-1].sim < sim {
			pos--
		}
		if pos >= limit {
			continue
		}
		top = append(top, scoredID{})
		copy(top[pos+1:], top[pos:])
		top[pos] = scoredID{id: id, sim: sim}
		if len(top) > limit {
			top = top[:limit]
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	results := make([]*SimilarResult, 0, len(top))
	for _, hit := range top {
		record, err := s.Get(ctx, hit.id)
		if err != nil {
			return nil, err
		}
		results = append(results, &SimilarResult{Record: record, Similarity: hit.sim})
	}
	return results, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors of
// equal length. Returns 0 for zero vectors.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// vectorToBlob encodes a float32 vector as little-endian bytes.
func vectorToBlob(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// blobToVector decodes little-endian bytes back into a float32 vector.
func blobToVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}
