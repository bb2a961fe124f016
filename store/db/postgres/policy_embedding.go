package postgres

import (
	"context"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/dharmendra-verma/smartshop-ai-sub000/store"
)

// UpsertPolicyEmbedding inserts or replaces the embedding for a policy row.
func (d *DB) UpsertPolicyEmbedding(ctx context.Context, policyID int32, embedding []float32) error {
	if !d.vecEnabled {
		return errors.New("pgvector extension is not available")
	}

	stmt := `INSERT INTO policy_embedding (policy_id, embedding, updated_ts)
		VALUES (` + placeholders(3) + `)
		ON CONFLICT (policy_id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			updated_ts = EXCLUDED.updated_ts`

	if _, err := d.db.ExecContext(ctx, stmt, policyID, pgvector.NewVector(embedding), time.Now().Unix()); err != nil {
		return errors.Wrap(err, "failed to upsert policy embedding")
	}
	return nil
}

// SearchPoliciesByVector returns the policies closest to the query embedding.
// The <#> operator computes the negative inner product, so ordering ascending
// yields the most similar rows first. Stored embeddings are L2-normalized,
// which makes the returned score equal to cosine similarity.
func (d *DB) SearchPoliciesByVector(ctx context.Context, embedding []float32, limit int) ([]*store.PolicyWithScore, error) {
	if !d.vecEnabled {
		return nil, errors.New("pgvector extension is not available")
	}
	if limit <= 0 {
		limit = 3
	}

	query := `SELECT
			p.id, p.policy_type, p.description, p.conditions, p.timeframe,
			-(pe.embedding <#> ` + placeholder(1) + `) AS score
		FROM policy p
		INNER JOIN policy_embedding pe ON p.id = pe.policy_id
		ORDER BY pe.embedding <#> ` + placeholder(2) + `
		LIMIT ` + placeholder(3)

	vector := pgvector.NewVector(embedding)
	rows, err := d.db.QueryContext(ctx, query, vector, vector, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search policies by vector")
	}
	defer rows.Close()

	results := []*store.PolicyWithScore{}
	for rows.Next() {
		var result store.PolicyWithScore
		var policy store.Policy
		if err := rows.Scan(
			&policy.ID,
			&policy.PolicyType,
			&policy.Description,
			&policy.Conditions,
			&policy.Timeframe,
			&result.Score,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan policy vector search result")
		}
		result.Policy = &policy
		results = append(results, &result)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// CountPolicyEmbeddings reports how many policies currently carry an embedding.
func (d *DB) CountPolicyEmbeddings(ctx context.Context) (int, error) {
	if !d.vecEnabled {
		return 0, errors.New("pgvector extension is not available")
	}

	var count int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM policy_embedding`).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count policy embeddings")
	}
	return count, nil
}
