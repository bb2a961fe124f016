package sqlite

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/dharmendra-verma/smartshop-ai-sub000/store"
)

func (d *DB) CreateReview(ctx context.Context, create *store.Review) (*store.Review, error) {
	stmt := `INSERT INTO review (product_id, rating, text, date, sentiment)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.ProductID,
		create.Rating,
		create.Text,
		create.Date,
		create.Sentiment,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create review")
	}

	return create, nil
}

func (d *DB) ListReviews(ctx context.Context, find *store.FindReview) ([]*store.Review, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ProductID != nil {
		where, args = append(where, "product_id = ?"), append(args, *find.ProductID)
	}
	if find.Sentiment != nil {
		where, args = append(where, "sentiment = ?"), append(args, *find.Sentiment)
	}

	query := `SELECT id, product_id, rating, text, date, sentiment
		FROM review
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY date DESC, id DESC`
	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list reviews")
	}
	defer rows.Close()

	list := []*store.Review{}
	for rows.Next() {
		var review store.Review
		if err := rows.Scan(
			&review.ID,
			&review.ProductID,
			&review.Rating,
			&review.Text,
			&review.Date,
			&review.Sentiment,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan review")
		}
		list = append(list, &review)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (d *DB) GetReviewStats(ctx context.Context, productID string) (*store.ReviewStats, error) {
	stmt := `SELECT
			COUNT(*),
			COALESCE(AVG(rating), 0),
			COALESCE(SUM(CASE WHEN sentiment = 'positive' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN sentiment = 'negative' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN sentiment = 'neutral' THEN 1 ELSE 0 END), 0)
		FROM review
		WHERE product_id = ?`

	stats := store.ReviewStats{ProductID: productID}
	if err := d.db.QueryRowContext(ctx, stmt, productID).Scan(
		&stats.TotalReviews,
		&stats.AverageRating,
		&stats.PositiveCount,
		&stats.NegativeCount,
		&stats.NeutralCount,
	); err != nil {
		return nil, errors.Wrap(err, "failed to aggregate review stats")
	}

	return &stats, nil
}
