package sqlite

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/dharmendra-verma/smartshop-ai-sub000/store"
)

func (d *DB) CreatePolicy(ctx context.Context, create *store.Policy) (*store.Policy, error) {
	stmt := `INSERT INTO policy (policy_type, description, conditions, timeframe)
		VALUES (?, ?, ?, ?)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.PolicyType,
		create.Description,
		create.Conditions,
		create.Timeframe,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create policy")
	}

	return create, nil
}

func (d *DB) ListPolicies(ctx context.Context, find *store.FindPolicy) ([]*store.Policy, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.PolicyType != nil {
		where, args = append(where, "LOWER(policy_type) = LOWER(?)"), append(args, *find.PolicyType)
	}

	query := `SELECT id, policy_type, description, conditions, timeframe
		FROM policy
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY id`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list policies")
	}
	defer rows.Close()

	list := []*store.Policy{}
	for rows.Next() {
		var policy store.Policy
		if err := rows.Scan(
			&policy.ID,
			&policy.PolicyType,
			&policy.Description,
			&policy.Conditions,
			&policy.Timeframe,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan policy")
		}
		list = append(list, &policy)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (d *DB) CountPolicies(ctx context.Context) (int, error) {
	var count int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM policy`).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count policies")
	}
	return count, nil
}
