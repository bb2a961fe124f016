package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/dharmendra-verma/smartshop-ai-sub000/store"
)

func (d *DB) CreateProduct(ctx context.Context, create *store.Product) (*store.Product, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	if create.UpdatedTs == 0 {
		create.UpdatedTs = create.CreatedTs
	}

	stmt := `INSERT INTO product (id, name, description, price, brand, category, stock, rating, image_url, created_ts, updated_ts)
		VALUES (` + placeholders(11) + `)`
	if _, err := d.db.ExecContext(ctx, stmt,
		create.ID,
		create.Name,
		create.Description,
		create.Price,
		create.Brand,
		create.Category,
		create.Stock,
		create.Rating,
		create.ImageURL,
		create.CreatedTs,
		create.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create product")
	}

	return create, nil
}

func (d *DB) ListProducts(ctx context.Context, find *store.FindProduct) ([]*store.Product, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.NameLike != nil {
		where, args = append(where, "name ILIKE '%' || "+placeholder(len(args)+1)+" || '%'"), append(args, *find.NameLike)
	}
	if find.Category != nil {
		where, args = append(where, "LOWER(category) = LOWER("+placeholder(len(args)+1)+")"), append(args, *find.Category)
	}
	if find.Brand != nil {
		where, args = append(where, "LOWER(brand) = LOWER("+placeholder(len(args)+1)+")"), append(args, *find.Brand)
	}
	if find.MaxPrice != nil {
		where, args = append(where, "price <= "+placeholder(len(args)+1)), append(args, *find.MaxPrice)
	}
	if find.MinPrice != nil {
		where, args = append(where, "price >= "+placeholder(len(args)+1)), append(args, *find.MinPrice)
	}
	if find.MinRating != nil {
		where, args = append(where, "rating >= "+placeholder(len(args)+1)), append(args, *find.MinRating)
	}
	if find.InStockOnly {
		where = append(where, "stock > 0")
	}

	query := `SELECT id, name, description, price, brand, category, stock, rating, image_url, created_ts, updated_ts
		FROM product
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY rating DESC, price ASC`
	if find.Limit != nil {
		query += " LIMIT " + placeholder(len(args)+1)
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list products")
	}
	defer rows.Close()

	list := []*store.Product{}
	for rows.Next() {
		var product store.Product
		if err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Description,
			&product.Price,
			&product.Brand,
			&product.Category,
			&product.Stock,
			&product.Rating,
			&product.ImageURL,
			&product.CreatedTs,
			&product.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan product")
		}
		list = append(list, &product)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (d *DB) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT DISTINCT category FROM product WHERE category != '' ORDER BY category`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list categories")
	}
	defer rows.Close()

	list := []string{}
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, errors.Wrap(err, "failed to scan category")
		}
		list = append(list, category)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}
