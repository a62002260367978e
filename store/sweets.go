package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	models "sweet-shop/model"
)

// CreateSweet inserts a sweet and returns the stored row.
func (s *PostgresStore) CreateSweet(ctx context.Context, in models.SweetInput) (SweetRow, error) {
	return scanSweet(s.DB.QueryRowContext(ctx,
		`INSERT INTO sweets (name, category, price, stock, description) VALUES ($1, $2, $3, $4, $5) RETURNING `+sweetColumns,
		in.Name, in.Category, in.Price, in.Stock, in.Description,
	))
}

func (s *PostgresStore) ListSweets(ctx context.Context) ([]SweetRow, error) {
	return s.querySweets(ctx, `SELECT `+sweetColumns+` FROM sweets ORDER BY id`)
}

func (s *PostgresStore) GetSweet(ctx context.Context, id int64) (SweetRow, error) {
	row, err := scanSweet(s.DB.QueryRowContext(ctx, `SELECT `+sweetColumns+` FROM sweets WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return SweetRow{}, ErrSweetNotFound
	}
	return row, err
}

// SearchSweets ANDs together every filter that is set.
func (s *PostgresStore) SearchSweets(ctx context.Context, p models.SearchParams) ([]SweetRow, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if p.Name != "" {
		add("name LIKE $%d", "%"+p.Name+"%")
	}
	if p.Category != "" {
		add("category = $%d", p.Category)
	}
	if p.MinPrice != nil {
		add("price >= $%d", *p.MinPrice)
	}
	if p.MaxPrice != nil {
		add("price <= $%d", *p.MaxPrice)
	}

	query := `SELECT ` + sweetColumns + ` FROM sweets`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY id`
	return s.querySweets(ctx, query, args...)
}

// UpdateSweet writes only the fields set in p. An empty patch returns the
// current row without touching updated_at.
func (s *PostgresStore) UpdateSweet(ctx context.Context, id int64, p models.SweetPatch) (SweetRow, error) {
	if p.Empty() {
		return s.GetSweet(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if p.Name != nil {
		set("name", *p.Name)
	}
	if p.Category != nil {
		set("category", *p.Category)
	}
	if p.Price != nil {
		set("price", *p.Price)
	}
	if p.Stock != nil {
		set("stock", *p.Stock)
	}
	if p.Description != nil {
		set("description", *p.Description)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE sweets SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), sweetColumns)
	row, err := scanSweet(s.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return SweetRow{}, ErrSweetNotFound
	}
	return row, err
}

// DeleteSweet removes a sweet and returns its last state.
func (s *PostgresStore) DeleteSweet(ctx context.Context, id int64) (SweetRow, error) {
	row, err := scanSweet(s.DB.QueryRowContext(ctx, `DELETE FROM sweets WHERE id = $1 RETURNING `+sweetColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		return SweetRow{}, ErrSweetNotFound
	}
	return row, err
}

func (s *PostgresStore) querySweets(ctx context.Context, query string, args ...any) ([]SweetRow, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []SweetRow{}
	for rows.Next() {
		r, err := scanSweet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
