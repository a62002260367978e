package store

import (
	"context"
	"database/sql"
	"errors"
	"math"
)

// MaxStock is the largest stock the INTEGER column can hold.
const MaxStock = math.MaxInt32

var (
	// ErrOutOfStock is returned by Purchase when the sweet has no units left.
	ErrOutOfStock = errors.New("out of stock")
	// ErrInvalidQuantity is returned by Restock for quantities <= 0.
	ErrInvalidQuantity = errors.New("quantity must be > 0")
	// ErrStockOverflow is returned by Restock when the new stock would exceed MaxStock.
	ErrStockOverflow = errors.New("stock would exceed maximum")
)

// Purchase takes one unit of a sweet and records the sale for userID.
// The decrement is guarded by stock > 0 so concurrent buyers cannot drive
// stock below zero.
func (s *PostgresStore) Purchase(ctx context.Context, userID, sweetID int64) (SweetRow, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return SweetRow{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	row, err := scanSweet(tx.QueryRowContext(ctx,
		`UPDATE sweets SET stock = stock - 1, updated_at = NOW() WHERE id = $1 AND stock > 0 RETURNING `+sweetColumns,
		sweetID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return SweetRow{}, guardFailure(ctx, tx, sweetID, ErrOutOfStock)
	}
	if err != nil {
		return SweetRow{}, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO purchases (user_id, sweet_id, quantity) VALUES ($1, $2, 1)`, userID, sweetID,
	); err != nil {
		return SweetRow{}, err
	}

	if err := tx.Commit(); err != nil {
		return SweetRow{}, err
	}
	committed = true
	return row, nil
}

// Restock adds qty units to a sweet. The update is guarded so stock never
// exceeds MaxStock.
func (s *PostgresStore) Restock(ctx context.Context, sweetID int64, qty int) (SweetRow, error) {
	if qty <= 0 {
		return SweetRow{}, ErrInvalidQuantity
	}
	if qty > MaxStock {
		return SweetRow{}, ErrStockOverflow
	}
	row, err := scanSweet(s.DB.QueryRowContext(ctx,
		`UPDATE sweets SET stock = stock + $1, updated_at = NOW() WHERE id = $2 AND stock <= $3 - $1 RETURNING `+sweetColumns,
		qty, sweetID, MaxStock,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return SweetRow{}, guardFailure(ctx, s.DB, sweetID, ErrStockOverflow)
	}
	return row, err
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// guardFailure explains a guarded update that matched no rows: either the
// sweet is gone or the guard rejected it.
func guardFailure(ctx context.Context, q rowQuerier, sweetID int64, guardErr error) error {
	var exists bool
	if err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM sweets WHERE id = $1)`, sweetID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrSweetNotFound
	}
	return guardErr
}
