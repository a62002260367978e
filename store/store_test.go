package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	models "sweet-shop/model"
)

var sweetCols = []string{"id", "name", "category", "price", "stock", "description", "created_at", "updated_at"}

func newMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &PostgresStore{DB: db}, mock
}

func sweetRows(stock int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(sweetCols).AddRow(int64(1), "Choc", "Chocolate", 2.99, stock, "dark", now, now)
}

func TestCreateSweet(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO sweets (name, category, price, stock, description) VALUES ($1, $2, $3, $4, $5) RETURNING ` + sweetColumns)).
		WithArgs("Choc", "Chocolate", 2.99, 2, "").
		WillReturnRows(sweetRows(2))

	row, err := s.CreateSweet(context.Background(), models.SweetInput{Name: "Choc", Category: "Chocolate", Price: 2.99, Stock: 2})
	if err != nil {
		t.Fatalf("CreateSweet failed: %v", err)
	}
	if row.ID != 1 || row.Stock != 2 || !row.Description.Valid {
		t.Fatalf("unexpected row: %+v", row)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetSweet_NotFound(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + sweetColumns + ` FROM sweets WHERE id = $1`)).
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)

	if _, err := s.GetSweet(context.Background(), 9); !errors.Is(err, ErrSweetNotFound) {
		t.Fatalf("expected ErrSweetNotFound, got %v", err)
	}
}

func TestListSweets_NullDescription(t *testing.T) {
	s, mock := newMock(t)

	now := time.Now()
	rows := sqlmock.NewRows(sweetCols).
		AddRow(int64(1), "A", "Candy", 1.0, 3, nil, now, now).
		AddRow(int64(2), "B", "Candy", 2.0, 0, "b", now, now)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + sweetColumns + ` FROM sweets ORDER BY id`)).WillReturnRows(rows)

	got, err := s.ListSweets(context.Background())
	if err != nil {
		t.Fatalf("ListSweets failed: %v", err)
	}
	if len(got) != 2 || got[0].Description.Valid || got[1].Description.String != "b" {
		t.Fatalf("unexpected rows: %+v", got)
	}
}

func TestSearchSweets_BuildsConjunctiveFilter(t *testing.T) {
	s, mock := newMock(t)

	lo, hi := 2.0, 10.0
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + sweetColumns + ` FROM sweets WHERE name LIKE $1 AND category = $2 AND price >= $3 AND price <= $4 ORDER BY id`)).
		WithArgs("%Cho%", "Chocolate", 2.0, 10.0).
		WillReturnRows(sweetRows(5))

	got, err := s.SearchSweets(context.Background(), models.SearchParams{Name: "Cho", Category: "Chocolate", MinPrice: &lo, MaxPrice: &hi})
	if err != nil {
		t.Fatalf("SearchSweets failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSearchSweets_NoFilters(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + sweetColumns + ` FROM sweets ORDER BY id`)).
		WillReturnRows(sqlmock.NewRows(sweetCols))

	got, err := s.SearchSweets(context.Background(), models.SearchParams{})
	if err != nil {
		t.Fatalf("SearchSweets failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestUpdateSweet_PartialAndEmpty(t *testing.T) {
	s, mock := newMock(t)

	price := 3.5
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE sweets SET price = $1, updated_at = NOW() WHERE id = $2 RETURNING ` + sweetColumns)).
		WithArgs(3.5, int64(1)).
		WillReturnRows(sweetRows(2))

	if _, err := s.UpdateSweet(context.Background(), 1, models.SweetPatch{Price: &price}); err != nil {
		t.Fatalf("UpdateSweet failed: %v", err)
	}

	// empty patch is a plain read
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + sweetColumns + ` FROM sweets WHERE id = $1`)).
		WithArgs(int64(1)).
		WillReturnRows(sweetRows(2))
	if _, err := s.UpdateSweet(context.Background(), 1, models.SweetPatch{}); err != nil {
		t.Fatalf("empty UpdateSweet failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateSweet_NotFound(t *testing.T) {
	s, mock := newMock(t)

	name := "New"
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE sweets SET name = $1, updated_at = NOW() WHERE id = $2 RETURNING ` + sweetColumns)).
		WithArgs("New", int64(4)).
		WillReturnError(sql.ErrNoRows)

	if _, err := s.UpdateSweet(context.Background(), 4, models.SweetPatch{Name: &name}); !errors.Is(err, ErrSweetNotFound) {
		t.Fatalf("expected ErrSweetNotFound, got %v", err)
	}
}

func TestDeleteSweet(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM sweets WHERE id = $1 RETURNING ` + sweetColumns)).
		WithArgs(int64(1)).
		WillReturnRows(sweetRows(2))
	mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM sweets WHERE id = $1 RETURNING ` + sweetColumns)).
		WithArgs(int64(1)).
		WillReturnError(sql.ErrNoRows)

	row, err := s.DeleteSweet(context.Background(), 1)
	if err != nil || row.Name != "Choc" {
		t.Fatalf("DeleteSweet failed: %+v %v", row, err)
	}
	if _, err := s.DeleteSweet(context.Background(), 1); !errors.Is(err, ErrSweetNotFound) {
		t.Fatalf("expected ErrSweetNotFound on second delete, got %v", err)
	}
}

const (
	purchaseUpdate = `UPDATE sweets SET stock = stock - 1, updated_at = NOW() WHERE id = $1 AND stock > 0 RETURNING ` + sweetColumns
	purchaseExists = `SELECT EXISTS (SELECT 1 FROM sweets WHERE id = $1)`
	purchaseInsert = `INSERT INTO purchases (user_id, sweet_id, quantity) VALUES ($1, $2, 1)`
)

func TestPurchase_Success(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(purchaseUpdate)).WithArgs(int64(1)).WillReturnRows(sweetRows(1))
	mock.ExpectExec(regexp.QuoteMeta(purchaseInsert)).WithArgs(int64(7), int64(1)).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	row, err := s.Purchase(context.Background(), 7, 1)
	if err != nil {
		t.Fatalf("Purchase failed: %v", err)
	}
	if row.Stock != 1 {
		t.Fatalf("expected post-decrement stock 1, got %d", row.Stock)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPurchase_OutOfStock(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(purchaseUpdate)).WithArgs(int64(1)).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(purchaseExists)).WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	// no purchase row is written
	mock.ExpectRollback()

	if _, err := s.Purchase(context.Background(), 7, 1); !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPurchase_NotFound(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(purchaseUpdate)).WithArgs(int64(99)).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(purchaseExists)).WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	if _, err := s.Purchase(context.Background(), 7, 99); !errors.Is(err, ErrSweetNotFound) {
		t.Fatalf("expected ErrSweetNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPurchase_InsertFailureRollsBack(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(purchaseUpdate)).WithArgs(int64(1)).WillReturnRows(sweetRows(0))
	mock.ExpectExec(regexp.QuoteMeta(purchaseInsert)).WithArgs(int64(7), int64(1)).WillReturnError(errors.New("db down"))
	mock.ExpectRollback()

	if _, err := s.Purchase(context.Background(), 7, 1); err == nil {
		t.Fatalf("expected insert error to propagate")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRestock(t *testing.T) {
	s, mock := newMock(t)

	// invalid qty -> error before any DB call
	if _, err := s.Restock(context.Background(), 1, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}

	restock := `UPDATE sweets SET stock = stock + $1, updated_at = NOW() WHERE id = $2 AND stock <= $3 - $1 RETURNING ` + sweetColumns
	exists := `SELECT EXISTS (SELECT 1 FROM sweets WHERE id = $1)`
	mock.ExpectQuery(regexp.QuoteMeta(restock)).WithArgs(5, int64(1), MaxStock).WillReturnRows(sweetRows(7))
	mock.ExpectQuery(regexp.QuoteMeta(restock)).WithArgs(5, int64(2), MaxStock).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(exists)).WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	row, err := s.Restock(context.Background(), 1, 5)
	if err != nil || row.Stock != 7 {
		t.Fatalf("Restock failed: %+v %v", row, err)
	}
	if _, err := s.Restock(context.Background(), 2, 5); !errors.Is(err, ErrSweetNotFound) {
		t.Fatalf("expected ErrSweetNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRestock_WouldOverflowStock(t *testing.T) {
	s, mock := newMock(t)

	if _, err := s.Restock(context.Background(), 1, MaxStock+1); !errors.Is(err, ErrStockOverflow) {
		t.Fatalf("expected ErrStockOverflow before any DB call, got %v", err)
	}

	restock := `UPDATE sweets SET stock = stock + $1, updated_at = NOW() WHERE id = $2 AND stock <= $3 - $1 RETURNING ` + sweetColumns
	exists := `SELECT EXISTS (SELECT 1 FROM sweets WHERE id = $1)`
	mock.ExpectQuery(regexp.QuoteMeta(restock)).WithArgs(MaxStock, int64(1), MaxStock).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(exists)).WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	if _, err := s.Restock(context.Background(), 1, MaxStock); !errors.Is(err, ErrStockOverflow) {
		t.Fatalf("expected ErrStockOverflow, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s, mock := newMock(t)

	insert := `INSERT INTO users (email, password, role) VALUES ($1, $2, $3) RETURNING id, created_at`
	mock.ExpectQuery(regexp.QuoteMeta(insert)).
		WithArgs("a@b.c", "hash", "USER").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(3), time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta(insert)).
		WithArgs("a@b.c", "hash", "USER").
		WillReturnError(&pq.Error{Code: "23505"})

	u, err := s.CreateUser(context.Background(), "a@b.c", "hash", models.RoleUser)
	if err != nil || u.ID != 3 || u.Role != models.RoleUser {
		t.Fatalf("CreateUser failed: %+v %v", u, err)
	}
	if _, err := s.CreateUser(context.Background(), "a@b.c", "hash", models.RoleUser); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	s, mock := newMock(t)

	q := `SELECT id, email, password, role, created_at FROM users WHERE email = $1`
	mock.ExpectQuery(regexp.QuoteMeta(q)).WithArgs("admin@x.io").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password", "role", "created_at"}).
			AddRow(int64(1), "admin@x.io", "hash", "ADMIN", time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta(q)).WithArgs("ghost@x.io").WillReturnError(sql.ErrNoRows)

	u, err := s.GetUserByEmail(context.Background(), "admin@x.io")
	if err != nil || u.Role != models.RoleAdmin || u.PasswordHash != "hash" {
		t.Fatalf("GetUserByEmail failed: %+v %v", u, err)
	}
	if _, err := s.GetUserByEmail(context.Background(), "ghost@x.io"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
