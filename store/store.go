package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	models "sweet-shop/model"
)

var (
	ErrSweetNotFound = errors.New("sweet not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// SweetRow mirrors a row of the sweets table.
type SweetRow struct {
	ID          int64
	Name        string
	Category    string
	Price       float64
	Stock       int
	Description sql.NullString
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const sweetColumns = `id, name, category, price, stock, description, created_at, updated_at`

// PostgresStore is a Store backed by Postgres.
type PostgresStore struct {
	DB *sql.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{DB: db}, nil
}

// Migrate executes the schema script. The script must be idempotent.
func (s *PostgresStore) Migrate(ctx context.Context, schema string) error {
	_, err := s.DB.ExecContext(ctx, schema)
	return err
}

func (s *PostgresStore) Ping(ctx context.Context) error { return s.DB.PingContext(ctx) }

func (s *PostgresStore) Close() error { return s.DB.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSweet(r rowScanner) (SweetRow, error) {
	var row SweetRow
	err := r.Scan(&row.ID, &row.Name, &row.Category, &row.Price, &row.Stock,
		&row.Description, &row.CreatedAt, &row.UpdatedAt)
	return row, err
}

func (s *PostgresStore) CreateUser(ctx context.Context, email, passwordHash string, role models.Role) (models.User, error) {
	u := models.User{Email: email, PasswordHash: passwordHash, Role: role}
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO users (email, password, role) VALUES ($1, $2, $3) RETURNING id, created_at`,
		email, passwordHash, string(role),
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	return u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var (
		u    models.User
		role string
	)
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, email, password, role, created_at FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	u.Role = models.Role(role)
	return u, nil
}
