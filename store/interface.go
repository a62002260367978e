package store

import (
	"context"

	models "sweet-shop/model"
)

// SweetStore persists sweets and the purchase log.
type SweetStore interface {
	CreateSweet(ctx context.Context, in models.SweetInput) (SweetRow, error)
	ListSweets(ctx context.Context) ([]SweetRow, error)
	GetSweet(ctx context.Context, id int64) (SweetRow, error)
	SearchSweets(ctx context.Context, p models.SearchParams) ([]SweetRow, error)
	UpdateSweet(ctx context.Context, id int64, p models.SweetPatch) (SweetRow, error)
	DeleteSweet(ctx context.Context, id int64) (SweetRow, error)

	Purchase(ctx context.Context, userID, sweetID int64) (SweetRow, error)
	Restock(ctx context.Context, sweetID int64, qty int) (SweetRow, error)
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string, role models.Role) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

type Store interface {
	SweetStore
	UserStore

	Ping(ctx context.Context) error
	Close() error
}
