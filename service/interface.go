package service

import (
	"context"

	models "sweet-shop/model"
)

type ServiceInterface interface {
	Create(ctx context.Context, in models.SweetInput) (models.Sweet, error)
	List(ctx context.Context) ([]models.Sweet, error)
	Get(ctx context.Context, id int64) (models.Sweet, error)
	Search(ctx context.Context, p models.SearchParams) ([]models.Sweet, error)
	Update(ctx context.Context, id int64, p models.SweetPatch) (models.Sweet, error)
	Remove(ctx context.Context, id int64) (models.Sweet, error)
	Purchase(ctx context.Context, userID, sweetID int64) (models.Sweet, error)
	Restock(ctx context.Context, id int64, qty int) (models.Sweet, error)
}
