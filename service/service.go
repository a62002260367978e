package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"sweet-shop/apperror"
	"sweet-shop/cache"
	models "sweet-shop/model"
	"sweet-shop/store"
)

const (
	msgSweetNotFound   = "Sweet not found"
	msgOutOfStock      = "Sweet out of stock"
	msgInvalidQuantity = "Quantity must be positive"
	msgStockOverflow   = "Quantity exceeds stock capacity"
)

// Service is the inventory operation layer.
type Service struct {
	store  store.SweetStore
	cache  cache.SweetCache
	logger *slog.Logger
	tracer trace.Tracer
}

// NewService wires a Service. A nil cache disables caching and a nil logger
// falls back to slog.Default.
func NewService(s store.SweetStore, c cache.SweetCache, logger *slog.Logger) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  s,
		cache:  c,
		logger: logger.With("component", "sweets"),
		tracer: otel.Tracer("sweet-shop/service"),
	}
}

func (s *Service) Create(ctx context.Context, in models.SweetInput) (models.Sweet, error) {
	const op = "sweets.Create"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	row, err := s.store.CreateSweet(ctx, in)
	if err != nil {
		return models.Sweet{}, s.fail(span, op, err)
	}
	s.invalidate(ctx)
	s.logger.InfoContext(ctx, "sweet created", "sweet_id", row.ID, "name", row.Name)
	return toSweet(row), nil
}

// List returns every sweet, from the cache when it holds a copy. The
// generation is read before the store so a write that lands mid-query
// keeps this snapshot out of the cache.
func (s *Service) List(ctx context.Context) ([]models.Sweet, error) {
	const op = "sweets.List"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	cached, ok, err := s.cache.GetSweets(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "sweet cache read failed", "error", err)
	}
	if ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}

	gen, genErr := s.cache.Generation(ctx)
	if genErr != nil {
		s.logger.WarnContext(ctx, "sweet cache generation read failed", "error", genErr)
	}

	rows, err := s.store.ListSweets(ctx)
	if err != nil {
		return nil, s.fail(span, op, err)
	}
	out := toSweets(rows)
	if genErr == nil {
		if err := s.cache.SetSweets(ctx, gen, out); err != nil {
			s.logger.WarnContext(ctx, "sweet cache write failed", "error", err)
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (models.Sweet, error) {
	const op = "sweets.Get"
	ctx, span := s.tracer.Start(ctx, op, trace.WithAttributes(attribute.Int64("sweet.id", id)))
	defer span.End()

	row, err := s.store.GetSweet(ctx, id)
	if err != nil {
		return models.Sweet{}, s.fail(span, op, err)
	}
	return toSweet(row), nil
}

func (s *Service) Search(ctx context.Context, p models.SearchParams) ([]models.Sweet, error) {
	const op = "sweets.Search"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	rows, err := s.store.SearchSweets(ctx, p)
	if err != nil {
		return nil, s.fail(span, op, err)
	}
	return toSweets(rows), nil
}

// Update applies a partial change. An empty patch returns the stored sweet.
func (s *Service) Update(ctx context.Context, id int64, p models.SweetPatch) (models.Sweet, error) {
	const op = "sweets.Update"
	ctx, span := s.tracer.Start(ctx, op, trace.WithAttributes(attribute.Int64("sweet.id", id)))
	defer span.End()

	if p.Stock != nil && *p.Stock < 0 {
		return models.Sweet{}, apperror.Validation("stock", "Valid stock is required")
	}
	if p.Price != nil && *p.Price < 0 {
		return models.Sweet{}, apperror.Validation("price", "Valid price is required")
	}

	row, err := s.store.UpdateSweet(ctx, id, p)
	if err != nil {
		return models.Sweet{}, s.fail(span, op, err)
	}
	if !p.Empty() {
		s.invalidate(ctx)
	}
	return toSweet(row), nil
}

// Remove deletes a sweet and returns what it looked like.
func (s *Service) Remove(ctx context.Context, id int64) (models.Sweet, error) {
	const op = "sweets.Remove"
	ctx, span := s.tracer.Start(ctx, op, trace.WithAttributes(attribute.Int64("sweet.id", id)))
	defer span.End()

	row, err := s.store.DeleteSweet(ctx, id)
	if err != nil {
		return models.Sweet{}, s.fail(span, op, err)
	}
	s.invalidate(ctx)
	s.logger.InfoContext(ctx, "sweet deleted", "sweet_id", id)
	return toSweet(row), nil
}

// Purchase sells one unit of sweetID to userID.
func (s *Service) Purchase(ctx context.Context, userID, sweetID int64) (models.Sweet, error) {
	const op = "sweets.Purchase"
	ctx, span := s.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.Int64("sweet.id", sweetID),
		attribute.Int64("user.id", userID),
	))
	defer span.End()

	row, err := s.store.Purchase(ctx, userID, sweetID)
	if err != nil {
		return models.Sweet{}, s.fail(span, op, err)
	}
	s.invalidate(ctx)
	s.logger.InfoContext(ctx, "sweet purchased", "sweet_id", sweetID, "user_id", userID, "stock", row.Stock)
	return toSweet(row), nil
}

// Restock adds qty units. qty is checked here as well as at the edge.
func (s *Service) Restock(ctx context.Context, id int64, qty int) (models.Sweet, error) {
	const op = "sweets.Restock"
	ctx, span := s.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.Int64("sweet.id", id),
		attribute.Int("quantity", qty),
	))
	defer span.End()

	if qty <= 0 {
		return models.Sweet{}, apperror.Validation("quantity", msgInvalidQuantity)
	}
	row, err := s.store.Restock(ctx, id, qty)
	if err != nil {
		return models.Sweet{}, s.fail(span, op, err)
	}
	s.invalidate(ctx)
	s.logger.InfoContext(ctx, "sweet restocked", "sweet_id", id, "quantity", qty, "stock", row.Stock)
	return toSweet(row), nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "sweet cache invalidation failed", "error", err)
	}
}

// fail classifies a store error and records it on the span.
func (s *Service) fail(span trace.Span, op string, err error) error {
	var appErr *apperror.Error
	switch {
	case errors.Is(err, store.ErrSweetNotFound):
		appErr = apperror.NotFound(op, msgSweetNotFound, err)
	case errors.Is(err, store.ErrOutOfStock):
		appErr = apperror.Conflict(op, msgOutOfStock, err)
	case errors.Is(err, store.ErrInvalidQuantity):
		appErr = &apperror.Error{Kind: apperror.KindValidation, Op: op, Field: "quantity", Message: msgInvalidQuantity, Err: err}
	case errors.Is(err, store.ErrStockOverflow):
		appErr = &apperror.Error{Kind: apperror.KindValidation, Op: op, Field: "quantity", Message: msgStockOverflow, Err: err}
	default:
		appErr = apperror.Internal(op, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return appErr
}

func toSweet(r store.SweetRow) models.Sweet {
	sw := models.Sweet{
		ID:        r.ID,
		Name:      r.Name,
		Category:  r.Category,
		Price:     r.Price,
		Stock:     r.Stock,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Description.Valid {
		sw.Description = r.Description.String
	}
	return sw
}

func toSweets(rows []store.SweetRow) []models.Sweet {
	out := make([]models.Sweet, 0, len(rows))
	for _, r := range rows {
		out = append(out, toSweet(r))
	}
	return out
}
