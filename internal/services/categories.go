package services

import (
	"context"

	"dinero/internal/cache"
	"dinero/internal/core"
	"dinero/internal/events"
	"dinero/internal/storage"
)

// CategoryService manages categories and their auto-categorization keywords.
// Category names are unique per owner; default categories are seeded at
// registration and never deletable.
type CategoryService struct {
	store  *storage.Repository
	cache  cache.Store
	events *events.Client
}

func NewCategoryService(store *storage.Repository, cacheStore cache.Store, eventsClient *events.Client) *CategoryService {
	return &CategoryService{store: store, cache: cacheStore, events: eventsClient}
}

func (s *CategoryService) afterMutation(ctx context.Context, userID int64) {
	cache.InvalidateUser(s.cache, userID)
	publishEvent(ctx, s.events, userID, events.CategoryChanged)
}

// defaultCategories is the set seeded for every new user. Keywords feed the
// keyword matcher; "Otros" doubles as the no-match fallback and "Ahorros"
// receives savings transfers.
var defaultCategories = []core.Category{
	{Name: "Comida", Type: core.CategoryExpense, Icon: "utensils", Keywords: []string{"restaurante", "comida", "mercado", "supermercado", "cafe"}},
	{Name: "Transporte", Type: core.CategoryExpense, Icon: "bus", Keywords: []string{"taxi", "uber", "metro", "bus", "gasolina"}},
	{Name: "Hogar", Type: core.CategoryExpense, Icon: "home", Keywords: []string{"alquiler", "renta", "luz", "agua", "internet"}},
	{Name: "Ocio", Type: core.CategoryExpense, Icon: "film", Keywords: []string{"cine", "concierto", "juego", "viaje"}},
	{Name: core.SavingsCategoryName, Type: core.CategoryExpense, Icon: "piggy-bank", Keywords: nil},
	{Name: core.FallbackCategoryName, Type: core.CategoryExpense, Icon: "tag", Keywords: nil},
	{Name: "Salario", Type: core.CategoryIncome, Icon: "wallet", Keywords: []string{"salario", "nomina", "sueldo"}},
	{Name: "Ingresos extra", Type: core.CategoryIncome, Icon: "coins", Keywords: nil},
}

// SeedDefaults creates the default category set for a user. Safe to call
// again: existing names are skipped.
func (s *CategoryService) SeedDefaults(ctx context.Context, userID int64) error {
	existing, err := s.store.ListCategories(ctx, userID, "")
	if err != nil {
		return err
	}
	names := make(map[string]bool, len(existing))
	for _, c := range existing {
		names[c.Name] = true
	}

	for _, c := range defaultCategories {
		if names[c.Name] {
			continue
		}
		c.UserID = userID
		c.IsDefault = true
		if err := s.store.CreateCategory(ctx, &c); err != nil {
			return err
		}
	}
	return nil
}

type CreateCategoryRequest struct {
	UserID   int64
	Name     string
	Icon     string
	Color    string
	Type     core.CategoryType
	Keywords []string
}

type UpdateCategoryRequest struct {
	UserID   int64
	ID       int64
	Name     *string
	Icon     *string
	Color    *string
	Keywords *[]string
}

func (s *CategoryService) Create(ctx context.Context, req CreateCategoryRequest) (*core.Category, error) {
	category := &core.Category{
		UserID:   req.UserID,
		Name:     req.Name,
		Icon:     req.Icon,
		Color:    req.Color,
		Type:     req.Type,
		Keywords: req.Keywords,
	}
	if err := category.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	s.afterMutation(ctx, req.UserID)
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, req UpdateCategoryRequest) (*core.Category, error) {
	category, err := s.owned(ctx, req.UserID, req.ID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Icon != nil {
		category.Icon = *req.Icon
	}
	if req.Color != nil {
		category.Color = *req.Color
	}
	if req.Keywords != nil {
		category.Keywords = *req.Keywords
	}
	if err := category.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.UpdateCategory(ctx, category); err != nil {
		return nil, err
	}
	s.afterMutation(ctx, req.UserID)
	return category, nil
}

// Delete refuses default categories and categories still referenced by
// non-deleted transactions.
func (s *CategoryService) Delete(ctx context.Context, userID, id int64) error {
	category, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if category.IsDefault {
		return core.Validation(core.CodeDefaultCategoryDelete, "cannot delete a default category")
	}
	count, err := s.store.CountTransactionsByCategory(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return core.Validation(core.CodeCategoryHasTransactions,
			"category still has transactions").
			WithDetail("transactionCount", count)
	}

	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.afterMutation(ctx, userID)
	return nil
}

func (s *CategoryService) List(ctx context.Context, userID int64, typ core.CategoryType) ([]core.Category, error) {
	return s.store.ListCategories(ctx, userID, typ)
}

func (s *CategoryService) Get(ctx context.Context, userID, id int64) (*core.Category, error) {
	return s.owned(ctx, userID, id)
}

func (s *CategoryService) owned(ctx context.Context, userID, id int64) (*core.Category, error) {
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, core.Forbidden("category", id)
	}
	return c, nil
}
