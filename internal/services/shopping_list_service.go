package services

import (
	"context"
	"fmt"
	"io"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"gorm.io/gorm"
)

// ShoppingItem is one consolidated line of a shopping list.
type ShoppingItem struct {
	Name  string
	Unit  string
	Total int64
}

type ShoppingListService interface {
	// Build sums ingredient amounts over the recipes authored by actor.
	Build(ctx context.Context, actor *models.Actor) ([]ShoppingItem, error)
	// Render writes one "name (unit) - total" line per item.
	Render(w io.Writer, items []ShoppingItem) error
}

type shoppingListService struct {
	db *gorm.DB
}

func NewShoppingListService(db *gorm.DB) ShoppingListService {
	return &shoppingListService{db: db}
}

func (s *shoppingListService) Build(ctx context.Context, actor *models.Actor) ([]ShoppingItem, error) {
	if actor == nil {
		return nil, ErrNotAuthenticated
	}

	var items []ShoppingItem
	err := s.db.WithContext(ctx).
		Table("recipe_ingredients").
		Select("ingredients.name AS name, ingredients.measurement_unit AS unit, SUM(recipe_ingredients.amount) AS total").
		Joins("JOIN recipes ON recipes.id = recipe_ingredients.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("recipes.author_id = ?", actor.UserID).
		Group("ingredients.name").Group("ingredients.measurement_unit").
		Order("ingredients.name").Order("ingredients.measurement_unit").
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("build shopping list: %w", err)
	}
	return items, nil
}

func (s *shoppingListService) Render(w io.Writer, items []ShoppingItem) error {
	for _, item := range items {
		if _, err := fmt.Fprintf(w, "%s (%s) - %d\n", item.Name, item.Unit, item.Total); err != nil {
			return err
		}
	}
	return nil
}
