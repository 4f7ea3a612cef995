package services

import (
	"context"
	"errors"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const importBatchSize = 500

// IngredientService provides read access to reference ingredients
type IngredientService interface {
	// ListIngredients returns ingredients whose name starts with prefix, ignoring case
	ListIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error)
	GetIngredientByID(ctx context.Context, id uint) (*models.Ingredient, error)
	CreateIngredient(ctx context.Context, name, unit string) (*models.Ingredient, error)
	// ImportIngredients inserts the ingredients whose name is not taken yet
	// and reports how many rows were created.
	ImportIngredients(ctx context.Context, items []models.Ingredient) (int64, error)
}

type ingredientService struct {
	db *gorm.DB
}

func NewIngredientService(db *gorm.DB) IngredientService {
	return &ingredientService{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *ingredientService) ListIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	query := s.db.WithContext(ctx).Order("name")
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		pattern := likeEscaper.Replace(strings.ToLower(prefix)) + "%"
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, pattern)
	}

	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (s *ingredientService) GetIngredientByID(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := s.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		return nil, notFound(err, "ingredient not found")
	}
	return &ingredient, nil
}

func (s *ingredientService) CreateIngredient(ctx context.Context, name, unit string) (*models.Ingredient, error) {
	ingredient := &models.Ingredient{Name: strings.TrimSpace(name), MeasurementUnit: strings.TrimSpace(unit)}
	if err := s.db.WithContext(ctx).Create(ingredient).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fieldError("name", "Ingredient with this name already exists.")
		}
		return nil, err
	}
	log.WithField("ingredient_id", ingredient.ID).Info("Ingredient created")
	return ingredient, nil
}

func (s *ingredientService) ImportIngredients(ctx context.Context, items []models.Ingredient) (int64, error) {
	batch := make([]models.Ingredient, 0, len(items))
	for _, item := range items {
		item.ID = 0
		item.Name = strings.TrimSpace(item.Name)
		item.MeasurementUnit = strings.TrimSpace(item.MeasurementUnit)
		if item.Name == "" || item.MeasurementUnit == "" {
			continue
		}
		batch = append(batch, item)
	}
	if len(batch) == 0 {
		return 0, nil
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		CreateInBatches(&batch, importBatchSize)
	if result.Error != nil {
		return 0, result.Error
	}
	log.WithField("created", result.RowsAffected).WithField("rows", len(items)).Info("Ingredients imported")
	return result.RowsAffected, nil
}
