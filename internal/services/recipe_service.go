package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/permissions"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const maxShortLinkAttempts = 5

// IngredientAmount is one (ingredient, amount) pair of a recipe submission.
type IngredientAmount struct {
	IngredientID uint
	Amount       int
}

// RecipeInput carries a create or update submission. Nil fields are left
// unchanged on update; a nil Ingredients or Tags slice keeps the current set.
type RecipeInput struct {
	Name        *string
	Text        *string
	Image       *string
	CookingTime *int
	Ingredients []IngredientAmount
	Tags        []uint
}

// RecipeFilter narrows a recipe listing. Nil flags do not filter.
type RecipeFilter struct {
	AuthorID         *uint
	TagSlugs         []string
	IsFavorited      *bool
	IsInShoppingCart *bool
}

// RecipeView is a recipe annotated for the actor who asked for it.
type RecipeView struct {
	models.Recipe
	IsFavorited      bool
	IsInShoppingCart bool
	AuthorSubscribed bool
}

// RecipeService provides methods to manage recipes
type RecipeService interface {
	// ListRecipes returns one page of recipes matching filter
	ListRecipes(ctx context.Context, actor *models.Actor, filter RecipeFilter, page Page) ([]RecipeView, int64, error)
	// GetRecipe returns a recipe with its author, ingredients and tags
	GetRecipe(ctx context.Context, actor *models.Actor, id uint) (*RecipeView, error)
	// ResolveShortLink returns the id of the recipe behind a short link
	ResolveShortLink(ctx context.Context, code string) (uint, error)
	// CreateRecipe stores a recipe authored by actor together with its ingredients and tags
	CreateRecipe(ctx context.Context, actor *models.Actor, in RecipeInput) (*RecipeView, error)
	// UpdateRecipe changes a recipe; only its author or staff may do so
	UpdateRecipe(ctx context.Context, actor *models.Actor, id uint, in RecipeInput) (*RecipeView, error)
	// DeleteRecipe removes a recipe and every row that references it
	DeleteRecipe(ctx context.Context, actor *models.Actor, id uint) error
}

type recipeService struct {
	db           *gorm.DB
	newShortLink func() string
}

// NewRecipeService creates a new instance of RecipeService
func NewRecipeService(db *gorm.DB) RecipeService {
	return &recipeService{db: db, newShortLink: randomShortLink}
}

// randomShortLink returns ShortLinkLength lowercase hex characters.
func randomShortLink() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:models.ShortLinkLength]
}

func (s *recipeService) ListRecipes(ctx context.Context, actor *models.Actor, filter RecipeFilter, page Page) ([]RecipeView, int64, error) {
	page = page.Normalize()
	query := s.db.WithContext(ctx).Model(&models.Recipe{})

	if filter.AuthorID != nil {
		query = query.Where("recipes.author_id = ?", *filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		query = query.Where("recipes.id IN (?)", s.db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs))
	}
	// Relation filters only apply to an authenticated caller.
	if actor != nil {
		if filter.IsFavorited != nil {
			query = relationFilter(query, s.db, "favorite_recipes", actor.UserID, *filter.IsFavorited)
		}
		if filter.IsInShoppingCart != nil {
			query = relationFilter(query, s.db, "shopping_cart_entries", actor.UserID, *filter.IsInShoppingCart)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recipes []models.Recipe
	err := preloadRecipe(query).
		Order("recipes.name").Order("recipes.id").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}

	views, err := s.annotate(ctx, actor, recipes)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func relationFilter(query, db *gorm.DB, table string, userID uint, present bool) *gorm.DB {
	sub := db.Table(table).Select("recipe_id").Where("user_id = ?", userID)
	if present {
		return query.Where("recipes.id IN (?)", sub)
	}
	return query.Where("recipes.id NOT IN (?)", sub)
}

func preloadRecipe(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Author").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id") }).
		Preload("Ingredients.Ingredient").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_tags.tag_id") }).
		Preload("Tags.Tag")
}

// annotate fills the per-actor flags with one query per relation.
func (s *recipeService) annotate(ctx context.Context, actor *models.Actor, recipes []models.Recipe) ([]RecipeView, error) {
	views := make([]RecipeView, len(recipes))
	for i := range recipes {
		views[i].Recipe = recipes[i]
	}
	if actor == nil || len(recipes) == 0 {
		return views, nil
	}

	recipeIDs := make([]uint, len(recipes))
	authorIDs := make([]uint, len(recipes))
	for i, r := range recipes {
		recipeIDs[i] = r.ID
		authorIDs[i] = r.AuthorID
	}

	db := s.db.WithContext(ctx)
	favorited, err := idSet(db.Model(&models.FavoriteRecipe{}).
		Where("user_id = ? AND recipe_id IN ?", actor.UserID, recipeIDs), "recipe_id")
	if err != nil {
		return nil, err
	}
	inCart, err := idSet(db.Model(&models.ShoppingCartEntry{}).
		Where("user_id = ? AND recipe_id IN ?", actor.UserID, recipeIDs), "recipe_id")
	if err != nil {
		return nil, err
	}
	subscribed, err := idSet(db.Model(&models.Subscription{}).
		Where("subscriber_id = ? AND author_id IN ?", actor.UserID, authorIDs), "author_id")
	if err != nil {
		return nil, err
	}

	for i := range views {
		views[i].IsFavorited = favorited[views[i].ID]
		views[i].IsInShoppingCart = inCart[views[i].ID]
		views[i].AuthorSubscribed = subscribed[views[i].AuthorID]
	}
	return views, nil
}

func idSet(query *gorm.DB, column string) (map[uint]bool, error) {
	var ids []uint
	if err := query.Pluck(column, &ids).Error; err != nil {
		return nil, err
	}
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (s *recipeService) GetRecipe(ctx context.Context, actor *models.Actor, id uint) (*RecipeView, error) {
	recipe, err := s.load(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	views, err := s.annotate(ctx, actor, []models.Recipe{*recipe})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *recipeService) load(db *gorm.DB, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := preloadRecipe(db).First(&recipe, id).Error; err != nil {
		return nil, notFound(err, "recipe not found")
	}
	return &recipe, nil
}

func (s *recipeService) ResolveShortLink(ctx context.Context, code string) (uint, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).Select("id").Where("short_link = ?", strings.ToLower(code)).First(&recipe).Error
	if err != nil {
		return 0, notFound(err, "short link not found")
	}
	return recipe.ID, nil
}

func (s *recipeService) CreateRecipe(ctx context.Context, actor *models.Actor, in RecipeInput) (*RecipeView, error) {
	if err := permissions.RecipePolicy.CheckRequest(permissions.Request{Method: http.MethodPost, Actor: actor}); err != nil {
		return nil, err
	}
	if err := validateRecipeInput(in, true); err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		AuthorID:    actor.UserID,
		Name:        strings.TrimSpace(*in.Name),
		Text:        *in.Text,
		Image:       *in.Image,
		CookingTime: *in.CookingTime,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(tx, in); err != nil {
			return err
		}
		if err := s.insertWithShortLink(tx, recipe); err != nil {
			return err
		}
		if err := replaceTags(tx, recipe.ID, in.Tags); err != nil {
			return err
		}
		return replaceIngredients(tx, recipe.ID, in.Ingredients)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"recipe_id":  recipe.ID,
		"author_id":  recipe.AuthorID,
		"short_link": recipe.ShortLink,
	}).Info("Recipe created")
	return s.GetRecipe(ctx, actor, recipe.ID)
}

// insertWithShortLink inserts recipe, drawing a new short link whenever the
// previous one collides. Each attempt runs in a savepoint so a collision does
// not poison the surrounding transaction.
func (s *recipeService) insertWithShortLink(tx *gorm.DB, recipe *models.Recipe) error {
	preset := recipe.ShortLink != ""
	for attempt := 1; attempt <= maxShortLinkAttempts; attempt++ {
		if !preset || attempt > 1 {
			recipe.ShortLink = s.newShortLink()
		}
		err := tx.Transaction(func(sp *gorm.DB) error {
			return sp.Create(recipe).Error
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		recipe.ID = 0
		log.WithFields(logrus.Fields{
			"attempt":    attempt,
			"short_link": recipe.ShortLink,
		}).Warn("Short link collision, retrying")
	}
	return ErrShortLinkExhausted
}

func (s *recipeService) UpdateRecipe(ctx context.Context, actor *models.Actor, id uint, in RecipeInput) (*RecipeView, error) {
	recipe, err := s.authorize(ctx, actor, http.MethodPatch, id)
	if err != nil {
		return nil, err
	}
	if err := validateRecipeInput(in, false); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Text != nil {
		updates["text"] = *in.Text
	}
	if in.Image != nil {
		updates["image"] = *in.Image
	}
	if in.CookingTime != nil {
		updates["cooking_time"] = *in.CookingTime
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(tx, in); err != nil {
			return err
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.Recipe{ID: recipe.ID}).Updates(updates).Error; err != nil {
				return err
			}
		}
		if in.Tags != nil {
			if err := replaceTags(tx, recipe.ID, in.Tags); err != nil {
				return err
			}
		}
		if in.Ingredients != nil {
			if err := replaceIngredients(tx, recipe.ID, in.Ingredients); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{"recipe_id": recipe.ID, "actor_id": actor.UserID}).Info("Recipe updated")
	return s.GetRecipe(ctx, actor, recipe.ID)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, actor *models.Actor, id uint) error {
	recipe, err := s.authorize(ctx, actor, http.MethodDelete, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&models.Recipe{}, recipe.ID).Error; err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"recipe_id": recipe.ID, "actor_id": actor.UserID}).Info("Recipe deleted")
	return nil
}

// authorize loads the recipe and runs the object-level policy for method.
func (s *recipeService) authorize(ctx context.Context, actor *models.Actor, method string, id uint) (*models.Recipe, error) {
	req := permissions.Request{Method: method, Actor: actor}
	if err := permissions.RecipePolicy.CheckRequest(req); err != nil {
		return nil, err
	}
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		return nil, notFound(err, "recipe not found")
	}
	if err := permissions.RecipePolicy.CheckObject(req, &recipe); err != nil {
		return nil, err
	}
	return &recipe, nil
}

// validateRecipeInput checks field bounds and duplicate references. On create
// every field is required.
func validateRecipeInput(in RecipeInput, create bool) error {
	verr := &ValidationError{}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			verr.Add("name", "This field may not be blank.")
		} else if len([]rune(name)) > 256 {
			verr.Add("name", "Ensure this field has no more than 256 characters.")
		}
	} else if create {
		verr.Add("name", "This field is required.")
	}

	if in.Text != nil {
		if strings.TrimSpace(*in.Text) == "" {
			verr.Add("text", "This field may not be blank.")
		}
	} else if create {
		verr.Add("text", "This field is required.")
	}

	if in.Image != nil {
		if *in.Image == "" {
			verr.Add("image", "This field may not be blank.")
		}
	} else if create {
		verr.Add("image", "This field is required.")
	}

	if in.CookingTime != nil {
		if *in.CookingTime < models.MinCookingTime || *in.CookingTime > models.MaxCookingTime {
			verr.Add("cooking_time", fmt.Sprintf("Ensure this value is between %d and %d.", models.MinCookingTime, models.MaxCookingTime))
		}
	} else if create {
		verr.Add("cooking_time", "This field is required.")
	}

	if in.Tags != nil || create {
		if len(in.Tags) == 0 {
			verr.Add("tags", "At least one tag is required.")
		} else if hasDuplicates(in.Tags) {
			verr.Add("tags", "Tags must not repeat.")
		}
	}

	if in.Ingredients != nil || create {
		if len(in.Ingredients) == 0 {
			verr.Add("ingredients", "At least one ingredient is required.")
		} else {
			ids := make([]uint, len(in.Ingredients))
			for i, ia := range in.Ingredients {
				ids[i] = ia.IngredientID
				if ia.Amount < models.MinAmount || ia.Amount > models.MaxAmount {
					verr.Add("ingredients", fmt.Sprintf("Amount for ingredient %d must be between %d and %d.",
						ia.IngredientID, models.MinAmount, models.MaxAmount))
				}
			}
			if hasDuplicates(ids) {
				verr.Add("ingredients", "Ingredients must not repeat.")
			}
		}
	}

	return verr.Err()
}

// hasDuplicates compares the input length against its deduplicated set.
func hasDuplicates(ids []uint) bool {
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return len(seen) != len(ids)
}

// checkReferences verifies every referenced tag and ingredient exists.
func checkReferences(tx *gorm.DB, in RecipeInput) error {
	verr := &ValidationError{}

	if len(in.Tags) > 0 {
		missing, err := missingIDs(tx, &models.Tag{}, in.Tags)
		if err != nil {
			return err
		}
		for _, id := range missing {
			verr.Add("tags", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
		}
	}

	if len(in.Ingredients) > 0 {
		ids := make([]uint, len(in.Ingredients))
		for i, ia := range in.Ingredients {
			ids[i] = ia.IngredientID
		}
		missing, err := missingIDs(tx, &models.Ingredient{}, ids)
		if err != nil {
			return err
		}
		for _, id := range missing {
			verr.Add("ingredients", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
		}
	}

	return verr.Err()
}

func missingIDs(tx *gorm.DB, model interface{}, ids []uint) ([]uint, error) {
	found, err := idSet(tx.Model(model).Where("id IN ?", ids), "id")
	if err != nil {
		return nil, err
	}
	var missing []uint
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// replaceTags swaps the recipe's tag set for tagIDs.
func replaceTags(tx *gorm.DB, recipeID uint, tagIDs []uint) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeTag{}).Error; err != nil {
		return err
	}
	rows := make([]models.RecipeTag, len(tagIDs))
	for i, id := range tagIDs {
		rows[i] = models.RecipeTag{RecipeID: recipeID, TagID: id}
	}
	return createBatch(tx, "tags", &rows, len(rows))
}

// replaceIngredients swaps the recipe's ingredient rows for items.
func replaceIngredients(tx *gorm.DB, recipeID uint, items []IngredientAmount) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return err
	}
	rows := make([]models.RecipeIngredient, len(items))
	for i, item := range items {
		rows[i] = models.RecipeIngredient{RecipeID: recipeID, IngredientID: item.IngredientID, Amount: item.Amount}
	}
	return createBatch(tx, "ingredients", &rows, len(rows))
}

// createBatch inserts junction rows, reporting a unique violation against field.
func createBatch(tx *gorm.DB, field string, rows interface{}, n int) error {
	if n == 0 {
		return nil
	}
	if err := tx.Omit("Recipe", "Ingredient", "Tag").Create(rows).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fieldError(field, "Duplicate entries are not allowed.")
		}
		return err
	}
	return nil
}
