package services

import (
	"context"
	"errors"

	"github.com/franciscosanchezn/gin-recipe-api/internal/metrics"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RecipeRelation is a user -> recipe link such as a favorite or a cart entry.
type RecipeRelation interface {
	Add(ctx context.Context, actor *models.Actor, recipeID uint) (*models.Recipe, error)
	Remove(ctx context.Context, actor *models.Actor, recipeID uint) error
	Exists(ctx context.Context, actor *models.Actor, recipeID uint) (bool, error)
}

// AuthorCard is a followed author with a preview of their recipes.
type AuthorCard struct {
	Author       models.User
	Recipes      []models.Recipe
	RecipesCount int64
	Subscribed   bool
}

// SubscriptionRelation is the subscriber -> author link.
type SubscriptionRelation interface {
	Add(ctx context.Context, actor *models.Actor, authorID uint, recipesLimit int) (*AuthorCard, error)
	Remove(ctx context.Context, actor *models.Actor, authorID uint) error
	Exists(ctx context.Context, actor *models.Actor, authorID uint) (bool, error)
	// List returns the authors actor follows, newest subscription first.
	List(ctx context.Context, actor *models.Actor, page Page, recipesLimit int) ([]AuthorCard, int64, error)
	// SubscribedTo reports which of authorIDs actor follows.
	SubscribedTo(ctx context.Context, actor *models.Actor, authorIDs []uint) (map[uint]bool, error)
}

// RelationService groups the relationship guards.
type RelationService interface {
	Favorites() RecipeRelation
	Cart() RecipeRelation
	Subscriptions() SubscriptionRelation
}

type relationService struct {
	favorites     RecipeRelation
	cart          RecipeRelation
	subscriptions SubscriptionRelation
}

func NewRelationService(db *gorm.DB) RelationService {
	return &relationService{
		favorites: &recipeRelation[models.FavoriteRecipe]{
			db:   db,
			kind: "favorite",
			build: func(userID, recipeID uint) *models.FavoriteRecipe {
				return &models.FavoriteRecipe{UserID: userID, RecipeID: recipeID}
			},
		},
		cart: &recipeRelation[models.ShoppingCartEntry]{
			db:   db,
			kind: "cart",
			build: func(userID, recipeID uint) *models.ShoppingCartEntry {
				return &models.ShoppingCartEntry{UserID: userID, RecipeID: recipeID}
			},
		},
		subscriptions: &subscriptionRelation{db: db},
	}
}

func (s *relationService) Favorites() RecipeRelation           { return s.favorites }
func (s *relationService) Cart() RecipeRelation                { return s.cart }
func (s *relationService) Subscriptions() SubscriptionRelation { return s.subscriptions }

type recipeRelation[T any] struct {
	db    *gorm.DB
	kind  string
	build func(userID, recipeID uint) *T
}

func (r *recipeRelation[T]) Add(ctx context.Context, actor *models.Actor, recipeID uint) (*models.Recipe, error) {
	if actor == nil {
		return nil, ErrNotAuthenticated
	}
	db := r.db.WithContext(ctx)

	var recipe models.Recipe
	if err := db.First(&recipe, recipeID).Error; err != nil {
		return nil, notFound(err, "recipe not found")
	}

	exists, err := r.exists(db, actor.UserID, recipeID)
	if err != nil {
		return nil, err
	}
	if exists {
		metrics.RecordRelationMutation(r.kind, "add", "duplicate")
		return nil, newError(ErrDuplicate, "recipe is already in "+r.label())
	}

	if err := db.Create(r.build(actor.UserID, recipeID)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			metrics.RecordRelationMutation(r.kind, "add", "duplicate")
			return nil, newError(ErrDuplicate, "recipe is already in "+r.label())
		}
		return nil, err
	}

	metrics.RecordRelationMutation(r.kind, "add", "ok")
	log.WithFields(logrus.Fields{"kind": r.kind, "user_id": actor.UserID, "recipe_id": recipeID}).Info("Relation added")
	return &recipe, nil
}

func (r *recipeRelation[T]) Remove(ctx context.Context, actor *models.Actor, recipeID uint) error {
	if actor == nil {
		return ErrNotAuthenticated
	}
	db := r.db.WithContext(ctx)

	var recipe models.Recipe
	if err := db.Select("id").First(&recipe, recipeID).Error; err != nil {
		return notFound(err, "recipe not found")
	}

	result := db.Where("user_id = ? AND recipe_id = ?", actor.UserID, recipeID).Delete(new(T))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		metrics.RecordRelationMutation(r.kind, "remove", "absent")
		return newError(ErrRelationNotFound, "recipe is not in "+r.label())
	}

	metrics.RecordRelationMutation(r.kind, "remove", "ok")
	log.WithFields(logrus.Fields{"kind": r.kind, "user_id": actor.UserID, "recipe_id": recipeID}).Info("Relation removed")
	return nil
}

func (r *recipeRelation[T]) Exists(ctx context.Context, actor *models.Actor, recipeID uint) (bool, error) {
	if actor == nil {
		return false, nil
	}
	return r.exists(r.db.WithContext(ctx), actor.UserID, recipeID)
}

func (r *recipeRelation[T]) exists(db *gorm.DB, userID, recipeID uint) (bool, error) {
	var count int64
	err := db.Model(new(T)).Where("user_id = ? AND recipe_id = ?", userID, recipeID).Count(&count).Error
	return count > 0, err
}

func (r *recipeRelation[T]) label() string {
	if r.kind == "cart" {
		return "shopping cart"
	}
	return "favorites"
}

type subscriptionRelation struct {
	db *gorm.DB
}

func (r *subscriptionRelation) Add(ctx context.Context, actor *models.Actor, authorID uint, recipesLimit int) (*AuthorCard, error) {
	if actor == nil {
		return nil, ErrNotAuthenticated
	}
	db := r.db.WithContext(ctx)

	var author models.User
	if err := db.First(&author, authorID).Error; err != nil {
		return nil, notFound(err, "user not found")
	}
	if author.ID == actor.UserID {
		metrics.RecordRelationMutation("subscription", "add", "self")
		return nil, newError(ErrSelfReference, "you cannot subscribe to yourself")
	}

	exists, err := r.exists(db, actor.UserID, authorID)
	if err != nil {
		return nil, err
	}
	if exists {
		metrics.RecordRelationMutation("subscription", "add", "duplicate")
		return nil, newError(ErrDuplicate, "already subscribed to this author")
	}

	sub := &models.Subscription{SubscriberID: actor.UserID, AuthorID: authorID}
	if err := db.Omit("Subscriber", "Author").Create(sub).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			metrics.RecordRelationMutation("subscription", "add", "duplicate")
			return nil, newError(ErrDuplicate, "already subscribed to this author")
		}
		return nil, err
	}

	metrics.RecordRelationMutation("subscription", "add", "ok")
	log.WithFields(logrus.Fields{"subscriber_id": actor.UserID, "author_id": authorID}).Info("Subscription added")

	card, err := r.card(db, author, recipesLimit)
	if err != nil {
		return nil, err
	}
	card.Subscribed = true
	return card, nil
}

func (r *subscriptionRelation) Remove(ctx context.Context, actor *models.Actor, authorID uint) error {
	if actor == nil {
		return ErrNotAuthenticated
	}
	db := r.db.WithContext(ctx)

	var author models.User
	if err := db.Select("id").First(&author, authorID).Error; err != nil {
		return notFound(err, "user not found")
	}

	result := db.Where("subscriber_id = ? AND author_id = ?", actor.UserID, authorID).Delete(&models.Subscription{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		metrics.RecordRelationMutation("subscription", "remove", "absent")
		return newError(ErrRelationNotFound, "you are not subscribed to this author")
	}

	metrics.RecordRelationMutation("subscription", "remove", "ok")
	log.WithFields(logrus.Fields{"subscriber_id": actor.UserID, "author_id": authorID}).Info("Subscription removed")
	return nil
}

func (r *subscriptionRelation) Exists(ctx context.Context, actor *models.Actor, authorID uint) (bool, error) {
	if actor == nil {
		return false, nil
	}
	return r.exists(r.db.WithContext(ctx), actor.UserID, authorID)
}

func (r *subscriptionRelation) exists(db *gorm.DB, subscriberID, authorID uint) (bool, error) {
	var count int64
	err := db.Model(&models.Subscription{}).
		Where("subscriber_id = ? AND author_id = ?", subscriberID, authorID).
		Count(&count).Error
	return count > 0, err
}

func (r *subscriptionRelation) List(ctx context.Context, actor *models.Actor, page Page, recipesLimit int) ([]AuthorCard, int64, error) {
	if actor == nil {
		return nil, 0, ErrNotAuthenticated
	}
	page = page.Normalize()
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Subscription{}).Where("subscriber_id = ?", actor.UserID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var subs []models.Subscription
	err := db.Preload("Author").
		Where("subscriber_id = ?", actor.UserID).
		Order("created_at DESC").Order("id DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&subs).Error
	if err != nil {
		return nil, 0, err
	}

	cards := make([]AuthorCard, 0, len(subs))
	for _, sub := range subs {
		card, err := r.card(db, sub.Author, recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		card.Subscribed = true
		cards = append(cards, *card)
	}
	return cards, total, nil
}

func (r *subscriptionRelation) SubscribedTo(ctx context.Context, actor *models.Actor, authorIDs []uint) (map[uint]bool, error) {
	if actor == nil || len(authorIDs) == 0 {
		return map[uint]bool{}, nil
	}
	return idSet(r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("subscriber_id = ? AND author_id IN ?", actor.UserID, authorIDs), "author_id")
}

// card loads the author's newest recipes, at most recipesLimit when positive.
func (r *subscriptionRelation) card(db *gorm.DB, author models.User, recipesLimit int) (*AuthorCard, error) {
	card := &AuthorCard{Author: author}
	if err := db.Model(&models.Recipe{}).Where("author_id = ?", author.ID).Count(&card.RecipesCount).Error; err != nil {
		return nil, err
	}

	query := db.Where("author_id = ?", author.ID).Order("pub_date DESC").Order("id DESC")
	if recipesLimit > 0 {
		query = query.Limit(recipesLimit)
	}
	if err := query.Find(&card.Recipes).Error; err != nil {
		return nil, err
	}
	return card, nil
}
