package models

import (
	"time"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

const (
	MinCookingTime  = 1
	MaxCookingTime  = 32000
	MinAmount       = 1
	MaxAmount       = 32000
	ShortLinkLength = 9
)

// Tag is a recipe label. Slug is derived from Name when left empty.
type Tag struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:32;uniqueIndex;not null"`
	Slug string `gorm:"size:32;uniqueIndex;not null"`
}

func (t *Tag) BeforeSave(tx *gorm.DB) error {
	if t.Slug == "" {
		t.Slug = slug.Make(t.Name)
	}
	return nil
}

// Ingredient is a reference product with its measurement unit.
type Ingredient struct {
	ID              uint   `gorm:"primaryKey"`
	Name            string `gorm:"size:128;uniqueIndex;not null"`
	MeasurementUnit string `gorm:"size:64;not null"`
}

type Recipe struct {
	ID          uint      `gorm:"primaryKey"`
	AuthorID    uint      `gorm:"not null;index"`
	Name        string    `gorm:"size:256;not null"`
	Text        string    `gorm:"type:text;not null"`
	Image       string    `gorm:"not null"`
	CookingTime int       `gorm:"not null"`
	ShortLink   string    `gorm:"size:9;uniqueIndex;not null"`
	PubDate     time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time

	Author      User               `gorm:"foreignKey:AuthorID"`
	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Tags        []RecipeTag        `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

// OwnerID returns the recipe author, used by object-level permissions.
func (r *Recipe) OwnerID() uint {
	return r.AuthorID
}

// RecipeIngredient is the amount of one ingredient used by one recipe.
type RecipeIngredient struct {
	ID           uint `gorm:"primaryKey"`
	RecipeID     uint `gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	IngredientID uint `gorm:"not null;uniqueIndex:idx_recipe_ingredient;index"`
	Amount       int  `gorm:"not null"`

	Recipe     Recipe     `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Ingredient Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE"`
}

type RecipeTag struct {
	ID       uint `gorm:"primaryKey"`
	RecipeID uint `gorm:"not null;uniqueIndex:idx_recipe_tag"`
	TagID    uint `gorm:"not null;uniqueIndex:idx_recipe_tag;index"`

	Recipe Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Tag    Tag    `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE"`
}

type FavoriteRecipe struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorite_user_recipe"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_favorite_user_recipe;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Recipe Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

type ShoppingCartEntry struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_recipe"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_cart_user_recipe;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Recipe Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

// AllModels lists every table in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Tag{},
		&Ingredient{},
		&Recipe{},
		&RecipeIngredient{},
		&RecipeTag{},
		&FavoriteRecipe{},
		&ShoppingCartEntry{},
		&Subscription{},
		&OAuthClient{},
		&OAuthToken{},
	}
}
