package dto

import (
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/jinzhu/copier"
)

// URLResolver turns a stored media path into a public URL.
type URLResolver interface {
	URLFor(rel string) string
}

type UserBase struct {
	ID        uint   `json:"id" example:"1"`
	Email     string `json:"email" example:"cook@example.com"`
	Username  string `json:"username" example:"cook"`
	FirstName string `json:"first_name" example:"Ada"`
	LastName  string `json:"last_name" example:"Lovelace"`
}

type UserResponse struct {
	UserBase
	IsSubscribed bool    `json:"is_subscribed"`
	Avatar       *string `json:"avatar"`
}

type SubscriptionResponse struct {
	UserResponse
	Recipes      []RecipeShort `json:"recipes"`
	RecipesCount int64         `json:"recipes_count"`
}

type TagResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type IngredientResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

type RecipeIngredientResponse struct {
	IngredientResponse
	Amount int `json:"amount"`
}

// RecipeShort is the compact recipe card used by favorites, cart and subscriptions.
type RecipeShort struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

type RecipeResponse struct {
	RecipeShort
	Tags             []TagResponse              `json:"tags"`
	Author           UserResponse               `json:"author"`
	Ingredients      []RecipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Text             string                     `json:"text"`
}

// Page is the paginated list envelope.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

type TokenResponse struct {
	AuthToken string `json:"auth_token"`
}

type ShortLinkResponse struct {
	ShortLink string `json:"short-link"`
}

type AvatarResponse struct {
	Avatar string `json:"avatar"`
}

type ClientResponse struct {
	ClientID   string `json:"client_id"`
	Name       string `json:"name"`
	Domain     string `json:"domain"`
	Scopes     string `json:"scopes"`
	GrantTypes string `json:"grant_types"`
}

// ClientCreatedResponse is returned once, the plain secret is not kept.
type ClientCreatedResponse struct {
	ClientResponse
	ClientSecret string `json:"client_secret"`
}

func NewUserResponse(u *models.User, subscribed bool, urls URLResolver) UserResponse {
	var resp UserResponse
	_ = copier.Copy(&resp.UserBase, u)
	resp.IsSubscribed = subscribed
	if u.Avatar != nil && *u.Avatar != "" {
		url := urls.URLFor(*u.Avatar)
		resp.Avatar = &url
	}
	return resp
}

func NewRecipeShort(r *models.Recipe, urls URLResolver) RecipeShort {
	var short RecipeShort
	_ = copier.Copy(&short, r)
	short.Image = urls.URLFor(r.Image)
	return short
}

func NewRecipeResponse(v *services.RecipeView, urls URLResolver) RecipeResponse {
	resp := RecipeResponse{
		RecipeShort:      NewRecipeShort(&v.Recipe, urls),
		Author:           NewUserResponse(&v.Author, v.AuthorSubscribed, urls),
		IsFavorited:      v.IsFavorited,
		IsInShoppingCart: v.IsInShoppingCart,
		Text:             v.Text,
		Tags:             make([]TagResponse, 0, len(v.Tags)),
		Ingredients:      make([]RecipeIngredientResponse, 0, len(v.Ingredients)),
	}
	for _, rt := range v.Tags {
		var tag TagResponse
		_ = copier.Copy(&tag, &rt.Tag)
		resp.Tags = append(resp.Tags, tag)
	}
	for _, ri := range v.Ingredients {
		item := RecipeIngredientResponse{Amount: ri.Amount}
		_ = copier.Copy(&item.IngredientResponse, &ri.Ingredient)
		resp.Ingredients = append(resp.Ingredients, item)
	}
	return resp
}

func NewSubscriptionResponse(card *services.AuthorCard, urls URLResolver) SubscriptionResponse {
	resp := SubscriptionResponse{
		UserResponse: NewUserResponse(&card.Author, card.Subscribed, urls),
		Recipes:      make([]RecipeShort, 0, len(card.Recipes)),
		RecipesCount: card.RecipesCount,
	}
	for i := range card.Recipes {
		resp.Recipes = append(resp.Recipes, NewRecipeShort(&card.Recipes[i], urls))
	}
	return resp
}

func NewTagResponse(t *models.Tag) TagResponse {
	var resp TagResponse
	_ = copier.Copy(&resp, t)
	return resp
}

func NewIngredientResponse(i *models.Ingredient) IngredientResponse {
	var resp IngredientResponse
	_ = copier.Copy(&resp, i)
	return resp
}

func NewClientResponse(c *models.OAuthClient) ClientResponse {
	return ClientResponse{
		ClientID:   c.ID,
		Name:       c.Name,
		Domain:     c.Domain,
		Scopes:     c.Scopes,
		GrantTypes: c.GrantTypes,
	}
}
