package dto

import (
	"encoding/json"
	"testing"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type prefixURLs string

func (p prefixURLs) URLFor(rel string) string { return string(p) + rel }

func newValidator(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	v.SetTagName("binding")
	UseJSONFieldNames(v)
	require.NoError(t, RegisterValidations(v))
	return v
}

func TestRegisterUserRequestValidation(t *testing.T) {
	v := newValidator(t)

	valid := RegisterUserRequest{
		Email:     "cook@example.com",
		Username:  "cook.42",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Password:  "long-enough",
	}
	assert.NoError(t, v.Struct(valid))

	invalid := valid
	invalid.Username = "me"
	invalid.Email = "not-an-email"

	err := v.Struct(invalid)
	require.Error(t, err)
	fields := FieldErrors(err.(validator.ValidationErrors))
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "email")
}

func TestAvatarRequestValidation(t *testing.T) {
	v := newValidator(t)

	assert.NoError(t, v.Struct(AvatarRequest{Avatar: "data:image/png;base64,aGVsbG8="}))

	err := v.Struct(AvatarRequest{Avatar: "http://example.com/a.png"})
	require.Error(t, err)
	fields := FieldErrors(err.(validator.ValidationErrors))
	assert.Equal(t, []string{messages["base64image"]}, fields["avatar"])
}

func TestTagCreateRequestSlug(t *testing.T) {
	v := newValidator(t)

	assert.NoError(t, v.Struct(TagCreateRequest{Name: "Breakfast"}))
	assert.NoError(t, v.Struct(TagCreateRequest{Name: "Breakfast", Slug: "break_fast-1"}))
	assert.Error(t, v.Struct(TagCreateRequest{Name: "Breakfast", Slug: "break fast"}))
}

func TestRecipeWriteRequestInput(t *testing.T) {
	name := "Pancakes"
	req := RecipeWriteRequest{
		Ingredients: []IngredientAmount{{ID: 3, Amount: 200}, {ID: 5, Amount: 2}},
		Tags:        []uint{1, 2},
		Name:        &name,
	}
	image := "recipes/x.png"

	in := req.Input(&image)
	assert.Equal(t, &name, in.Name)
	assert.Equal(t, &image, in.Image)
	assert.Nil(t, in.Text)
	assert.Equal(t, []uint{1, 2}, in.Tags)
	assert.Equal(t, []services.IngredientAmount{{IngredientID: 3, Amount: 200}, {IngredientID: 5, Amount: 2}}, in.Ingredients)

	assert.Nil(t, RecipeWriteRequest{}.Input(nil).Ingredients)
}

func TestNewRecipeResponse(t *testing.T) {
	avatar := "avatars/a.png"
	view := &services.RecipeView{
		Recipe: models.Recipe{
			ID:          7,
			Name:        "Omelette",
			Text:        "Beat and fry.",
			Image:       "recipes/o.png",
			CookingTime: 10,
			Author:      models.User{ID: 2, Email: "chef@example.com", Username: "chef", Avatar: &avatar},
			Tags:        []models.RecipeTag{{Tag: models.Tag{ID: 1, Name: "Breakfast", Slug: "breakfast"}}},
			Ingredients: []models.RecipeIngredient{
				{Amount: 3, Ingredient: models.Ingredient{ID: 4, Name: "egg", MeasurementUnit: "pcs"}},
			},
		},
		IsFavorited:      true,
		AuthorSubscribed: true,
	}

	resp := NewRecipeResponse(view, prefixURLs("/media/"))

	assert.Equal(t, uint(7), resp.ID)
	assert.Equal(t, "/media/recipes/o.png", resp.Image)
	assert.Equal(t, "chef", resp.Author.Username)
	assert.True(t, resp.Author.IsSubscribed)
	require.NotNil(t, resp.Author.Avatar)
	assert.Equal(t, "/media/avatars/a.png", *resp.Author.Avatar)
	assert.Equal(t, []TagResponse{{ID: 1, Name: "Breakfast", Slug: "breakfast"}}, resp.Tags)
	require.Len(t, resp.Ingredients, 1)
	assert.Equal(t, "egg", resp.Ingredients[0].Name)
	assert.Equal(t, 3, resp.Ingredients[0].Amount)
	assert.True(t, resp.IsFavorited)
	assert.False(t, resp.IsInShoppingCart)

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	var flat map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &flat))
	for _, key := range []string{"id", "name", "image", "cooking_time", "tags", "author", "ingredients", "is_favorited", "is_in_shopping_cart", "text"} {
		assert.Contains(t, flat, key)
	}
}

func TestNewSubscriptionResponse(t *testing.T) {
	card := &services.AuthorCard{
		Author:       models.User{ID: 3, Username: "baker"},
		Recipes:      []models.Recipe{{ID: 1, Name: "Bread", Image: "recipes/b.png", CookingTime: 90}},
		RecipesCount: 4,
		Subscribed:   true,
	}

	resp := NewSubscriptionResponse(card, prefixURLs("/media/"))

	assert.Equal(t, "baker", resp.Username)
	assert.True(t, resp.IsSubscribed)
	assert.Nil(t, resp.Avatar)
	assert.Equal(t, int64(4), resp.RecipesCount)
	assert.Equal(t, []RecipeShort{{ID: 1, Name: "Bread", Image: "/media/recipes/b.png", CookingTime: 90}}, resp.Recipes)
}
