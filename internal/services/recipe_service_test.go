package services

import (
	"context"
	"regexp"
	"testing"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recipeFixture struct {
	db          *gorm.DB
	svc         RecipeService
	author      *models.User
	other       *models.User
	staff       *models.User
	tags        []*models.Tag
	ingredients []*models.Ingredient
}

func newRecipeFixture(t *testing.T) *recipeFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return &recipeFixture{
		db:     db,
		svc:    NewRecipeService(db),
		author: testutil.CreateUser(t, db, "author", false),
		other:  testutil.CreateUser(t, db, "other", false),
		staff:  testutil.CreateUser(t, db, "staff", true),
		tags: []*models.Tag{
			testutil.CreateTag(t, db, "Breakfast"),
			testutil.CreateTag(t, db, "Lunch"),
			testutil.CreateTag(t, db, "Dinner"),
		},
		ingredients: []*models.Ingredient{
			testutil.CreateIngredient(t, db, "flour", "g"),
			testutil.CreateIngredient(t, db, "milk", "ml"),
			testutil.CreateIngredient(t, db, "egg", "pcs"),
		},
	}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func (f *recipeFixture) input(name string) RecipeInput {
	return RecipeInput{
		Name:        strPtr(name),
		Text:        strPtr("Mix and cook."),
		Image:       strPtr("recipes/test.png"),
		CookingTime: intPtr(15),
		Ingredients: []IngredientAmount{
			{IngredientID: f.ingredients[0].ID, Amount: 200},
			{IngredientID: f.ingredients[1].ID, Amount: 300},
		},
		Tags: []uint{f.tags[0].ID, f.tags[1].ID},
	}
}

func (f *recipeFixture) create(t *testing.T, user *models.User, name string) *RecipeView {
	t.Helper()
	view, err := f.svc.CreateRecipe(context.Background(), models.NewActor(user), f.input(name))
	require.NoError(t, err)
	return view
}

func count(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func TestCreateRecipeStoresJunctionRows(t *testing.T) {
	f := newRecipeFixture(t)

	view := f.create(t, f.author, "Pancakes")

	assert.Equal(t, f.author.ID, view.AuthorID)
	assert.Equal(t, "author", view.Author.Username)
	assert.Len(t, view.Ingredients, 2)
	assert.Len(t, view.Tags, 2)
	assert.Equal(t, "flour", view.Ingredients[0].Ingredient.Name)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{9}$`), view.ShortLink)

	assert.Equal(t, int64(2), count(t, f.db, &models.RecipeIngredient{}, "recipe_id = ?", view.ID))
	assert.Equal(t, int64(2), count(t, f.db, &models.RecipeTag{}, "recipe_id = ?", view.ID))
}

func TestCreateRecipeRequiresActor(t *testing.T) {
	f := newRecipeFixture(t)

	_, err := f.svc.CreateRecipe(context.Background(), nil, f.input("Anonymous"))
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Zero(t, count(t, f.db, &models.Recipe{}, ""))
}

func TestCreateRecipeValidation(t *testing.T) {
	f := newRecipeFixture(t)
	actor := models.NewActor(f.author)

	tests := []struct {
		name   string
		mutate func(in *RecipeInput)
		field  string
	}{
		{"missing name", func(in *RecipeInput) { in.Name = nil }, "name"},
		{"blank text", func(in *RecipeInput) { in.Text = strPtr("  ") }, "text"},
		{"cooking time too small", func(in *RecipeInput) { in.CookingTime = intPtr(0) }, "cooking_time"},
		{"cooking time too large", func(in *RecipeInput) { in.CookingTime = intPtr(32001) }, "cooking_time"},
		{"no tags", func(in *RecipeInput) { in.Tags = nil }, "tags"},
		{"duplicate tags", func(in *RecipeInput) { in.Tags = []uint{f.tags[0].ID, f.tags[0].ID} }, "tags"},
		{"unknown tag", func(in *RecipeInput) { in.Tags = []uint{9999} }, "tags"},
		{"no ingredients", func(in *RecipeInput) { in.Ingredients = []IngredientAmount{} }, "ingredients"},
		{"zero amount", func(in *RecipeInput) { in.Ingredients[0].Amount = 0 }, "ingredients"},
		{"duplicate ingredients", func(in *RecipeInput) {
			in.Ingredients[1].IngredientID = in.Ingredients[0].IngredientID
		}, "ingredients"},
		{"unknown ingredient", func(in *RecipeInput) { in.Ingredients[0].IngredientID = 9999 }, "ingredients"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.input("Invalid")
			tt.mutate(&in)

			_, err := f.svc.CreateRecipe(context.Background(), actor, in)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
			assert.Zero(t, count(t, f.db, &models.Recipe{}, ""))
		})
	}
}

func TestShortLinkRetriesOnCollision(t *testing.T) {
	f := newRecipeFixture(t)
	svc := f.svc.(*recipeService)

	codes := []string{"aaaaaaaaa", "aaaaaaaaa", "aaaaaaaaa", "bbbbbbbbb"}
	svc.newShortLink = func() string {
		code := codes[0]
		codes = codes[1:]
		return code
	}

	first := f.create(t, f.author, "First")
	second := f.create(t, f.author, "Second")

	assert.Equal(t, "aaaaaaaaa", first.ShortLink)
	assert.Equal(t, "bbbbbbbbb", second.ShortLink)
	assert.Empty(t, codes)
	assert.Equal(t, int64(2), count(t, f.db, &models.Recipe{}, ""))
	assert.Equal(t, int64(2), count(t, f.db, &models.RecipeTag{}, "recipe_id = ?", second.ID))
}

func TestShortLinkExhausted(t *testing.T) {
	f := newRecipeFixture(t)
	svc := f.svc.(*recipeService)
	svc.newShortLink = func() string { return "ccccccccc" }

	f.create(t, f.author, "First")

	_, err := f.svc.CreateRecipe(context.Background(), models.NewActor(f.author), f.input("Second"))
	assert.ErrorIs(t, err, ErrShortLinkExhausted)
	assert.Equal(t, int64(1), count(t, f.db, &models.Recipe{}, ""))
	assert.Equal(t, int64(2), count(t, f.db, &models.RecipeTag{}, ""))
}

func TestResolveShortLink(t *testing.T) {
	f := newRecipeFixture(t)
	view := f.create(t, f.author, "Linked")
	ctx := context.Background()

	id, err := f.svc.ResolveShortLink(ctx, view.ShortLink)
	require.NoError(t, err)
	assert.Equal(t, view.ID, id)

	again, err := f.svc.GetRecipe(ctx, nil, view.ID)
	require.NoError(t, err)
	assert.Equal(t, view.ShortLink, again.ShortLink)

	_, err = f.svc.ResolveShortLink(ctx, "zzzzzzzzz")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateRecipeReplacesSets(t *testing.T) {
	f := newRecipeFixture(t)
	view := f.create(t, f.author, "Original")

	in := RecipeInput{
		Name:        strPtr("Renamed"),
		Tags:        []uint{f.tags[2].ID},
		Ingredients: []IngredientAmount{{IngredientID: f.ingredients[2].ID, Amount: 4}},
	}
	updated, err := f.svc.UpdateRecipe(context.Background(), models.NewActor(f.author), view.ID, in)
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "Mix and cook.", updated.Text)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, f.tags[2].ID, updated.Tags[0].TagID)
	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, 4, updated.Ingredients[0].Amount)
	assert.Equal(t, view.ShortLink, updated.ShortLink)
}

func TestUpdateRecipeWithDuplicateTagsKeepsPriorTags(t *testing.T) {
	f := newRecipeFixture(t)
	view := f.create(t, f.author, "Stable")

	in := RecipeInput{
		Name: strPtr("Should not apply"),
		Tags: []uint{f.tags[0].ID, f.tags[0].ID, f.tags[1].ID},
	}
	_, err := f.svc.UpdateRecipe(context.Background(), models.NewActor(f.author), view.ID, in)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "tags")

	after, err := f.svc.GetRecipe(context.Background(), nil, view.ID)
	require.NoError(t, err)
	assert.Equal(t, "Stable", after.Name)
	require.Len(t, after.Tags, 2)
	assert.ElementsMatch(t, []uint{f.tags[0].ID, f.tags[1].ID}, []uint{after.Tags[0].TagID, after.Tags[1].TagID})
}

func TestJunctionDuplicatesNameTheirField(t *testing.T) {
	f := newRecipeFixture(t)
	view := f.create(t, f.author, "Stew")

	var verr *ValidationError
	err := replaceTags(f.db, view.ID, []uint{f.tags[0].ID, f.tags[0].ID})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "tags")
	assert.NotContains(t, verr.Fields, "ingredients")

	err = replaceIngredients(f.db, view.ID, []IngredientAmount{
		{IngredientID: f.ingredients[0].ID, Amount: 1},
		{IngredientID: f.ingredients[0].ID, Amount: 2},
	})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "ingredients")
}

func TestUpdateRecipeRollsBackOnUnknownIngredient(t *testing.T) {
	f := newRecipeFixture(t)
	view := f.create(t, f.author, "Atomic")

	in := RecipeInput{
		Tags:        []uint{f.tags[2].ID},
		Ingredients: []IngredientAmount{{IngredientID: 9999, Amount: 1}},
	}
	_, err := f.svc.UpdateRecipe(context.Background(), models.NewActor(f.author), view.ID, in)
	require.Error(t, err)

	assert.Equal(t, int64(2), count(t, f.db, &models.RecipeTag{}, "recipe_id = ?", view.ID))
	assert.Equal(t, int64(2), count(t, f.db, &models.RecipeIngredient{}, "recipe_id = ?", view.ID))
}

func TestUpdateAndDeletePermissions(t *testing.T) {
	f := newRecipeFixture(t)
	view := f.create(t, f.author, "Guarded")
	ctx := context.Background()
	in := RecipeInput{Name: strPtr("Hijacked")}

	_, err := f.svc.UpdateRecipe(ctx, nil, view.ID, in)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = f.svc.UpdateRecipe(ctx, models.NewActor(f.other), view.ID, in)
	assert.ErrorIs(t, err, ErrForbidden)

	assert.ErrorIs(t, f.svc.DeleteRecipe(ctx, models.NewActor(f.other), view.ID), ErrForbidden)

	_, err = f.svc.UpdateRecipe(ctx, models.NewActor(f.other), 9999, in)
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := f.svc.UpdateRecipe(ctx, models.NewActor(f.staff), view.ID, RecipeInput{Name: strPtr("Edited by staff")})
	require.NoError(t, err)
	assert.Equal(t, "Edited by staff", updated.Name)
}

func TestDeleteRecipeCascades(t *testing.T) {
	f := newRecipeFixture(t)
	view := f.create(t, f.author, "Doomed")
	ctx := context.Background()

	relations := NewRelationService(f.db)
	_, err := relations.Favorites().Add(ctx, models.NewActor(f.other), view.ID)
	require.NoError(t, err)
	_, err = relations.Cart().Add(ctx, models.NewActor(f.other), view.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteRecipe(ctx, models.NewActor(f.author), view.ID))

	assert.Zero(t, count(t, f.db, &models.Recipe{}, ""))
	assert.Zero(t, count(t, f.db, &models.RecipeIngredient{}, ""))
	assert.Zero(t, count(t, f.db, &models.RecipeTag{}, ""))
	assert.Zero(t, count(t, f.db, &models.FavoriteRecipe{}, ""))
	assert.Zero(t, count(t, f.db, &models.ShoppingCartEntry{}, ""))
	assert.Equal(t, int64(3), count(t, f.db, &models.Ingredient{}, ""))
	assert.Equal(t, int64(3), count(t, f.db, &models.Tag{}, ""))

	_, err = f.svc.GetRecipe(ctx, nil, view.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRecipesAnonymous(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	view := f.create(t, f.author, "Public")

	_, err := NewRelationService(f.db).Favorites().Add(ctx, models.NewActor(f.other), view.ID)
	require.NoError(t, err)

	yes := true
	recipes, total, err := f.svc.ListRecipes(ctx, nil, RecipeFilter{IsFavorited: &yes}, Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, recipes, 1)
	assert.False(t, recipes[0].IsFavorited)
	assert.False(t, recipes[0].IsInShoppingCart)
	assert.False(t, recipes[0].AuthorSubscribed)
}

func TestListRecipesFilters(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	viewer := models.NewActor(f.other)
	relations := NewRelationService(f.db)

	soup := f.create(t, f.author, "Soup")
	cake := f.create(t, f.author, "Cake")
	toast := f.create(t, f.staff, "Toast")

	_, err := f.svc.UpdateRecipe(ctx, models.NewActor(f.author), cake.ID, RecipeInput{Tags: []uint{f.tags[2].ID}})
	require.NoError(t, err)

	_, err = relations.Favorites().Add(ctx, viewer, soup.ID)
	require.NoError(t, err)
	_, err = relations.Cart().Add(ctx, viewer, toast.ID)
	require.NoError(t, err)
	_, err = relations.Subscriptions().Add(ctx, viewer, f.author.ID, 0)
	require.NoError(t, err)

	names := func(views []RecipeView) []string {
		out := make([]string, len(views))
		for i, v := range views {
			out[i] = v.Name
		}
		return out
	}
	yes, no := true, false

	tests := []struct {
		name   string
		filter RecipeFilter
		want   []string
	}{
		{"no filter ordered by name", RecipeFilter{}, []string{"Cake", "Soup", "Toast"}},
		{"author", RecipeFilter{AuthorID: &f.staff.ID}, []string{"Toast"}},
		{"tag slug", RecipeFilter{TagSlugs: []string{"dinner"}}, []string{"Cake"}},
		{"tag slugs are OR", RecipeFilter{TagSlugs: []string{"dinner", "breakfast"}}, []string{"Cake", "Soup", "Toast"}},
		{"favorited", RecipeFilter{IsFavorited: &yes}, []string{"Soup"}},
		{"not favorited", RecipeFilter{IsFavorited: &no}, []string{"Cake", "Toast"}},
		{"in cart", RecipeFilter{IsInShoppingCart: &yes}, []string{"Toast"}},
		{"not in cart", RecipeFilter{IsInShoppingCart: &no}, []string{"Cake", "Soup"}},
		{"favorited and in cart", RecipeFilter{IsFavorited: &yes, IsInShoppingCart: &yes}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			views, total, err := f.svc.ListRecipes(ctx, viewer, tt.filter, Page{Limit: 10})
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(views))
			assert.Equal(t, int64(len(tt.want)), total)
		})
	}

	views, _, err := f.svc.ListRecipes(ctx, viewer, RecipeFilter{}, Page{Limit: 10})
	require.NoError(t, err)
	byName := map[string]RecipeView{}
	for _, v := range views {
		byName[v.Name] = v
	}
	assert.True(t, byName["Soup"].IsFavorited)
	assert.True(t, byName["Soup"].AuthorSubscribed)
	assert.True(t, byName["Toast"].IsInShoppingCart)
	assert.False(t, byName["Toast"].AuthorSubscribed)
}

func TestListRecipesPagination(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		f.create(t, f.author, name)
	}

	views, total, err := f.svc.ListRecipes(ctx, nil, RecipeFilter{}, Page{Number: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, views, 2)
	assert.Equal(t, "C", views[0].Name)
	assert.Equal(t, "D", views[1].Name)
}
