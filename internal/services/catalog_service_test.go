package services

import (
	"context"
	"testing"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagService(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewTagService(db)
	ctx := context.Background()

	tag, err := svc.CreateTag(ctx, "  Quick Dinner ", "")
	require.NoError(t, err)
	assert.Equal(t, "Quick Dinner", tag.Name)
	assert.Equal(t, "quick-dinner", tag.Slug)

	custom, err := svc.CreateTag(ctx, "Brunch", "late_breakfast")
	require.NoError(t, err)
	assert.Equal(t, "late_breakfast", custom.Slug)

	_, err = svc.CreateTag(ctx, "Quick Dinner", "other")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, tag.ID, tags[0].ID)

	got, err := svc.GetTagByID(ctx, custom.ID)
	require.NoError(t, err)
	assert.Equal(t, "Brunch", got.Name)

	_, err = svc.GetTagByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIngredientPrefixSearch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewIngredientService(db)
	ctx := context.Background()

	for _, name := range []string{"Sugar", "salt", "sour cream", "butter", "100% juice", "1000 island"} {
		_, err := svc.CreateIngredient(ctx, name, "g")
		require.NoError(t, err)
	}

	names := func(prefix string) []string {
		items, err := svc.ListIngredients(ctx, prefix)
		require.NoError(t, err)
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = item.Name
		}
		return out
	}

	assert.Equal(t, []string{"Sugar", "salt", "sour cream"}, names("s"))
	assert.Equal(t, []string{"salt"}, names("SA"))
	assert.Equal(t, []string{"100% juice"}, names("100%"))
	assert.Empty(t, names("cream"))
	assert.Len(t, names(""), 6)

	_, err := svc.CreateIngredient(ctx, "salt", "kg")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = svc.GetIngredientByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestImportIngredients(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewIngredientService(db)
	ctx := context.Background()
	testutil.CreateIngredient(t, db, "salt", "g")

	created, err := svc.ImportIngredients(ctx, []models.Ingredient{
		{Name: " salt ", MeasurementUnit: "kg"},
		{Name: "sugar", MeasurementUnit: "g"},
		{Name: "", MeasurementUnit: "g"},
		{Name: "water", MeasurementUnit: " ml "},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), created)

	all, err := svc.ListIngredients(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "g", all[0].MeasurementUnit, "existing salt keeps its unit")
	assert.Equal(t, "ml", all[2].MeasurementUnit)

	created, err = svc.ImportIngredients(ctx, []models.Ingredient{{Name: "sugar", MeasurementUnit: "g"}})
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestEnsureClient(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewClientService(db)
	ctx := context.Background()

	client, err := svc.EnsureClient(ctx, "web", "", "Web")
	require.NoError(t, err)
	assert.True(t, client.IsPublic())
	assert.Equal(t, FirstPartyGrantTypes, client.GrantTypes)

	client, err = svc.EnsureClient(ctx, "web", "s3cret", "Web")
	require.NoError(t, err)
	assert.False(t, client.IsPublic())
	assert.True(t, client.VerifyPassword("s3cret"))
	hash := client.Secret

	client, err = svc.EnsureClient(ctx, "web", "s3cret", "Web")
	require.NoError(t, err)
	assert.Equal(t, hash, client.Secret)

	stored, err := svc.GetClientByID(ctx, "web")
	require.NoError(t, err)
	assert.True(t, stored.VerifyPassword("s3cret"))
	assert.False(t, stored.VerifyPassword("other"))

	require.NoError(t, svc.DeleteClient(ctx, "web"))
	assert.ErrorIs(t, svc.DeleteClient(ctx, "web"), ErrNotFound)
}

func TestCreateClient(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewClientService(db)
	ctx := context.Background()
	staff := testutil.CreateUser(t, db, "admin", true)
	other := testutil.CreateUser(t, db, "other", false)

	_, _, err := svc.CreateClient(ctx, nil, ClientInput{Name: "worker"})
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	client, secret, err := svc.CreateClient(ctx, models.NewActor(staff), ClientInput{Name: " worker "})
	require.NoError(t, err)
	assert.Equal(t, "worker", client.Name)
	assert.Equal(t, ServiceGrantTypes, client.GrantTypes)
	assert.Equal(t, "read", client.Scopes)
	assert.Equal(t, staff.ID, client.UserID)
	assert.NotEqual(t, secret, client.Secret)
	assert.True(t, client.VerifyPassword(secret))

	_, _, err = svc.CreateClient(ctx, models.NewActor(staff), ClientInput{Name: "bad", GrantTypes: "implicit"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "grant_types")

	mine, err := svc.ListClients(ctx, models.NewActor(staff))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, client.ID, mine[0].ID)

	theirs, err := svc.ListClients(ctx, models.NewActor(other))
	require.NoError(t, err)
	assert.Empty(t, theirs)
}
