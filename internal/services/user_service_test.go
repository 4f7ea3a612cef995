package services

import (
	"context"
	"testing"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerInput(username string) RegisterInput {
	return RegisterInput{
		Email:     username + "@Example.com",
		Username:  username,
		FirstName: "First",
		LastName:  "Last",
		Password:  "password123",
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	user, err := svc.Register(ctx, registerInput("newcook"))
	require.NoError(t, err)
	assert.Equal(t, "newcook@example.com", user.Email)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "password123", user.Password)

	got, err := svc.Authenticate(ctx, "NEWCOOK@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, "newcook@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicateFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput("taken"))
	require.NoError(t, err)

	_, err = svc.Register(ctx, registerInput("taken"))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "username")
}

func TestListUsers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	for _, name := range []string{"carol", "alice", "bob"} {
		testutil.CreateUser(t, db, name, false)
	}

	users, total, err := NewUserService(db).List(context.Background(), Page{Number: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
}

func TestSetPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "changer", false)
	actor := models.NewActor(user)

	var verr *ValidationError
	require.ErrorAs(t, svc.SetPassword(ctx, actor, "wrong", "another-pass"), &verr)
	assert.Contains(t, verr.Fields, "current_password")

	require.NoError(t, svc.SetPassword(ctx, actor, "password123", "another-pass"))
	_, err := svc.Authenticate(ctx, user.Email, "another-pass")
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.SetPassword(ctx, nil, "a", "b"), ErrNotAuthenticated)
}

func TestAvatarLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()
	actor := models.NewActor(testutil.CreateUser(t, db, "face", false))

	user, old, err := svc.SetAvatar(ctx, actor, "avatars/one.png")
	require.NoError(t, err)
	assert.Empty(t, old)
	require.NotNil(t, user.Avatar)
	assert.Equal(t, "avatars/one.png", *user.Avatar)

	_, old, err = svc.SetAvatar(ctx, actor, "avatars/two.png")
	require.NoError(t, err)
	assert.Equal(t, "avatars/one.png", old)

	old, err = svc.ClearAvatar(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, "avatars/two.png", old)

	stored, err := svc.GetUserByID(ctx, actor.UserID)
	require.NoError(t, err)
	assert.Nil(t, stored.Avatar)

	old, err = svc.ClearAvatar(ctx, actor)
	require.NoError(t, err)
	assert.Empty(t, old)
}

func TestDeleteUserRequiresPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "leaver", false)
	actor := models.NewActor(user)

	var verr *ValidationError
	require.ErrorAs(t, svc.Delete(ctx, actor, "wrong"), &verr)

	require.NoError(t, svc.Delete(ctx, actor, "password123"))
	_, err := svc.GetUserByID(ctx, user.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
