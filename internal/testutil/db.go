// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/franciscosanchezn/gin-recipe-api/internal/database"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens an isolated in-memory SQLite database with foreign keys
// enabled and every table migrated.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := database.DatabaseConfig{
		Driver: "sqlite",
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String()),
	}
	db, err := gorm.Open(sqlite.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// CreateUser inserts an active user with password "password123".
func CreateUser(t *testing.T, db *gorm.DB, username string, staff bool) *models.User {
	t.Helper()

	u := &models.User{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: username,
		LastName:  "Tester",
		IsStaff:   staff,
		IsActive:  true,
	}
	require.NoError(t, u.SetPassword("password123"))
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateTag inserts a tag; the slug is derived from the name.
func CreateTag(t *testing.T, db *gorm.DB, name string) *models.Tag {
	t.Helper()

	tag := &models.Tag{Name: name}
	require.NoError(t, db.Create(tag).Error)
	return tag
}

// CreateIngredient inserts a reference ingredient.
func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()

	ing := &models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, db.Create(ing).Error)
	return ing
}
