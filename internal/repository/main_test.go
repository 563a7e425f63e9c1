package repository

import (
	"testing"

	"dailybright/internal/database"
	"dailybright/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a private in-memory sqlite database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	u := &models.User{
		Email:       gofakeit.Email(),
		DisplayName: gofakeit.FirstName(),
		Password:    "hash",
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createPrompt(t *testing.T, db *gorm.DB, text string) *models.Prompt {
	t.Helper()
	p := &models.Prompt{Text: text, Tags: models.NewStringSet(models.TagDaily)}
	require.NoError(t, db.Create(p).Error)
	return p
}
