package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"dailybright/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	tests := []struct {
		name         string
		userID       uint
		mockBehavior func()
		expectedCode string
		expectedMail string
	}{
		{
			name:   "Success",
			userID: 1,
			mockBehavior: func() {
				rows := sqlmock.NewRows([]string{"id", "email", "display_name"}).
					AddRow(1, "test@example.com", "Tess")
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(1, 1).
					WillReturnRows(rows)
			},
			expectedMail: "test@example.com",
		},
		{
			name:   "Not Found",
			userID: 99,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(99, 1).
					WillReturnError(gorm.ErrRecordNotFound)
			},
			expectedCode: models.CodeNotFound,
		},
		{
			name:   "Database Error",
			userID: 2,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
					WillReturnError(errors.New("connection reset"))
			},
			expectedCode: models.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			user, err := repo.GetByID(ctx, tt.userID)

			if tt.expectedCode != "" {
				assert.True(t, models.IsCode(err, tt.expectedCode), "got %v", err)
			} else if assert.NotNil(t, user) {
				assert.Equal(t, tt.expectedMail, user.Email)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByEmail_LowercasesAndTreatsMissingAsNil(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE email = $1`)).
		WithArgs("someone@example.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

	user, err := repo.GetByEmail(context.Background(), "  Someone@Example.COM ")
	assert.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Email: "dup@example.com", Password: "x"}))

	err := repo.Create(ctx, &models.User{Email: "DUP@example.com", Password: "y"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUserRepository_UpdateProfileAndSearch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	me := createUser(t, db)
	other := &models.User{Email: "sunny_day@example.com", DisplayName: "Sunny", Password: "x"}
	require.NoError(t, repo.Create(ctx, other))

	me.DisplayName = "Renamed"
	me.Timezone = "Europe/Paris"
	me.ProfilePhotoURL = "https://api.example.com/uploads/profiles/1/a.webp"
	require.NoError(t, repo.UpdateProfile(ctx, me))

	got, err := repo.GetByID(ctx, me.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.DisplayName)
	assert.Equal(t, "Europe/Paris", got.Timezone)
	assert.Equal(t, "https://api.example.com/uploads/profiles/1/a.webp", got.ProfilePhotoURL)

	me.ProfilePhotoURL = ""
	require.NoError(t, repo.UpdateProfile(ctx, me))
	got, err = repo.GetByID(ctx, me.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ProfilePhotoURL)

	err = repo.UpdateProfile(ctx, &models.User{ID: 9999})
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	found, err := repo.Search(ctx, "SUNNY", me.ID, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, other.ID, found[0].ID)

	// Underscore is literal, not a single-character wildcard.
	found, err = repo.Search(ctx, "y_d", me.ID, 10)
	require.NoError(t, err)
	assert.Len(t, found, 1)
	found, err = repo.Search(ctx, "n_y", me.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = repo.Search(ctx, "sunny", other.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	me := createUser(t, db)

	require.NoError(t, repo.UpdatePassword(ctx, me.ID, "new-hash"))
	got, err := repo.GetByID(ctx, me.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.Password)
	assert.Equal(t, me.Email, got.Email)

	err = repo.UpdatePassword(ctx, 9999, "x")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}
