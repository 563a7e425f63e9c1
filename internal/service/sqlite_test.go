package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"dailybright/internal/database"
	"dailybright/internal/models"
	"dailybright/internal/prompt"
	"dailybright/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

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

func createUser(t *testing.T, db *gorm.DB, tz string) *models.User {
	t.Helper()
	u := &models.User{Email: gofakeit.Email(), DisplayName: gofakeit.FirstName(), Timezone: tz, Password: "hash"}
	require.NoError(t, db.Create(u).Error)
	return u
}

// fixedProvider returns the same result for every date.
type fixedProvider struct {
	mu     sync.Mutex
	result prompt.Result
	calls  int
	recent []string
}

func (p *fixedProvider) Prompt(_ context.Context, _ time.Time, recent []string) prompt.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.recent = recent
	return p.result
}

type promptStack struct {
	db           *gorm.DB
	prompts      repository.PromptRepository
	dailyPrompts repository.DailyPromptRepository
	states       repository.DailyStateRepository
	daily        *DailyPromptService
	resolver     *DailyStateService
}

func newPromptStack(t *testing.T, provider prompt.Provider, picker WindowPicker) *promptStack {
	t.Helper()
	db := setupTestDB(t)
	st := &promptStack{
		db:           db,
		prompts:      repository.NewPromptRepository(db),
		dailyPrompts: repository.NewDailyPromptRepository(db),
		states:       repository.NewDailyStateRepository(db),
	}
	st.daily = NewDailyPromptService(st.prompts, st.dailyPrompts, st.states, provider, nil)
	st.resolver = NewDailyStateService(st.states, st.prompts, st.daily, prompt.DefaultCatalog(), time.UTC, picker)
	return st
}
