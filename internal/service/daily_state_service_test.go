package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"dailybright/internal/models"
	"dailybright/internal/prompt"
	"dailybright/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedWindow(hour, minute int) WindowPicker {
	return WindowPickerFunc(func(midnight time.Time) time.Time {
		return time.Date(midnight.Year(), midnight.Month(), midnight.Day(), hour, minute, 0, 0, midnight.Location())
	})
}

func TestDailyStateService_ResolveCreatesOnceInLocalCalendar(t *testing.T) {
	now := time.Date(2026, 4, 2, 2, 30, 0, 0, time.UTC) // still April 1 in New York
	st := newPromptStack(t, &fixedProvider{result: catalogResult(now)}, fixedWindow(14, 45))
	ctx := context.Background()
	user := createUser(t, st.db, "America/New_York")

	state, p := st.resolver.Resolve(ctx, user, now)
	require.False(t, state.Degraded)
	assert.Equal(t, "2026-04-01", state.Date)
	assert.Equal(t, "America/New_York", state.WindowStart.Location().String())
	assert.Equal(t, 14, state.WindowStart.Hour())
	assert.Equal(t, 45, state.WindowStart.Minute())
	assert.Equal(t, WindowLength, state.WindowEnd.Sub(state.WindowStart))
	assert.Equal(t, state.PromptID, p.ID)

	again, p2 := st.resolver.Resolve(ctx, user, now.Add(time.Hour))
	assert.Equal(t, state.PromptID, again.PromptID)
	assert.True(t, state.WindowStart.Equal(again.WindowStart))
	assert.Equal(t, p.Text, p2.Text)

	assert.Equal(t, "2026-04-01", st.resolver.LocalDate(user, now))
}

func TestDailyStateService_ConcurrentResolveConverges(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	st := newPromptStack(t, &fixedProvider{result: catalogResult(now)}, nil)
	user := createUser(t, st.db, "")

	const callers = 8
	results := make([]*models.DailyState, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = st.resolver.Resolve(context.Background(), user, now)
		}()
	}
	wg.Wait()

	for _, r := range results {
		require.False(t, r.Degraded)
		assert.True(t, results[0].WindowStart.Equal(r.WindowStart))
		assert.Equal(t, results[0].PromptID, r.PromptID)
	}

	var count int64
	st.db.Model(&models.DailyState{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRandomWindow_StaysInRange(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	midnight := time.Date(2026, 4, 1, 0, 0, 0, 0, loc)

	for range 500 {
		start := RandomWindow.Pick(midnight)
		assert.Equal(t, loc, start.Location())
		assert.GreaterOrEqual(t, start.Hour(), 9)
		assert.Less(t, start.Hour(), 21)
		assert.Equal(t, 1, start.Day())
	}
}

type failingStates struct {
	repository.DailyStateRepository
}

func (failingStates) Get(context.Context, uint, string) (*models.DailyState, error) {
	return nil, models.NewInternalError(errStore)
}

func TestDailyStateService_DegradesOnStoreFailure(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	catalog := prompt.DefaultCatalog()
	svc := NewDailyStateService(failingStates{}, nil, nil, catalog, time.UTC, nil)

	state, p := svc.Resolve(context.Background(), &models.User{ID: 5}, now)
	assert.True(t, state.Degraded)
	assert.Equal(t, uint(1), state.PromptID)
	assert.Equal(t, uint(5), state.UserID)
	assert.Equal(t, "2026-04-01", state.Date)
	assert.True(t, state.WindowStart.Equal(now))
	assert.True(t, state.WindowEnd.Equal(now))
	assert.Equal(t, catalog.ForDate(now).Text, p.Text)
}

func TestDailyStateService_ReminderBookkeeping(t *testing.T) {
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	st := newPromptStack(t, &fixedProvider{result: catalogResult(now)}, fixedWindow(10, 0))
	ctx := context.Background()
	user := createUser(t, st.db, "")

	state, _ := st.resolver.Resolve(ctx, user, now)
	require.False(t, state.Degraded)

	due, err := st.resolver.DueForReminder(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	inside := time.Date(2026, 4, 1, 11, 0, 0, 0, time.UTC)
	due, err = st.resolver.DueForReminder(ctx, inside, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)

	ok, err := st.resolver.MarkNotified(ctx, user.ID, due[0].Date, inside)
	require.NoError(t, err)
	assert.True(t, ok)

	due, err = st.resolver.DueForReminder(ctx, inside, 10)
	require.NoError(t, err)
	assert.Empty(t, due)
}
