package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"dailybright/internal/middleware"
	"dailybright/internal/models"
	"dailybright/internal/observability"
	"dailybright/internal/prompt"
	"dailybright/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const (
	// WindowLength is how long a reminder window stays open.
	WindowLength = 2 * time.Hour

	windowFirstHour = 9
	windowHours     = 12

	// degradedPromptID stands in for a prompt when the store is unreachable.
	degradedPromptID = 1
)

// WindowPicker chooses the start of a user's window on the day that begins
// at midnight (local time).
type WindowPicker interface {
	Pick(midnight time.Time) time.Time
}

// WindowPickerFunc adapts a function to WindowPicker.
type WindowPickerFunc func(midnight time.Time) time.Time

// Pick implements WindowPicker.
func (f WindowPickerFunc) Pick(midnight time.Time) time.Time {
	return f(midnight)
}

// RandomWindow picks an hour in [9, 21) and a minute in [0, 60).
var RandomWindow WindowPicker = WindowPickerFunc(func(midnight time.Time) time.Time {
	return time.Date(midnight.Year(), midnight.Month(), midnight.Day(),
		windowFirstHour+rand.IntN(windowHours), rand.IntN(60), 0, 0, midnight.Location())
})

// DailyPromptEnsurer returns the prompt of a calendar day, creating it if
// needed.
type DailyPromptEnsurer interface {
	Ensure(ctx context.Context, date time.Time) (*models.DailyPrompt, bool, error)
}

// DailyStateService resolves each user's prompt assignment for a day.
type DailyStateService struct {
	states     repository.DailyStateRepository
	prompts    repository.PromptRepository
	ensurer    DailyPromptEnsurer
	catalog    *prompt.Catalog
	defaultLoc *time.Location
	picker     WindowPicker
}

// NewDailyStateService returns a new DailyStateService. A nil picker uses
// RandomWindow; a nil location uses UTC.
func NewDailyStateService(
	states repository.DailyStateRepository,
	prompts repository.PromptRepository,
	ensurer DailyPromptEnsurer,
	catalog *prompt.Catalog,
	defaultLoc *time.Location,
	picker WindowPicker,
) *DailyStateService {
	if picker == nil {
		picker = RandomWindow
	}
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &DailyStateService{
		states:     states,
		prompts:    prompts,
		ensurer:    ensurer,
		catalog:    catalog,
		defaultLoc: defaultLoc,
		picker:     picker,
	}
}

// LocalDate returns the user's calendar date at now.
func (s *DailyStateService) LocalDate(user *models.User, now time.Time) string {
	return models.FormatDate(now.In(user.Location(s.defaultLoc)))
}

// Resolve returns the user's state and prompt for the local date at now,
// creating the state on first access. It never fails: when the store is
// unavailable it returns a degraded stand-in built from the catalog.
func (s *DailyStateService) Resolve(ctx context.Context, user *models.User, now time.Time) (*models.DailyState, *models.Prompt) {
	loc := user.Location(s.defaultLoc)
	local := now.In(loc)
	day := models.FormatDate(local)

	span, ctx := observability.StartSpan(ctx, "daily_state.resolve",
		attribute.Int64("user.id", int64(user.ID)),
		attribute.String("daily_state.date", day),
	)
	defer span.End()

	state, p, err := s.resolve(ctx, user.ID, local, day)
	if err != nil {
		span.SetError(err)
		observability.DailyStatesDegraded.Inc()
		middleware.Logger.ErrorContext(ctx, "daily state unavailable, serving catalog fallback",
			slog.String("date", day),
			slog.String("error", err.Error()),
		)
		return s.degraded(user.ID, local, day, now)
	}

	state.WindowStart = state.WindowStart.In(loc)
	state.WindowEnd = state.WindowEnd.In(loc)
	return state, p
}

func (s *DailyStateService) resolve(ctx context.Context, userID uint, local time.Time, day string) (*models.DailyState, *models.Prompt, error) {
	state, err := s.states.Get(ctx, userID, day)
	if err != nil {
		return nil, nil, err
	}

	if state == nil {
		dp, _, err := s.ensurer.Ensure(ctx, local)
		if err != nil {
			return nil, nil, fmt.Errorf("ensure daily prompt: %w", err)
		}

		midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
		start := s.picker.Pick(midnight)
		candidate := &models.DailyState{
			UserID:      userID,
			Date:        day,
			PromptID:    dp.PromptID,
			WindowStart: start,
			WindowEnd:   start.Add(WindowLength),
		}

		created, err := s.states.CreateIfAbsent(ctx, candidate)
		if err != nil {
			return nil, nil, err
		}
		if created {
			observability.DailyStatesCreated.Inc()
		}

		state, err = s.states.Get(ctx, userID, day)
		if err != nil {
			return nil, nil, err
		}
		if state == nil {
			return nil, nil, fmt.Errorf("daily state for user %d on %s vanished after insert", userID, day)
		}
	}

	p, err := s.prompts.GetByID(ctx, state.PromptID)
	if err != nil {
		return nil, nil, err
	}
	return state, p, nil
}

func (s *DailyStateService) degraded(userID uint, local time.Time, day string, now time.Time) (*models.DailyState, *models.Prompt) {
	entry := s.catalog.ForDate(local)
	state := &models.DailyState{
		UserID:      userID,
		Date:        day,
		PromptID:    degradedPromptID,
		WindowStart: now,
		WindowEnd:   now,
		Degraded:    true,
	}
	p := &models.Prompt{
		ID:   degradedPromptID,
		Text: entry.Text,
		Tags: entry.SeedTags(),
	}
	return state, p
}

// MarkNotified records the first reminder for the user's date and reports
// whether this call set it.
func (s *DailyStateService) MarkNotified(ctx context.Context, userID uint, date string, at time.Time) (bool, error) {
	return s.states.MarkNotified(ctx, userID, date, at)
}

// DueForReminder lists states whose window is open at now and that were not
// notified yet.
func (s *DailyStateService) DueForReminder(ctx context.Context, now time.Time, limit int) ([]models.DailyState, error) {
	return s.states.DueForReminder(ctx, now, limit)
}
