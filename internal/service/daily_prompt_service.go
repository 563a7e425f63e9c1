package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"

	"dailybright/internal/cache"
	"dailybright/internal/middleware"
	"dailybright/internal/models"
	"dailybright/internal/prompt"
	"dailybright/internal/repository"
)

const (
	// ensureRecentLimit is how many past prompts the daily job hands to the
	// generator to avoid repeats.
	ensureRecentLimit = 50
	// generateRecentLimit and generateRecentShown bound on-demand generation.
	generateRecentLimit = 30
	generateRecentShown = 10

	// MaxOverrideLength caps administrator-supplied prompt text.
	MaxOverrideLength = 500

	scheduleFirstHour = 9
	scheduleHours     = 12
	overrideTime      = "00:00:00"
)

var errNoDailyPrompt = errors.New("no daily prompt for date")

// DailyPromptService owns the global prompt of each calendar date.
type DailyPromptService struct {
	prompts      repository.PromptRepository
	dailyPrompts repository.DailyPromptRepository
	states       repository.DailyStateRepository
	provider     prompt.Provider
	cache        *cache.Store
	intN         func(n int) int
}

// NewDailyPromptService returns a new DailyPromptService. store may be nil.
func NewDailyPromptService(
	prompts repository.PromptRepository,
	dailyPrompts repository.DailyPromptRepository,
	states repository.DailyStateRepository,
	provider prompt.Provider,
	store *cache.Store,
) *DailyPromptService {
	return &DailyPromptService{
		prompts:      prompts,
		dailyPrompts: dailyPrompts,
		states:       states,
		provider:     provider,
		cache:        store,
		intN:         rand.IntN,
	}
}

// Today returns the prompt bound to date, or nil when none exists yet.
func (s *DailyPromptService) Today(ctx context.Context, date string) (*models.DailyPrompt, error) {
	var dp models.DailyPrompt
	err := s.cache.Aside(ctx, cache.DailyPromptKey(date), &dp, cache.DailyPromptTTL, func() error {
		found, err := s.dailyPrompts.GetByDate(ctx, date)
		if err != nil {
			return err
		}
		if found == nil {
			return errNoDailyPrompt
		}
		dp = *found
		return nil
	})
	if errors.Is(err, errNoDailyPrompt) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &dp, nil
}

// Ensure returns the prompt of date's calendar day, creating it when it does
// not exist. created is false when another caller got there first, so
// repeated invocations for one day are harmless.
func (s *DailyPromptService) Ensure(ctx context.Context, date time.Time) (*models.DailyPrompt, bool, error) {
	day := models.FormatDate(date)

	existing, err := s.Today(ctx, day)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	recent, err := s.prompts.RecentTexts(ctx, ensureRecentLimit)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "loading recent prompts failed", slog.String("error", err.Error()))
		recent = nil
	}

	res := s.provider.Prompt(ctx, date, recent)
	p, fresh, err := s.persist(ctx, res)
	if err != nil {
		return nil, false, err
	}

	dp := &models.DailyPrompt{
		Date:          day,
		PromptID:      p.ID,
		ScheduledTime: s.scheduledTime(),
		Source:        res.Source,
	}
	created, err := s.dailyPrompts.CreateIfAbsent(ctx, dp)
	if err != nil {
		return nil, false, err
	}

	stored, err := s.dailyPrompts.GetByDate(ctx, day)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, models.NewInternalError(fmt.Errorf("daily prompt for %s vanished after insert", day))
	}

	// Another caller bound the date first; drop the prompt this call stored
	// so it does not show up as recent history.
	if !created && fresh && stored.PromptID != p.ID {
		if err := s.prompts.Delete(ctx, p.ID); err != nil {
			middleware.Logger.WarnContext(ctx, "removing unused prompt failed",
				slog.Uint64("prompt_id", uint64(p.ID)),
				slog.String("error", err.Error()),
			)
		}
	}

	if created {
		middleware.Logger.InfoContext(ctx, "daily prompt created",
			slog.String("date", day),
			slog.String("source", string(res.Source)),
			slog.Uint64("prompt_id", uint64(stored.PromptID)),
		)
		s.cache.Invalidate(ctx, cache.DailyPromptKey(day))
	}
	return stored, created, nil
}

// Generate produces a fresh prompt without binding it to a date. Generated
// text is stored; catalog fallbacks are returned as they are.
func (s *DailyPromptService) Generate(ctx context.Context, now time.Time) (prompt.Result, error) {
	recent, err := s.prompts.RecentTexts(ctx, generateRecentLimit)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "loading recent prompts failed", slog.String("error", err.Error()))
		recent = nil
	}
	if len(recent) > generateRecentShown {
		recent = recent[:generateRecentShown]
	}

	res := s.provider.Prompt(ctx, now, recent)
	if res.Generated() {
		p := &models.Prompt{Text: res.Text, Tags: res.Tags}
		if err := s.prompts.Create(ctx, p); err != nil {
			return prompt.Result{}, err
		}
	}
	return res, nil
}

// Override replaces date's prompt with text and moves every user already
// assigned that date onto it.
func (s *DailyPromptService) Override(ctx context.Context, date time.Time, text string) (*models.DailyPrompt, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewValidationError("Prompt text is required")
	}
	if utf8.RuneCountInString(text) > MaxOverrideLength {
		return nil, models.NewValidationError(fmt.Sprintf("Prompt text too long (max %d characters)", MaxOverrideLength))
	}

	day := models.FormatDate(date)
	p := &models.Prompt{Text: text, Tags: models.NewStringSet(models.TagDaily, models.TagAdminOverride)}
	if err := s.prompts.Create(ctx, p); err != nil {
		return nil, err
	}

	dp := &models.DailyPrompt{
		Date:          day,
		PromptID:      p.ID,
		ScheduledTime: overrideTime,
		Source:        models.DailyPromptSourceAdmin,
	}
	if err := s.dailyPrompts.Upsert(ctx, dp); err != nil {
		return nil, err
	}

	moved, err := s.states.RepointDate(ctx, day, p.ID)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.DailyPromptKey(day))

	middleware.Logger.InfoContext(ctx, "daily prompt overridden",
		slog.String("date", day),
		slog.Uint64("prompt_id", uint64(p.ID)),
		slog.Int64("states_moved", moved),
	)

	dp.Prompt = *p
	return dp, nil
}

// persist stores generated text as a new prompt and reuses the stored copy
// of a catalog entry when there is one. fresh reports whether a row was
// inserted.
func (s *DailyPromptService) persist(ctx context.Context, res prompt.Result) (p *models.Prompt, fresh bool, err error) {
	if !res.Generated() {
		existing, err := s.prompts.FindByText(ctx, res.Text)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, false, nil
		}
	}

	p = &models.Prompt{Text: res.Text, Tags: res.Tags}
	if err := s.prompts.Create(ctx, p); err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// scheduledTime picks a random minute between 09:00 and 20:59.
func (s *DailyPromptService) scheduledTime() string {
	hour := scheduleFirstHour + s.intN(scheduleHours)
	minute := s.intN(60)
	return fmt.Sprintf("%02d:%02d:00", hour, minute)
}
