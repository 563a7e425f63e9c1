package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"dailybright/internal/featureflags"
	"dailybright/internal/middleware"
	"dailybright/internal/models"
	"dailybright/internal/observability"
	"dailybright/internal/repository"
	"dailybright/internal/validation"
)

const (
	// RecentEntriesLimit is how many past entries the caller sees.
	RecentEntriesLimit = 5
	// FeedLimit caps the friends feed.
	FeedLimit = 10
	// FeedWindowDays is how far back the friends feed reaches.
	FeedWindowDays = 7
)

// OnTimePolicy decides whether an entry written at now counts as on time.
type OnTimePolicy interface {
	OnTime(state *models.DailyState, now time.Time) bool
}

// AlwaysOnTime counts every entry as on time.
type AlwaysOnTime struct{}

// OnTime implements OnTimePolicy.
func (AlwaysOnTime) OnTime(*models.DailyState, time.Time) bool { return true }

// WithinWindow counts an entry as on time inside [window_start, window_end].
type WithinWindow struct{}

// OnTime implements OnTimePolicy.
func (WithinWindow) OnTime(state *models.DailyState, now time.Time) bool {
	return state.WindowContains(now)
}

// StateResolver resolves the daily state an entry is written against.
type StateResolver interface {
	Resolve(ctx context.Context, user *models.User, now time.Time) (*models.DailyState, *models.Prompt)
}

// EntryService records and reads daily entries.
type EntryService struct {
	entries  repository.EntryRepository
	friends  repository.FriendRepository
	resolver StateResolver
	flags    *featureflags.Manager
}

// NewEntryService returns a new EntryService. A nil flag manager uses the
// built-in flag defaults.
func NewEntryService(
	entries repository.EntryRepository,
	friends repository.FriendRepository,
	resolver StateResolver,
	flags *featureflags.Manager,
) *EntryService {
	if flags == nil {
		flags = featureflags.NewManager("")
	}
	return &EntryService{entries: entries, friends: friends, resolver: resolver, flags: flags}
}

// RecordInput is a submitted response.
type RecordInput struct {
	Text     string
	PhotoURL *string
}

// RecordResult is the stored entry, the prompt it answers and whether the
// call created it.
type RecordResult struct {
	Entry   *models.Entry
	Prompt  *models.Prompt
	Created bool
}

// NormalizeEntryText trims text and enforces the length limits.
func NormalizeEntryText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", models.NewValidationError("Response text is required")
	}
	if utf8.RuneCountInString(text) > models.MaxEntryTextLength {
		return "", models.NewValidationError(fmt.Sprintf("Response text too long (max %d characters)", models.MaxEntryTextLength))
	}
	return text, nil
}

func normalizePhotoURL(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil, nil
	}
	if err := validation.ValidatePhotoURL(trimmed); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	return &trimmed, nil
}

// PolicyFor returns the on-time policy that applies to userID.
func (s *EntryService) PolicyFor(userID uint) OnTimePolicy {
	if s.flags.Enabled(featureflags.OnTimeWindow, userID) {
		return WithinWindow{}
	}
	return AlwaysOnTime{}
}

// Record creates or replaces the user's entry for today's prompt. The prompt
// always comes from the resolved daily state.
func (s *EntryService) Record(ctx context.Context, user *models.User, in RecordInput, now time.Time) (*RecordResult, error) {
	text, err := NormalizeEntryText(in.Text)
	if err != nil {
		return nil, err
	}
	photoURL, err := normalizePhotoURL(in.PhotoURL)
	if err != nil {
		return nil, err
	}

	state, p := s.resolver.Resolve(ctx, user, now)
	if state.Degraded {
		observability.EntriesRecorded.WithLabelValues("unavailable").Inc()
		return nil, models.NewRetryableError("Daily prompt is temporarily unavailable, please try again", nil)
	}

	entry := &models.Entry{
		UserID:   user.ID,
		Date:     state.Date,
		PromptID: state.PromptID,
		Text:     text,
		PhotoURL: photoURL,
		OnTime:   s.PolicyFor(user.ID).OnTime(state, now),
	}
	stored, created, err := s.entries.Upsert(ctx, entry)
	if err != nil {
		observability.EntriesRecorded.WithLabelValues("error").Inc()
		return nil, err
	}

	outcome := "updated"
	if created {
		outcome = "created"
	}
	observability.EntriesRecorded.WithLabelValues(outcome).Inc()
	middleware.Logger.InfoContext(ctx, "entry recorded",
		slog.String("date", stored.Date),
		slog.String("outcome", outcome),
		slog.Bool("on_time", stored.OnTime),
	)

	return &RecordResult{Entry: stored, Prompt: p, Created: created}, nil
}

// Mine returns the user's entry for the prompt of date, or nil.
func (s *EntryService) Mine(ctx context.Context, userID uint, date string, promptID uint) (*models.Entry, error) {
	return s.entries.Get(ctx, userID, date, promptID)
}

// Recent returns the user's latest entries excluding excludeDate.
func (s *EntryService) Recent(ctx context.Context, userID uint, excludeDate string, limit int) ([]models.Entry, error) {
	if limit <= 0 || limit > RecentEntriesLimit {
		limit = RecentEntriesLimit
	}
	return s.entries.RecentForUser(ctx, userID, excludeDate, limit)
}

// FriendsFeed returns accepted friends' entries from the week ending on
// today, the caller's local date.
func (s *EntryService) FriendsFeed(ctx context.Context, userID uint, today string) ([]models.Entry, error) {
	day, err := time.Parse(models.DateLayout, today)
	if err != nil {
		return nil, models.NewValidationError("Invalid date")
	}
	if !s.flags.Enabled(featureflags.FriendsFeed, userID) {
		return []models.Entry{}, nil
	}

	ids, err := s.friends.AcceptedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	since := models.FormatDate(day.AddDate(0, 0, -FeedWindowDays))
	return s.entries.FeedForUsers(ctx, ids, since, FeedLimit)
}
