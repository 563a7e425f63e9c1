// Package scheduler runs the daily prompt job and the reminder sweep on cron
// schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dailybright/internal/config"
	"dailybright/internal/middleware"
	"dailybright/internal/models"
	"dailybright/internal/notifications"
	"dailybright/internal/observability"

	"github.com/robfig/cron/v3"
)

// Job names, used in logs and metrics.
const (
	JobDailyPrompt   = "daily-prompt"
	JobReminderSweep = "reminder-sweep"
)

const (
	defaultJobTimeout = 5 * time.Minute
	reminderBatchSize = 500
)

// PromptEnsurer creates the prompt of a day if it does not exist.
type PromptEnsurer interface {
	Ensure(ctx context.Context, date time.Time) (*models.DailyPrompt, bool, error)
}

// ReminderStore finds open windows and records delivered reminders.
type ReminderStore interface {
	DueForReminder(ctx context.Context, now time.Time, limit int) ([]models.DailyState, error)
	MarkNotified(ctx context.Context, userID uint, date string, at time.Time) (bool, error)
}

// Publisher delivers a user-scoped event.
type Publisher interface {
	PublishEvent(ctx context.Context, userID uint, eventType string, payload any) error
}

// Config holds the cron specs. Empty specs disable their job.
type Config struct {
	DailyPromptSpec string
	ReminderSpec    string
	JobTimeout      time.Duration
}

// ConfigFrom reads the job specs from application config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		DailyPromptSpec: cfg.DailyPromptCron,
		ReminderSpec:    cfg.ReminderSweepInterval,
	}
}

// Scheduler wraps a cron runner with the application's jobs.
type Scheduler struct {
	cfg       Config
	cron      *cron.Cron
	prompts   PromptEnsurer
	reminders ReminderStore
	publisher Publisher
	now       func() time.Time
}

// New creates a scheduler. Schedules are evaluated in UTC.
func New(cfg Config, prompts PromptEnsurer, reminders ReminderStore, publisher Publisher) *Scheduler {
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = defaultJobTimeout
	}
	logger := cronLogger{}
	return &Scheduler{
		cfg: cfg,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		prompts:   prompts,
		reminders: reminders,
		publisher: publisher,
		now:       time.Now,
	}
}

// Start registers the jobs and starts the runner in its own goroutine.
func (s *Scheduler) Start() error {
	if s.cfg.DailyPromptSpec != "" {
		if _, err := s.cron.AddFunc(s.cfg.DailyPromptSpec, func() { s.run(JobDailyPrompt, s.RunDailyPrompt) }); err != nil {
			return fmt.Errorf("schedule %s %q: %w", JobDailyPrompt, s.cfg.DailyPromptSpec, err)
		}
	}
	if s.cfg.ReminderSpec != "" {
		if _, err := s.cron.AddFunc(s.cfg.ReminderSpec, func() { s.run(JobReminderSweep, s.runReminderSweep) }); err != nil {
			return fmt.Errorf("schedule %s %q: %w", JobReminderSweep, s.cfg.ReminderSpec, err)
		}
	}

	s.cron.Start()
	middleware.Logger.Info("scheduler started",
		slog.String("daily_prompt", s.cfg.DailyPromptSpec),
		slog.String("reminder_sweep", s.cfg.ReminderSpec),
	)
	return nil
}

// Stop stops scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	middleware.Logger.Info("scheduler stopped")
}

func (s *Scheduler) run(job string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(middleware.WithJob(context.Background(), job), s.cfg.JobTimeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	result := "success"
	if err != nil {
		result = "error"
		middleware.Logger.ErrorContext(ctx, "scheduled job failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)),
		)
	}
	observability.SchedulerJobRuns.WithLabelValues(job, result).Inc()
}

// RunDailyPrompt ensures today's (UTC) prompt exists.
func (s *Scheduler) RunDailyPrompt(ctx context.Context) error {
	dp, created, err := s.prompts.Ensure(ctx, s.now().UTC())
	if err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "daily prompt ensured",
		slog.String("date", dp.Date),
		slog.Bool("created", created),
	)
	return nil
}

// RunReminderSweep notifies every user whose window is open and returns how
// many reminders were sent. A state is claimed before publishing, so
// overlapping sweeps never notify twice.
func (s *Scheduler) RunReminderSweep(ctx context.Context) (int, error) {
	now := s.now().UTC()
	due, err := s.reminders.DueForReminder(ctx, now, reminderBatchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, state := range due {
		claimed, err := s.reminders.MarkNotified(ctx, state.UserID, state.Date, now)
		if err != nil {
			return sent, err
		}
		if !claimed {
			continue
		}

		payload := map[string]any{
			"date":       state.Date,
			"prompt_id":  state.PromptID,
			"window_end": state.WindowEnd,
		}
		if err := s.publisher.PublishEvent(ctx, state.UserID, notifications.EventDailyPromptReminder, payload); err != nil {
			middleware.Logger.WarnContext(ctx, "reminder publish failed",
				slog.Uint64("user_id", uint64(state.UserID)),
				slog.String("error", err.Error()),
			)
			continue
		}
		sent++
		observability.RemindersSent.Inc()
	}

	if len(due) > 0 {
		middleware.Logger.InfoContext(ctx, "reminder sweep finished",
			slog.Int("due", len(due)),
			slog.Int("sent", sent),
		)
	}
	return sent, nil
}

func (s *Scheduler) runReminderSweep(ctx context.Context) error {
	_, err := s.RunReminderSweep(ctx)
	return err
}

// cronLogger routes cron's internal logging through slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	middleware.Logger.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	middleware.Logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
