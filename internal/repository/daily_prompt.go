package repository

import (
	"context"
	"time"

	"dailybright/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DailyPromptRepository binds dates to prompts.
type DailyPromptRepository interface {
	GetByDate(ctx context.Context, date string) (*models.DailyPrompt, error)
	CreateIfAbsent(ctx context.Context, dp *models.DailyPrompt) (bool, error)
	Upsert(ctx context.Context, dp *models.DailyPrompt) error
}

type dailyPromptRepository struct {
	db *gorm.DB
}

// NewDailyPromptRepository returns a new DailyPromptRepository implementation.
func NewDailyPromptRepository(db *gorm.DB) DailyPromptRepository {
	return &dailyPromptRepository{db: db}
}

// GetByDate returns the date's prompt with its text loaded, or nil, nil.
func (r *dailyPromptRepository) GetByDate(ctx context.Context, date string) (*models.DailyPrompt, error) {
	var dp models.DailyPrompt
	err := r.db.WithContext(ctx).Preload("Prompt").Where("date = ?", date).First(&dp).Error
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &dp, nil
}

// CreateIfAbsent inserts dp unless the date already has a prompt. It reports
// whether this call created the row.
func (r *dailyPromptRepository) CreateIfAbsent(ctx context.Context, dp *models.DailyPrompt) (bool, error) {
	result := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}},
			DoNothing: true,
		}).
		Create(dp)
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Upsert replaces the prompt of dp.Date.
func (r *dailyPromptRepository) Upsert(ctx context.Context, dp *models.DailyPrompt) error {
	dp.UpdatedAt = time.Now().UTC()
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"prompt_id", "scheduled_time", "source", "updated_at"}),
		}).
		Create(dp).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
