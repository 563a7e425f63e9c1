package repository

import (
	"context"
	"time"

	"dailybright/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DailyStateRepository stores per-user daily assignments. Times are stored
// in UTC so window comparisons behave the same on every driver.
type DailyStateRepository interface {
	Get(ctx context.Context, userID uint, date string) (*models.DailyState, error)
	CreateIfAbsent(ctx context.Context, state *models.DailyState) (bool, error)
	MarkNotified(ctx context.Context, userID uint, date string, at time.Time) (bool, error)
	DueForReminder(ctx context.Context, now time.Time, limit int) ([]models.DailyState, error)
	RepointDate(ctx context.Context, date string, promptID uint) (int64, error)
}

type dailyStateRepository struct {
	db *gorm.DB
}

// NewDailyStateRepository returns a new DailyStateRepository implementation.
func NewDailyStateRepository(db *gorm.DB) DailyStateRepository {
	return &dailyStateRepository{db: db}
}

// Get returns nil, nil when the user has no state for date.
func (r *dailyStateRepository) Get(ctx context.Context, userID uint, date string) (*models.DailyState, error) {
	var state models.DailyState
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		First(&state).Error
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &state, nil
}

// CreateIfAbsent inserts state unless (user_id, date) exists and reports
// whether this call created it.
func (r *dailyStateRepository) CreateIfAbsent(ctx context.Context, state *models.DailyState) (bool, error) {
	state.WindowStart = state.WindowStart.UTC()
	state.WindowEnd = state.WindowEnd.UTC()

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoNothing: true,
		}).
		Create(state)
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// MarkNotified sets notified_at once; later calls leave the first value.
func (r *dailyStateRepository) MarkNotified(ctx context.Context, userID uint, date string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.DailyState{}).
		Where("user_id = ? AND date = ? AND notified_at IS NULL", userID, date).
		Update("notified_at", at.UTC())
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// DueForReminder returns un-notified states whose window contains now.
func (r *dailyStateRepository) DueForReminder(ctx context.Context, now time.Time, limit int) ([]models.DailyState, error) {
	now = now.UTC()

	var states []models.DailyState
	err := r.db.WithContext(ctx).
		Where("window_start <= ? AND window_end >= ? AND notified_at IS NULL", now, now).
		Order("window_start ASC").
		Limit(limit).
		Find(&states).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return states, nil
}

// RepointDate moves every state of date to promptID. Only the admin
// override uses it.
func (r *dailyStateRepository) RepointDate(ctx context.Context, date string, promptID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.DailyState{}).
		Where("date = ?", date).
		Update("prompt_id", promptID)
	if result.Error != nil {
		return 0, models.NewInternalError(result.Error)
	}
	return result.RowsAffected, nil
}
