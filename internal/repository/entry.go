package repository

import (
	"context"
	"time"

	"dailybright/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EntryRepository stores responses to daily prompts.
type EntryRepository interface {
	Upsert(ctx context.Context, entry *models.Entry) (*models.Entry, bool, error)
	Get(ctx context.Context, userID uint, date string, promptID uint) (*models.Entry, error)
	RecentForUser(ctx context.Context, userID uint, excludeDate string, limit int) ([]models.Entry, error)
	FeedForUsers(ctx context.Context, userIDs []uint, sinceDate string, limit int) ([]models.Entry, error)
}

type entryRepository struct {
	db *gorm.DB
}

// NewEntryRepository returns a new EntryRepository implementation.
func NewEntryRepository(db *gorm.DB) EntryRepository {
	return &entryRepository{db: db}
}

// Upsert inserts entry or, when (user_id, date, prompt_id) already exists,
// replaces its text and photo. on_time and created_at keep their first
// values. The stored row is returned with whether this call created it.
func (r *entryRepository) Upsert(ctx context.Context, entry *models.Entry) (*models.Entry, bool, error) {
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}, {Name: "prompt_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"text", "photo_url", "updated_at"}),
		}).
		Create(entry).Error
	if err != nil {
		return nil, false, models.NewInternalError(err)
	}

	stored, err := r.Get(ctx, entry.UserID, entry.Date, entry.PromptID)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, models.NewInternalError(gorm.ErrRecordNotFound)
	}
	return stored, stored.CreatedAt.Equal(stored.UpdatedAt), nil
}

// Get returns nil, nil when there is no entry for the key.
func (r *entryRepository) Get(ctx context.Context, userID uint, date string, promptID uint) (*models.Entry, error) {
	var entry models.Entry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date = ? AND prompt_id = ?", userID, date, promptID).
		First(&entry).Error
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &entry, nil
}

func (r *entryRepository) RecentForUser(ctx context.Context, userID uint, excludeDate string, limit int) ([]models.Entry, error) {
	var entries []models.Entry
	err := r.db.WithContext(ctx).
		Preload("Prompt").
		Where("user_id = ? AND date <> ?", userID, excludeDate).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}

// FeedForUsers returns entries written by userIDs on or after sinceDate,
// newest first.
func (r *entryRepository) FeedForUsers(ctx context.Context, userIDs []uint, sinceDate string, limit int) ([]models.Entry, error) {
	if len(userIDs) == 0 {
		return []models.Entry{}, nil
	}

	var entries []models.Entry
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Prompt").
		Where("user_id IN ? AND date >= ?", userIDs, sinceDate).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}
