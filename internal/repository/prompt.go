package repository

import (
	"context"

	"dailybright/internal/models"

	"gorm.io/gorm"
)

// PromptRepository stores the append-only prompt history.
type PromptRepository interface {
	Create(ctx context.Context, prompt *models.Prompt) error
	GetByID(ctx context.Context, id uint) (*models.Prompt, error)
	FindByText(ctx context.Context, text string) (*models.Prompt, error)
	RecentTexts(ctx context.Context, limit int) ([]string, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uint) error
}

type promptRepository struct {
	db *gorm.DB
}

// NewPromptRepository returns a new PromptRepository implementation.
func NewPromptRepository(db *gorm.DB) PromptRepository {
	return &promptRepository{db: db}
}

func (r *promptRepository) Create(ctx context.Context, prompt *models.Prompt) error {
	if err := r.db.WithContext(ctx).Create(prompt).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *promptRepository) GetByID(ctx context.Context, id uint) (*models.Prompt, error) {
	var prompt models.Prompt
	if err := r.db.WithContext(ctx).First(&prompt, id).Error; err != nil {
		if notFound(err) {
			return nil, models.NewNotFoundError("Prompt", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &prompt, nil
}

// FindByText returns the oldest prompt with exactly text, or nil, nil.
func (r *promptRepository) FindByText(ctx context.Context, text string) (*models.Prompt, error) {
	var prompt models.Prompt
	err := r.db.WithContext(ctx).Where("text = ?", text).Order("id ASC").First(&prompt).Error
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &prompt, nil
}

// RecentTexts returns prompt texts newest first.
func (r *promptRepository) RecentTexts(ctx context.Context, limit int) ([]string, error) {
	var texts []string
	err := r.db.WithContext(ctx).
		Model(&models.Prompt{}).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Pluck("text", &texts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return texts, nil
}

func (r *promptRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Prompt{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

// Delete removes a prompt nothing references yet.
func (r *promptRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Prompt{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
