package repository

import (
	"context"

	"dailybright/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PhotoRepository records stored uploads.
type PhotoRepository interface {
	GetByHash(ctx context.Context, userID uint, bucket, hash string) (*models.Photo, error)
	GetByPath(ctx context.Context, userID uint, path string) (*models.Photo, error)
	CreateIfAbsent(ctx context.Context, photo *models.Photo) (*models.Photo, error)
	Delete(ctx context.Context, id uint) error
}

type photoRepository struct {
	db *gorm.DB
}

// NewPhotoRepository returns a new PhotoRepository implementation.
func NewPhotoRepository(db *gorm.DB) PhotoRepository {
	return &photoRepository{db: db}
}

func (r *photoRepository) GetByHash(ctx context.Context, userID uint, bucket, hash string) (*models.Photo, error) {
	return r.first(ctx, "user_id = ? AND bucket = ? AND hash = ?", userID, bucket, hash)
}

func (r *photoRepository) GetByPath(ctx context.Context, userID uint, path string) (*models.Photo, error) {
	return r.first(ctx, "user_id = ? AND path = ?", userID, path)
}

func (r *photoRepository) first(ctx context.Context, query string, args ...any) (*models.Photo, error) {
	var photo models.Photo
	err := r.db.WithContext(ctx).Where(query, args...).First(&photo).Error
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &photo, nil
}

func (r *photoRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Photo{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// CreateIfAbsent stores photo unless the user already uploaded the same
// bytes to the same bucket, and returns whichever row now exists.
func (r *photoRepository) CreateIfAbsent(ctx context.Context, photo *models.Photo) (*models.Photo, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "bucket"}, {Name: "hash"}},
			DoNothing: true,
		}).
		Create(photo).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	stored, err := r.GetByHash(ctx, photo.UserID, photo.Bucket, photo.Hash)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, models.NewInternalError(gorm.ErrRecordNotFound)
	}
	return stored, nil
}
