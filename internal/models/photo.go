package models

import "time"

// Photo buckets.
const (
	PhotoBucketEntries  = "entries"
	PhotoBucketProfiles = "profiles"
)

// Photo is an uploaded image re-encoded to WebP and stored on disk.
type Photo struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_photos_user_bucket_hash,priority:1" json:"user_id"`
	Bucket      string    `gorm:"size:16;not null;uniqueIndex:idx_photos_user_bucket_hash,priority:2" json:"bucket"`
	Hash        string    `gorm:"size:64;not null;uniqueIndex:idx_photos_user_bucket_hash,priority:3" json:"hash"`
	Path        string    `gorm:"size:512;not null" json:"path"`
	ContentType string    `gorm:"size:64;not null" json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Photo) TableName() string {
	return "photos"
}
