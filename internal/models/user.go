// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User is an account holder. Password is never serialized.
type User struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Email           string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	DisplayName     string    `gorm:"size:50" json:"display_name,omitempty"`
	Timezone        string    `gorm:"size:64" json:"timezone,omitempty"`
	ProfilePhotoURL string    `gorm:"size:1024" json:"profile_photo_url,omitempty"`
	Password        string    `gorm:"not null" json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// BeforeSave keeps emails lower-cased so lookups by email are exact.
func (u *User) BeforeSave(_ *gorm.DB) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return nil
}

// Location returns the user's timezone, or fallback when unset or invalid.
func (u *User) Location(fallback *time.Location) *time.Location {
	if fallback == nil {
		fallback = time.UTC
	}
	if u == nil || u.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}

// UserSummary is the public projection of a user shown to friends.
type UserSummary struct {
	ID              uint   `json:"id"`
	Email           string `json:"email"`
	DisplayName     string `json:"display_name,omitempty"`
	ProfilePhotoURL string `json:"profile_photo_url,omitempty"`
}

// Summary projects the user onto its public fields.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName, ProfilePhotoURL: u.ProfilePhotoURL}
}
