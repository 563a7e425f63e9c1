package models

import "time"

// DailyState is the per-user, per-date prompt assignment plus the advisory
// reminder window. Exactly one row exists per (user_id, date).
type DailyState struct {
	UserID      uint       `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Date        string     `gorm:"primaryKey;size:10" json:"date"`
	PromptID    uint       `gorm:"not null;index" json:"prompt_id"`
	WindowStart time.Time  `gorm:"not null;index:idx_daily_states_window" json:"window_start"`
	WindowEnd   time.Time  `gorm:"not null;index:idx_daily_states_window" json:"window_end"`
	NotifiedAt  *time.Time `json:"notified_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`

	// Degraded marks an in-memory stand-in returned when the store failed.
	// It is never persisted.
	Degraded bool `gorm:"-" json:"degraded,omitempty"`
}

// TableName specifies the table name for GORM
func (DailyState) TableName() string {
	return "daily_states"
}

// WindowContains reports whether t falls inside [WindowStart, WindowEnd].
func (s *DailyState) WindowContains(t time.Time) bool {
	return !t.Before(s.WindowStart) && !t.After(s.WindowEnd)
}
