package models

import "time"

// DateLayout is the calendar-date format used for every date column.
const DateLayout = "2006-01-02"

// DailyPromptSource records how the prompt of a date was chosen.
type DailyPromptSource string

const (
	DailyPromptSourceAI      DailyPromptSource = "ai"
	DailyPromptSourceCatalog DailyPromptSource = "catalog"
	DailyPromptSourceAdmin   DailyPromptSource = "admin"
)

// DailyPrompt binds a calendar date to the prompt everyone receives that day.
type DailyPrompt struct {
	Date          string            `gorm:"primaryKey;size:10" json:"date"`
	PromptID      uint              `gorm:"not null;index" json:"prompt_id"`
	ScheduledTime string            `gorm:"size:8;not null" json:"scheduled_time"`
	Source        DailyPromptSource `gorm:"size:16;not null" json:"source"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`

	Prompt Prompt `gorm:"foreignKey:PromptID" json:"prompt"`
}

// TableName specifies the table name for GORM
func (DailyPrompt) TableName() string {
	return "daily_prompts"
}

// FormatDate renders t's calendar date in its own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
